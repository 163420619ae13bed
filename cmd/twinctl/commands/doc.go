// Package commands defines the twinctl CLI.
//
// Commands
//
//   - describe   Print the merged host and remote descriptors of a manifest
//   - simulate   Construct an object against an in-process remote runtime
//     and print every command exchanged
//
// The root command loads settings (file, then TWINMESH_ environment) before
// any subcommand runs.
package commands
