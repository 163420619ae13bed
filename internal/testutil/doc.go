// Package testutil contains helpers shared by the package tests: a manually
// fired scheduler, a command recorder standing in for a session, and a
// fluent class declaration builder. They are not intended for production
// usage.
package testutil
