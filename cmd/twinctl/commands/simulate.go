package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/twinmesh"
	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/serialize"
)

func simulateCmd() *cobra.Command {
	var (
		sets  []string
		emits []string
	)
	cmd := &cobra.Command{
		Use:   "simulate <manifest> <class>",
		Short: "Construct an object against an in-process remote and trace the commands",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := cfg.Logger(cmd.ErrOrStderr())
			mesh := twinmesh.New(func(o *twinmesh.Options) {
				o.Catalog = class.NewCatalog(func(co *class.CatalogOptions) { co.Logger = logger })
				o.Logger = logger
			})
			defer mesh.Close()
			if _, err := mesh.LoadManifest(args[0], nil); err != nil {
				return err
			}

			lb := mesh.Loopback(func(o *twinmesh.LoopbackOptions) {
				o.Trace = func(dir twinmesh.Direction, line string) {
					arrow := "->"
					if dir == twinmesh.Up {
						arrow = "<-"
					}
					fmt.Fprintf(out, "%s %s\n", arrow, line)
				}
			})

			obj, err := mesh.New(args[1], nil)
			if err != nil {
				return err
			}
			if err := lb.Flush(); err != nil {
				return err
			}

			for _, kv := range sets {
				name, value, err := splitAssignment(kv)
				if err != nil {
					return err
				}
				if err := obj.Set(name, value); err != nil {
					return err
				}
				if err := lb.Flush(); err != nil {
					return err
				}
			}
			for _, kv := range emits {
				typ, value, err := splitAssignment(kv)
				if err != nil {
					return err
				}
				data, _ := value.(map[string]any)
				if err := obj.Emit(typ, data); err != nil {
					return err
				}
				if err := lb.Flush(); err != nil {
					return err
				}
			}

			fmt.Fprintf(out, "host   %s %v\n", obj.ID(), obj.Values())
			if tw := lb.Twin(obj); tw != nil {
				fmt.Fprintf(out, "remote %s %v\n", tw.ID(), tw.Values())
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set a host property after construction (name=json)")
	cmd.Flags().StringArrayVar(&emits, "emit", nil, "emit an event on the host object (type=json)")
	return cmd
}

// splitAssignment parses name=value. The value is decoded as JSON, falling
// back to the raw string.
func splitAssignment(kv string) (string, any, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("expected name=value, got %q", kv)
	}
	if raw == "" {
		return name, nil, nil
	}
	v, err := serialize.Default.Decode(raw)
	if err != nil {
		return name, raw, nil
	}
	return name, v, nil
}
