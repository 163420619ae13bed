package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/twinmesh/class"
)

func describeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <manifest>",
		Short: "Print the merged descriptors of every class in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := class.LoadManifest(args[0])
			if err != nil {
				return err
			}
			catalog := class.NewCatalog(func(o *class.CatalogOptions) { o.Logger = cfg.Logger(cmd.ErrOrStderr()) })
			descs, err := mf.Declare(catalog, nil)
			if err != nil {
				return err
			}
			for _, d := range descs {
				describe(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
	return cmd
}

func describe(w io.Writer, d *class.Descriptor) {
	bases := make([]string, 0, len(d.Bases()))
	for _, b := range d.Bases() {
		bases = append(bases, b.Name())
	}
	fmt.Fprintf(w, "class %s", d.Name())
	if len(bases) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(bases, ", "))
	}
	fmt.Fprintln(w)
	for _, side := range []*class.SideDescriptor{d.Host(), d.Remote()} {
		fmt.Fprintf(w, "  %s:\n", side.Side())
		for _, name := range side.PropertyNames() {
			p, _ := side.Property(name)
			kind := "owns"
			if p.Proxy {
				kind = "proxy"
			}
			fmt.Fprintf(w, "    property %-16s %-5s default=%v\n", name, kind, p.Default)
		}
		for _, name := range side.EmitterNames() {
			e, _ := side.Emitter(name)
			kind := "owns"
			if e.Proxy {
				kind = "proxy"
			}
			fmt.Fprintf(w, "    emitter  %-16s %s\n", name, kind)
		}
		if interests := side.Interests(); len(interests) > 0 {
			fmt.Fprintf(w, "    listens  %s\n", strings.Join(interests, ", "))
		}
	}
}
