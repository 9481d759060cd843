package cli

import (
	"context"
	"fmt"
	"slices"

	flag "github.com/spf13/pflag"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

// TypesCmd returns the types command.
func TypesCmd(sess *session) *Command {
	fs := flag.NewFlagSet("types", flag.ContinueOnError)
	all := fs.BoolP("all", "a", false, "Also list built-in and configured types not used in the file")

	return &Command{
		Flags: fs,
		Usage: "types [--all]",
		Short: "List item types and their item counts",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 0, ""); err != nil {
				return err
			}

			b, err := sess.load(o)
			if err != nil {
				return err
			}

			types := b.Types()

			if *all {
				for _, t := range append(backlog.BuiltinTypes(), sess.cfg.ItemTypes()...) {
					if !slices.Contains(types, t) {
						types = append(types, t)
					}
				}
			}

			for _, t := range types {
				o.Println(fmt.Sprintf("%-8s %d", t, len(b.ItemsByType(t))))
			}

			return nil
		},
	}
}
