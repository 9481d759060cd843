package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/Bouaris/ticketflow/internal/backlog"
	"github.com/Bouaris/ticketflow/internal/workspace"
)

// CheckCmd returns the check command.
func CheckCmd(sess *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("check", flag.ContinueOnError),
		Usage: "check",
		Short: "Validate the backlog file",
		Long: `Parse the backlog and report problems.

Malformed headers and unknown id prefixes are errors. Invalid severity or
effort values, duplicate ids and a layout that differs from the canonical
one ("backlog fmt") are reported as warnings. Any finding exits with 1.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 0, ""); err != nil {
				return err
			}

			return execCheck(o, sess)
		},
	}
}

func execCheck(o *IO, sess *session) error {
	text, err := workspace.ReadText(sess.cfg.BacklogFileAbs)
	if err != nil {
		return err
	}

	b, err := backlog.Parse(text, sess.parseOptions(o)...)
	if err != nil {
		return fmt.Errorf("%s: %w", sess.cfg.BacklogFileAbs, err)
	}

	warnDuplicates(o, b)

	if backlog.Serialize(b) != text {
		o.Warn("file is not in canonical layout", "run 'backlog fmt --write'")
	}

	o.Printf("%d items, %d table groups, %d sections\n", len(b.AllItems()), len(b.TableGroups()), len(b.Sections))

	return nil
}
