package cli

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/Bouaris/ticketflow/internal/backlog"
	"github.com/Bouaris/ticketflow/internal/workspace"
)

// FmtCmd returns the fmt command.
func FmtCmd(sess *session) *Command {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	write := fs.BoolP("write", "w", false, "Rewrite the backlog file in place")

	return &Command{
		Flags: fs,
		Usage: "fmt [-w] [-]",
		Short: "Print the backlog in canonical layout",
		Long: `Parse the backlog and print it back in canonical layout: line endings
become "\n", glued headings are split and empty sections get a type
marker. Item blocks are otherwise kept as written.

With "-" the text is read from stdin instead of the backlog file.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) > 1 {
				return requireArgs(args, 1, "")
			}

			if len(args) == 1 && args[0] == "-" {
				if *write {
					return fmt.Errorf("%w: --write cannot be used with stdin", errConflictingFlags)
				}

				return execFmtStdin(o, sess)
			}

			if len(args) == 1 {
				return fmt.Errorf("%w: %s", errTooManyArguments, args[0])
			}

			return execFmt(o, sess, *write)
		},
	}
}

func execFmt(o *IO, sess *session, write bool) error {
	path := sess.cfg.BacklogFileAbs

	if !write {
		text, err := workspace.ReadText(path)
		if err != nil {
			return err
		}

		out, err := backlog.Canonicalize(text, sess.parseOptions(o)...)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		o.Print(out)

		return nil
	}

	changed := false

	err := workspace.UpdateText(path, func(text string) (string, error) {
		out, err := backlog.Canonicalize(text, sess.parseOptions(o)...)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}

		changed = out != text

		return out, nil
	})
	if err != nil {
		return err
	}

	if changed {
		o.Println("formatted", path)
	} else {
		o.Println("already canonical", path)
	}

	return nil
}

func execFmtStdin(o *IO, sess *session) error {
	if sess.stdin == nil {
		return fmt.Errorf("%w: stdin", errMissingArgument)
	}

	data, err := io.ReadAll(sess.stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	out, err := backlog.Canonicalize(string(data), sess.parseOptions(o)...)
	if err != nil {
		return fmt.Errorf("stdin: %w", err)
	}

	o.Print(out)

	return nil
}
