package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
	flag "github.com/spf13/pflag"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

// Styles accepted by render_style besides glamour's standard style names.
const (
	styleAuto  = "auto"
	stylePlain = "plain"
)

// ShowCmd returns the show command.
func ShowCmd(sess *session) *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	raw := fs.Bool("raw", false, "Print the markdown block exactly as stored")

	return &Command{
		Flags: fs,
		Usage: "show <id> [--raw]",
		Short: "Show one item",
		Long: `Show the block of one item. The block is rendered for the terminal
using render_style from the config (a glamour style name, "auto" or
"plain"); --raw prints it byte for byte.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "item id"); err != nil {
				return err
			}

			return execShow(o, sess, args[0], *raw)
		},
	}
}

func execShow(o *IO, sess *session, id string, raw bool) error {
	b, err := sess.load(o)
	if err != nil {
		return err
	}

	item, ok := b.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", backlog.ErrItemNotFound, id)
	}

	if raw {
		o.Print(item.RawMarkdown)

		return nil
	}

	rendered, err := renderMarkdown(item.RawMarkdown, sess.cfg.RenderStyle, sess.cfg.Wrap())
	if err != nil {
		return err
	}

	o.Println(rendered)

	return nil
}

// renderMarkdown renders md for a terminal. The plain style only wraps.
func renderMarkdown(md, style string, width int) (string, error) {
	style = strings.ToLower(strings.TrimSpace(style))

	if style == stylePlain {
		if width <= 0 {
			return strings.TrimRight(md, "\n"), nil
		}

		return strings.TrimRight(wordwrap.String(md, width), "\n"), nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == styleAuto {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating renderer for style %q: %w", style, err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return strings.TrimSpace(out), nil
}
