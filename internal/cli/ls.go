package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	flag "github.com/spf13/pflag"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

// LsCmd returns the ls command.
func LsCmd(sess *session) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	itemType := fs.StringP("type", "t", "", "Only items of `type` (e.g. BUG)")
	section := fs.StringP("section", "s", "", "Only items of `section` (id or title)")
	groups := fs.Bool("groups", false, "Also list table groups")
	open := fs.Bool("open", false, "Only items with unchecked criteria")

	return &Command{
		Flags: fs,
		Usage: "ls [flags]",
		Short: "List items",
		Long: `List items in document order, one per line:

  ID [severity effort] - title (done/total criteria)

Items whose id appears twice are listed once and reported as a warning.
Lines are cut to word_wrap columns (0 disables).`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: %s", errTooManyArguments, strings.Join(args, " "))
			}

			return execLs(o, sess, lsOptions{
				itemType: backlog.ItemType(strings.ToUpper(*itemType)),
				section:  *section,
				groups:   *groups,
				open:     *open,
			})
		},
	}
}

type lsOptions struct {
	itemType backlog.ItemType
	section  string
	groups   bool
	open     bool
}

func execLs(o *IO, sess *session, opts lsOptions) error {
	b, err := sess.load(o)
	if err != nil {
		return err
	}

	warnDuplicates(o, b)

	sectionIndex := -1
	if opts.section != "" {
		sectionIndex, err = findSection(b, opts.section)
		if err != nil {
			return err
		}
	}

	width := sess.cfg.Wrap()

	for _, item := range b.AllItems() {
		if opts.itemType != "" && item.Type != opts.itemType {
			continue
		}

		if sectionIndex >= 0 && item.SectionIndex != sectionIndex {
			continue
		}

		if opts.open && !hasOpenCriteria(item) {
			continue
		}

		o.Println(fitWidth(formatItemLine(item), width))
	}

	if !opts.groups {
		return nil
	}

	for _, group := range b.TableGroups() {
		if sectionIndex >= 0 && group.SectionIndex != sectionIndex {
			continue
		}

		if opts.itemType != "" && !strings.HasPrefix(group.FromID, string(opts.itemType)+"-") {
			continue
		}

		o.Println(fitWidth(formatGroupLine(group), width))
	}

	return nil
}

func hasOpenCriteria(item backlog.Item) bool {
	for _, c := range item.Criteria {
		if !c.Checked {
			return true
		}
	}

	return false
}

func formatItemLine(item backlog.Item) string {
	var builder strings.Builder

	builder.WriteString(item.ID)
	builder.WriteString(" [")
	builder.WriteString(orDash(item.Severity))
	builder.WriteString(" ")
	builder.WriteString(orDash(item.Effort))
	builder.WriteString("] - ")

	if item.Emoji != "" {
		builder.WriteString(item.Emoji)
		builder.WriteString(" ")
	}

	builder.WriteString(item.Title)

	if total := len(item.Criteria); total > 0 {
		done := 0

		for _, c := range item.Criteria {
			if c.Checked {
				done++
			}
		}

		fmt.Fprintf(&builder, " (%d/%d)", done, total)
	}

	return builder.String()
}

func formatGroupLine(group backlog.TableGroup) string {
	return fmt.Sprintf("%s [%s group] - %s (%d rows)", group.ID, orDash(group.Severity), group.Title, len(group.Rows))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// fitWidth cuts line to width display columns. Emoji and CJK count double.
func fitWidth(line string, width int) string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return line
	}

	return runewidth.Truncate(line, width, "…")
}
