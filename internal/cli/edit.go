package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

// ToggleCmd returns the toggle command.
func ToggleCmd(sess *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("toggle", flag.ContinueOnError),
		Usage: "toggle <id> <n>",
		Short: "Check or uncheck acceptance criterion n (1-based)",
		Long: `Flip acceptance criterion n (counting from 1) of an item and rewrite the
item block. Only that block changes in the file.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 2, "item id and criterion number"); err != nil {
				return err
			}

			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", errInvalidNumber, args[1])
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			var updated backlog.Item

			err = sess.update(o, func(b *backlog.Backlog) (*backlog.Backlog, error) {
				next, item, toggleErr := backlog.ToggleBacklogCriterion(b, args[0], n-1)
				updated = item

				return next, toggleErr
			})
			if err != nil {
				return err
			}

			c := updated.Criteria[n-1]
			o.Printf("%s #%d %s %s\n", updated.ID, n, checkbox(c.Checked), c.Text)

			return nil
		},
	}
}

func checkbox(checked bool) string {
	if checked {
		return "[x]"
	}

	return "[ ]"
}

// fieldFlags are the item flags shared by set and new.
type fieldFlags struct {
	fs *flag.FlagSet

	title, emoji, component, module, severity, priority, effort, description, story *string

	specs, repro, criteria, deps, constraints, screens *[]string
}

func addFieldFlags(fs *flag.FlagSet) *fieldFlags {
	return &fieldFlags{
		fs:          fs,
		title:       fs.String("title", "", "Item title"),
		emoji:       fs.String("emoji", "", "Emoji shown before the title"),
		component:   fs.String("component", "", "Component"),
		module:      fs.String("module", "", "Module"),
		severity:    fs.String("severity", "", "Severity P0..P4"),
		priority:    fs.String("priority", "", "Priority (free text)"),
		effort:      fs.String("effort", "", "Effort XS, S, M, L or XL"),
		description: fs.String("description", "", "One-line description"),
		story:       fs.String("story", "", "User story"),
		specs:       fs.StringArray("spec", nil, "Specification line (repeatable, replaces the list)"),
		repro:       fs.StringArray("repro", nil, "Reproduction step (repeatable, replaces the list)"),
		criteria:    fs.StringArray("criterion", nil, "Acceptance criterion, unchecked (repeatable, replaces the list)"),
		deps:        fs.StringArray("dependency", nil, "Dependency (repeatable, replaces the list)"),
		constraints: fs.StringArray("constraint", nil, "Constraint (repeatable, replaces the list)"),
		screens:     fs.StringArray("screen", nil, "Screen (repeatable, replaces the list)"),
	}
}

// patch builds a patch from the flags that were given. A list flag given
// once with an empty value clears that list.
func (f *fieldFlags) patch() (backlog.Patch, error) {
	var p backlog.Patch

	str := func(name string, value *string) *string {
		if f.fs.Changed(name) {
			return value
		}

		return nil
	}

	p.Title = str("title", f.title)
	p.Emoji = str("emoji", f.emoji)
	p.Component = str("component", f.component)
	p.Module = str("module", f.module)
	p.Severity = str("severity", f.severity)
	p.Priority = str("priority", f.priority)
	p.Effort = str("effort", f.effort)
	p.Description = str("description", f.description)
	p.UserStory = str("story", f.story)

	if p.Severity != nil && *p.Severity != "" && !backlog.IsValidSeverity(*p.Severity) {
		return backlog.Patch{}, fmt.Errorf("%w: %q (want P0..P4)", errInvalidSeverity, *p.Severity)
	}

	if p.Effort != nil && *p.Effort != "" && !backlog.IsValidEffort(*p.Effort) {
		return backlog.Patch{}, fmt.Errorf("%w: %q (want XS, S, M, L or XL)", errInvalidEffort, *p.Effort)
	}

	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return backlog.Patch{}, errEmptyTitle
	}

	list := func(name string, values *[]string) []string {
		if !f.fs.Changed(name) {
			return nil
		}

		out := make([]string, 0, len(*values))

		for _, v := range *values {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}

		return out
	}

	p.Specs = list("spec", f.specs)
	p.Reproduction = list("repro", f.repro)
	p.Dependencies = list("dependency", f.deps)
	p.Constraints = list("constraint", f.constraints)
	p.Screens = list("screen", f.screens)

	if texts := list("criterion", f.criteria); texts != nil {
		p.Criteria = make([]backlog.Criterion, 0, len(texts))
		for _, text := range texts {
			p.Criteria = append(p.Criteria, backlog.Criterion{Text: text})
		}
	}

	if err := p.Validate(); err != nil {
		return backlog.Patch{}, err
	}

	return p, nil
}

// SetCmd returns the set command.
func SetCmd(sess *session) *Command {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fields := addFieldFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "set <id> [flags]",
		Short: "Change fields of an item",
		Long: `Change fields of an item and rewrite its block in canonical layout.
Only the flags given are changed. List flags replace the whole list;
pass one empty value (--spec "") to clear it.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "item id"); err != nil {
				return err
			}

			patch, err := fields.patch()
			if err != nil {
				return err
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			var updated backlog.Item

			err = sess.update(o, func(b *backlog.Backlog) (*backlog.Backlog, error) {
				next, item, updateErr := backlog.UpdateBacklogItem(b, args[0], patch)
				updated = item

				return next, updateErr
			})
			if err != nil {
				return err
			}

			o.Print(updated.RawMarkdown)

			return nil
		},
	}
}

// NewCmd returns the new command.
func NewCmd(sess *session) *Command {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	id := fs.String("id", "", "Item id (default: next free id of the section type)")
	fields := addFieldFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "new <section> --title <title> [flags]",
		Short: "Add an item to a section",
		Long: `Append a new item at the end of a section (given by id or title) and
print its id. Without --id the next free id of the section type is used;
the type comes from the items already in the section, a type marker or
the section title.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "section"); err != nil {
				return err
			}

			if !fs.Changed("title") {
				return fmt.Errorf("%w: --title", errMissingArgument)
			}

			patch, err := fields.patch()
			if err != nil {
				return err
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			var added backlog.Item

			err = sess.update(o, func(b *backlog.Backlog) (*backlog.Backlog, error) {
				idx, findErr := findSection(b, args[0])
				if findErr != nil {
					return nil, findErr
				}

				item := backlog.UpdateItem(backlog.Item{}, patch)
				item.ID = strings.TrimSpace(*id)

				if item.ID == "" {
					t, typeErr := sectionType(b, idx)
					if typeErr != nil {
						return nil, typeErr
					}

					item.ID = backlog.NextID(b, t)
				} else if _, exists := b.Item(item.ID); exists {
					return nil, fmt.Errorf("%w: %s", errDuplicateID, item.ID)
				}

				t, typeErr := backlog.TypeOf(item.ID, append(b.Types(), sess.cfg.ItemTypes()...)...)
				if typeErr != nil {
					return nil, typeErr
				}

				item.Type = t

				next, result, addErr := backlog.AddItem(b, idx, item)
				added = result

				return next, addErr
			})
			if err != nil {
				return err
			}

			o.Println(added.ID)

			return nil
		},
	}
}

// sectionType picks the item type for new items of section idx.
func sectionType(b *backlog.Backlog, idx int) (backlog.ItemType, error) {
	section := b.Sections[idx]

	for _, entry := range section.Entries {
		switch entry.Kind {
		case backlog.EntryItem:
			return entry.Item.Type, nil
		case backlog.EntryRaw:
			if entry.Raw.DeclaredType != "" {
				return entry.Raw.DeclaredType, nil
			}
		case backlog.EntryTableGroup:
		}
	}

	if t, ok := backlog.TypeFromTitle(section.Title); ok {
		return t, nil
	}

	return "", fmt.Errorf("%w: section %q, pass --id", errNoSectionType, section.Title)
}

// RmCmd returns the rm command.
func RmCmd(sess *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <id>",
		Short: "Remove an item",
		Long:  "Remove the first item with the given id. A section left empty keeps its type marker.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "item id"); err != nil {
				return err
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			err := sess.update(o, func(b *backlog.Backlog) (*backlog.Backlog, error) {
				return backlog.RemoveItem(b, args[0])
			})
			if err != nil {
				return err
			}

			o.Println("removed", args[0])

			return nil
		},
	}
}
