package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	flag "github.com/spf13/pflag"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

// Export formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatHTML = "html"
)

// ExportCmd returns the export command.
func ExportCmd(sess *session) *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", formatJSON, "Output `format`: json, yaml or html")
	raw := fs.Bool("raw", false, "Include each item's markdown block (json, yaml)")

	return &Command{
		Flags: fs,
		Usage: "export [--format json|yaml|html] [--raw]",
		Short: "Export items as JSON, YAML or HTML",
		Long: `Export the deduplicated items and table groups as JSON or YAML, or the
whole document as sanitized HTML.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 0, ""); err != nil {
				return err
			}

			b, err := sess.load(o)
			if err != nil {
				return err
			}

			warnDuplicates(o, b)

			out, err := exportBacklog(b, strings.ToLower(*format), *raw)
			if err != nil {
				return err
			}

			o.Print(out)

			return nil
		},
	}
}

type exportDoc struct {
	Items       []exportItem  `json:"items"                 yaml:"items"`
	TableGroups []exportGroup `json:"tableGroups,omitempty" yaml:"tableGroups,omitempty"`
}

type exportItem struct {
	ID           string             `json:"id"                     yaml:"id"`
	Type         string             `json:"type"                   yaml:"type"`
	Section      string             `json:"section"                yaml:"section"`
	Title        string             `json:"title"                  yaml:"title"`
	Emoji        string             `json:"emoji,omitempty"        yaml:"emoji,omitempty"`
	Component    string             `json:"component,omitempty"    yaml:"component,omitempty"`
	Module       string             `json:"module,omitempty"       yaml:"module,omitempty"`
	Severity     string             `json:"severity,omitempty"     yaml:"severity,omitempty"`
	Priority     string             `json:"priority,omitempty"     yaml:"priority,omitempty"`
	Effort       string             `json:"effort,omitempty"       yaml:"effort,omitempty"`
	Description  string             `json:"description,omitempty"  yaml:"description,omitempty"`
	UserStory    string             `json:"userStory,omitempty"    yaml:"userStory,omitempty"`
	Specs        []string           `json:"specs,omitempty"        yaml:"specs,omitempty"`
	Reproduction []string           `json:"reproduction,omitempty" yaml:"reproduction,omitempty"`
	Criteria     []exportCriterion  `json:"criteria,omitempty"     yaml:"criteria,omitempty"`
	Dependencies []string           `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Constraints  []string           `json:"constraints,omitempty"  yaml:"constraints,omitempty"`
	Screens      []string           `json:"screens,omitempty"      yaml:"screens,omitempty"`
	Screenshots  []exportScreenshot `json:"screenshots,omitempty"  yaml:"screenshots,omitempty"`
	RawMarkdown  string             `json:"rawMarkdown,omitempty"  yaml:"rawMarkdown,omitempty"`
}

type exportCriterion struct {
	Checked bool   `json:"checked" yaml:"checked"`
	Text    string `json:"text"    yaml:"text"`
}

type exportScreenshot struct {
	Path      string `json:"path"          yaml:"path"`
	Alt       string `json:"alt,omitempty" yaml:"alt,omitempty"`
	Timestamp string `json:"timestamp"     yaml:"timestamp"`
}

type exportGroup struct {
	ID       string             `json:"id"                 yaml:"id"`
	Section  string             `json:"section"            yaml:"section"`
	Title    string             `json:"title"              yaml:"title"`
	Severity string             `json:"severity,omitempty" yaml:"severity,omitempty"`
	Rows     []backlog.TableRow `json:"rows"               yaml:"rows"`
}

func exportBacklog(b *backlog.Backlog, format string, raw bool) (string, error) {
	switch format {
	case formatHTML:
		return exportHTML(backlog.Serialize(b))
	case formatJSON, formatYAML:
	default:
		return "", fmt.Errorf("%w: %q (want json, yaml or html)", errInvalidFormat, format)
	}

	doc := exportDoc{Items: []exportItem{}}

	for _, item := range b.AllItems() {
		doc.Items = append(doc.Items, toExportItem(b, item, raw))
	}

	for _, group := range b.TableGroups() {
		doc.TableGroups = append(doc.TableGroups, exportGroup{
			ID:       group.ID,
			Section:  b.Sections[group.SectionIndex].Title,
			Title:    group.Title,
			Severity: group.Severity,
			Rows:     group.Rows,
		})
	}

	if format == formatYAML {
		var buf bytes.Buffer

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)

		if err := enc.Encode(doc); err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}

		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}

		return buf.String(), nil
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding json: %w", err)
	}

	return string(data) + "\n", nil
}

func toExportItem(b *backlog.Backlog, item backlog.Item, raw bool) exportItem {
	out := exportItem{
		ID:           item.ID,
		Type:         string(item.Type),
		Section:      b.Sections[item.SectionIndex].Title,
		Title:        item.Title,
		Emoji:        item.Emoji,
		Component:    item.Component,
		Module:       item.Module,
		Severity:     item.Severity,
		Priority:     item.Priority,
		Effort:       item.Effort,
		Description:  item.Description,
		UserStory:    item.UserStory,
		Specs:        item.Specs,
		Reproduction: item.Reproduction,
		Dependencies: item.Dependencies,
		Constraints:  item.Constraints,
		Screens:      item.Screens,
	}

	for _, c := range item.Criteria {
		out.Criteria = append(out.Criteria, exportCriterion(c))
	}

	for _, shot := range item.Screenshots {
		out.Screenshots = append(out.Screenshots, exportScreenshot{
			Path:      shot.Path,
			Alt:       shot.Alt,
			Timestamp: shot.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	if raw {
		out.RawMarkdown = item.RawMarkdown
	}

	return out
}

// exportHTML renders markdown with GitHub extensions (tables, task lists)
// and sanitizes the result.
func exportHTML(text string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("input")
	policy.AllowAttrs("type", "checked", "disabled").OnElements("input")

	return policy.Sanitize(buf.String()), nil
}
