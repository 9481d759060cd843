package backlog

import (
	"strconv"
	"strings"
)

// Serialize renders b back to text. For a backlog returned by [Parse] on a
// canonical document the result equals that document byte for byte; items
// changed through the mutators contribute their regenerated blocks.
func Serialize(b *Backlog) string {
	var buf strings.Builder

	buf.WriteString(b.Header)
	buf.WriteString(b.TableOfContents)
	buf.WriteString(b.HeaderTrailer)

	for _, section := range b.Sections {
		buf.WriteString(section.RawHeader)
		buf.WriteString(section.Intro)

		for _, entry := range section.Entries {
			buf.WriteString(entry.RawMarkdown())
		}
	}

	return buf.String()
}

// Canonicalize parses text and serializes it again. Applying it to its own
// output changes nothing.
func Canonicalize(text string, opts ...Option) (string, error) {
	parsed, err := Parse(text, opts...)
	if err != nil {
		return "", err
	}

	return Serialize(parsed), nil
}

// Labels written in front of each list when rendering.
const (
	labelSpecs        = "Specifications"
	labelReproduction = "Reproduction"
	labelCriteria     = "Acceptance criteria"
	labelDependencies = "Dependencies"
	labelConstraints  = "Constraints"
	labelScreens      = "Screens"
)

// RenderItem renders the canonical block of item, without any trailing
// separator: header line directly followed by the metadata lines in fixed
// order, then user story, the labelled lists and finally the screenshots,
// with a blank line between groups. Screenshots whose image reference is
// already written by another field are not repeated.
func RenderItem(item Item) string {
	var buf strings.Builder

	buf.WriteString("### ")
	buf.WriteString(item.ID)
	buf.WriteString(" | ")

	if item.Emoji != "" {
		buf.WriteString(item.Emoji)
		buf.WriteString(" ")
	}

	buf.WriteString(item.Title)
	buf.WriteString("\n")
	buf.WriteString(renderMetadata(item))

	for _, group := range renderGroups(item) {
		buf.WriteString("\n")
		buf.WriteString(group)
	}

	if shots := renderScreenshots(item.Screenshots, buf.String()); shots != "" {
		buf.WriteString("\n")
		buf.WriteString(shots)
	}

	return buf.String()
}

func renderMetadata(item Item) string {
	var meta strings.Builder

	write := func(key, value string) {
		if value != "" {
			meta.WriteString("**" + key + ":** " + value + "\n")
		}
	}

	write("Component", item.Component)
	write("Module", item.Module)
	write("Severity", severityText(item))
	write("Priority", item.Priority)
	write("Effort", item.Effort)
	write("Description", item.Description)

	return meta.String()
}

func renderGroups(item Item) []string {
	var groups []string

	if item.UserStory != "" {
		groups = append(groups, "> "+item.UserStory+"\n")
	}

	groups = appendList(groups, labelSpecs, bulletLines(item.Specs))
	groups = appendList(groups, labelReproduction, numberedLines(item.Reproduction))
	groups = appendList(groups, labelCriteria, criteriaLines(item.Criteria))
	groups = appendList(groups, labelDependencies, bulletLines(item.Dependencies))
	groups = appendList(groups, labelConstraints, bulletLines(item.Constraints))
	groups = appendList(groups, labelScreens, bulletLines(item.Screens))

	return groups
}

// renderScreenshots writes one image line per screenshot, skipping as many
// copies of each reference as body already contains. Parsing collects
// images from every line, so this keeps the count stable across renders.
func renderScreenshots(shots []Screenshot, body string) string {
	var out strings.Builder

	seen := make(map[string]int, len(shots))

	for _, shot := range shots {
		ref := "![" + shot.Alt + "](" + shot.Path + ")"

		seen[ref]++
		if seen[ref] <= strings.Count(body, ref) {
			continue
		}

		out.WriteString(ref + "\n")
	}

	return out.String()
}

// severityText keeps the severity as written while its code is unchanged.
// Otherwise the code gets a label in the language of the source label.
func severityText(item Item) string {
	if item.Severity == "" {
		return ""
	}

	if code, ok := parseSeverity(item.SeverityText); ok && code == item.Severity {
		return item.SeverityText
	}

	labels := severityLabels
	if hasFrenchLabel(item.SeverityText) {
		labels = severityLabelsFR
	}

	if label, ok := labels[item.Severity]; ok {
		return item.Severity + " - " + label
	}

	return item.Severity
}

func hasFrenchLabel(text string) bool {
	text = strings.ToLower(text)

	for _, label := range severityLabelsFR {
		if strings.Contains(text, strings.ToLower(label)) {
			return true
		}
	}

	return false
}

func appendList(groups []string, label string, lines []string) []string {
	if len(lines) == 0 {
		return groups
	}

	return append(groups, "**"+label+":**\n"+strings.Join(lines, ""))
}

func bulletLines(values []string) []string {
	lines := make([]string, 0, len(values))
	for _, value := range values {
		lines = append(lines, "- "+value+"\n")
	}

	return lines
}

func numberedLines(values []string) []string {
	lines := make([]string, 0, len(values))
	for idx, value := range values {
		lines = append(lines, strconv.Itoa(idx+1)+". "+value+"\n")
	}

	return lines
}

func criteriaLines(criteria []Criterion) []string {
	lines := make([]string, 0, len(criteria))
	for _, criterion := range criteria {
		box := "[ ]"
		if criterion.Checked {
			box = "[x]"
		}

		lines = append(lines, "- "+box+" "+criterion.Text+"\n")
	}

	return lines
}

// trailingSeparators returns the blank and rule lines at the end of a block.
// They belong to the layout between blocks and survive regeneration.
func trailingSeparators(raw string) string {
	lines := splitLines(raw)

	cut := len(lines)
	for cut > 1 {
		text := strings.TrimSpace(lineText(lines[cut-1]))
		if text != "" && !ruleLineRe.MatchString(text) {
			break
		}

		cut--
	}

	return joinLines(lines[cut:])
}
