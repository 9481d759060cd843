package backlog

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	metadataRe   = regexp.MustCompile(`^\*\*([^*:]+):\*\*[ \t]*(.*?)[ \t]*$`)
	blockquoteRe = regexp.MustCompile(`^>[ \t]?(.*)$`)
	checkboxRe   = regexp.MustCompile(`^[ \t]*[-*+][ \t]+\[([ xX])\][ \t]*(.*?)[ \t]*$`)
	numberedRe   = regexp.MustCompile(`^[ \t]*\d+[.)][ \t]+(.*?)[ \t]*$`)
	bulletRe     = regexp.MustCompile(`^[ \t]*[-*+][ \t]+(.*?)[ \t]*$`)
	severityRe   = regexp.MustCompile(`^P(\d)`)
	effortRe     = regexp.MustCompile(`^([A-Z]+)`)
)

// Severities and efforts accepted in metadata lines.
var (
	validSeverities = []string{"P0", "P1", "P2", "P3", "P4"}
	validEfforts    = []string{"XS", "S", "M", "L", "XL"}
)

// severityLabels are written after the code when an item is rendered.
var severityLabels = map[string]string{
	"P0": "Critical",
	"P1": "High",
	"P2": "Medium",
	"P3": "Low",
	"P4": "Minor",
}

// severityLabelsFR replace severityLabels for items whose source label was
// French.
var severityLabelsFR = map[string]string{
	"P0": "Critique",
	"P1": "Haute",
	"P2": "Moyenne",
	"P3": "Basse",
	"P4": "Mineure",
}

// listField names the list that numbered and bulleted lines go to.
type listField uint8

const (
	listNone listField = iota
	listSpecs
	listReproduction
	listCriteria
	listDependencies
	listConstraints
	listScreens
)

// listFieldKeys are matched as substrings of a lowercased metadata key,
// first match wins.
var listFieldKeys = []struct {
	substr string
	field  listField
}{
	{"specification", listSpecs},
	{"spécification", listSpecs},
	{"specs", listSpecs},
	{"reproduction", listReproduction},
	{"repro", listReproduction},
	{"criteria", listCriteria},
	{"critère", listCriteria},
	{"critere", listCriteria},
	{"dependenc", listDependencies},
	{"dépendance", listDependencies},
	{"dependance", listDependencies},
	{"constraint", listConstraints},
	{"contrainte", listConstraints},
	{"screen", listScreens},
	{"écran", listScreens},
	{"ecran", listScreens},
}

func listFieldForKey(key string) listField {
	for _, candidate := range listFieldKeys {
		if strings.Contains(key, candidate.substr) {
			return candidate.field
		}
	}

	return listNone
}

// itemScan is the mutable state of the line classifier for one item.
type itemScan struct {
	item    Item
	inCode  bool
	context listField
	story   []string
}

// parseItem classifies the lines of one item block. block[0] is the header
// line; firstLine is its 1-based line number.
//
// Body lines are matched against these rules in order, first match wins:
//
//  1. code fence: toggles code mode; lines in code mode are skipped
//  2. metadata "**Key:** Value": sets a field and the list context
//  3. blockquote: appended to the user story
//  4. checkbox "- [x] text": appended to the criteria
//  5. numbered line: appended to the current list (specs by default)
//  6. bulleted line: same routing as 5
//  7. anything else: kept only in RawMarkdown
//
// The order is observable on ambiguous lines and must not change.
func (p *parser) parseItem(block []string, head itemBound, sectionIndex, firstLine int) (Item, error) {
	itemType, err := p.types.resolve(head.id)
	if err != nil {
		return Item{}, fmt.Errorf("line %d: %w", firstLine, err)
	}

	emoji, title := splitEmoji(head.title)

	scan := &itemScan{
		item: Item{
			ID:           head.id,
			Type:         itemType,
			Title:        title,
			Emoji:        emoji,
			RawMarkdown:  joinLines(block),
			SectionIndex: sectionIndex,
		},
	}

	for offset, line := range block[1:] {
		p.classify(scan, lineText(line), firstLine+offset+1)
	}

	scan.item.UserStory = strings.TrimSpace(strings.Join(scan.story, " "))
	scan.item.Screenshots = ExtractScreenshots(scan.item.RawMarkdown, p.opts.now())

	return scan.item, nil
}

func (p *parser) classify(scan *itemScan, text string, lineNo int) {
	// 1. code fence
	if fenceRe.MatchString(text) {
		scan.inCode = !scan.inCode

		return
	}

	if scan.inCode {
		return
	}

	// 2. metadata
	if match := metadataRe.FindStringSubmatch(text); match != nil {
		key := strings.ToLower(strings.TrimSpace(match[1]))
		p.applyMetadata(scan, key, match[2], lineNo)
		scan.context = listFieldForKey(key)

		return
	}

	// 3. user story
	if match := blockquoteRe.FindStringSubmatch(text); match != nil {
		scan.story = append(scan.story, match[1])

		return
	}

	// 4. acceptance criterion
	if match := checkboxRe.FindStringSubmatch(text); match != nil {
		scan.item.Criteria = append(scan.item.Criteria, Criterion{
			Checked: match[1] != " ",
			Text:    match[2],
		})

		return
	}

	// 5. numbered list
	if match := numberedRe.FindStringSubmatch(text); match != nil {
		scan.appendToList(match[1])

		return
	}

	// 6. bulleted list
	if match := bulletRe.FindStringSubmatch(text); match != nil {
		scan.appendToList(match[1])

		return
	}

	// 7. unclassified
}

func (p *parser) applyMetadata(scan *itemScan, key, value string, lineNo int) {
	item := &scan.item

	switch key {
	case "component", "composant":
		item.Component = value
	case "module":
		item.Module = value
	case "severity", "sévérité", "severite":
		severity, ok := parseSeverity(value)
		if !ok {
			p.opts.warn(Warning{Kind: WarnInvalidSeverity, Line: lineNo, ItemID: item.ID, Value: value})

			return
		}

		item.Severity = severity
		item.SeverityText = strings.TrimSpace(value)
	case "priority", "priorité", "priorite":
		item.Priority = value
	case "effort":
		effort, ok := parseEffort(value)
		if !ok {
			p.opts.warn(Warning{Kind: WarnInvalidEffort, Line: lineNo, ItemID: item.ID, Value: value})

			return
		}

		item.Effort = effort
	case "description":
		item.Description = value
	}
}

func (s *itemScan) appendToList(text string) {
	item := &s.item

	switch s.context {
	case listReproduction:
		item.Reproduction = append(item.Reproduction, text)
	case listCriteria:
		item.Criteria = append(item.Criteria, Criterion{Text: text})
	case listDependencies:
		item.Dependencies = append(item.Dependencies, text)
	case listConstraints:
		item.Constraints = append(item.Constraints, text)
	case listScreens:
		item.Screens = append(item.Screens, text)
	case listNone, listSpecs:
		item.Specs = append(item.Specs, text)
	}
}

// parseSeverity extracts "P<digit>" from the start of value.
func parseSeverity(value string) (string, bool) {
	match := severityRe.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return "", false
	}

	severity := "P" + match[1]

	return severity, slices.Contains(validSeverities, severity)
}

// parseEffort extracts the leading uppercase token of value.
func parseEffort(value string) (string, bool) {
	match := effortRe.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return "", false
	}

	return match[1], slices.Contains(validEfforts, match[1])
}

// IsValidSeverity reports whether s is one of P0..P4.
func IsValidSeverity(s string) bool {
	return slices.Contains(validSeverities, s)
}

// IsValidEffort reports whether s is one of XS, S, M, L, XL.
func IsValidEffort(s string) bool {
	return slices.Contains(validEfforts, s)
}
