package backlog

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	sectionHeaderRe = regexp.MustCompile(`^##[ \t]+(?:(\d+)\.[ \t]*)?(.*?)[ \t]*$`)
	itemHeaderRe    = regexp.MustCompile(`^###[ \t]+(.+?)[ \t]*\|[ \t]*(.*?)[ \t]*$`)
	idLikeHeaderRe  = regexp.MustCompile(`^###[ \t]+[A-Z][A-Z0-9_]*-\d+`)
	ruleLineRe      = regexp.MustCompile(`^[ \t]*(?:-{3,}|\*{3,}|_{3,})[ \t]*$`)
	fenceRe         = regexp.MustCompile("^[ \t]*(?:```|~~~)")
	rangeIDRe       = regexp.MustCompile(`^(\S+)[ \t]+(?i:to|à)[ \t]+(\S+)$`)
)

// tocTitles are section titles that name a table of contents. Such headings
// never start a section.
var tocTitles = []string{
	"table of contents",
	"contents",
	"toc",
	"sommaire",
	"table des matières",
	"table des matieres",
	"index",
}

// rawTitleKeywords mark sections whose body is kept verbatim.
var rawTitleKeywords = []string{
	"legend",
	"légende",
	"legende",
	"roadmap",
	"feuille de route",
	"glossary",
	"glossaire",
	"changelog",
	"conventions",
}

func isTOCTitle(title string) bool {
	key := strings.ToLower(strings.TrimSpace(stripLeadingSymbols(title)))

	return slices.Contains(tocTitles, key)
}

func isRawTitle(title string) bool {
	key := strings.ToLower(title)

	for _, kw := range rawTitleKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}

	return false
}

// Parse normalizes text and builds a fresh [Backlog] from it.
//
// Parsing fails on a malformed section or item header and on an item id
// whose prefix is not a known type. Soft problems (invalid severity or
// effort values) only drop the field; see [WithWarnings].
func Parse(text string, opts ...Option) (*Backlog, error) {
	cfg := newOptions(opts)

	text = Normalize(text)
	lines := splitLines(text)

	bounds, err := findSections(lines)
	if err != nil {
		return nil, err
	}

	firstSection := len(lines)
	if len(bounds) > 0 {
		firstSection = bounds[0].start
	}

	result := &Backlog{}
	result.Header, result.TableOfContents, result.HeaderTrailer = parseHeader(lines[:firstSection])

	p := &parser{
		lines: lines,
		types: newTypeTable(cfg.customTypes, declaredTypes(text)),
		opts:  cfg,
	}

	result.Sections = make([]Section, 0, len(bounds))

	for idx, bound := range bounds {
		end := len(lines)
		if idx+1 < len(bounds) {
			end = bounds[idx+1].start
		}

		section, sectionErr := p.parseSection(idx, bound, end)
		if sectionErr != nil {
			return nil, sectionErr
		}

		result.Sections = append(result.Sections, section)
	}

	return result, nil
}

// parser holds the read-only state of one Parse call.
type parser struct {
	lines []string
	types typeTable
	opts  options
}

// splitLines splits text after each "\n". Concatenating the result gives
// back text exactly.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

func lineText(line string) string {
	return strings.TrimSuffix(line, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "")
}

// sectionBound is the start of one section.
type sectionBound struct {
	start int
	id    string
	title string
}

// findSections returns section starts in order. Headings inside code
// fences and table-of-contents headings are skipped. Unnumbered sections
// get ids from a counter that only counts unnumbered sections; it can
// collide with an explicit number further down.
func findSections(lines []string) ([]sectionBound, error) {
	var (
		bounds  []sectionBound
		inFence bool
		auto    int
	)

	for idx, line := range lines {
		text := lineText(line)

		if fenceRe.MatchString(text) {
			inFence = !inFence

			continue
		}

		if inFence {
			continue
		}

		match := sectionHeaderRe.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		number, title := match[1], match[2]
		if title == "" {
			return nil, fmt.Errorf("line %d: %w: section %q has no title", idx+1, ErrMalformedHeader, text)
		}

		if isTOCTitle(title) {
			continue
		}

		id := number
		if id == "" {
			auto++
			id = strconv.Itoa(auto)
		}

		bounds = append(bounds, sectionBound{start: idx, id: id, title: title})
	}

	return bounds, nil
}

// parseHeader splits the pre-section lines into the text before the table
// of contents, the table of contents itself (heading through the next rule
// line) and whatever follows it.
func parseHeader(lines []string) (string, string, string) {
	tocStart := -1

	for idx, line := range lines {
		match := sectionHeaderRe.FindStringSubmatch(lineText(line))
		if match != nil && isTOCTitle(match[2]) {
			tocStart = idx

			break
		}
	}

	if tocStart < 0 {
		return joinLines(lines), "", ""
	}

	tocEnd := len(lines)

	for idx := tocStart + 1; idx < len(lines); idx++ {
		if ruleLineRe.MatchString(lineText(lines[idx])) {
			tocEnd = idx + 1

			break
		}
	}

	return joinLines(lines[:tocStart]), joinLines(lines[tocStart:tocEnd]), joinLines(lines[tocEnd:])
}

// itemBound is one "### ID | Title" line inside a section body.
type itemBound struct {
	offset int // index into the section body
	id     string
	title  string
}

// findItemHeaders locates item headers in a section body. firstLine is the
// absolute index of body[0], used for error positions.
func findItemHeaders(body []string, firstLine int) ([]itemBound, error) {
	var (
		bounds  []itemBound
		inFence bool
	)

	for offset, line := range body {
		text := lineText(line)

		if fenceRe.MatchString(text) {
			inFence = !inFence

			continue
		}

		if inFence || !strings.HasPrefix(text, "###") {
			continue
		}

		match := itemHeaderRe.FindStringSubmatch(text)
		if match == nil {
			if idLikeHeaderRe.MatchString(text) {
				return nil, fmt.Errorf("line %d: %w: item %q needs \"ID | Title\"", firstLine+offset+1, ErrMalformedHeader, text)
			}

			continue
		}

		bounds = append(bounds, itemBound{offset: offset, id: match[1], title: match[2]})
	}

	return bounds, nil
}

func (p *parser) parseSection(index int, bound sectionBound, end int) (Section, error) {
	section := Section{
		ID:        bound.id,
		Title:     bound.title,
		RawHeader: p.lines[bound.start],
	}

	bodyStart := bound.start + 1
	body := p.lines[bodyStart:end]

	if isRawTitle(bound.title) {
		raw := joinLines(body)
		section.Entries = []Entry{RawEntry(RawSection{
			Title:        bound.title,
			RawMarkdown:  raw,
			DeclaredType: firstDeclaredType(raw),
		})}

		return section, nil
	}

	heads, err := findItemHeaders(body, bodyStart)
	if err != nil {
		return Section{}, err
	}

	if len(heads) == 0 {
		section.Entries = []Entry{RawEntry(emptySection(bound.title, joinLines(body)))}

		return section, nil
	}

	section.Intro = joinLines(body[:heads[0].offset])
	section.Entries = make([]Entry, 0, len(heads))

	for idx, head := range heads {
		blockEnd := len(body)
		if idx+1 < len(heads) {
			blockEnd = heads[idx+1].offset
		}

		block := body[head.offset:blockEnd]
		absLine := bodyStart + head.offset + 1

		if rangeMatch := rangeIDRe.FindStringSubmatch(head.id); rangeMatch != nil {
			group := p.parseTableGroup(block, head, rangeMatch[1], rangeMatch[2], index)
			section.Entries = append(section.Entries, TableGroupEntry(group))

			continue
		}

		item, itemErr := p.parseItem(block, head, index, absLine)
		if itemErr != nil {
			return Section{}, itemErr
		}

		section.Entries = append(section.Entries, ItemEntry(item))
	}

	return section, nil
}

// emptySection builds the raw entry of a section without items. A body
// that already declares its type (or is explicitly marked empty) is kept
// verbatim; otherwise a type marker derived from the title is prepended,
// or the empty-section placeholder when the title yields no type.
func emptySection(title, body string) RawSection {
	if declared := firstDeclaredType(body); declared != "" {
		return RawSection{Title: title, RawMarkdown: body, DeclaredType: declared}
	}

	if emptyMarkRe.MatchString(body) {
		return RawSection{Title: title, RawMarkdown: body}
	}

	derived, ok := TypeFromTitle(title)
	if !ok {
		return RawSection{Title: title, RawMarkdown: "\n" + emptySectionMarker + "\n" + body}
	}

	return RawSection{
		Title:        title,
		RawMarkdown:  "\n" + TypeMarker(derived) + "\n" + body,
		DeclaredType: derived,
	}
}

func firstDeclaredType(text string) ItemType {
	types := declaredTypes(text)
	if len(types) == 0 {
		return ""
	}

	return types[0]
}
