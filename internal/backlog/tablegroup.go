package backlog

import "strings"

// parseTableGroup reads a "### A to B | Title" block: a table whose header
// row has an ID column, a separator row, then one row per item. The group
// severity comes from the first metadata line whose key mentions severity.
func (p *parser) parseTableGroup(block []string, head itemBound, fromID, toID string, sectionIndex int) TableGroup {
	group := TableGroup{
		ID:           head.id,
		FromID:       fromID,
		ToID:         toID,
		Title:        head.title,
		RawMarkdown:  joinLines(block),
		SectionIndex: sectionIndex,
		Rows:         []TableRow{},
	}

	headerRow := -1

	for offset, line := range block[1:] {
		text := lineText(line)

		if group.Severity == "" {
			if match := metadataRe.FindStringSubmatch(text); match != nil && mentionsSeverity(match[1]) {
				if severity, ok := parseSeverity(match[2]); ok {
					group.Severity = severity
				}
			}
		}

		if headerRow < 0 && isTableRow(text) && hasIDColumn(splitTableRow(text)) {
			headerRow = offset + 1
		}
	}

	if headerRow < 0 {
		return group
	}

	// Skip the header and the separator row below it.
	for _, line := range block[min(headerRow+2, len(block)):] {
		text := lineText(line)
		if !isTableRow(text) {
			break
		}

		cells := splitTableRow(text)
		if isSeparatorRow(cells) {
			continue
		}

		group.Rows = append(group.Rows, TableRow{
			ID:          cellAt(cells, 0),
			Description: cellAt(cells, 1),
			Action:      cellAt(cells, 2),
		})
	}

	return group
}

func mentionsSeverity(key string) bool {
	key = strings.ToLower(key)

	return strings.Contains(key, "severity") || strings.Contains(key, "sévérité") || strings.Contains(key, "severite")
}

func isTableRow(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "|")
}

// splitTableRow returns the trimmed cells of "| a | b | c |".
func splitTableRow(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "|")
	text = strings.TrimSuffix(text, "|")

	cells := strings.Split(text, "|")
	for idx := range cells {
		cells[idx] = strings.TrimSpace(cells[idx])
	}

	return cells
}

func hasIDColumn(cells []string) bool {
	for _, cell := range cells {
		if strings.EqualFold(cell, "id") {
			return true
		}
	}

	return false
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, ":- ") != "" {
			return false
		}
	}

	return true
}

func cellAt(cells []string, idx int) string {
	if idx < len(cells) {
		return cells[idx]
	}

	return ""
}
