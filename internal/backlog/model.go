// Package backlog parses a hand-authored markdown backlog into a typed model
// and serializes it back without losing a byte.
//
// A backlog document looks like this:
//
//	# Project backlog
//
//	## Table des matières
//	1. Bugs
//	---
//
//	## 1. Bugs
//
//	### BUG-001 | ⚠️ Login crash
//	**Severity:** P0 - Critical
//	**Effort:** S
//
//	> As a user I want to log in.
//
//	**Acceptance criteria:**
//	- [x] No crash on submit
//
//	---
//
//	## 2. Légende
//	free-form text, never decomposed
//
// Every chunk of the model (header, section header line, item block, raw
// section body) keeps its verbatim source text, so [Serialize] on an
// unmodified [Backlog] returns the parsed text unchanged. Mutators such as
// [UpdateItem] regenerate a single item's block in canonical field order and
// leave everything else alone.
//
// The package performs no I/O and keeps no state between calls. All
// functions are safe for concurrent use on independent values.
package backlog

import "time"

// ItemType is the canonical short code of an item type, e.g. "BUG".
type ItemType string

// Built-in item types, keyed by id prefix.
const (
	TypeBug        ItemType = "BUG"
	TypeShortTerm  ItemType = "CT"
	TypeLongTerm   ItemType = "LT"
	TypeAutomation ItemType = "AUTO"
	TypeAdmin      ItemType = "ADM"
	TypeExtension  ItemType = "EXT"
	TypeCosmetic   ItemType = "COS"
	TypeData       ItemType = "DATA"
)

// Backlog is the full model of one document.
type Backlog struct {
	Header          string    `json:"header"`
	TableOfContents string    `json:"tableOfContents,omitempty"`
	HeaderTrailer   string    `json:"headerTrailer,omitempty"` // text between the TOC rule and the first section
	Sections        []Section `json:"sections"`
}

// Section is a top-level "## N. Title" grouping.
type Section struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	RawHeader string  `json:"rawHeader"`
	Intro     string  `json:"intro,omitempty"` // verbatim text before the first item
	Entries   []Entry `json:"entries"`
}

// EntryKind discriminates the payload of an [Entry].
type EntryKind uint8

// EntryKind values. The zero value is invalid on purpose.
const (
	EntryItem EntryKind = iota + 1
	EntryTableGroup
	EntryRaw
)

// String returns the lowercase kind name.
func (k EntryKind) String() string {
	switch k {
	case EntryItem:
		return "item"
	case EntryTableGroup:
		return "table_group"
	case EntryRaw:
		return "raw"
	default:
		return "invalid"
	}
}

// MarshalText renders the kind name in exports.
func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry is one element of a section. Exactly one payload matches Kind.
type Entry struct {
	Kind       EntryKind   `json:"kind"`
	Item       *Item       `json:"item,omitempty"`
	TableGroup *TableGroup `json:"tableGroup,omitempty"`
	Raw        *RawSection `json:"raw,omitempty"`
}

// ItemEntry wraps an item.
func ItemEntry(item Item) Entry {
	return Entry{Kind: EntryItem, Item: &item}
}

// TableGroupEntry wraps a table group.
func TableGroupEntry(group TableGroup) Entry {
	return Entry{Kind: EntryTableGroup, TableGroup: &group}
}

// RawEntry wraps a raw section.
func RawEntry(raw RawSection) Entry {
	return Entry{Kind: EntryRaw, Raw: &raw}
}

// RawMarkdown returns the verbatim text of whichever payload is set.
func (e Entry) RawMarkdown() string {
	switch e.Kind {
	case EntryItem:
		return e.Item.RawMarkdown
	case EntryTableGroup:
		return e.TableGroup.RawMarkdown
	case EntryRaw:
		return e.Raw.RawMarkdown
	default:
		panic("backlog: entry has invalid kind " + e.Kind.String())
	}
}

// Item is one "### ID | Title" ticket block.
type Item struct {
	ID           string   `json:"id"`
	Type         ItemType `json:"type"`
	Title        string   `json:"title"`
	Emoji        string   `json:"emoji,omitempty"`
	RawMarkdown  string   `json:"rawMarkdown"`
	SectionIndex int      `json:"sectionIndex"`

	Component   string `json:"component,omitempty"`
	Module      string `json:"module,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Effort      string `json:"effort,omitempty"`
	Description string `json:"description,omitempty"`
	UserStory   string `json:"userStory,omitempty"`

	// SeverityText is the severity value as written ("P1 - Haute"). It is
	// rendered again while its code still equals Severity.
	SeverityText string `json:"severityText,omitempty"`

	Specs        []string     `json:"specs,omitempty"`
	Reproduction []string     `json:"reproduction,omitempty"`
	Criteria     []Criterion  `json:"criteria,omitempty"`
	Dependencies []string     `json:"dependencies,omitempty"`
	Constraints  []string     `json:"constraints,omitempty"`
	Screens      []string     `json:"screens,omitempty"`
	Screenshots  []Screenshot `json:"screenshots,omitempty"`
}

// Criterion is one acceptance checkbox.
type Criterion struct {
	Checked bool   `json:"checked"`
	Text    string `json:"text"`
}

// TableGroup is the legacy "### A to B | Title" shorthand listing several
// near-identical items as table rows.
type TableGroup struct {
	ID           string     `json:"id"` // the full range token, e.g. "BUG-005 to BUG-007"
	FromID       string     `json:"fromId"`
	ToID         string     `json:"toId"`
	Title        string     `json:"title"`
	Severity     string     `json:"severity,omitempty"`
	Rows         []TableRow `json:"rows"`
	RawMarkdown  string     `json:"rawMarkdown"`
	SectionIndex int        `json:"sectionIndex"`
}

// TableRow is one row of a [TableGroup].
type TableRow struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// RawSection is content that is never decomposed.
type RawSection struct {
	Title        string   `json:"title"`
	RawMarkdown  string   `json:"rawMarkdown"`
	DeclaredType ItemType `json:"declaredType,omitempty"` // from a type marker, if any
}

// Screenshot is an image reference found in an item block.
type Screenshot struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Alt       string    `json:"alt,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
