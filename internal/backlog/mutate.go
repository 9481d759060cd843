package backlog

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Patch lists the item fields to change. Nil fields are left alone; an
// empty non-nil slice clears a list. Id and type cannot be patched.
//
// Every value must be a single line; a line break would end up as a raw
// line of the rendered block. [UpdateItem] assumes this, [Patch.Validate]
// and [UpdateBacklogItem] check it.
type Patch struct {
	Title       *string
	Emoji       *string
	Component   *string
	Module      *string
	Severity    *string
	Priority    *string
	Effort      *string
	Description *string
	UserStory   *string

	Specs        []string
	Reproduction []string
	Criteria     []Criterion
	Dependencies []string
	Constraints  []string
	Screens      []string
	Screenshots  []Screenshot
}

// Validate returns [ErrMultiline] if any value of p contains a line break.
func (p Patch) Validate() error {
	values := []*string{p.Title, p.Emoji, p.Component, p.Module, p.Severity, p.Priority, p.Effort, p.Description, p.UserStory}
	for _, value := range values {
		if value != nil && hasLineBreak(*value) {
			return ErrMultiline
		}
	}

	for _, list := range [][]string{p.Specs, p.Reproduction, p.Dependencies, p.Constraints, p.Screens} {
		if slices.ContainsFunc(list, hasLineBreak) {
			return ErrMultiline
		}
	}

	for _, c := range p.Criteria {
		if hasLineBreak(c.Text) {
			return fmt.Errorf("%w: criterion %q", ErrMultiline, c.Text)
		}
	}

	for _, shot := range p.Screenshots {
		if hasLineBreak(shot.Alt) || hasLineBreak(shot.Path) {
			return ErrMultiline
		}
	}

	return nil
}

// fieldsOf returns a patch that sets every field of item.
func fieldsOf(item Item) Patch {
	return Patch{
		Title:        &item.Title,
		Emoji:        &item.Emoji,
		Component:    &item.Component,
		Module:       &item.Module,
		Severity:     &item.Severity,
		Priority:     &item.Priority,
		Effort:       &item.Effort,
		Description:  &item.Description,
		UserStory:    &item.UserStory,
		Specs:        item.Specs,
		Reproduction: item.Reproduction,
		Criteria:     item.Criteria,
		Dependencies: item.Dependencies,
		Constraints:  item.Constraints,
		Screens:      item.Screens,
		Screenshots:  item.Screenshots,
	}
}

func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// UpdateItem returns a copy of item with patch applied and its RawMarkdown
// regenerated in canonical form. The blank and rule lines that ended the
// original block are kept, so neighbouring blocks render as before. The
// input item is not modified.
func UpdateItem(item Item, patch Patch) Item {
	updated := cloneItem(item)

	setString(&updated.Title, patch.Title)
	setString(&updated.Emoji, patch.Emoji)
	setString(&updated.Component, patch.Component)
	setString(&updated.Module, patch.Module)
	setString(&updated.Severity, patch.Severity)
	setString(&updated.Priority, patch.Priority)
	setString(&updated.Effort, patch.Effort)
	setString(&updated.Description, patch.Description)
	setString(&updated.UserStory, patch.UserStory)

	setList(&updated.Specs, patch.Specs)
	setList(&updated.Reproduction, patch.Reproduction)
	setList(&updated.Criteria, patch.Criteria)
	setList(&updated.Dependencies, patch.Dependencies)
	setList(&updated.Constraints, patch.Constraints)
	setList(&updated.Screens, patch.Screens)
	setList(&updated.Screenshots, patch.Screenshots)

	return regenerate(updated, item.RawMarkdown)
}

// ToggleCriterion returns a copy of item with Criteria[index].Checked
// flipped and RawMarkdown regenerated like [UpdateItem]. Any non-canonical
// spacing of the original block is lost on the first mutation.
func ToggleCriterion(item Item, index int) (Item, error) {
	if index < 0 || index >= len(item.Criteria) {
		return Item{}, fmt.Errorf("%w: %s has %d criteria, got index %d", ErrCriterionIndex, item.ID, len(item.Criteria), index)
	}

	updated := cloneItem(item)
	updated.Criteria[index].Checked = !updated.Criteria[index].Checked

	return regenerate(updated, item.RawMarkdown), nil
}

func regenerate(item Item, previousRaw string) Item {
	item.RawMarkdown = RenderItem(item) + trailingSeparators(previousRaw)

	return item
}

func cloneItem(item Item) Item {
	item.Specs = slices.Clone(item.Specs)
	item.Reproduction = slices.Clone(item.Reproduction)
	item.Criteria = slices.Clone(item.Criteria)
	item.Dependencies = slices.Clone(item.Dependencies)
	item.Constraints = slices.Clone(item.Constraints)
	item.Screens = slices.Clone(item.Screens)
	item.Screenshots = slices.Clone(item.Screenshots)

	return item
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func setList[T any](dst *[]T, value []T) {
	if value == nil {
		return
	}

	if len(value) == 0 {
		*dst = nil

		return
	}

	*dst = slices.Clone(value)
}

// ReplaceItem returns a backlog in which the first entry of
// item.SectionIndex with item's id is replaced by item. Sections other
// than the target are shared with b, which is not modified.
func ReplaceItem(b *Backlog, item Item) (*Backlog, error) {
	if item.SectionIndex < 0 || item.SectionIndex >= len(b.Sections) {
		return nil, fmt.Errorf("%w: %d", ErrSectionIndex, item.SectionIndex)
	}

	section := b.Sections[item.SectionIndex]

	pos := slices.IndexFunc(section.Entries, func(e Entry) bool {
		return e.Kind == EntryItem && e.Item.ID == item.ID
	})
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, item.ID)
	}

	entries := slices.Clone(section.Entries)
	entries[pos] = ItemEntry(item)
	section.Entries = entries

	return withSection(b, item.SectionIndex, section), nil
}

// UpdateBacklogItem applies patch to the first item with id and returns the
// new backlog together with the updated item. A patch with multi-line
// values is rejected with [ErrMultiline].
func UpdateBacklogItem(b *Backlog, id string, patch Patch) (*Backlog, Item, error) {
	if err := patch.Validate(); err != nil {
		return nil, Item{}, err
	}

	item, ok := b.Item(id)
	if !ok {
		return nil, Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	updated := UpdateItem(item, patch)

	next, err := ReplaceItem(b, updated)
	if err != nil {
		return nil, Item{}, err
	}

	return next, updated, nil
}

// ToggleBacklogCriterion toggles criterion index of the first item with id.
func ToggleBacklogCriterion(b *Backlog, id string, index int) (*Backlog, Item, error) {
	item, ok := b.Item(id)
	if !ok {
		return nil, Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	updated, err := ToggleCriterion(item, index)
	if err != nil {
		return nil, Item{}, err
	}

	next, err := ReplaceItem(b, updated)
	if err != nil {
		return nil, Item{}, err
	}

	return next, updated, nil
}

// RemoveItem returns a backlog without the first item with id. A section
// left without items turns back into a raw section carrying its type
// marker, so the result still parses to the same model.
func RemoveItem(b *Backlog, id string) (*Backlog, error) {
	item, ok := b.Item(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	section := b.Sections[item.SectionIndex]

	pos := slices.IndexFunc(section.Entries, func(e Entry) bool {
		return e.Kind == EntryItem && e.Item.ID == id
	})

	section.Entries = slices.Delete(slices.Clone(section.Entries), pos, pos+1)

	if len(section.Entries) == 0 {
		raw := emptySection(section.Title, section.Intro)
		if raw.DeclaredType == "" && item.Type != "" && !emptyMarkRe.MatchString(section.Intro) {
			raw = RawSection{
				Title:        section.Title,
				RawMarkdown:  "\n" + TypeMarker(item.Type) + "\n" + section.Intro,
				DeclaredType: item.Type,
			}
		}

		section.Intro = ""
		section.Entries = []Entry{RawEntry(raw)}
	}

	return withSection(b, item.SectionIndex, section), nil
}

// AddItem appends item to section sectionIndex with a freshly rendered
// block. The item type is derived from its id when empty; multi-line
// field values are rejected with [ErrMultiline]. A section that
// held only a raw placeholder keeps that text as its intro.
func AddItem(b *Backlog, sectionIndex int, item Item) (*Backlog, Item, error) {
	if sectionIndex < 0 || sectionIndex >= len(b.Sections) {
		return nil, Item{}, fmt.Errorf("%w: %d", ErrSectionIndex, sectionIndex)
	}

	if strings.TrimSpace(item.ID) == "" || strings.ContainsAny(item.ID, " |\n") {
		return nil, Item{}, fmt.Errorf("%w: %q", ErrInvalidID, item.ID)
	}

	if err := fieldsOf(item).Validate(); err != nil {
		return nil, Item{}, err
	}

	if item.Type == "" {
		t, err := TypeOf(item.ID, b.Types()...)
		if err != nil {
			return nil, Item{}, err
		}

		item.Type = t
	}

	section := b.Sections[sectionIndex]
	if isRawTitle(section.Title) {
		return nil, Item{}, fmt.Errorf("%w: %q", ErrRawSection, section.Title)
	}

	entries := slices.Clone(section.Entries)

	trailer := "\n"
	prefix := ""

	if len(entries) == 1 && entries[0].Kind == EntryRaw {
		section.Intro += entries[0].Raw.RawMarkdown
		entries = entries[:0]
	}

	if n := len(entries); n > 0 {
		last := entries[n-1].RawMarkdown()
		if sep := trailingSeparators(last); sep != "" && entries[n-1].Kind == EntryItem {
			trailer = sep
		}

		if !strings.HasSuffix(last, "\n") {
			prefix = "\n"
		}
	} else if section.Intro != "" && !strings.HasSuffix(section.Intro, "\n") {
		prefix = "\n"
	}

	item = cloneItem(item)
	item.SectionIndex = sectionIndex
	item.RawMarkdown = prefix + RenderItem(item) + trailer

	section.Entries = append(entries, ItemEntry(item))

	return withSection(b, sectionIndex, section), item, nil
}

// NextID returns the next free id for type t, e.g. "BUG-014". Ids of all
// entries count, duplicates and table group rows included.
func NextID(b *Backlog, t ItemType) string {
	idRe := regexp.MustCompile(`^` + regexp.QuoteMeta(string(t)) + `-(\d+)$`)

	highest := 0
	consider := func(id string) {
		if match := idRe.FindStringSubmatch(id); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n > highest {
				highest = n
			}
		}
	}

	for _, section := range b.Sections {
		for _, entry := range section.Entries {
			switch entry.Kind {
			case EntryItem:
				consider(entry.Item.ID)
			case EntryTableGroup:
				consider(entry.TableGroup.FromID)
				consider(entry.TableGroup.ToID)

				for _, row := range entry.TableGroup.Rows {
					consider(row.ID)
				}
			case EntryRaw:
			}
		}
	}

	return fmt.Sprintf("%s-%03d", t, highest+1)
}

func withSection(b *Backlog, index int, section Section) *Backlog {
	next := *b
	next.Sections = slices.Clone(b.Sections)
	next.Sections[index] = section

	return &next
}
