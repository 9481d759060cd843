package backlog

// AllItems returns every item in section order, keeping only the first
// occurrence of each id. The per-section entries still hold the later
// duplicates; only this flattened view drops them.
func (b *Backlog) AllItems() []Item {
	items, _ := b.flatten()

	return items
}

// DuplicateItems returns the later occurrences that [Backlog.AllItems] drops.
func (b *Backlog) DuplicateItems() []Item {
	_, dups := b.flatten()

	return dups
}

// DuplicateWarnings reports one [Warning] per dropped duplicate.
func (b *Backlog) DuplicateWarnings() []Warning {
	dups := b.DuplicateItems()
	if len(dups) == 0 {
		return nil
	}

	warnings := make([]Warning, 0, len(dups))
	for _, dup := range dups {
		warnings = append(warnings, Warning{Kind: WarnDuplicateID, ItemID: dup.ID, Value: dup.Title})
	}

	return warnings
}

func (b *Backlog) flatten() ([]Item, []Item) {
	var (
		items []Item
		dups  []Item
	)

	seen := make(map[string]struct{})

	for _, section := range b.Sections {
		for _, entry := range section.Entries {
			if entry.Kind != EntryItem {
				continue
			}

			if _, ok := seen[entry.Item.ID]; ok {
				dups = append(dups, *entry.Item)

				continue
			}

			seen[entry.Item.ID] = struct{}{}
			items = append(items, *entry.Item)
		}
	}

	return items, dups
}

// ItemsByType returns the deduplicated items of one type, in order.
func (b *Backlog) ItemsByType(t ItemType) []Item {
	var out []Item

	for _, item := range b.AllItems() {
		if item.Type == t {
			out = append(out, item)
		}
	}

	return out
}

// Item returns the first item with the given id.
func (b *Backlog) Item(id string) (Item, bool) {
	for _, item := range b.AllItems() {
		if item.ID == id {
			return item, true
		}
	}

	return Item{}, false
}

// TableGroups returns all table groups in section order.
func (b *Backlog) TableGroups() []TableGroup {
	var out []TableGroup

	for _, section := range b.Sections {
		for _, entry := range section.Entries {
			if entry.Kind == EntryTableGroup {
				out = append(out, *entry.TableGroup)
			}
		}
	}

	return out
}

// Types returns the item types present in the backlog, including types
// only declared by an empty section's marker, in first-seen order.
func (b *Backlog) Types() []ItemType {
	var out []ItemType

	seen := make(map[ItemType]struct{})
	add := func(t ItemType) {
		if t == "" {
			return
		}

		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	for _, section := range b.Sections {
		for _, entry := range section.Entries {
			switch entry.Kind {
			case EntryItem:
				add(entry.Item.Type)
			case EntryRaw:
				add(entry.Raw.DeclaredType)
			case EntryTableGroup:
				if t, err := TypeOf(entry.TableGroup.FromID, out...); err == nil {
					add(t)
				}
			}
		}
	}

	return out
}
