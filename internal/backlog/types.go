package backlog

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// builtinTypes are the id prefixes every backlog understands.
var builtinTypes = []ItemType{
	TypeBug, TypeShortTerm, TypeLongTerm, TypeAutomation,
	TypeAdmin, TypeExtension, TypeCosmetic, TypeData,
}

// BuiltinTypes returns the built-in item types in display order.
func BuiltinTypes() []ItemType {
	return slices.Clone(builtinTypes)
}

// sectionTypeAliases maps normalized section titles to type codes.
var sectionTypeAliases = map[string]ItemType{
	"bug":                    TypeBug,
	"bugs":                   TypeBug,
	"court terme":            TypeShortTerm,
	"short term":             TypeShortTerm,
	"long terme":             TypeLongTerm,
	"long term":              TypeLongTerm,
	"automatisation":         TypeAutomation,
	"automatisations":        TypeAutomation,
	"automation":             TypeAutomation,
	"administration":         TypeAdmin,
	"admin":                  TypeAdmin,
	"extension":              TypeExtension,
	"extensions":             TypeExtension,
	"features":               TypeExtension,
	"fonctionnalités":        TypeExtension,
	"cosmétique":             TypeCosmetic,
	"cosmetique":             TypeCosmetic,
	"cosmetic":               TypeCosmetic,
	"data":                   TypeData,
	"données":                TypeData,
	"bugs & petites features": TypeBug,
}

var (
	idPrefixRe   = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)-`)
	typeMarkerRe = regexp.MustCompile(`<!--\s*(?i:type)\s*:\s*([A-Za-z0-9_]+)\s*-->`)
	emptyMarkRe  = regexp.MustCompile(`<!--\s*(?i:empty section)\s*-->`)
	customTypeRe = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _-]*$`)
)

// emptySectionMarker marks a section that has no items and no type.
const emptySectionMarker = "<!-- empty section -->"

// TypeMarker renders the comment line declaring a section's item type.
func TypeMarker(t ItemType) string {
	return "<!-- Type: " + string(t) + " -->"
}

// typeTable resolves id prefixes for one parse call.
type typeTable map[ItemType]struct{}

func newTypeTable(extra ...[]ItemType) typeTable {
	table := make(typeTable, len(builtinTypes))
	for _, t := range builtinTypes {
		table[t] = struct{}{}
	}

	for _, list := range extra {
		for _, t := range list {
			table[ItemType(strings.ToUpper(string(t)))] = struct{}{}
		}
	}

	return table
}

// resolve derives the type of an item id.
func (tt typeTable) resolve(id string) (ItemType, error) {
	match := idPrefixRe.FindStringSubmatch(id)
	if match == nil {
		return "", fmt.Errorf("%w: %q has no type prefix", ErrUnknownType, id)
	}

	prefix := ItemType(match[1])
	if _, ok := tt[prefix]; !ok {
		return "", fmt.Errorf("%w: %q (prefix %s)", ErrUnknownType, id, prefix)
	}

	return prefix, nil
}

// TypeOf returns the item type encoded in id, considering only built-in
// types and the given extra ones.
func TypeOf(id string, extra ...ItemType) (ItemType, error) {
	return newTypeTable(extra).resolve(id)
}

// declaredTypes collects every type marker in text, in order.
func declaredTypes(text string) []ItemType {
	var out []ItemType

	for _, match := range typeMarkerRe.FindAllStringSubmatch(text, -1) {
		t := ItemType(strings.ToUpper(match[1]))
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}

	return out
}

// TypeFromTitle derives a type code from a section title. Known titles map
// through an alias table; other titles made of letters, digits, spaces,
// dashes and underscores become an upper-cased, underscored custom code
// ("BUG V5" -> "BUG_V5"). ok is false when no code can be derived.
func TypeFromTitle(title string) (ItemType, bool) {
	key := strings.ToLower(strings.TrimSpace(stripLeadingSymbols(title)))
	if key == "" {
		return "", false
	}

	if t, ok := sectionTypeAliases[key]; ok {
		return t, true
	}

	if !customTypeRe.MatchString(key) {
		return "", false
	}

	code := strings.ToUpper(strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_"))

	return ItemType(code), code != ""
}

// stripLeadingSymbols drops emoji and punctuation in front of a title.
func stripLeadingSymbols(title string) string {
	return strings.TrimLeftFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
