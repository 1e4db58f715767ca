package model

import "strings"

// categoryAliases maps common spellings to canonical consumable categories.
var categoryAliases = map[string]string{
	"engine-oil":    "oil",
	"motor-oil":     "oil",
	"pads":          "brake-pads",
	"discs":         "brake-discs",
	"rotors":        "brake-discs",
	"plugs":         "spark-plugs",
	"tyres":         "tires",
	"wipers":        "wiper-blades",
	"antifreeze":    "coolant",
	"pollen-filter": "cabin-filter",
}

// NormalizeCategory lowercases a category, joins words with dashes and
// resolves known aliases, e.g. "Engine Oil" becomes "oil".
func NormalizeCategory(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "-")
	if alias, ok := categoryAliases[s]; ok {
		return alias
	}
	return s
}

// CategoryKey returns the normalized category, falling back to the
// normalized name and then to "other".
func (c ConsumableItem) CategoryKey() string {
	if k := NormalizeCategory(c.Category); k != "" {
		return k
	}
	if k := NormalizeCategory(c.Name); k != "" {
		return k
	}
	return "other"
}
