package receipt

import (
	"strings"

	"expensedash/internal/core"
)

// Rule maps keywords found in a vendor name or item line to a category.
type Rule struct {
	Category string
	Keywords []string
}

// KeywordCategorizer picks a category by case-insensitive keyword match.
// Rules are checked in order; the vendor is checked before the items.
type KeywordCategorizer struct {
	rules []Rule
}

func NewKeywordCategorizer(rules []Rule) *KeywordCategorizer {
	return &KeywordCategorizer{rules: rules}
}

// DefaultRules cover the stock categories.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Food & Dining", Keywords: []string{"market", "grocery", "supermarket", "restaurant", "cafe", "coffee", "bakery", "pizza", "deli", "bistro", "bread", "milk"}},
		{Category: "Transportation", Keywords: []string{"uber", "lyft", "taxi", "fuel", "gas station", "shell", "parking", "metro", "train", "bus"}},
		{Category: "Housing", Keywords: []string{"rent", "landlord", "mortgage", "property"}},
		{Category: "Entertainment", Keywords: []string{"cinema", "netflix", "spotify", "theater", "theatre", "concert", "tickets", "games"}},
		{Category: "Shopping", Keywords: []string{"store", "mall", "outlet", "clothing", "shoes", "amazon", "boutique"}},
		{Category: "Utilities", Keywords: []string{"electric", "water", "internet", "utility", "power", "telecom"}},
		{Category: "Healthcare", Keywords: []string{"pharmacy", "clinic", "hospital", "doctor", "dental", "medical"}},
		{Category: "Personal Care", Keywords: []string{"salon", "barber", "haircut", "spa", "cosmetics"}},
		{Category: "Education", Keywords: []string{"school", "university", "bookstore", "course", "tuition"}},
	}
}

// Categorize returns the first rule category that matches and is in known,
// or "" when nothing matches.
func (c *KeywordCategorizer) Categorize(vendor string, items []string, known core.CategorySet) string {
	texts := append([]string{vendor}, items...)
	for _, text := range texts {
		lower := strings.ToLower(text)
		if lower == "" {
			continue
		}
		for _, r := range c.rules {
			if !known.Has(r.Category) {
				continue
			}
			for _, kw := range r.Keywords {
				if strings.Contains(lower, kw) {
					return r.Category
				}
			}
		}
	}
	return ""
}
