// Package content loads the phrase and fact catalogs served by the daily
// broadcasts and the quiz. Catalogs are plain JSON arrays on disk; a
// missing or malformed file falls back to a small embedded list so the
// process always starts with something to send.
package content

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Record is one teachable item. He and Ru are mandatory, Note and
// Category are optional.
type Record struct {
	He       string `json:"he"`
	Ru       string `json:"ru"`
	Note     string `json:"note,omitempty"`
	Category string `json:"category,omitempty"`
}

// Catalog holds the loaded phrase and fact lists. Facts are additionally
// indexed per category so each category can rotate independently.
type Catalog struct {
	Phrases []Record
	Facts   []Record

	factsByCategory map[string][]Record
	categories      []string
}

// NewCatalog builds a catalog from the two record lists.
func NewCatalog(phrases, facts []Record) *Catalog {
	c := &Catalog{
		Phrases:         phrases,
		Facts:           facts,
		factsByCategory: make(map[string][]Record),
	}
	for _, f := range facts {
		cat := normalizeCategory(f.Category)
		if _, seen := c.factsByCategory[cat]; !seen {
			c.categories = append(c.categories, cat)
		}
		c.factsByCategory[cat] = append(c.factsByCategory[cat], f)
	}
	return c
}

// FactCategories returns category names in file order.
func (c *Catalog) FactCategories() []string {
	return c.categories
}

// FactsFor returns the facts of one category, file order preserved.
func (c *Catalog) FactsFor(category string) []Record {
	return c.factsByCategory[normalizeCategory(category)]
}

func normalizeCategory(cat string) string {
	cat = strings.ToLower(strings.TrimSpace(cat))
	if cat == "" {
		return "general"
	}
	return cat
}

// LoadRecords reads a JSON record list from path. Every record must carry
// both source and translated text.
func LoadRecords(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty record list", path)
	}
	for i, r := range records {
		if strings.TrimSpace(r.He) == "" || strings.TrimSpace(r.Ru) == "" {
			return nil, fmt.Errorf("%s: record %d is missing he/ru text", path, i)
		}
	}
	return records, nil
}
