package core

import (
	"errors"
	"fmt"
	"strings"
)

// Uncategorized groups expenses recorded without a category.
const Uncategorized = "Uncategorized"

// MaxCategories is the largest catalog a single-choice menu can present.
const MaxCategories = 25

// DefaultCategories is the catalog offered by the guided add flow.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Housing",
	"Utilities",
	"Entertainment",
	"Health",
	"Shopping",
	"Other",
}

// Catalog is the fixed set of category labels accepted by the bot.
type Catalog struct {
	names []string
	index map[string]string
}

// NewCatalog builds a catalog preserving input order and dropping duplicates.
func NewCatalog(names []string) (Catalog, error) {
	c := Catalog{index: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := c.index[key]; ok {
			continue
		}
		if strings.EqualFold(n, Uncategorized) {
			return Catalog{}, fmt.Errorf("category %q is reserved", n)
		}
		c.index[key] = n
		c.names = append(c.names, n)
	}
	if len(c.names) == 0 {
		return Catalog{}, errors.New("empty category catalog")
	}
	if len(c.names) > MaxCategories {
		return Catalog{}, fmt.Errorf("too many categories: %d (max %d)", len(c.names), MaxCategories)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static inputs.
func MustCatalog(names []string) Catalog {
	c, err := NewCatalog(names)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns the categories in menu order.
func (c Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Lookup resolves name case-insensitively to its canonical label.
func (c Catalog) Lookup(name string) (string, bool) {
	v, ok := c.index[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// StoredCategory cleans a category read back from a store. Labels outside
// the current catalog are kept as written, so editing the catalog never hides
// recorded history. Uncategorized maps to "".
func StoredCategory(name string) string {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, Uncategorized) {
		return ""
	}
	return name
}
