// Package catalog holds the read-only evaluation structure: rubric
// categories with their items, plus the academic year and trimester options.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultDocument []byte

// Item is a single ratable competency.
type Item struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Category groups items under a rubric heading.
type Category struct {
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
	Items    []Item `yaml:"items" json:"items"`
}

// Catalog is the evaluation structure document.
type Catalog struct {
	AcademicYears []string   `yaml:"academicYears" json:"academicYears"`
	Trimesters    []string   `yaml:"trimesters" json:"trimesters"`
	Categories    []Category `yaml:"categories" json:"categories"`
}

// Default returns the embedded catalog. It panics only if the embedded
// document is broken, which the package tests rule out.
func Default() *Catalog {
	c, err := Parse(defaultDocument)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from path; an empty path yields Default().
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	return Parse(b)
}

// Parse decodes and checks a YAML (or JSON) catalog document.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) check() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}
	cats := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.ID == "" {
			return fmt.Errorf("%w: category without id", ErrInvalidCatalog)
		}
		if cats[cat.ID] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, cat.ID)
		}
		cats[cat.ID] = true
		items := make(map[string]bool, len(cat.Items))
		for _, it := range cat.Items {
			if it.ID == "" {
				return fmt.Errorf("%w: item without id in category %q", ErrInvalidCatalog, cat.ID)
			}
			if items[it.ID] {
				return fmt.Errorf("%w: duplicate item %q in category %q", ErrInvalidCatalog, it.ID, cat.ID)
			}
			items[it.ID] = true
		}
	}
	return nil
}

// Category looks up a category by id.
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Item looks up an item inside a category.
func (c *Catalog) Item(categoryID, itemID string) (Item, bool) {
	cat, ok := c.Category(categoryID)
	if !ok {
		return Item{}, false
	}
	for _, it := range cat.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}

// ItemCount returns the number of ratable items across all categories.
func (c *Catalog) ItemCount() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Items)
	}
	return n
}

// HasAcademicYear reports whether y is a configured option.
func (c *Catalog) HasAcademicYear(y string) bool { return contains(c.AcademicYears, y) }

// HasTrimester reports whether t is a configured option.
func (c *Catalog) HasTrimester(t string) bool { return contains(c.Trimesters, t) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
