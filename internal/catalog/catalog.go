// Package catalog maps detector class ids to sellable products.
package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/ayusman/kiosk/internal/store"
)

// Item is a product as seen by the cart: a display name and a unit price.
type Item struct {
	ClassID int     `json:"class_id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
}

// Catalog is an immutable class id lookup shared by every session.
type Catalog struct {
	items map[int]Item
}

// New builds a Catalog from items. Later items with a repeated class id win.
func New(items []Item) *Catalog {
	c := &Catalog{items: make(map[int]Item, len(items))}
	for _, it := range items {
		c.items[it.ClassID] = it
	}
	return c
}

// Lookup returns the item for classID.
func (c *Catalog) Lookup(classID int) (Item, bool) {
	it, ok := c.items[classID]
	return it, ok
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns all products ordered by class id.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClassID < out[j].ClassID
	})
	return out
}

// SeededAtKey is the settings key recording when the default products were written.
const SeededAtKey = "catalog.seeded_at"

// Load seeds the products table with the built-in list when it is empty and returns the
// resulting catalog. It is meant to run once at startup.
func Load(s *store.Store) (*Catalog, error) {
	seed := make([]store.Product, 0, len(defaults))
	for _, it := range defaults {
		seed = append(seed, store.Product{ClassID: it.ClassID, Name: it.Name, Price: it.Price})
	}

	wrote, err := s.Products().Seed(seed)
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if wrote {
		if err := s.Settings().Set(SeededAtKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return nil, fmt.Errorf("record catalog seed: %w", err)
		}
	}

	products, err := s.Products().List()
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]Item, 0, len(products))
	for _, p := range products {
		items = append(items, Item{ClassID: p.ClassID, Name: p.Name, Price: p.Price})
	}
	return New(items), nil
}
