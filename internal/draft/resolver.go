// internal/draft/resolver.go
package draft

import (
	"context"
	"fmt"
	"sync"
)

type Subcategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// CategorySource supplies the category reference tree, typically backed by
// the categories table or endpoint.
type CategorySource interface {
	Categories(ctx context.Context) ([]Category, error)
}

// Resolver loads the category/subcategory reference tree once per editing
// session and maps between reference IDs (used while editing) and display
// names (used in the persisted payload). The tree is read-only after Load.
type Resolver struct {
	source CategorySource

	mu         sync.RWMutex
	categories []Category
	loaded     bool
}

func NewResolver(source CategorySource) *Resolver {
	return &Resolver{source: source}
}

// Load fetches the tree. Idempotent: a second call is a no-op.
func (r *Resolver) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	categories, err := r.source.Categories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	r.categories = categories
	r.loaded = true
	return nil
}

// Categories returns the loaded tree in source order.
func (r *Resolver) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// SubcategoriesFor returns the subcategory list of the matching category.
// An unknown parent yields an empty list, not an error.
func (r *Resolver) SubcategoriesFor(categoryID string) []Subcategory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.categories {
		if c.ID == categoryID {
			out := make([]Subcategory, len(c.Subcategories))
			copy(out, c.Subcategories)
			return out
		}
	}
	return []Subcategory{}
}

// ResolveNames maps reference IDs to display names. A reference that no
// longer resolves (deleted or renamed upstream) degrades silently to an
// empty string: the persisted payload stores names, not references.
func (r *Resolver) ResolveNames(categoryID, subcategoryID string) (string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.categories {
		if c.ID != categoryID {
			continue
		}
		for _, sc := range c.Subcategories {
			if sc.ID == subcategoryID {
				return c.Name, sc.Name
			}
		}
		return c.Name, ""
	}
	return "", ""
}
