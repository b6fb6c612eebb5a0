package memory

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Catalog implements ports.DefinitionCatalog over an in-memory set.
// Safe for concurrent use.
type Catalog struct {
	mu   sync.RWMutex
	defs map[string]domain.Definition
}

// NewCatalog creates a catalog holding copies of defs.
// It fails on a definition without ID or on duplicate IDs.
func NewCatalog(defs ...domain.Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]domain.Definition, len(defs))}
	for _, d := range defs {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a definition. IDs must be unique.
func (c *Catalog) Register(d domain.Definition) error {
	if d.ID == "" {
		return fmt.Errorf("definition missing ID")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.defs[d.ID]; exists {
		return fmt.Errorf("duplicate definition %q", d.ID)
	}
	c.defs[d.ID] = d.Clone()
	return nil
}

// Definition returns a copy of the definition with the given ID.
func (c *Catalog) Definition(id string) (domain.Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.defs[id]
	if !ok {
		return domain.Definition{}, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	return d.Clone(), nil
}

// Definitions returns copies of every definition, ordered by ID.
func (c *Catalog) Definitions() ([]domain.Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b domain.Definition) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}
