package ports

import "github.com/aretw0/flowcanvas/pkg/domain"

// DefinitionCatalog supplies the node definitions the editor instantiates.
// Definitions are returned by value; the editor never mutates them.
type DefinitionCatalog interface {
	// Definition returns the definition with the given ID.
	// Returns domain.ErrDefinitionNotFound if the catalog has no such definition.
	Definition(id string) (domain.Definition, error)

	// Definitions returns every definition, ordered by ID.
	Definitions() ([]domain.Definition, error)
}
