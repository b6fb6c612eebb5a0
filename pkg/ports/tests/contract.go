package tests

import (
	"errors"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// DefinitionCatalogContractTest is a reusable test suite that verifies if an adapter complies with ports.DefinitionCatalog.
// expected holds the definitions the catalog was set up with.
func DefinitionCatalogContractTest(t *testing.T, catalog ports.DefinitionCatalog, expected []domain.Definition) {
	t.Helper()

	// 1. Test Definition (Success)
	t.Run("Definition_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := catalog.Definition(want.ID)
			if err != nil {
				t.Fatalf("unexpected error getting definition %s: %v", want.ID, err)
			}
			if got.ID != want.ID || got.Title != want.Title {
				t.Errorf("definition mismatch for %s. got %q/%q, want %q/%q", want.ID, got.ID, got.Title, want.ID, want.Title)
			}
			if len(got.DefaultInputs) != len(want.DefaultInputs) || len(got.DefaultOutputs) != len(want.DefaultOutputs) {
				t.Errorf("port templates mismatch for %s", want.ID)
			}
		}
	})

	// 2. Test Definition (NotFound)
	t.Run("Definition_NotFound", func(t *testing.T) {
		_, err := catalog.Definition("non-existent-definition")
		if !errors.Is(err, domain.ErrDefinitionNotFound) {
			t.Errorf("expected ErrDefinitionNotFound, got %v", err)
		}
	})

	// 3. Test Definitions
	t.Run("Definitions", func(t *testing.T) {
		defs, err := catalog.Definitions()
		if err != nil {
			t.Fatalf("unexpected error listing definitions: %v", err)
		}

		if len(defs) != len(expected) {
			t.Errorf("expected %d definitions, got %d", len(expected), len(defs))
		}

		for i := 1; i < len(defs); i++ {
			if defs[i-1].ID > defs[i].ID {
				t.Errorf("definitions not ordered by id: %s before %s", defs[i-1].ID, defs[i].ID)
			}
		}

		lookup := make(map[string]bool)
		for _, d := range defs {
			lookup[d.ID] = true
		}
		for _, want := range expected {
			if !lookup[want.ID] {
				t.Errorf("definition %s missing from list", want.ID)
			}
		}
	})

	// 4. Returned definitions are copies
	t.Run("Definition_NotAliased", func(t *testing.T) {
		for _, want := range expected {
			first, _ := catalog.Definition(want.ID)
			for k := range first.DefaultDataValues {
				first.DefaultDataValues[k] = "mutated"
			}
			again, _ := catalog.Definition(want.ID)
			for k, v := range again.DefaultDataValues {
				if v == "mutated" {
					t.Errorf("catalog returned aliased data defaults for %s.%s", want.ID, k)
				}
			}
		}
	})
}
