/*
Package flowcanvas is the state engine of a visual flow editor.

It keeps the structural graph a canvas UI draws: typed nodes with fixed and
dynamic ports, directed connections between ports, node groups, sticky notes
and composite nodes that own nested subgraphs. Every edit is validated against
the graph invariants (port direction, cardinality, no duplicate or dangling
connections, single group membership) and recorded as a snapshot in an undo
history. The engine does not render anything and does not execute nodes.

# Concept

An Editor is bound to one document of a snapshot store. Edits go through the
live stores (Graph, Groups, Notes) or through the session helpers (Copy,
Paste, DeleteSelection, ConvertGroupToComposite, NavigateTo). Each completed
edit becomes one undo step. Rejected edits return a *domain.RejectError whose
Reason says why, and are also reported to failure listeners.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/flowcanvas"
		"github.com/aretw0/flowcanvas/pkg/adapters/memory"
		"github.com/aretw0/flowcanvas/pkg/domain"
	)

	func main() {
		catalog, _ := memory.NewCatalog(
			domain.Definition{ID: "http", Title: "HTTP", DefaultOutputs: []domain.PortTemplate{{Name: "body"}}},
			domain.Definition{ID: "log", Title: "Log", DefaultInputs: []domain.PortTemplate{{Name: "in"}}},
		)
		ed, err := flowcanvas.New("my-flow", flowcanvas.WithCatalog(catalog))
		if err != nil {
			log.Fatal(err)
		}

		src, _ := ed.CreateNode("http", domain.Position{X: 0, Y: 0})
		dst, _ := ed.CreateNode("log", domain.Position{X: 300, Y: 0})
		if _, err := ed.Graph().CreateConnection(src.FixedOutputs[0].ID, dst.FixedInputs[0].ID); err != nil {
			log.Fatal(err)
		}

		ed.Undo() // removes the connection

		if err := ed.Save(context.Background()); err != nil {
			log.Fatal(err)
		}
	}
*/
package flowcanvas
