/*
Package domain contains the core data model of the flowcanvas graph engine.

It defines the entities that make up an editable flow graph, their value-semantics
copy operations and the typed failures reported when an edit is rejected. This
package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Node: A typed box on the canvas owning four port lists and an opaque data tree.
    A node with a Subgraph is a composite node.
  - Port: A directional attachment point (input or output) with a connection cardinality.
  - Connection: A directed link from an output port to an input port of another node.
  - StickyNote: A free-standing annotation with no structural relationships.
  - NodeGroup: A titled rectangle owning a set of member nodes.
  - GraphState: A self-contained snapshot of one graph, the unit of save, load, undo and nesting.

Relationships are always expressed as id strings (port.Connections, connection endpoints,
group.ChildNodes, node.GroupID), never as pointers, so snapshots never share mutable state.
*/
package domain
