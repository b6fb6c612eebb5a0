/*
Package ports defines the driven ports (interfaces) of the flowcanvas editor.

These interfaces decouple the graph engine from external implementations, allowing
documents to be persisted in various backends and node definitions to come from
any catalog.

# Key Interfaces

  - SnapshotStore: Persists and loads whole documents (a domain.GraphState tree).
  - DefinitionCatalog: Supplies the node definitions that nodes are instantiated from.
  - DistributedLocker: Provides distributed locking for concurrent document access.
*/
package ports
