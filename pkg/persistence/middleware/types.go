// Package middleware wraps a ports.SnapshotStore with cross-cutting behavior
// applied on the way to and from storage.
package middleware

import "github.com/aretw0/flowcanvas/pkg/ports"

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain wraps store with mws. The first middleware is the outermost: it sees
// documents before the others on Save and after them on Load.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
