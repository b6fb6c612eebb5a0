package flowcanvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/flowcanvas/internal/runtime"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ids"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/aretw0/flowcanvas/pkg/session"
)

// ErrMissingDocumentID is returned by New when no document id is given.
var ErrMissingDocumentID = errors.New("document id is required")

// Editor is the high-level entry point of the library: an editing session
// bound to one document of a snapshot store.
// Like the stores it wraps, it is not safe for concurrent use.
type Editor struct {
	*runtime.Controller

	docID    string
	sessions *session.Manager

	store       ports.SnapshotStore
	locker      ports.DistributedLocker
	catalog     ports.DefinitionCatalog
	ids         ids.Generator
	metrics     *observability.Metrics
	historySize int
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithStore sets where documents are persisted (default: in memory).
func WithStore(store ports.SnapshotStore) Option {
	return func(e *Editor) {
		e.store = store
	}
}

// WithLocker serializes persistence of the document across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Editor) {
		e.locker = locker
	}
}

// WithCatalog sets the catalog node definitions are resolved from.
func WithCatalog(catalog ports.DefinitionCatalog) Option {
	return func(e *Editor) {
		e.catalog = catalog
	}
}

// WithIDGenerator replaces the random UUID identifiers.
func WithIDGenerator(g ids.Generator) Option {
	return func(e *Editor) {
		e.ids = g
	}
}

// WithMetrics reports editor activity to Prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Editor) {
		e.metrics = m
	}
}

// WithHistorySize bounds the number of undo steps (default 100).
func WithHistorySize(n int) Option {
	return func(e *Editor) {
		e.historySize = n
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// New creates an editor for document docID holding an empty graph.
// Call Load or Open to bring in the persisted document.
func New(docID string, opts ...Option) (*Editor, error) {
	if docID == "" {
		return nil, ErrMissingDocumentID
	}
	e := &Editor{docID: docID}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e.logger = e.logger.With("document", docID)

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)

	runtimeOpts := []runtime.Option{runtime.WithLogger(e.logger)}
	if e.catalog != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithCatalog(e.catalog))
	}
	if e.ids != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithIDGenerator(e.ids))
	}
	if e.metrics != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithMetrics(e.metrics))
	}
	if e.historySize != 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithHistorySize(e.historySize))
	}

	ctrl, err := runtime.New(runtimeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create editing session: %w", err)
	}
	e.Controller = ctrl
	return e, nil
}

// DocumentID returns the id the editor persists under.
func (e *Editor) DocumentID() string {
	return e.docID
}

// Sessions returns the persistence manager.
func (e *Editor) Sessions() *session.Manager {
	return e.sessions
}

// Save persists the whole document, including every subgraph.
func (e *Editor) Save(ctx context.Context) error {
	doc := e.Document()
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}
	if doc.Metadata[domain.KeyFormatVersion] == "" {
		doc.Metadata[domain.KeyFormatVersion] = domain.FormatVersion
	}
	if err := e.sessions.Save(ctx, e.docID, &doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	e.logger.Debug("document saved", "nodes", len(doc.Nodes))
	return nil
}

// Load replaces the editor content with the persisted document. When the
// document does not exist, domain.ErrDocumentNotFound is returned and the
// editor is left untouched.
func (e *Editor) Load(ctx context.Context) error {
	doc, err := e.sessions.Load(ctx, e.docID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	e.LoadDocument(*doc)
	return nil
}

// Open loads the persisted document, creating an empty one first when it
// does not exist yet.
func (e *Editor) Open(ctx context.Context) error {
	doc, err := e.sessions.LoadOrCreate(ctx, e.docID)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	e.LoadDocument(*doc)
	return nil
}

// Clear deletes the persisted document and empties the editor.
func (e *Editor) Clear(ctx context.Context) error {
	if err := e.sessions.Delete(ctx, e.docID); err != nil {
		return fmt.Errorf("failed to clear document: %w", err)
	}
	e.LoadDocument(domain.NewGraphState())
	return nil
}
