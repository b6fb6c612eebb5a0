// Package runtime implements the editing session: the live stores of the graph
// being edited, the tree of composite subgraphs around it, navigation through
// that tree, group-to-composite extraction and the undo history.
package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/annotation"
	"github.com/aretw0/flowcanvas/pkg/clipboard"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/group"
	"github.com/aretw0/flowcanvas/pkg/history"
	"github.com/aretw0/flowcanvas/pkg/ids"
	"github.com/aretw0/flowcanvas/pkg/notify"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// ErrNoCatalog is returned when a node is created by definition ID but the
// controller was built without a catalog.
var ErrNoCatalog = errors.New("no definition catalog configured")

// Controller is an editing session over one document.
// It is not safe for concurrent use; callers serialize access.
type Controller struct {
	dispatcher *notify.Dispatcher
	graph      *graph.Store
	groups     *group.Store
	notes      *annotation.Store
	clipboard  *clipboard.Clipboard
	history    *history.Engine[domain.GraphState]

	catalog ports.DefinitionCatalog
	ids     ids.Generator
	logger  *slog.Logger
	metrics *observability.Metrics

	historySize int

	// root is the document tree. The slot of the active graph (root itself
	// or the subgraph of the last node of path) is stale while it is being
	// edited and is refreshed by writeBack.
	root domain.GraphState
	path []string
	view domain.ViewState

	dirty    bool
	failures notify.Listeners[*domain.RejectError]
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger shared by the controller and its stores.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithIDGenerator sets the identifier allocator shared by every store.
func WithIDGenerator(g ids.Generator) Option {
	return func(c *Controller) { c.ids = g }
}

// WithCatalog sets the catalog CreateNode resolves definitions from.
func WithCatalog(cat ports.DefinitionCatalog) Option {
	return func(c *Controller) { c.catalog = cat }
}

// WithMetrics reports history activity, rejections and graph size.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithHistorySize bounds the number of undo steps kept.
func WithHistorySize(n int) Option {
	return func(c *Controller) { c.historySize = n }
}

// New creates a controller editing an empty document.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{
		historySize: history.DefaultMaxSize,
		root:        domain.NewGraphState(),
		view:        domain.DefaultViewState,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.ids == nil {
		c.ids = ids.UUID{}
	}

	histOpts := []history.Option{history.WithMaxSize(c.historySize), history.WithLogger(c.logger)}
	if c.metrics != nil {
		histOpts = append(histOpts, history.WithRecorder(c.metrics))
	}
	h, err := history.New(domain.CloneGraphState, histOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create history: %w", err)
	}
	c.history = h

	c.dispatcher = notify.NewDispatcher()
	c.graph = graph.New(
		graph.WithDispatcher(c.dispatcher),
		graph.WithIDGenerator(c.ids),
		graph.WithLogger(c.logger),
	)
	c.groups = group.New(c.graph, group.WithIDGenerator(c.ids), group.WithLogger(c.logger))
	c.notes = annotation.New(
		annotation.WithDispatcher(c.dispatcher),
		annotation.WithIDGenerator(c.ids),
		annotation.WithLogger(c.logger),
	)
	c.clipboard = clipboard.New(c.ids)

	c.graph.AddNodeListener(domain.NodeListenerFunc(func(domain.NodeEvent) { c.dirty = true }))
	c.graph.AddConnectionListener(domain.ConnectionListenerFunc(func(domain.ConnectionEvent) { c.dirty = true }))
	c.groups.AddGroupListener(domain.GroupListenerFunc(func(domain.GroupEvent) { c.dirty = true }))
	c.notes.AddNoteListener(domain.NoteListenerFunc(func(domain.NoteEvent) { c.dirty = true }))
	if c.metrics != nil {
		c.AddFailureListener(c.metrics)
	}
	c.dispatcher.OnIdle(c.batchCompleted)

	c.history.Reset(c.State())
	return c, nil
}

// batchCompleted records one history step per notification batch that
// changed the active graph. Batches delivered while the history is restoring
// or inside a transaction are not recorded.
func (c *Controller) batchCompleted() {
	if !c.dirty {
		return
	}
	c.dirty = false
	if c.metrics != nil {
		c.metrics.ObserveState(c.State())
	}
	if c.history.Guard().Suppressed() {
		return
	}
	c.history.Push(c.State())
}

// AddFailureListener subscribes l to rejections of every store.
func (c *Controller) AddFailureListener(l domain.FailureListener) func() {
	removers := []func(){
		c.graph.AddFailureListener(l),
		c.groups.AddFailureListener(l),
		c.notes.AddFailureListener(l),
		c.failures.Add(l.OperationFailed),
	}
	return func() {
		for _, remove := range removers {
			remove()
		}
	}
}

func (c *Controller) reject(op string, reason domain.Reason, entities ...string) error {
	err := domain.Reject(op, reason, entities...)
	c.logger.Debug("session operation rejected", "op", op, "reason", reason, "entities", strings.Join(entities, ","))
	c.failures.Emit(c.dispatcher, err)
	return err
}

// Graph returns the live graph store of the active graph.
func (c *Controller) Graph() *graph.Store { return c.graph }

// Groups returns the live group store of the active graph.
func (c *Controller) Groups() *group.Store { return c.groups }

// Notes returns the live annotation store of the active graph.
func (c *Controller) Notes() *annotation.Store { return c.notes }

// Clipboard returns the session clipboard.
func (c *Controller) Clipboard() *clipboard.Clipboard { return c.clipboard }

// History returns the undo history of the active graph.
func (c *Controller) History() *history.Engine[domain.GraphState] { return c.history }

// Catalog returns the configured definition catalog, or nil.
func (c *Controller) Catalog() ports.DefinitionCatalog { return c.catalog }

// State captures the active graph as a snapshot.
func (c *Controller) State() domain.GraphState {
	nodes, conns := c.graph.Snapshot()
	return domain.GraphState{
		Nodes:       nodes,
		Connections: conns,
		StickyNotes: c.notes.Snapshot(),
		NodeGroups:  c.groups.Snapshot(),
		ViewState:   c.view,
	}
}

// View returns the camera of the active graph.
func (c *Controller) View() domain.ViewState { return c.view }

// SetView moves the camera. Camera moves are not recorded in the history.
func (c *Controller) SetView(v domain.ViewState) {
	c.view = v
}

// load replaces the live stores with s in one batch. The batch is not
// recorded: callers either reset the history or are restoring from it.
func (c *Controller) load(s domain.GraphState) {
	c.history.BeginTransaction()
	defer c.history.EndTransaction(nil)

	c.dispatcher.Begin()
	defer c.dispatcher.End()

	c.graph.Load(s.Nodes, s.Connections)
	c.groups.Load(s.NodeGroups)
	c.notes.Load(s.StickyNotes)
	c.view = s.ViewState
}

// restore re-applies a history snapshot. The camera is left where it is.
func (c *Controller) restore(s domain.GraphState) {
	view := c.view
	c.load(s)
	c.view = view
}

// Undo reverts the last recorded step. It returns what changed in the active
// graph and false when there was nothing to undo. The camera is not part of
// the restore: State() equals the recorded snapshot in everything but
// ViewState.
func (c *Controller) Undo() (*domain.StateDiff, bool) {
	before := c.State()
	if _, ok := c.history.Undo(c.restore); !ok {
		return nil, false
	}
	after := c.State()
	return domain.Diff(&before, &after), true
}

// Redo re-applies the last undone step; see Undo.
func (c *Controller) Redo() (*domain.StateDiff, bool) {
	before := c.State()
	if _, ok := c.history.Redo(c.restore); !ok {
		return nil, false
	}
	after := c.State()
	return domain.Diff(&before, &after), true
}

// CanUndo reports whether Undo would do anything.
func (c *Controller) CanUndo() bool { return c.history.CanUndo() }

// CanRedo reports whether Redo would do anything.
func (c *Controller) CanRedo() bool { return c.history.CanRedo() }

// Validate checks the invariants of the whole document.
func (c *Controller) Validate() error {
	return graph.ValidateState(c.Document())
}
