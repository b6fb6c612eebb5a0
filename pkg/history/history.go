// Package history implements snapshot-based undo and redo with nested
// transactions.
//
// The engine is generic over the snapshot type and never aliases the values it
// is given: every snapshot is copied with the Copier on the way in and on the
// way out. Re-applying a snapshot during Undo or Redo happens under a
// restoring guard, so pushes triggered by the re-application are ignored.
package history

import (
	"errors"
	"log/slog"

	"github.com/aretw0/flowcanvas/internal/logging"
)

// DefaultMaxSize is the number of snapshots kept when no limit is configured.
const DefaultMaxSize = 100

// ErrInvalidMaxSize is returned by New for a non-positive size limit.
var ErrInvalidMaxSize = errors.New("history size must be positive")

// Copier returns a deep copy of a snapshot.
type Copier[S any] func(S) S

// Recorder receives history activity. observability.Metrics implements it.
type Recorder interface {
	HistoryPushed()
	HistoryUndone()
	HistoryRedone()
	HistorySize(n int)
}

// Guard is the reentrancy state consulted before every push.
type Guard struct {
	Restoring bool
	Depth     int
}

// Suppressed reports whether pushes are currently ignored.
func (g Guard) Suppressed() bool {
	return g.Restoring || g.Depth > 0
}

type config struct {
	maxSize  int
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*config)

// WithMaxSize bounds the number of snapshots kept. The oldest are evicted first.
func WithMaxSize(n int) Option {
	return func(c *config) { c.maxSize = n }
}

// WithRecorder reports activity to r.
func WithRecorder(r Recorder) Option {
	return func(c *config) { c.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Engine is an undo/redo stack of snapshots with a cursor.
// It is not safe for concurrent use.
type Engine[S any] struct {
	copy    Copier[S]
	entries []S
	cursor  int
	guard   Guard
	cfg     config
}

// New creates an empty engine.
func New[S any](copier Copier[S], opts ...Option) (*Engine[S], error) {
	cfg := config{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxSize < 1 {
		return nil, ErrInvalidMaxSize
	}
	if copier == nil {
		copier = func(s S) S { return s }
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	return &Engine[S]{copy: copier, cursor: -1, cfg: cfg}, nil
}

// Push records a snapshot as the newest state. Entries after the cursor (the
// redo tail) are discarded. It is ignored while restoring or while a
// transaction is open, and reports whether the snapshot was recorded.
func (e *Engine[S]) Push(s S) bool {
	if e.guard.Suppressed() {
		return false
	}
	e.record(s)
	return true
}

func (e *Engine[S]) record(s S) {
	e.entries = append(e.entries[:e.cursor+1], e.copy(s))
	e.cursor++
	if len(e.entries) > e.cfg.maxSize {
		clear(e.entries[:1])
		e.entries = e.entries[1:]
		e.cursor--
	}
	if e.cfg.recorder != nil {
		e.cfg.recorder.HistoryPushed()
		e.cfg.recorder.HistorySize(len(e.entries))
	}
}

// Undo steps the cursor back and returns a copy of the snapshot it lands on.
// When apply is non-nil it receives its own copy under the restoring guard.
// It reports false, doing nothing, when there is nothing to undo.
func (e *Engine[S]) Undo(apply func(S)) (S, bool) {
	if !e.CanUndo() {
		var zero S
		return zero, false
	}
	e.cursor--
	if e.cfg.recorder != nil {
		e.cfg.recorder.HistoryUndone()
	}
	e.cfg.logger.Debug("history undo", "cursor", e.cursor, "size", len(e.entries))
	return e.restore(apply), true
}

// Redo steps the cursor forward; see Undo.
func (e *Engine[S]) Redo(apply func(S)) (S, bool) {
	if !e.CanRedo() {
		var zero S
		return zero, false
	}
	e.cursor++
	if e.cfg.recorder != nil {
		e.cfg.recorder.HistoryRedone()
	}
	e.cfg.logger.Debug("history redo", "cursor", e.cursor, "size", len(e.entries))
	return e.restore(apply), true
}

func (e *Engine[S]) restore(apply func(S)) S {
	if apply != nil {
		e.guard.Restoring = true
		defer func() { e.guard.Restoring = false }()
		apply(e.copy(e.entries[e.cursor]))
	}
	return e.copy(e.entries[e.cursor])
}

// BeginTransaction opens a (possibly nested) transaction. Pushes are ignored
// until the outermost transaction ends.
func (e *Engine[S]) BeginTransaction() {
	e.guard.Depth++
}

// EndTransaction closes a transaction. When the outermost transaction closes
// and final is non-nil, final is recorded as a single step. An End without a
// matching Begin is ignored and reports false.
func (e *Engine[S]) EndTransaction(final *S) bool {
	if e.guard.Depth == 0 {
		e.cfg.logger.Warn("history transaction end without begin")
		return false
	}
	e.guard.Depth--
	if e.guard.Depth == 0 && final != nil && !e.guard.Restoring {
		e.record(*final)
	}
	return true
}

// Reset drops every entry and records initial as the only snapshot.
func (e *Engine[S]) Reset(initial S) {
	clear(e.entries)
	e.entries = e.entries[:0]
	e.cursor = -1
	e.guard = Guard{}
	e.BeginTransaction()
	e.EndTransaction(&initial)
}

// Current returns a copy of the snapshot at the cursor.
func (e *Engine[S]) Current() (S, bool) {
	if e.cursor < 0 {
		var zero S
		return zero, false
	}
	return e.copy(e.entries[e.cursor]), true
}

// CanUndo reports whether an older snapshot exists.
func (e *Engine[S]) CanUndo() bool {
	return e.cursor > 0
}

// CanRedo reports whether a newer snapshot exists.
func (e *Engine[S]) CanRedo() bool {
	return e.cursor >= 0 && e.cursor < len(e.entries)-1
}

// Len returns the number of snapshots kept.
func (e *Engine[S]) Len() int {
	return len(e.entries)
}

// Cursor returns the index of the current snapshot, -1 when empty.
func (e *Engine[S]) Cursor() int {
	return e.cursor
}

// Guard returns the current reentrancy state.
func (e *Engine[S]) Guard() Guard {
	return e.guard
}
