// Package annotation owns the sticky notes of a graph.
package annotation

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ids"
	"github.com/aretw0/flowcanvas/pkg/notify"
)

// Store holds sticky notes. It is not safe for concurrent use.
type Store struct {
	notes map[string]*domain.StickyNote

	dispatcher *notify.Dispatcher
	ids        ids.Generator
	logger     *slog.Logger

	listeners        notify.Listeners[domain.NoteEvent]
	failureListeners notify.Listeners[*domain.RejectError]
}

type Option func(*Store)

func WithDispatcher(d *notify.Dispatcher) Option {
	return func(s *Store) { s.dispatcher = d }
}

func WithIDGenerator(g ids.Generator) Option {
	return func(s *Store) { s.ids = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(opts ...Option) *Store {
	s := &Store{notes: make(map[string]*domain.StickyNote)}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = notify.NewDispatcher()
	}
	if s.ids == nil {
		s.ids = ids.UUID{}
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

func (s *Store) AddNoteListener(l domain.NoteListener) func() {
	return s.listeners.Add(l.NoteChanged)
}

func (s *Store) AddFailureListener(l domain.FailureListener) func() {
	return s.failureListeners.Add(l.OperationFailed)
}

func (s *Store) notFound(op, id string) error {
	err := domain.Reject(op, domain.ReasonNotFound, id)
	s.logger.Debug("note operation rejected", "op", op, "id", id)
	s.failureListeners.Emit(s.dispatcher, err)
	return err
}

func (s *Store) emit(kind domain.ChangeKind, n *domain.StickyNote) {
	s.listeners.Emit(s.dispatcher, domain.NoteEvent{Kind: kind, NoteID: n.ID, Note: *n})
}

// CreateNote adds a note with the default size and style.
func (s *Store) CreateNote(content string, pos domain.Position) domain.StickyNote {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n := &domain.StickyNote{
		ID:       s.ids.NewID(),
		Content:  content,
		Position: pos,
		Width:    domain.DefaultNoteWidth,
		Height:   domain.DefaultNoteHeight,
		Style:    domain.DefaultNoteStyle,
	}
	s.notes[n.ID] = n
	s.emit(domain.ChangeCreated, n)
	return *n
}

// AddNote inserts a pre-built note, as produced by a paste.
func (s *Store) AddNote(note domain.StickyNote) (domain.StickyNote, error) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	if note.ID == "" {
		note.ID = s.ids.NewID()
	}
	if _, exists := s.notes[note.ID]; exists {
		err := domain.Reject("addNote", domain.ReasonConflict, note.ID)
		s.failureListeners.Emit(s.dispatcher, err)
		return domain.StickyNote{}, err
	}
	n := note.Clone()
	s.notes[n.ID] = &n
	s.emit(domain.ChangeCreated, &n)
	return n, nil
}

func (s *Store) UpdateNote(id, content string) error {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.notes[id]
	if !ok {
		return s.notFound("updateNote", id)
	}
	n.Content = content
	s.emit(domain.ChangeUpdated, n)
	return nil
}

func (s *Store) UpdateStyle(id string, style domain.NoteStyle) error {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.notes[id]
	if !ok {
		return s.notFound("updateNoteStyle", id)
	}
	n.Style = style
	s.emit(domain.ChangeUpdated, n)
	return nil
}

// UpdateRect moves and resizes a note. Non-positive dimensions keep the
// current size.
func (s *Store) UpdateRect(id string, pos domain.Position, width, height float64) error {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.notes[id]
	if !ok {
		return s.notFound("updateNoteRect", id)
	}
	n.Position = pos
	if width > 0 {
		n.Width = width
	}
	if height > 0 {
		n.Height = height
	}
	s.emit(domain.ChangeResized, n)
	return nil
}

// MoveNotes translates every existing note of noteIDs by delta and returns how
// many were moved.
func (s *Store) MoveNotes(noteIDs []string, delta domain.Position) int {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	moved := 0
	for _, id := range noteIDs {
		if n, ok := s.notes[id]; ok {
			n.Position = n.Position.Add(delta)
			s.emit(domain.ChangeMoved, n)
			moved++
		}
	}
	return moved
}

func (s *Store) DeleteNote(id string) bool {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	n, ok := s.notes[id]
	if !ok {
		return false
	}
	delete(s.notes, id)
	s.emit(domain.ChangeDeleted, n)
	return true
}

func (s *Store) DeleteNotes(noteIDs []string) int {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	deleted := 0
	for _, id := range noteIDs {
		if s.DeleteNote(id) {
			deleted++
		}
	}
	return deleted
}

func (s *Store) Note(id string) (domain.StickyNote, bool) {
	n, ok := s.notes[id]
	if !ok {
		return domain.StickyNote{}, false
	}
	return *n, true
}

// Notes returns every note ordered by id.
func (s *Store) Notes() []domain.StickyNote {
	out := make([]domain.StickyNote, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b domain.StickyNote) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) Len() int { return len(s.notes) }

func (s *Store) Snapshot() []domain.StickyNote { return s.Notes() }

// Load replaces every note.
func (s *Store) Load(notes []domain.StickyNote) {
	s.dispatcher.Begin()
	defer s.dispatcher.End()

	clear(s.notes)
	for _, n := range notes {
		cp := n.Clone()
		s.notes[cp.ID] = &cp
	}
	s.listeners.Emit(s.dispatcher, domain.NoteEvent{Kind: domain.ChangeReset})
}

func (s *Store) Clear() {
	s.Load(nil)
}
