// Package http exposes an Editor over a JSON API routed with chi.
//
// Every request runs under one mutex: the editor is single threaded. After a
// mutating request the change is diffed against the previous state and the
// diff is broadcast to the clients subscribed on GET /events.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Server serves one Editor.
type Server struct {
	mu      sync.Mutex
	editor  *flowcanvas.Editor
	last    domain.GraphState
	streams *StreamManager
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer wraps editor.
func NewServer(editor *flowcanvas.Editor, opts ...Option) *Server {
	s := &Server{
		editor:  editor,
		streams: NewStreamManager(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.last = editor.State()
	return s
}

// Streams returns the diff broadcaster.
func (s *Server) Streams() *StreamManager { return s.streams }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/events", s.subscribeEvents)

	r.Get("/state", s.getState)
	r.Get("/document", s.getDocument)
	r.Get("/definitions", s.getDefinitions)
	r.Put("/view", s.putView)

	r.Route("/nodes", func(r chi.Router) {
		r.Post("/", s.createNode)
		r.Get("/{id}", s.getNode)
		r.Patch("/{id}", s.patchNode)
		r.Delete("/{id}", s.deleteNode)
		r.Put("/{id}/data", s.putNodeData)
		r.Post("/{id}/ports", s.addPort)
	})
	r.Route("/ports", func(r chi.Router) {
		r.Patch("/{id}", s.patchPort)
		r.Delete("/{id}", s.deletePort)
	})
	r.Route("/connections", func(r chi.Router) {
		r.Post("/", s.createConnection)
		r.Delete("/{id}", s.deleteConnection)
	})
	r.Route("/groups", func(r chi.Router) {
		r.Post("/", s.createGroup)
		r.Patch("/{id}", s.patchGroup)
		r.Delete("/{id}", s.deleteGroup)
		r.Post("/{id}/composite", s.convertGroup)
	})
	r.Route("/notes", func(r chi.Router) {
		r.Post("/", s.createNote)
		r.Patch("/{id}", s.patchNote)
		r.Delete("/{id}", s.deleteNote)
	})

	r.Post("/selection/delete", s.deleteSelection)
	r.Post("/clipboard/copy", s.copySelection)
	r.Post("/clipboard/paste", s.paste)
	r.Post("/navigate", s.navigate)
	r.Post("/navigate/up", s.navigateUp)
	r.Post("/undo", s.undo)
	r.Post("/redo", s.redo)
	r.Post("/save", s.save)
	r.Post("/load", s.load)

	return r
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", fmt.Sprint(rec))
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// mutate runs fn under the editor lock and broadcasts the resulting diff.
func (s *Server) mutate(fn func(ed *flowcanvas.Editor) (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := fn(s.editor)
	current := s.editor.State()
	if diff := domain.Diff(&s.last, &current); diff != nil {
		if payload, mErr := json.Marshal(diff); mErr == nil {
			s.streams.Broadcast(s.editor.DocumentID(), string(payload))
		}
	}
	s.last = current
	return out, err
}

// read runs fn under the editor lock.
func (s *Server) read(fn func(ed *flowcanvas.Editor) any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

func (s *Server) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

type errorBody struct {
	Error    string        `json:"error"`
	Reason   domain.Reason `json:"reason,omitempty"`
	Entities []string      `json:"entities,omitempty"`
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	var rej *domain.RejectError
	switch {
	case errors.As(err, &rej):
		status := http.StatusConflict
		if rej.Reason == domain.ReasonNotFound {
			status = http.StatusNotFound
		}
		s.reply(w, status, errorBody{Error: rej.Error(), Reason: rej.Reason, Entities: rej.Entities})
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrDefinitionNotFound):
		s.reply(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		s.reply(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		s.reply(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

// respond writes out, or the error, of a mutation.
func (s *Server) respond(w http.ResponseWriter, status int, out any, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	s.reply(w, status, out)
}

func (s *Server) notFound(w http.ResponseWriter, op, id string) {
	s.fail(w, domain.Reject(op, domain.ReasonNotFound, id))
}
