package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/runtime"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
)

type stateResponse struct {
	Document string            `json:"document"`
	Path     []string          `json:"path"`
	State    domain.GraphState `json:"state"`
	CanUndo  bool              `json:"can_undo"`
	CanRedo  bool              `json:"can_redo"`
}

type historyResponse struct {
	Applied bool              `json:"applied"`
	Diff    *domain.StateDiff `json:"diff,omitempty"`
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.reply(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.reply(w, http.StatusOK, map[string]string{
		"app":            "flowcanvas-http",
		"version":        strings.TrimSpace(flowcanvas.Version),
		"format_version": domain.FormatVersion,
	})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	resp := s.read(func(ed *flowcanvas.Editor) any {
		return stateResponse{
			Document: ed.DocumentID(),
			Path:     ed.Path(),
			State:    ed.State(),
			CanUndo:  ed.CanUndo(),
			CanRedo:  ed.CanRedo(),
		}
	})
	s.reply(w, http.StatusOK, resp)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.read(func(ed *flowcanvas.Editor) any { return ed.Document() })
	s.reply(w, http.StatusOK, doc)
}

func (s *Server) getDefinitions(w http.ResponseWriter, r *http.Request) {
	var err error
	defs := s.read(func(ed *flowcanvas.Editor) any {
		if ed.Catalog() == nil {
			return []domain.Definition{}
		}
		var defs []domain.Definition
		defs, err = ed.Catalog().Definitions()
		return defs
	})
	s.respond(w, http.StatusOK, defs, err)
}

func (s *Server) putView(w http.ResponseWriter, r *http.Request) {
	var view domain.ViewState
	if !s.decode(w, r, &view) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		ed.SetView(view)
		return ed.View(), nil
	})
	s.respond(w, http.StatusOK, out, err)
}

// -- Nodes --

type createNodeRequest struct {
	Definition string          `json:"definition"`
	Position   domain.Position `json:"position"`
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var body createNodeRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.CreateNode(body.Definition, body.Position)
	})
	s.respond(w, http.StatusCreated, out, err)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var found bool
	n := s.read(func(ed *flowcanvas.Editor) any {
		n, ok := ed.Graph().Node(id)
		found = ok
		return n
	})
	if !found {
		s.notFound(w, "getNode", id)
		return
	}
	s.reply(w, http.StatusOK, n)
}

type patchNodeRequest struct {
	Title    *string          `json:"title"`
	Position *domain.Position `json:"position"`
	Width    *float64         `json:"width"`
	Height   *float64         `json:"height"`
}

func (s *Server) patchNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body patchNodeRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		n, ok := ed.Graph().Node(id)
		if !ok {
			return nil, domain.Reject("patchNode", domain.ReasonNotFound, id)
		}
		g := ed.Graph()
		g.Dispatcher().Begin()
		defer g.Dispatcher().End()

		if body.Title != nil {
			if err := g.RenameNode(id, *body.Title); err != nil {
				return nil, err
			}
		}
		if body.Position != nil {
			if err := g.MoveNode(id, *body.Position); err != nil {
				return nil, err
			}
		}
		if body.Width != nil || body.Height != nil {
			width, height := n.Width, n.Height
			if body.Width != nil {
				width = *body.Width
			}
			if body.Height != nil {
				height = *body.Height
			}
			if err := g.ResizeNode(id, width, height); err != nil {
				return nil, err
			}
		}
		n, _ = g.Node(id)
		return n, nil
	})
	s.respond(w, http.StatusOK, out, err)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Graph().DeleteNode(id), nil
	})
	if !deleted.(bool) {
		s.notFound(w, "deleteNode", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type nodeDataRequest struct {
	Data    map[string]any `json:"data"`
	OldData map[string]any `json:"old_data,omitempty"`
}

func (s *Server) putNodeData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body nodeDataRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		if err := ed.Graph().UpdateNodeData(id, body.Data, body.OldData); err != nil {
			return nil, err
		}
		n, _ := ed.Graph().Node(id)
		return n, nil
	})
	s.respond(w, http.StatusOK, out, err)
}

type addPortRequest struct {
	Direction domain.PortDirection `json:"direction"`
	Name      string               `json:"name"`
	Variable  string               `json:"variable,omitempty"`
}

func (s *Server) addPort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body addPortRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		if body.Direction == domain.DirectionOutput {
			return ed.Graph().AddDynamicOutputPort(id, body.Name)
		}
		return ed.Graph().AddDynamicInputPort(id, body.Name, body.Variable)
	})
	s.respond(w, http.StatusCreated, out, err)
}

// -- Ports --

type patchPortRequest struct {
	Name           *string `json:"name"`
	MaxConnections *int    `json:"max_connections"`
	Hidden         *bool   `json:"hidden"`
	VariableName   *string `json:"variable_name"`
	OutputValue    any     `json:"output_value"`
}

func (s *Server) patchPort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body patchPortRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Graph().UpdatePort(id, graph.PortUpdate{
			Name:           body.Name,
			MaxConnections: body.MaxConnections,
			Hidden:         body.Hidden,
			VariableName:   body.VariableName,
			OutputValue:    body.OutputValue,
		})
	})
	s.respond(w, http.StatusOK, out, err)
}

func (s *Server) deletePort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Graph().RemovePort(id), nil
	})
	if !removed.(bool) {
		s.notFound(w, "removePort", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Connections --

type createConnectionRequest struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Data   map[string]any `json:"data,omitempty"`
}

func (s *Server) createConnection(w http.ResponseWriter, r *http.Request) {
	var body createConnectionRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Graph().CreateConnectionWithData(body.Source, body.Target, body.Data)
	})
	s.respond(w, http.StatusCreated, out, err)
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Graph().DeleteConnection(id), nil
	})
	if !deleted.(bool) {
		s.notFound(w, "deleteConnection", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Groups --

type createGroupRequest struct {
	Nodes []string `json:"nodes"`
	Title string   `json:"title"`
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var body createGroupRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Groups().CreateGroup(body.Nodes, body.Title)
	})
	s.respond(w, http.StatusCreated, out, err)
}

type patchGroupRequest struct {
	Title *string            `json:"title"`
	Move  *domain.Position   `json:"move"`
	Style *domain.GroupStyle `json:"style"`
	Add   []string           `json:"add"`
}

func (s *Server) patchGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body patchGroupRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		groups := ed.Groups()
		ed.Graph().Dispatcher().Begin()
		defer ed.Graph().Dispatcher().End()

		if body.Title != nil {
			if err := groups.RenameGroup(id, *body.Title); err != nil {
				return nil, err
			}
		}
		if body.Style != nil {
			if err := groups.UpdateStyle(id, *body.Style); err != nil {
				return nil, err
			}
		}
		for _, nodeID := range body.Add {
			if err := groups.AddNodeToGroup(id, nodeID); err != nil {
				return nil, err
			}
		}
		if body.Move != nil {
			if err := groups.MoveGroup(id, *body.Move); err != nil {
				return nil, err
			}
		}
		g, ok := groups.Group(id)
		if !ok {
			return nil, domain.Reject("patchGroup", domain.ReasonNotFound, id)
		}
		return g, nil
	})
	s.respond(w, http.StatusOK, out, err)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	children, _ := strconv.ParseBool(r.URL.Query().Get("children"))
	deleted, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Groups().DeleteGroup(id, children), nil
	})
	if !deleted.(bool) {
		s.notFound(w, "deleteGroup", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) convertGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.ConvertGroupToComposite(id)
	})
	s.respond(w, http.StatusCreated, out, err)
}

// -- Notes --

type createNoteRequest struct {
	Content  string          `json:"content"`
	Position domain.Position `json:"position"`
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var body createNoteRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Notes().CreateNote(body.Content, body.Position), nil
	})
	s.reply(w, http.StatusCreated, out)
}

type patchNoteRequest struct {
	Content *string           `json:"content"`
	Style   *domain.NoteStyle `json:"style"`
}

func (s *Server) patchNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body patchNoteRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		notes := ed.Notes()
		ed.Graph().Dispatcher().Begin()
		defer ed.Graph().Dispatcher().End()

		if body.Content != nil {
			if err := notes.UpdateNote(id, *body.Content); err != nil {
				return nil, err
			}
		}
		if body.Style != nil {
			if err := notes.UpdateStyle(id, *body.Style); err != nil {
				return nil, err
			}
		}
		n, ok := notes.Note(id)
		if !ok {
			return nil, domain.Reject("patchNote", domain.ReasonNotFound, id)
		}
		return n, nil
	})
	s.respond(w, http.StatusOK, out, err)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Notes().DeleteNote(id), nil
	})
	if !deleted.(bool) {
		s.notFound(w, "deleteNote", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Session --

func (s *Server) deleteSelection(w http.ResponseWriter, r *http.Request) {
	var sel runtime.Selection
	if !s.decode(w, r, &sel) {
		return
	}
	out, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return map[string]int{"removed": ed.DeleteSelection(sel)}, nil
	})
	s.reply(w, http.StatusOK, out)
}

func (s *Server) copySelection(w http.ResponseWriter, r *http.Request) {
	var sel runtime.Selection
	if !s.decode(w, r, &sel) {
		return
	}
	out := s.read(func(ed *flowcanvas.Editor) any {
		return map[string]int{"copied": ed.Copy(sel)}
	})
	s.reply(w, http.StatusOK, out)
}

func (s *Server) paste(w http.ResponseWriter, r *http.Request) {
	var target domain.Position
	if !s.decode(w, r, &target) {
		return
	}
	out, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return ed.Paste(target), nil
	})
	s.reply(w, http.StatusOK, out)
}

type navigateRequest struct {
	Node string `json:"node"`
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	s.doNavigate(w, r, (*flowcanvas.Editor).NavigateTo)
}

func (s *Server) navigateUp(w http.ResponseWriter, r *http.Request) {
	s.doNavigate(w, r, (*flowcanvas.Editor).NavigateUpTo)
}

func (s *Server) doNavigate(w http.ResponseWriter, r *http.Request, nav func(*flowcanvas.Editor, string) error) {
	var body navigateRequest
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		if err := nav(ed, body.Node); err != nil {
			return nil, err
		}
		return map[string][]string{"path": ed.Path()}, nil
	})
	s.respond(w, http.StatusOK, out, err)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	out, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		diff, ok := ed.Undo()
		return historyResponse{Applied: ok, Diff: diff}, nil
	})
	s.reply(w, http.StatusOK, out)
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	out, _ := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		diff, ok := ed.Redo()
		return historyResponse{Applied: ok, Diff: diff}, nil
	})
	s.reply(w, http.StatusOK, out)
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	_, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return nil, ed.Save(r.Context())
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) {
	_, err := s.mutate(func(ed *flowcanvas.Editor) (any, error) {
		return nil, ed.Load(r.Context())
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
