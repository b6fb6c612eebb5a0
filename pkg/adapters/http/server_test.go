package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flowcanvas"
	httpadapter "github.com/aretw0/flowcanvas/pkg/adapters/http"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ids"
	"github.com/aretw0/flowcanvas/pkg/observability"
)

type fixture struct {
	t       *testing.T
	server  *httpadapter.Server
	handler http.Handler
	store   *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := memory.NewCatalog(
		domain.Definition{ID: "source", Title: "Source", DefaultOutputs: []domain.PortTemplate{{Name: "out"}}},
		domain.Definition{ID: "sink", Title: "Sink", DefaultInputs: []domain.PortTemplate{{Name: "in"}}},
	)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	store := memory.NewStore()
	ed, err := flowcanvas.New("doc",
		flowcanvas.WithCatalog(catalog),
		flowcanvas.WithStore(store),
		flowcanvas.WithIDGenerator(ids.NewSequence("id-")),
		flowcanvas.WithMetrics(metrics),
	)
	require.NoError(t, err)

	srv := httpadapter.NewServer(ed, httpadapter.WithMetricsHandler(metrics.Handler()))
	return &fixture{t: t, server: srv, handler: srv.Handler(), store: store}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// connectPair creates a source and a sink node and returns their port ids.
func (f *fixture) connectPair() (string, string) {
	w := f.do(http.MethodPost, "/nodes", map[string]any{"definition": "source", "position": map[string]float64{"x": 0, "y": 0}})
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	src := decode[domain.Node](f.t, w)

	w = f.do(http.MethodPost, "/nodes", map[string]any{"definition": "sink", "position": map[string]float64{"x": 300, "y": 0}})
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	dst := decode[domain.Node](f.t, w)

	return src.FixedOutputs[0].ID, dst.FixedInputs[0].ID
}

func TestServer_HealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w = f.do(http.MethodGet, "/info", nil)
	info := decode[map[string]string](t, w)
	assert.Equal(t, flowcanvas.Version, info["version"])
	assert.Equal(t, domain.FormatVersion, info["format_version"])

	w = f.do(http.MethodGet, "/definitions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	defs := decode[[]domain.Definition](t, w)
	require.Len(t, defs, 2)
	assert.Equal(t, "sink", defs[0].ID)
}

func TestServer_ConnectionRejections(t *testing.T) {
	f := newFixture(t)
	out, in := f.connectPair()

	w := f.do(http.MethodPost, "/connections", map[string]string{"source": out, "target": in})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("duplicate is a conflict", func(t *testing.T) {
		w := f.do(http.MethodPost, "/connections", map[string]string{"source": out, "target": in})
		assert.Equal(t, http.StatusConflict, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, string(domain.ReasonDuplicate), body["reason"])
	})

	t.Run("unknown port is not found", func(t *testing.T) {
		w := f.do(http.MethodPost, "/connections", map[string]string{"source": "nope", "target": in})
		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, string(domain.ReasonNotFound), body["reason"])
		assert.Contains(t, body["entities"], "nope")
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/connections", strings.NewReader("{"))
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_UndoRedoReturnDiff(t *testing.T) {
	f := newFixture(t)
	out, in := f.connectPair()
	w := f.do(http.MethodPost, "/connections", map[string]string{"source": out, "target": in})
	conn := decode[domain.Connection](t, w)

	w = f.do(http.MethodPost, "/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	undo := decode[map[string]json.RawMessage](t, w)
	assert.JSONEq(t, `true`, string(undo["applied"]))
	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal(undo["diff"], &diff))
	require.NotNil(t, diff.Connections)
	assert.Equal(t, []string{conn.ID}, diff.Connections.Removed)

	w = f.do(http.MethodPost, "/redo", nil)
	redo := decode[map[string]json.RawMessage](t, w)
	require.NoError(t, json.Unmarshal(redo["diff"], &diff))
	assert.Equal(t, []string{conn.ID}, diff.Connections.Added)

	state := decode[map[string]json.RawMessage](t, f.do(http.MethodGet, "/state", nil))
	assert.JSONEq(t, `true`, string(state["can_undo"]))
	assert.JSONEq(t, `false`, string(state["can_redo"]))
}

func TestServer_NodeLifecycle(t *testing.T) {
	f := newFixture(t)
	f.connectPair()

	nodes := decode[map[string]json.RawMessage](t, f.do(http.MethodGet, "/state", nil))
	var st domain.GraphState
	require.NoError(t, json.Unmarshal(nodes["state"], &st))
	require.Len(t, st.Nodes, 2)
	id := st.Nodes[0].ID

	w := f.do(http.MethodPatch, "/nodes/"+id, map[string]any{"title": "Renamed", "width": 320})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n := decode[domain.Node](t, w)
	assert.Equal(t, "Renamed", n.Title)
	assert.Equal(t, 320.0, n.Width)

	w = f.do(http.MethodPut, "/nodes/"+id+"/data", map[string]any{"data": map[string]any{"tpl": "{{name}}"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n = decode[domain.Node](t, w)
	require.Len(t, n.DynamicInputs, 1)
	assert.Equal(t, "name", n.DynamicInputs[0].VariableName)

	w = f.do(http.MethodDelete, "/nodes/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodDelete, "/nodes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(http.MethodGet, "/nodes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_GroupsAndComposite(t *testing.T) {
	f := newFixture(t)
	out, in := f.connectPair()
	f.do(http.MethodPost, "/connections", map[string]string{"source": out, "target": in})

	st := decode[struct {
		State domain.GraphState `json:"state"`
	}](t, f.do(http.MethodGet, "/state", nil)).State

	w := f.do(http.MethodPost, "/groups", map[string]any{"nodes": []string{st.Nodes[0].ID, st.Nodes[1].ID}, "title": "Pair"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	g := decode[domain.NodeGroup](t, w)

	w = f.do(http.MethodPost, "/groups/"+g.ID+"/composite", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	composite := decode[domain.Node](t, w)
	assert.Equal(t, domain.NodeTypeComposite, composite.Type)

	w = f.do(http.MethodPost, "/navigate", map[string]string{"node": composite.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{composite.ID}, decode[map[string][]string](t, w)["path"])

	w = f.do(http.MethodPost, "/navigate/up", map[string]string{"node": domain.RootID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/groups/missing/composite", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CopyPasteAndSelection(t *testing.T) {
	f := newFixture(t)
	f.connectPair()
	st := decode[struct {
		State domain.GraphState `json:"state"`
	}](t, f.do(http.MethodGet, "/state", nil)).State

	w := f.do(http.MethodPost, "/clipboard/copy", map[string]any{"nodes": []string{st.Nodes[0].ID}})
	assert.Equal(t, 1, decode[map[string]int](t, w)["copied"])

	w = f.do(http.MethodPost, "/clipboard/paste", map[string]float64{"x": 50, "y": 50})
	pasted := decode[map[string][]string](t, w)
	require.Len(t, pasted["nodes"], 1)

	w = f.do(http.MethodPost, "/selection/delete", map[string]any{"nodes": pasted["nodes"]})
	assert.Equal(t, 1, decode[map[string]int](t, w)["removed"])
}

func TestServer_SaveLoad(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/load", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.connectPair()
	w = f.do(http.MethodPost, "/save", nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	docs, err := f.store.List(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, docs)

	w = f.do(http.MethodPost, "/load", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestServer_BroadcastsDiffs(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.server.Streams().Subscribe("doc")
	defer cancel()

	f.do(http.MethodPost, "/notes", map[string]any{"content": "hello", "position": map[string]float64{"x": 1, "y": 1}})

	select {
	case msg := <-ch:
		var diff domain.StateDiff
		require.NoError(t, json.Unmarshal([]byte(msg), &diff))
		require.NotNil(t, diff.StickyNotes)
		assert.Len(t, diff.StickyNotes.Added, 1)
	default:
		t.Fatal("expected a diff to be broadcast")
	}

	// Reads do not broadcast.
	f.do(http.MethodGet, "/state", nil)
	select {
	case msg := <-ch:
		t.Fatalf("unexpected broadcast: %s", msg)
	default:
	}
}

func TestStreamManager_UnsubscribeTwice(t *testing.T) {
	sm := httpadapter.NewStreamManager()
	_, cancel := sm.Subscribe("doc")
	assert.Equal(t, 1, sm.Subscribers("doc"))
	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("doc"))
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)
	f.connectPair()
	f.do(http.MethodPost, "/connections", map[string]string{"source": "x", "target": "y"})

	w := f.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flowcanvas_")
}
