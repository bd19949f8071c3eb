package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/foodweb/pkg/cache"
	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/observability"
	"github.com/matzehuels/foodweb/pkg/pipeline"
	"github.com/matzehuels/foodweb/pkg/session"
	"github.com/matzehuels/foodweb/pkg/store"
)

const reef = `{
  "nodes": [
    {"id": 1, "label": "Algae"},
    {"id": 2, "label": "Parrotfish"},
    {"id": 3, "label": "Reef shark"}
  ],
  "links": [
    {"source": 1, "target": 2},
    {"source": 2, "target": 3, "removable": true}
  ],
  "seed": 11
}`

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	c, err := cache.NewLRUCache(64)
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore()
	srv, err := New(Config{
		Store:  st,
		Runner: pipeline.NewRunner(c, nil, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { srv.sessions.Shutdown() })
	return srv, st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d: %s", rec.Code, want, rec.Body.String())
	}
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code errs.Code) {
	t.Helper()
	expectStatus(t, rec, status)
	if got := decode[errorBody](t, rec).Error.Code; got != code {
		t.Errorf("error code = %s, want %s", got, code)
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without a store should fail")
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusOK)
	if body := decode[map[string]any](t, rec); body["status"] != "ok" {
		t.Errorf("health = %v", body)
	}
}

func TestWebLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	expectStatus(t, do(t, srv, http.MethodPut, "/webs/reef", reef), http.StatusCreated)
	expectStatus(t, do(t, srv, http.MethodPut, "/webs/reef", reef), http.StatusOK)

	list := decode[webList](t, do(t, srv, http.MethodGet, "/webs", nil))
	if len(list.Webs) != 1 || list.Webs[0] != "reef" {
		t.Errorf("webs = %v", list.Webs)
	}

	doc := decode[graph.Document](t, do(t, srv, http.MethodGet, "/webs/reef", nil))
	if doc.Seed != 11 || len(doc.Graph.Nodes) != 3 || doc.Analysis != nil {
		t.Errorf("stored doc = %+v", doc)
	}

	rec := do(t, srv, http.MethodPost, "/webs/reef/analyze", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("X-Cache") != "miss" {
		t.Errorf("first analyze X-Cache = %q", rec.Header().Get("X-Cache"))
	}
	a := decode[graph.Analysis](t, rec)
	if a.MaxChainHeight != 2 || a.ComponentCount != 1 {
		t.Errorf("analysis = %+v", a)
	}

	doc = decode[graph.Document](t, do(t, srv, http.MethodGet, "/webs/reef", nil))
	if doc.Analysis == nil {
		t.Fatal("analysis was not persisted")
	}
	for _, n := range doc.Graph.Nodes {
		if n.Pos == nil {
			t.Errorf("node %d has no persisted position", n.ID)
		}
	}

	rec = do(t, srv, http.MethodGet, "/webs/reef/render?format=dot&labels=true", nil)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `label="Reef shark"`) {
		t.Error("dot output missing label")
	}

	expectStatus(t, do(t, srv, http.MethodDelete, "/webs/reef", nil), http.StatusNoContent)
	expectCode(t, do(t, srv, http.MethodGet, "/webs/reef", nil), http.StatusNotFound, errs.ErrCodeWebNotFound)
	expectCode(t, do(t, srv, http.MethodDelete, "/webs/reef", nil), http.StatusNotFound, errs.ErrCodeWebNotFound)
}

func TestAnalyzeCache(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPut, "/webs/reef", reef)

	// Analyze persists positions, so the second graph differs from the
	// first. Re-putting the original restores the cached key.
	do(t, srv, http.MethodPost, "/webs/reef/analyze", nil)
	do(t, srv, http.MethodPut, "/webs/reef", reef)
	rec := do(t, srv, http.MethodPost, "/webs/reef/analyze", nil)
	if rec.Header().Get("X-Cache") != "hit" {
		t.Errorf("X-Cache = %q, want hit", rec.Header().Get("X-Cache"))
	}

	do(t, srv, http.MethodPut, "/webs/reef", reef)
	rec = do(t, srv, http.MethodPost, "/webs/reef/analyze?refresh=true", nil)
	if rec.Header().Get("X-Cache") != "miss" {
		t.Errorf("refresh X-Cache = %q, want miss", rec.Header().Get("X-Cache"))
	}
}

func TestPutInvalid(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		code errs.Code
	}{
		{"self link", "/webs/bad", `{"nodes":[{"id":1}],"links":[{"source":1,"target":1}]}`, errs.ErrCodeInvalidLink},
		{"reverse link", "/webs/bad", `{"nodes":[{"id":1},{"id":2}],"links":[{"source":1,"target":2},{"source":2,"target":1}]}`, errs.ErrCodeInvalidLink},
		{"duplicate node", "/webs/bad", `{"nodes":[{"id":1},{"id":1}]}`, errs.ErrCodeInvalidNode},
		{"unknown flag", "/webs/bad", `{"nodes":[{"id":1,"flags":["fly"]}]}`, errs.ErrCodeInvalidNode},
		{"unknown field", "/webs/bad", `{"species":[]}`, errs.ErrCodeInvalidFormat},
		{"malformed", "/webs/bad", `{`, errs.ErrCodeInvalidFormat},
		{"bad name", "/webs/a..b", `{}`, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, do(t, srv, http.MethodPut, tt.path, tt.body), http.StatusBadRequest, tt.code)
		})
	}
}

func TestRenderInvalidOptions(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPut, "/webs/reef", reef)

	for _, q := range []string{"format=gif", "scale=-1", "labels=maybe", "seed=x"} {
		t.Run(q, func(t *testing.T) {
			expectCode(t, do(t, srv, http.MethodGet, "/webs/reef/render?"+q, nil), http.StatusBadRequest, errs.ErrCodeInvalidInput)
		})
	}
}

type sessionResp struct {
	ID       string         `json:"id"`
	Web      string         `json:"web"`
	Runs     int            `json:"runs"`
	Graph    graph.Graph    `json:"graph"`
	Analysis graph.Analysis `json:"analysis"`
}

func TestSessionEditing(t *testing.T) {
	srv, st := newTestServer(t)
	do(t, srv, http.MethodPut, "/webs/reef", reef)

	rec := do(t, srv, http.MethodPost, "/sessions", openRequest{Web: "reef"})
	expectStatus(t, rec, http.StatusCreated)
	sess := decode[sessionResp](t, rec)
	if sess.ID == "" || sess.Web != "reef" || sess.Analysis.MaxChainHeight != 2 {
		t.Fatalf("opened session = %+v", sess)
	}
	base := "/sessions/" + sess.ID

	expectStatus(t, do(t, srv, http.MethodPost, base+"/nodes", nodeRequest{ID: 4, Label: "Tiger shark"}), http.StatusCreated)
	expectStatus(t, do(t, srv, http.MethodPost, base+"/links", linkRequest{Source: 3, Target: 4}), http.StatusCreated)

	t.Run("guards", func(t *testing.T) {
		expectCode(t, do(t, srv, http.MethodPost, base+"/nodes", nodeRequest{ID: 4}), http.StatusConflict, errs.ErrCodeConflict)
		expectCode(t, do(t, srv, http.MethodPost, base+"/links", linkRequest{Source: 3, Target: 4}), http.StatusConflict, errs.ErrCodeConflict)
		expectCode(t, do(t, srv, http.MethodPost, base+"/links", linkRequest{Source: 4, Target: 3}), http.StatusConflict, errs.ErrCodeConflict)
		expectCode(t, do(t, srv, http.MethodPost, base+"/links", linkRequest{Source: 4, Target: 4}), http.StatusBadRequest, errs.ErrCodeInvalidLink)
		expectCode(t, do(t, srv, http.MethodPost, base+"/links", linkRequest{Source: 4, Target: 9}), http.StatusNotFound, errs.ErrCodeNodeNotFound)
		expectCode(t, do(t, srv, http.MethodDelete, base+"/links/1/3", nil), http.StatusNotFound, errs.ErrCodeLinkNotFound)
		expectCode(t, do(t, srv, http.MethodPost, base+"/nodes/2/restore", nil), http.StatusConflict, errs.ErrCodeConflict)
		expectCode(t, do(t, srv, http.MethodDelete, base+"/nodes/9", nil), http.StatusNotFound, errs.ErrCodeNodeNotFound)
		expectCode(t, do(t, srv, http.MethodDelete, base+"/nodes/x", nil), http.StatusBadRequest, errs.ErrCodeInvalidInput)
	})

	sess = decode[sessionResp](t, do(t, srv, http.MethodGet, base, nil))
	if sess.Analysis.MaxChainHeight != 3 || sess.Analysis.Nodes != 4 {
		t.Errorf("after edits analysis = %+v", sess.Analysis)
	}

	expectStatus(t, do(t, srv, http.MethodDelete, base+"/nodes/2", nil), http.StatusOK)
	sess = decode[sessionResp](t, do(t, srv, http.MethodGet, base, nil))
	if sess.Analysis.ComponentCount != 2 || sess.Analysis.Nodes != 3 {
		t.Errorf("after archive analysis = %+v", sess.Analysis)
	}

	expectStatus(t, do(t, srv, http.MethodPost, base+"/nodes/2/restore", nil), http.StatusOK)
	sess = decode[sessionResp](t, do(t, srv, http.MethodGet, base, nil))
	if sess.Analysis.MaxChainHeight != 3 {
		t.Errorf("after restore chain = %d, want 3", sess.Analysis.MaxChainHeight)
	}

	expectStatus(t, do(t, srv, http.MethodDelete, base+"/links/3/4", nil), http.StatusOK)
	tick := decode[tickResponse](t, do(t, srv, http.MethodPost, base+"/tick", nil))
	if !strings.Contains(tick.Action, "dispatched") {
		t.Errorf("tick after edit = %q, want a dispatch", tick.Action)
	}

	expectStatus(t, do(t, srv, http.MethodPost, base+"/save", nil), http.StatusOK)
	doc, err := st.Get(context.Background(), "reef")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Graph.Nodes) != 4 || doc.Graph.Labels()[4] != "Tiger shark" || doc.Analysis == nil {
		t.Errorf("saved doc = %+v", doc)
	}

	rec = do(t, srv, http.MethodGet, base+"/render?format=json", nil)
	expectStatus(t, rec, http.StatusOK)
	if _, err := graph.UnmarshalAnalysis(rec.Body.Bytes()); err != nil {
		t.Errorf("json render: %v", err)
	}

	expectStatus(t, do(t, srv, http.MethodDelete, base, nil), http.StatusNoContent)
	expectCode(t, do(t, srv, http.MethodGet, base, nil), http.StatusNotFound, errs.ErrCodeSessionNotFound)
}

func TestOpenSessionMissingWeb(t *testing.T) {
	srv, _ := newTestServer(t)
	expectCode(t, do(t, srv, http.MethodPost, "/sessions", openRequest{Web: "nowhere"}), http.StatusNotFound, errs.ErrCodeWebNotFound)
}

func TestPermanentRemoval(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPut, "/webs/reef", reef)
	sess := decode[sessionResp](t, do(t, srv, http.MethodPost, "/sessions", openRequest{Web: "reef"}))
	base := "/sessions/" + sess.ID

	expectStatus(t, do(t, srv, http.MethodDelete, base+"/nodes/3?permanent=true", nil), http.StatusOK)
	expectCode(t, do(t, srv, http.MethodPost, base+"/nodes/3/restore", nil), http.StatusNotFound, errs.ErrCodeNodeNotFound)
	// The ID is free again.
	expectStatus(t, do(t, srv, http.MethodPost, base+"/nodes", nodeRequest{ID: 3}), http.StatusCreated)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.New(errs.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{errs.New(errs.ErrCodeInvalidLink, "x"), http.StatusBadRequest},
		{errs.New(errs.ErrCodeWebNotFound, "x"), http.StatusNotFound},
		{errs.New(errs.ErrCodeConflict, "x"), http.StatusConflict},
		{errs.New(errs.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{errs.New(errs.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{session.ErrNotFound, http.StatusNotFound},
		{session.ErrExpired, http.StatusGone},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu    sync.Mutex
	paths []string
	codes []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, path string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths = append(h.paths, path)
	h.codes = append(h.codes, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv, _ := newTestServer(t)
	do(t, srv, http.MethodGet, "/webs/missing", nil)

	if len(hooks.paths) != 1 {
		t.Fatalf("responses recorded = %d, want 1", len(hooks.paths))
	}
	if !strings.Contains(hooks.paths[0], "{name}") {
		t.Errorf("path = %q, want the route pattern", hooks.paths[0])
	}
	if hooks.codes[0] != http.StatusNotFound {
		t.Errorf("status = %d, want 404", hooks.codes[0])
	}
}
