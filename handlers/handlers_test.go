package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"

	"coverage-route-server/graph"
	"coverage-route-server/services"
	"coverage-route-server/storage"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func triangle() *graph.Graph {
	g := graph.NewUndirected()
	g.AddNode(0, 53.2100, 6.5600)
	g.AddNode(1, 53.2100, 6.5610)
	g.AddNode(2, 53.2110, 6.5610)
	g.AddEdge(&graph.Edge{Src: 0, Dst: 1, Highway: "residential", Names: []string{"Main Street"}, Distance: 67})
	g.AddEdge(&graph.Edge{Src: 1, Dst: 2, Highway: "residential", Distance: 111})
	g.AddEdge(&graph.Edge{Src: 2, Dst: 0, Highway: "footway", Distance: 130})
	return g
}

func setupRouters(t *testing.T) (*gin.Engine, *mux.Router) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.SaveGraph(context.Background(), "triangle", triangle()); err != nil {
		t.Fatalf("SaveGraph() error = %v", err)
	}

	sessions := services.NewSessionService(store, nil, services.SessionOptions{Policy: graph.KeepLargest})
	editorRouter := gin.New()
	NewEditorHandler(sessions).RegisterRoutes(editorRouter)

	circuitRouter := mux.NewRouter()
	NewCircuitHandler(store).RegisterRoutes(circuitRouter)
	return editorRouter, circuitRouter
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func openSession(t *testing.T, h http.Handler) string {
	t.Helper()
	code, env := do(t, h, "POST", "/api/sessions", map[string]interface{}{"graph": "triangle"})
	if code != http.StatusCreated {
		t.Fatalf("POST /api/sessions = %d, want %d", code, http.StatusCreated)
	}
	var sess struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &sess); err != nil || sess.ID == "" {
		t.Fatalf("no session id in %s", env.Data)
	}
	return sess.ID
}

func TestEditorRoutes(t *testing.T) {
	editorRouter, _ := setupRouters(t)
	id := openSession(t, editorRouter)
	base := "/api/sessions/" + id

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{"list graphs", "GET", "/api/graphs", nil, http.StatusOK, ""},
		{"toggle", "POST", base + "/commands", map[string]string{"type": "toggle", "selection": "2-0"}, http.StatusOK, ""},
		{"undo", "POST", base + "/undo", nil, http.StatusOK, ""},
		{"redo", "POST", base + "/redo", nil, http.StatusOK, ""},
		{"redo with empty stack", "POST", base + "/redo", nil, http.StatusConflict, "empty_history"},
		{"bad selection", "POST", base + "/commands", map[string]string{"type": "toggle", "selection": "a-b"}, http.StatusBadRequest, "invalid_selection"},
		{"unknown command", "POST", base + "/commands", map[string]string{"type": "explode"}, http.StatusBadRequest, "unknown_command"},
		{"missing type", "POST", base + "/commands", map[string]string{}, http.StatusBadRequest, "invalid_request"},
		{"unknown session", "POST", "/api/sessions/nope/undo", nil, http.StatusNotFound, "session_not_found"},
		{"missing graph", "POST", "/api/sessions", map[string]string{"graph": "nowhere"}, http.StatusNotFound, "not_found"},
		{"no street index", "POST", base + "/completed", nil, http.StatusServiceUnavailable, "unavailable"},
		{"save", "POST", base + "/save", map[string]string{"name": "triangle-edited"}, http.StatusOK, ""},
		{"save without name", "POST", base + "/save", map[string]string{}, http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, editorRouter, tt.method, tt.path, tt.body)
			if code != tt.wantCode {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, code, tt.wantCode)
			}
			if tt.wantErr == "" {
				if !env.Success {
					t.Errorf("success = false, want true")
				}
				return
			}
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantErr)
			}
		})
	}
}

func TestGraphGeoJSON(t *testing.T) {
	editorRouter, _ := setupRouters(t)
	id := openSession(t, editorRouter)

	req := httptest.NewRequest("GET", "/api/sessions/"+id+"/graph", nil)
	w := httptest.NewRecorder()
	editorRouter.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET graph = %d, want %d", w.Code, http.StatusOK)
	}

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("invalid GeoJSON: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 6 {
		t.Errorf("got %s with %d features, want a FeatureCollection of 3 edges and 3 nodes", fc.Type, len(fc.Features))
	}
}

func TestCircuitRoundTrip(t *testing.T) {
	editorRouter, circuitRouter := setupRouters(t)
	id := openSession(t, editorRouter)

	code, env := do(t, editorRouter, "POST", "/api/sessions/"+id+"/circuit", nil)
	if code != http.StatusOK {
		t.Fatalf("POST circuit = %d, want %d", code, http.StatusOK)
	}
	var circuit struct {
		ID    string `json:"id"`
		Stats struct {
			TotalDistanceM float64 `json:"total_distance_m"`
			NEdges         int     `json:"n_edges"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(env.Data, &circuit); err != nil {
		t.Fatalf("invalid circuit response: %v", err)
	}
	if circuit.ID == "" || circuit.Stats.NEdges != 3 || circuit.Stats.TotalDistanceM != 308 {
		t.Errorf("circuit = %+v, want 3 edges over 308m", circuit)
	}

	code, env = do(t, circuitRouter, "GET", "/api/circuits?graph=triangle", nil)
	if code != http.StatusOK {
		t.Fatalf("GET /api/circuits = %d, want %d", code, http.StatusOK)
	}
	var listed []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil || len(listed) != 1 || listed[0].ID != circuit.ID {
		t.Errorf("listed circuits = %s, want the solved one", env.Data)
	}

	code, env = do(t, circuitRouter, "GET", "/api/circuits/"+circuit.ID, nil)
	if code != http.StatusOK || !env.Success {
		t.Errorf("GET circuit = %d, want %d", code, http.StatusOK)
	}

	req := httptest.NewRequest("GET", "/api/circuits/"+circuit.ID+"/geojson", nil)
	w := httptest.NewRecorder()
	circuitRouter.ServeHTTP(w, req)
	var fc struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil || len(fc.Features) != 3 {
		t.Errorf("GET geojson = %s, want 3 features", w.Body.String())
	}

	code, env = do(t, circuitRouter, "GET", "/api/circuits/not-a-uuid", nil)
	if code != http.StatusBadRequest || env.Error == nil {
		t.Errorf("GET invalid id = %d, want %d", code, http.StatusBadRequest)
	}
	code, _ = do(t, circuitRouter, "GET", "/api/circuits/6f1c2a58-5f9e-4d3a-9b1e-2d8c4b7a1f00", nil)
	if code != http.StatusNotFound {
		t.Errorf("GET unknown id = %d, want %d", code, http.StatusNotFound)
	}
}

func TestCircuitUnroutable(t *testing.T) {
	islands := triangle()
	islands.AddNode(10, 53.2200, 6.5700)
	islands.AddNode(11, 53.2200, 6.5710)
	islands.AddEdge(&graph.Edge{Src: 10, Dst: 11, Highway: "residential", Distance: 67})

	tests := []struct {
		name     string
		body     map[string]interface{}
		wantCode int
	}{
		{"largest component", nil, http.StatusOK},
		{"second component", map[string]interface{}{"use_largest_component": false, "component": 2}, http.StatusOK},
		{"missing component", map[string]interface{}{"use_largest_component": false, "component": 3}, http.StatusUnprocessableEntity},
	}

	sessions, id := islandSession(t, islands)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body interface{}
			if tt.body != nil {
				body = tt.body
			}
			code, env := do(t, sessions, "POST", "/api/sessions/"+id+"/circuit", body)
			if code != tt.wantCode {
				t.Errorf("POST circuit = %d, want %d", code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				return
			}
			if env.Error == nil || env.Error.Code != "unroutable" {
				t.Errorf("error = %+v, want code unroutable", env.Error)
			}
			var circuit struct {
				Route *struct {
					Features []json.RawMessage `json:"features"`
				} `json:"route"`
			}
			if err := json.Unmarshal(env.Data, &circuit); err != nil || circuit.Route == nil || len(circuit.Route.Features) != 0 {
				t.Errorf("data = %s, want an empty route", env.Data)
			}
		})
	}
}

func islandSession(t *testing.T, g *graph.Graph) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.SaveGraph(context.Background(), "islands", g); err != nil {
		t.Fatalf("SaveGraph() error = %v", err)
	}

	router := gin.New()
	NewEditorHandler(services.NewSessionService(store, nil, services.SessionOptions{})).RegisterRoutes(router)
	code, env := do(t, router, "POST", "/api/sessions", map[string]interface{}{"graph": "islands", "policy": "none"})
	if code != http.StatusCreated {
		t.Fatalf("POST /api/sessions = %d, want %d", code, http.StatusCreated)
	}
	var sess struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &sess); err != nil {
		t.Fatalf("invalid session response: %v", err)
	}
	return router, sess.ID
}

func TestCircuitOnEmptyGraph(t *testing.T) {
	editorRouter, _ := setupRouters(t)
	id := openSession(t, editorRouter)

	do(t, editorRouter, "POST", "/api/sessions/"+id+"/commands", map[string]string{"type": "toggle", "selection": "0,1,2"})
	code, env := do(t, editorRouter, "POST", "/api/sessions/"+id+"/circuit", nil)
	if code != http.StatusOK {
		t.Fatalf("POST circuit = %d, want %d", code, http.StatusOK)
	}
	var circuit struct {
		ID    string `json:"id"`
		Route struct {
			Features []json.RawMessage `json:"features"`
		} `json:"route"`
	}
	if err := json.Unmarshal(env.Data, &circuit); err != nil {
		t.Fatalf("invalid circuit response: %v", err)
	}
	if circuit.ID != "" || len(circuit.Route.Features) != 0 {
		t.Errorf("circuit = %+v, want an empty unsaved route", circuit)
	}
}
