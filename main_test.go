package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"certificate-server/core"
	"certificate-server/handlers/api/sessions"
	"certificate-server/session"
	"certificate-server/stores/filesystem"
	"certificate-server/stores/memory"
)

func newTestServer(t *testing.T, store core.TemplateStore) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(setupRouter(store, session.NewRegistry(store), nil))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_TemplateLifecycle(t *testing.T) {
	srv := newTestServer(t, memory.NewTemplateStore())

	resp := do(t, http.MethodPost, srv.URL+"/api/templates", `{"name":"Award"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: got %d", resp.StatusCode)
	}
	var tmpl core.Template
	_ = json.NewDecoder(resp.Body).Decode(&tmpl)

	if resp := do(t, http.MethodGet, srv.URL+"/api/templates/"+tmpl.ID, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("get: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, srv.URL+"/api/templates/"+tmpl.ID+"/versions", `{"name":"v1"}`); resp.StatusCode != http.StatusCreated {
		t.Errorf("create version: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/api/templates/"+tmpl.ID+"/versions/count", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("version count: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/api/templates/"+tmpl.ID+"/settings", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("settings: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodDelete, srv.URL+"/api/templates/"+tmpl.ID, ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: got %d", resp.StatusCode)
	}
}

func TestRouter_SessionFlow(t *testing.T) {
	srv := newTestServer(t, memory.NewTemplateStore())

	resp := do(t, http.MethodPost, srv.URL+"/api/sessions", `{}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open: got %d", resp.StatusCode)
	}
	var opened sessions.SessionResponse
	_ = json.NewDecoder(resp.Body).Decode(&opened)
	base := srv.URL + "/api/sessions/" + opened.Session.ID

	cmds := `{"commands":[{"type":"addElement","element":{"type":"variable","content":"{student_name}","x":10,"y":10}}]}`
	if resp := do(t, http.MethodPost, base+"/commands", cmds); resp.StatusCode != http.StatusOK {
		t.Errorf("commands: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, base+"/undo", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("undo: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, base+"/redo", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("redo: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, base+"/save", `{"name":"From session"}`); resp.StatusCode != http.StatusOK {
		t.Errorf("save: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/api/sessions/active", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("active: got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodDelete, base, ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("close: got %d", resp.StatusCode)
	}
}

func TestRouter_NoVersionsWithoutVersionStore(t *testing.T) {
	srv := newTestServer(t, filesystem.NewTemplateStore(t.TempDir()))

	if resp := do(t, http.MethodGet, srv.URL+"/api/versions/some-id", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("versions route: got %d, want 404", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/api/placeholders", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("placeholders: got %d", resp.StatusCode)
	}
}

func TestRouter_InvalidTemplateID(t *testing.T) {
	srv := newTestServer(t, filesystem.NewTemplateStore(t.TempDir()))

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if resp := do(t, method, srv.URL+"/api/templates/a%5Cb", ""); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s invalid id: got %d, want 400", method, resp.StatusCode)
		}
	}
}

func TestCORS(t *testing.T) {
	opts := corsOptions([]string{"https://certs.example.com"})

	testCases := []struct {
		origin string
		want   bool
	}{
		{"https://certs.example.com", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"http://[::1]:3000", true},
		{"https://evil.example.com", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := opts.AllowOriginFunc(nil, tc.origin); got != tc.want {
			t.Errorf("AllowOriginFunc(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}
