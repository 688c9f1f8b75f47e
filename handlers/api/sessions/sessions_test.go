package sessions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"certificate-server/core"
	"certificate-server/session"
	"certificate-server/stores/memory"

	"github.com/go-chi/chi/v5"
)

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func openSession(t *testing.T, reg *session.Registry, body string) SessionResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	HandleOpen(reg)(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}
	return decode(t, rec)
}

func TestHandleOpen_Blank(t *testing.T) {
	reg := session.NewRegistry(memory.NewTemplateStore())

	resp := openSession(t, reg, "")
	if resp.Session.ID == "" || resp.State.Config.Canvas.Width != 1123 || resp.State.CanUndo {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleOpen_StoredTemplate(t *testing.T) {
	store := memory.NewTemplateStore()
	cfg := core.DefaultConfig()
	cfg.Elements = []core.Element{{ID: "title", Type: core.ElementText, Content: "Certificate"}}
	tmpl := &core.Template{Name: "Award", Config: cfg}
	_ = store.Save(context.Background(), tmpl)
	reg := session.NewRegistry(store)

	resp := openSession(t, reg, `{"templateId":"`+tmpl.ID+`"}`)
	if resp.Session.TemplateID != tmpl.ID || len(resp.State.Config.Elements) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleOpen_MissingTemplate(t *testing.T) {
	reg := session.NewRegistry(memory.NewTemplateStore())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"templateId":"missing"}`))
	rec := httptest.NewRecorder()
	HandleOpen(reg)(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code mismatch: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleCommands_DragThenUndo(t *testing.T) {
	reg := session.NewRegistry(memory.NewTemplateStore())
	s := openSession(t, reg, "")

	body := `{"commands":[
		{"type":"addElement","element":{"id":"title","type":"text","content":"Certificate","x":100,"y":100}},
		{"type":"beginDrag","elementId":"title","point":{"x":0,"y":0}},
		{"type":"updateDrag","point":{"x":10,"y":0}},
		{"type":"updateDrag","point":{"x":20,"y":0}},
		{"type":"endDrag"}
	]}`
	req := withID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), s.Session.ID)
	rec := httptest.NewRecorder()
	HandleCommands(reg)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body)
	}

	resp := decode(t, rec)
	if resp.State.UndoDepth != 2 || resp.State.Config.Elements[0].X != 120 {
		t.Errorf("unexpected state: %+v", resp.State)
	}

	rec = httptest.NewRecorder()
	HandleUndo(reg)(rec, withID(httptest.NewRequest(http.MethodPost, "/", http.NoBody), s.Session.ID))
	resp = decode(t, rec)
	if resp.State.Config.Elements[0].X != 100 || !resp.State.CanRedo {
		t.Errorf("unexpected state after undo: %+v", resp.State)
	}

	rec = httptest.NewRecorder()
	HandleRedo(reg)(rec, withID(httptest.NewRequest(http.MethodPost, "/", http.NoBody), s.Session.ID))
	resp = decode(t, rec)
	if resp.State.Config.Elements[0].X != 120 || resp.State.CanRedo {
		t.Errorf("unexpected state after redo: %+v", resp.State)
	}
}

func TestHandleCommands_Errors(t *testing.T) {
	reg := session.NewRegistry(memory.NewTemplateStore())
	s := openSession(t, reg, "")

	testCases := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"invalid json", s.Session.ID, "nope", http.StatusBadRequest},
		{"empty batch", s.Session.ID, `{"commands":[]}`, http.StatusBadRequest},
		{"unknown command", s.Session.ID, `{"commands":[{"type":"explode"}]}`, http.StatusBadRequest},
		{"invalid element", s.Session.ID, `{"commands":[{"type":"addElement","element":{"type":"video"}}]}`, http.StatusBadRequest},
		{"missing session", "missing", `{"commands":[{"type":"undo"}]}`, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := withID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)), tc.id)
			rec := httptest.NewRecorder()
			HandleCommands(reg)(rec, req)
			if rec.Code != tc.want {
				t.Errorf("Status code mismatch: got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHandleSave(t *testing.T) {
	store := memory.NewTemplateStore()
	reg := session.NewRegistry(store)
	s := openSession(t, reg, "")

	req := withID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Fresh"}`)), s.Session.ID)
	rec := httptest.NewRecorder()
	HandleSave(reg)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp SaveSessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Template == nil || resp.Template.Name != "Fresh" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if _, err := store.Get(context.Background(), resp.Template.ID); err != nil {
		t.Errorf("template not stored: %v", err)
	}

	// An empty body keeps the stored name.
	req = withID(httptest.NewRequest(http.MethodPost, "/", http.NoBody), s.Session.ID)
	rec = httptest.NewRecorder()
	HandleSave(reg)(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("empty-body save: got %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandleGetListClose(t *testing.T) {
	reg := session.NewRegistry(memory.NewTemplateStore())
	s := openSession(t, reg, "")

	rec := httptest.NewRecorder()
	HandleGet(reg)(rec, withID(httptest.NewRequest(http.MethodGet, "/", http.NoBody), s.Session.ID))
	if rec.Code != http.StatusOK {
		t.Errorf("get: got %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	HandleList(reg)(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", http.NoBody))
	var infos []core.SessionInfo
	_ = json.NewDecoder(rec.Body).Decode(&infos)
	if len(infos) != 1 || infos[0].ID != s.Session.ID {
		t.Errorf("List = %+v", infos)
	}

	rec = httptest.NewRecorder()
	HandleClose(reg)(rec, withID(httptest.NewRequest(http.MethodDelete, "/", http.NoBody), s.Session.ID))
	if rec.Code != http.StatusNoContent {
		t.Errorf("close: got %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = httptest.NewRecorder()
	HandleGet(reg)(rec, withID(httptest.NewRequest(http.MethodGet, "/", http.NoBody), s.Session.ID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after close: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}
