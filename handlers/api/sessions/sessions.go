package sessions

import (
	"encoding/json"
	"io"
	"net/http"

	"certificate-server/core"
	"certificate-server/editor"
	"certificate-server/handlers/api"
	"certificate-server/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type (
	OpenSessionRequest struct {
		TemplateID string `json:"templateId"`
	}

	// CommandsRequest carries a batch of commands applied in order. A batch
	// stops at the first failing command.
	CommandsRequest struct {
		Commands []editor.Command `json:"commands" validate:"required,min=1"`
	}

	SaveSessionRequest struct {
		Name string `json:"name" validate:"max=200"`
	}

	SessionResponse struct {
		Session core.SessionInfo `json:"session"`
		State   editor.State     `json:"state"`
	}

	SaveSessionResponse struct {
		Template *core.Template `json:"template"`
		State    editor.State   `json:"state"`
	}
)

func respond(w http.ResponseWriter, r *http.Request, reg *session.Registry, id string, state editor.State) {
	s, err := reg.Get(id)
	if err != nil {
		api.WriteError(w, r, err, "Failed to get session")
		return
	}
	render.JSON(w, r, SessionResponse{Session: s.Info(), State: state})
}

// HandleOpen starts an editing session on a stored template, or on a blank
// template when no templateId is given.
func HandleOpen(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			api.BadRequest(w, r, err)
			return
		}

		s, err := reg.Open(r.Context(), req.TemplateID)
		if err != nil {
			api.WriteError(w, r, err, "Failed to open session")
			return
		}
		state, err := reg.State(s.ID)
		if err != nil {
			api.WriteError(w, r, err, "Failed to open session")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, SessionResponse{Session: s.Info(), State: state})
	}
}

func HandleList(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, reg.List())
	}
}

func HandleGet(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		state, err := reg.State(id)
		if err != nil {
			api.WriteError(w, r, err, "Failed to get session")
			return
		}
		respond(w, r, reg, id, state)
	}
}

// HandleClose discards a session and its undo history.
func HandleClose(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := reg.Close(id); err != nil {
			api.WriteError(w, r, err, "Failed to close session")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleCommands applies a batch of interaction commands.
func HandleCommands(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req CommandsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, r, err)
			return
		}
		if err := core.Validate(req); err != nil {
			api.WriteError(w, r, err, "Invalid commands")
			return
		}

		state, err := reg.Do(id, func(ed *editor.Editor) error {
			for _, cmd := range req.Commands {
				if err := ed.Apply(cmd); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			api.WriteError(w, r, err, "Failed to apply commands")
			return
		}
		respond(w, r, reg, id, state)
	}
}

func handleCommand(reg *session.Registry, cmd editor.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		state, err := reg.Apply(id, cmd)
		if err != nil {
			api.WriteError(w, r, err, "Failed to apply "+string(cmd.Type))
			return
		}
		respond(w, r, reg, id, state)
	}
}

func HandleUndo(reg *session.Registry) http.HandlerFunc {
	return handleCommand(reg, editor.Command{Type: editor.CmdUndo})
}

func HandleRedo(reg *session.Registry) http.HandlerFunc {
	return handleCommand(reg, editor.Command{Type: editor.CmdRedo})
}

// HandleSave persists the session's template. The body is optional.
func HandleSave(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req SaveSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			api.BadRequest(w, r, err)
			return
		}
		if err := core.Validate(req); err != nil {
			api.WriteError(w, r, err, "Invalid save request")
			return
		}

		tmpl, err := reg.Save(r.Context(), id, req.Name)
		if err != nil {
			api.WriteError(w, r, err, "Failed to save session")
			return
		}
		state, err := reg.State(id)
		if err != nil {
			api.WriteError(w, r, err, "Failed to save session")
			return
		}
		render.JSON(w, r, SaveSessionResponse{Template: tmpl, State: state})
	}
}
