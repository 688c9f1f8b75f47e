package templates

import (
	"encoding/json"
	"net/http"

	"certificate-server/core"
	"certificate-server/handlers/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	CreateTemplateRequest struct {
		Name   string               `json:"name" validate:"required,max=200"`
		Config *core.TemplateConfig `json:"config" validate:"-"`
	}

	UpdateTemplateRequest struct {
		Name   string               `json:"name" validate:"omitempty,max=200"`
		Config *core.TemplateConfig `json:"config" validate:"-"`
	}
)

// HandleList lists stored templates without their elements.
func HandleList(store core.TemplateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := store.List(r.Context())
		if err != nil {
			api.WriteError(w, r, err, "Failed to list templates")
			return
		}
		if templates == nil {
			templates = []*core.Template{}
		}
		render.JSON(w, r, templates)
	}
}

// HandleCreate stores a new template. A missing config starts from the
// default blank canvas.
func HandleCreate(store core.TemplateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, r, err)
			return
		}
		if err := core.Validate(req); err != nil {
			api.WriteError(w, r, err, "Invalid template")
			return
		}

		tmpl := &core.Template{Name: req.Name, Config: core.DefaultConfig()}
		if req.Config != nil {
			tmpl.Config = *req.Config
		}
		if err := core.Validate(tmpl.Config); err != nil {
			api.WriteError(w, r, err, "Invalid template")
			return
		}

		if err := store.Save(r.Context(), tmpl); err != nil {
			api.WriteError(w, r, err, "Failed to save template")
			return
		}

		logrus.WithField("template_id", tmpl.ID).Info("Template created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, tmpl)
	}
}

// HandleGet returns one template.
func HandleGet(store core.TemplateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		tmpl, err := store.Get(r.Context(), id)
		if err != nil {
			api.WriteError(w, r, err, "Failed to get template")
			return
		}
		render.JSON(w, r, tmpl)
	}
}

// HandleUpdate renames a template and/or replaces its config.
func HandleUpdate(store core.TemplateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req UpdateTemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, r, err)
			return
		}
		if err := core.Validate(req); err != nil {
			api.WriteError(w, r, err, "Invalid template")
			return
		}

		tmpl, err := store.Get(r.Context(), id)
		if err != nil {
			api.WriteError(w, r, err, "Failed to get template")
			return
		}
		if req.Name != "" {
			tmpl.Name = req.Name
		}
		if req.Config != nil {
			if err := core.Validate(*req.Config); err != nil {
				api.WriteError(w, r, err, "Invalid template")
				return
			}
			tmpl.Config = *req.Config
		}

		if err := store.Save(r.Context(), tmpl); err != nil {
			api.WriteError(w, r, err, "Failed to save template")
			return
		}
		render.JSON(w, r, tmpl)
	}
}

// HandleDelete removes a template.
func HandleDelete(store core.TemplateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := store.Delete(r.Context(), id); err != nil {
			api.WriteError(w, r, err, "Failed to delete template")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandlePlaceholders returns the placeholder tokens variable elements may use.
func HandlePlaceholders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, core.Placeholders)
	}
}
