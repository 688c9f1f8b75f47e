package versions

import (
	"encoding/json"
	"net/http"

	"certificate-server/core"
	"certificate-server/handlers/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type (
	CreateVersionRequest struct {
		Name        string `json:"name" validate:"required,max=200"`
		Description string `json:"description" validate:"max=2000"`
		CreatedBy   string `json:"created_by" validate:"max=200"`
		// Config defaults to the template's stored config.
		Config *core.TemplateConfig `json:"config" validate:"-"`
	}

	CreateVersionResponse struct {
		ID string `json:"id"`
	}

	UpdateVersionRequest struct {
		Name        string `json:"name" validate:"required,max=200"`
		Description string `json:"description" validate:"max=2000"`
	}

	UpdateSettingsRequest struct {
		MaxVersions      int `json:"max_versions"`
		AutoSaveInterval int `json:"auto_save_interval"`
	}

	// VersionResponse is a version with its config inlined as JSON.
	VersionResponse struct {
		ID          string          `json:"id"`
		TemplateID  string          `json:"template_id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		CreatedBy   string          `json:"created_by"`
		CreatedAt   int64           `json:"created_at"`
		Config      json.RawMessage `json:"config,omitempty"`
	}
)

func toResponse(v core.Version) VersionResponse {
	resp := VersionResponse{
		ID:          v.ID,
		TemplateID:  v.TemplateID,
		Name:        v.Name,
		Description: v.Description,
		CreatedBy:   v.CreatedBy,
		CreatedAt:   v.CreatedAt,
	}
	if len(v.Data) > 0 {
		resp.Config = json.RawMessage(v.Data)
	}
	return resp
}

// HandleCreateVersion stores a named version of a template.
func HandleCreateVersion(templates core.TemplateStore, store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID := chi.URLParam(r, "templateId")

		var req CreateVersionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, r, err)
			return
		}
		if err := core.Validate(req); err != nil {
			api.WriteError(w, r, err, "Invalid version")
			return
		}

		var cfg core.TemplateConfig
		if req.Config != nil {
			cfg = *req.Config
		} else {
			tmpl, err := templates.Get(r.Context(), templateID)
			if err != nil {
				api.WriteError(w, r, err, "Failed to get template")
				return
			}
			cfg = tmpl.Config
		}
		if err := core.Validate(cfg); err != nil {
			api.WriteError(w, r, err, "Invalid version")
			return
		}

		data, err := json.Marshal(cfg)
		if err != nil {
			api.WriteError(w, r, err, "Failed to create version")
			return
		}

		id, err := store.CreateVersion(r.Context(), templateID, req.Name, req.Description, req.CreatedBy, data)
		if err != nil {
			api.WriteError(w, r, err, "Failed to create version")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateVersionResponse{ID: id})
	}
}

// HandleListVersions lists the versions of a template, newest first.
func HandleListVersions(store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID := chi.URLParam(r, "templateId")

		versions, err := store.ListVersions(r.Context(), templateID)
		if err != nil {
			api.WriteError(w, r, err, "Failed to list versions")
			return
		}

		out := make([]VersionResponse, 0, len(versions))
		for _, v := range versions {
			v.Data = nil
			out = append(out, toResponse(v))
		}
		render.JSON(w, r, out)
	}
}

// HandleGetVersion returns a version including its config.
func HandleGetVersion(store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versionID := chi.URLParam(r, "versionId")

		version, err := store.GetVersion(r.Context(), versionID)
		if err != nil {
			api.WriteError(w, r, err, "Failed to get version")
			return
		}
		render.JSON(w, r, toResponse(*version))
	}
}

func HandleDeleteVersion(store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versionID := chi.URLParam(r, "versionId")

		if err := store.DeleteVersion(r.Context(), versionID); err != nil {
			api.WriteError(w, r, err, "Failed to delete version")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleUpdateVersion renames a version.
func HandleUpdateVersion(store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versionID := chi.URLParam(r, "versionId")

		var req UpdateVersionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, r, err)
			return
		}
		if err := core.Validate(req); err != nil {
			api.WriteError(w, r, err, "Invalid version")
			return
		}

		if err := store.UpdateVersionMetadata(r.Context(), versionID, req.Name, req.Description); err != nil {
			api.WriteError(w, r, err, "Failed to update version")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleRestoreVersion writes a version's config back to its template.
func HandleRestoreVersion(templates core.TemplateStore, store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versionID := chi.URLParam(r, "versionId")

		version, err := store.GetVersion(r.Context(), versionID)
		if err != nil {
			api.WriteError(w, r, err, "Failed to get version")
			return
		}

		var cfg core.TemplateConfig
		if err := json.Unmarshal(version.Data, &cfg); err != nil {
			api.WriteError(w, r, errors.Wrapf(err, "decode version %s", versionID), "Failed to restore version")
			return
		}
		if err := core.Validate(cfg); err != nil {
			api.WriteError(w, r, err, "Stored version is invalid")
			return
		}

		tmpl, err := templates.Get(r.Context(), version.TemplateID)
		if err != nil {
			api.WriteError(w, r, err, "Failed to get template")
			return
		}
		tmpl.Config = cfg
		if err := templates.Save(r.Context(), tmpl); err != nil {
			api.WriteError(w, r, err, "Failed to save template")
			return
		}

		logrus.WithFields(logrus.Fields{
			"template_id": tmpl.ID,
			"version_id":  versionID,
		}).Info("Version restored")
		render.JSON(w, r, tmpl)
	}
}

func HandleGetSettings(store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID := chi.URLParam(r, "templateId")

		settings, err := store.GetTemplateSettings(r.Context(), templateID)
		if err != nil {
			api.WriteError(w, r, err, "Failed to get template settings")
			return
		}
		render.JSON(w, r, settings)
	}
}

// HandleUpdateSettings stores retention settings. Out-of-range values fall
// back to the defaults.
func HandleUpdateSettings(store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID := chi.URLParam(r, "templateId")

		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, r, err)
			return
		}

		if req.MaxVersions < 1 {
			req.MaxVersions = core.DefaultMaxVersions
		}
		if req.AutoSaveInterval < 60 {
			req.AutoSaveInterval = core.DefaultAutoSaveInterval
		}

		if err := store.UpdateTemplateSettings(r.Context(), templateID, req.MaxVersions, req.AutoSaveInterval); err != nil {
			api.WriteError(w, r, err, "Failed to update template settings")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetVersionCount returns the number of versions kept for a template.
func HandleGetVersionCount(store core.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID := chi.URLParam(r, "templateId")

		versions, err := store.ListVersions(r.Context(), templateID)
		if err != nil {
			api.WriteError(w, r, err, "Failed to get version count")
			return
		}
		render.JSON(w, r, map[string]int{"count": len(versions)})
	}
}
