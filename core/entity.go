package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is wrapped by every store when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidID is returned by stores for ids they cannot address.
var ErrInvalidID = errors.New("invalid id")

type (
	// Template is a persisted certificate template.
	Template struct {
		ID        string         `json:"id"`
		Name      string         `json:"name"`
		Config    TemplateConfig `json:"config"`
		CreatedAt time.Time      `json:"createdAt"`
		UpdatedAt time.Time      `json:"updatedAt"`
	}

	// TemplateStore persists templates.
	TemplateStore interface {
		// List returns every template. Implementations may leave Config.Elements
		// empty to keep listings light.
		List(ctx context.Context) ([]*Template, error)

		// Get returns a single template.
		Get(ctx context.Context, id string) (*Template, error)

		// Save creates or updates a template. An empty ID is assigned a new one.
		Save(ctx context.Context, template *Template) error

		// Delete removes a template.
		Delete(ctx context.Context, id string) error
	}

	// Version is a named snapshot of a template's config.
	Version struct {
		ID          string `json:"id"`
		TemplateID  string `json:"template_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		CreatedBy   string `json:"created_by"`
		CreatedAt   int64  `json:"created_at"`
		Data        []byte `json:"data,omitempty"`
	}

	// TemplateSettings controls version retention for a template.
	TemplateSettings struct {
		TemplateID       string `json:"template_id"`
		MaxVersions      int    `json:"max_versions"`
		AutoSaveInterval int    `json:"auto_save_interval"`
	}

	// VersionStore is implemented by stores that keep named versions.
	VersionStore interface {
		CreateVersion(ctx context.Context, templateID, name, description, createdBy string, data []byte) (string, error)
		ListVersions(ctx context.Context, templateID string) ([]Version, error)
		GetVersion(ctx context.Context, id string) (*Version, error)
		DeleteVersion(ctx context.Context, id string) error
		UpdateVersionMetadata(ctx context.Context, id, name, description string) error
		GetTemplateSettings(ctx context.Context, templateID string) (*TemplateSettings, error)
		UpdateTemplateSettings(ctx context.Context, templateID string, maxVersions, autoSaveInterval int) error
	}

	// SessionInfo summarises a live editing session.
	SessionInfo struct {
		ID         string `json:"id"`
		TemplateID string `json:"templateId,omitempty"`
		LastActive int64  `json:"lastActive"`
	}
)

const (
	DefaultMaxVersions      = 10
	DefaultAutoSaveInterval = 300
)

// DefaultTemplateSettings returns the retention settings used when none are stored.
func DefaultTemplateSettings(templateID string) *TemplateSettings {
	return &TemplateSettings{
		TemplateID:       templateID,
		MaxVersions:      DefaultMaxVersions,
		AutoSaveInterval: DefaultAutoSaveInterval,
	}
}
