package memory

import (
	"context"
	"sort"

	"certificate-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CreateVersion stores a named version of a template, evicting the oldest
// ones beyond the template's MaxVersions.
func (s *templateStore) CreateVersion(ctx context.Context, templateID, name, description, createdBy string, data []byte) (string, error) {
	u := ulid.Make()
	id := u.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settingsLocked(templateID)
	existing := s.versionsLocked(templateID)
	for len(existing) >= settings.MaxVersions && len(existing) > 0 {
		oldest := existing[len(existing)-1]
		delete(s.versions, oldest.ID)
		existing = existing[:len(existing)-1]
	}

	s.versions[id] = &core.Version{
		ID:          id,
		TemplateID:  templateID,
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   int64(u.Time()),
		Data:        append([]byte(nil), data...),
	}

	logrus.WithFields(logrus.Fields{
		"version_id":  id,
		"template_id": templateID,
		"data_length": len(data),
	}).Info("Version created successfully")
	return id, nil
}

// versionsLocked returns the versions of a template, newest first.
func (s *templateStore) versionsLocked(templateID string) []*core.Version {
	var out []*core.Version
	for _, v := range s.versions {
		if v.TemplateID == templateID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

func (s *templateStore) settingsLocked(templateID string) core.TemplateSettings {
	if settings, ok := s.settings[templateID]; ok {
		return settings
	}
	return *core.DefaultTemplateSettings(templateID)
}

func (s *templateStore) ListVersions(ctx context.Context, templateID string) ([]core.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.versionsLocked(templateID)
	out := make([]core.Version, 0, len(versions))
	for _, v := range versions {
		listed := *v
		listed.Data = nil
		out = append(out, listed)
	}
	return out, nil
}

func (s *templateStore) GetVersion(ctx context.Context, id string) (*core.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.versions[id]
	if !ok {
		logrus.WithField("version_id", id).Warn("Version with specified ID not found")
		return nil, errors.Wrapf(core.ErrNotFound, "version %s", id)
	}
	out := *v
	out.Data = append([]byte(nil), v.Data...)
	return &out, nil
}

func (s *templateStore) DeleteVersion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.versions[id]; !ok {
		return errors.Wrapf(core.ErrNotFound, "version %s", id)
	}
	delete(s.versions, id)
	logrus.WithField("version_id", id).Info("Version deleted successfully")
	return nil
}

func (s *templateStore) UpdateVersionMetadata(ctx context.Context, id, name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[id]
	if !ok {
		return errors.Wrapf(core.ErrNotFound, "version %s", id)
	}
	v.Name = name
	v.Description = description
	return nil
}

func (s *templateStore) GetTemplateSettings(ctx context.Context, templateID string) (*core.TemplateSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settingsLocked(templateID)
	return &settings, nil
}

func (s *templateStore) UpdateTemplateSettings(ctx context.Context, templateID string, maxVersions, autoSaveInterval int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[templateID] = core.TemplateSettings{
		TemplateID:       templateID,
		MaxVersions:      maxVersions,
		AutoSaveInterval: autoSaveInterval,
	}
	return nil
}
