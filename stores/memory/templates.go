package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"certificate-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type templateStore struct {
	mu        sync.RWMutex
	templates map[string]*core.Template
	versions  map[string]*core.Version
	settings  map[string]core.TemplateSettings
}

// NewTemplateStore creates an in-memory store. Each instance has its own data.
func NewTemplateStore() *templateStore {
	return &templateStore{
		templates: make(map[string]*core.Template),
		versions:  make(map[string]*core.Version),
		settings:  make(map[string]core.TemplateSettings),
	}
}

func cloneTemplate(t *core.Template) *core.Template {
	c := *t
	c.Config.Elements = append([]core.Element(nil), t.Config.Elements...)
	return &c
}

func (s *templateStore) List(ctx context.Context) ([]*core.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make([]*core.Template, 0, len(s.templates))
	for _, t := range s.templates {
		// Listings carry the canvas but not the elements.
		listed := *t
		listed.Config.Elements = nil
		templates = append(templates, &listed)
	}

	sort.Slice(templates, func(i, j int) bool {
		if templates[i].UpdatedAt.Equal(templates[j].UpdatedAt) {
			return templates[i].ID < templates[j].ID
		}
		return templates[i].UpdatedAt.After(templates[j].UpdatedAt)
	})

	logrus.Debugf("Listed %d templates", len(templates))
	return templates, nil
}

func (s *templateStore) Get(ctx context.Context, id string) (*core.Template, error) {
	log := logrus.WithField("template_id", id)

	s.mu.RLock()
	t, ok := s.templates[id]
	s.mu.RUnlock()

	if !ok {
		log.Warn("Template with specified ID not found")
		return nil, errors.Wrapf(core.ErrNotFound, "template %s", id)
	}

	log.Debug("Template retrieved successfully")
	return cloneTemplate(t), nil
}

func (s *templateStore) Save(ctx context.Context, template *core.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if template.ID == "" {
		template.ID = ulid.Make().String()
	}

	now := time.Now()
	if existing, ok := s.templates[template.ID]; ok {
		template.CreatedAt = existing.CreatedAt
	} else {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	s.templates[template.ID] = cloneTemplate(template)

	logrus.WithFields(logrus.Fields{
		"template_id": template.ID,
		"elements":    len(template.Config.Elements),
	}).Info("Template saved successfully")
	return nil
}

func (s *templateStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithField("template_id", id)
	if _, ok := s.templates[id]; !ok {
		log.Warn("Template not found for deletion")
		return errors.Wrapf(core.ErrNotFound, "template %s", id)
	}

	delete(s.templates, id)
	delete(s.settings, id)
	for vid, v := range s.versions {
		if v.TemplateID == id {
			delete(s.versions, vid)
		}
	}

	log.Info("Template deleted successfully")
	return nil
}
