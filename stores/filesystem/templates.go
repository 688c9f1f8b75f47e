package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"certificate-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const ext = ".json"

// ErrInvalidID is returned for template ids that would escape the base directory.
var ErrInvalidID = core.ErrInvalidID

type templateStore struct {
	mu       sync.Mutex
	basePath string
}

// NewTemplateStore stores each template as a JSON file under basePath.
func NewTemplateStore(basePath string) *templateStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logrus.WithError(err).Fatal("failed to create base directory")
	}
	return &templateStore{basePath: basePath}
}

func (s *templateStore) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return "", errors.Wrapf(ErrInvalidID, "%q", id)
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(filepath.Join(s.basePath, id+ext))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFile, absBase+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrInvalidID, "%q", id)
	}
	return absFile, nil
}

func (s *templateStore) read(filePath string) (*core.Template, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var tmpl core.Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, errors.Wrapf(err, "decode %s", filepath.Base(filePath))
	}
	return &tmpl, nil
}

func (s *templateStore) List(ctx context.Context) ([]*core.Template, error) {
	log := logrus.WithField("path", s.basePath)

	files, err := os.ReadDir(s.basePath)
	if err != nil {
		log.WithError(err).Error("Failed to read template directory")
		return nil, err
	}

	templates := make([]*core.Template, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ext {
			continue
		}
		tmpl, err := s.read(filepath.Join(s.basePath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read template file %s, skipping", file.Name())
			continue
		}
		tmpl.Config.Elements = nil
		templates = append(templates, tmpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].UpdatedAt.After(templates[j].UpdatedAt)
	})

	log.Debugf("Listed %d templates", len(templates))
	return templates, nil
}

func (s *templateStore) Get(ctx context.Context, id string) (*core.Template, error) {
	filePath, err := s.path(id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"template_id": id, "path": filePath})

	tmpl, err := s.read(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Template file not found")
			return nil, errors.Wrapf(core.ErrNotFound, "template %s", id)
		}
		log.WithError(err).Error("Failed to read template file")
		return nil, err
	}

	log.Debug("Template retrieved successfully")
	return tmpl, nil
}

func (s *templateStore) Save(ctx context.Context, template *core.Template) error {
	if template.ID == "" {
		template.ID = ulid.Make().String()
	}
	filePath, err := s.path(template.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"template_id": template.ID, "path": filePath})

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, err := s.read(filePath); err == nil {
		template.CreatedAt = existing.CreatedAt
	} else {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	data, err := json.Marshal(template)
	if err != nil {
		log.WithError(err).Error("Failed to marshal template")
		return err
	}

	// Write then rename so readers never see a partial file.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write template file")
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		log.WithError(err).Error("Failed to move template file into place")
		return err
	}

	log.WithField("data_length", len(data)).Info("Template saved successfully")
	return nil
}

func (s *templateStore) Delete(ctx context.Context, id string) error {
	filePath, err := s.path(id)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"template_id": id, "path": filePath})

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Template file not found for deletion")
			return errors.Wrapf(core.ErrNotFound, "template %s", id)
		}
		log.WithError(err).Error("Failed to delete template file")
		return err
	}

	log.Info("Template deleted successfully")
	return nil
}
