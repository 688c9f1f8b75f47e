package sqlite

import (
	"context"
	"database/sql"

	"certificate-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CreateVersion stores a named version of a template and prunes the oldest
// versions beyond the template's MaxVersions.
func (s *templateStore) CreateVersion(ctx context.Context, templateID, name, description, createdBy string, data []byte) (string, error) {
	u := ulid.Make()
	id := u.String()
	log := logrus.WithFields(logrus.Fields{
		"version_id":  id,
		"template_id": templateID,
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	settings, err := settingsTx(ctx, tx, templateID)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO versions (id, template_id, name, description, created_by, created_at, data) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, templateID, name, description, createdBy, int64(u.Time()), data)
	if err != nil {
		log.WithError(err).Error("Failed to create version")
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM versions
		WHERE template_id = ?
		AND id NOT IN (
			SELECT id FROM versions
			WHERE template_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)`, templateID, templateID, settings.MaxVersions)
	if err != nil {
		log.WithError(err).Warn("Failed to prune old versions")
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	log.WithField("data_length", len(data)).Info("Version created successfully")
	return id, nil
}

func (s *templateStore) ListVersions(ctx context.Context, templateID string) ([]core.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, template_id, name, description, created_by, created_at
		FROM versions
		WHERE template_id = ?
		ORDER BY created_at DESC, id DESC`, templateID)
	if err != nil {
		logrus.WithError(err).Error("Failed to list versions")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close version rows")
		}
	}()

	versions := []core.Version{}
	for rows.Next() {
		var (
			v                            core.Version
			name, description, createdBy sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.TemplateID, &name, &description, &createdBy, &v.CreatedAt); err != nil {
			logrus.WithError(err).Warn("Failed to scan version, skipping")
			continue
		}
		v.Name = name.String
		v.Description = description.String
		v.CreatedBy = createdBy.String
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *templateStore) GetVersion(ctx context.Context, id string) (*core.Version, error) {
	var (
		v                            core.Version
		name, description, createdBy sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, template_id, name, description, created_by, created_at, data
		FROM versions WHERE id = ?`, id).
		Scan(&v.ID, &v.TemplateID, &name, &description, &createdBy, &v.CreatedAt, &v.Data)
	if err == sql.ErrNoRows {
		logrus.WithField("version_id", id).Warn("Version with specified ID not found")
		return nil, errors.Wrapf(core.ErrNotFound, "version %s", id)
	}
	if err != nil {
		return nil, err
	}
	v.Name = name.String
	v.Description = description.String
	v.CreatedBy = createdBy.String
	return &v, nil
}

func (s *templateStore) DeleteVersion(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM versions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return errors.Wrapf(core.ErrNotFound, "version %s", id)
	}
	logrus.WithField("version_id", id).Info("Version deleted successfully")
	return nil
}

func (s *templateStore) UpdateVersionMetadata(ctx context.Context, id, name, description string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE versions SET name = ?, description = ? WHERE id = ?", name, description, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return errors.Wrapf(core.ErrNotFound, "version %s", id)
	}
	return nil
}

func (s *templateStore) GetTemplateSettings(ctx context.Context, templateID string) (*core.TemplateSettings, error) {
	settings, err := settingsTx(ctx, s.db, templateID)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *templateStore) UpdateTemplateSettings(ctx context.Context, templateID string, maxVersions, autoSaveInterval int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO template_settings (template_id, max_versions, auto_save_interval)
		VALUES (?, ?, ?)
		ON CONFLICT(template_id) DO UPDATE SET
			max_versions = excluded.max_versions,
			auto_save_interval = excluded.auto_save_interval`,
		templateID, maxVersions, autoSaveInterval)
	if err != nil {
		logrus.WithError(err).WithField("template_id", templateID).Error("Failed to update template settings")
	}
	return err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func settingsTx(ctx context.Context, q queryer, templateID string) (core.TemplateSettings, error) {
	settings := *core.DefaultTemplateSettings(templateID)
	err := q.QueryRowContext(ctx,
		"SELECT max_versions, auto_save_interval FROM template_settings WHERE template_id = ?", templateID).
		Scan(&settings.MaxVersions, &settings.AutoSaveInterval)
	if err == sql.ErrNoRows {
		return *core.DefaultTemplateSettings(templateID), nil
	}
	if err != nil {
		return core.TemplateSettings{}, err
	}
	return settings, nil
}
