package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"certificate-server/core"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type templateStore struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS versions (
		id TEXT PRIMARY KEY,
		template_id TEXT NOT NULL,
		name TEXT,
		description TEXT,
		created_by TEXT,
		created_at INTEGER NOT NULL,
		data BLOB NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS versions_template_id ON versions (template_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS template_settings (
		template_id TEXT PRIMARY KEY,
		max_versions INTEGER DEFAULT 10,
		auto_save_interval INTEGER DEFAULT 300
	);`,
}

// NewTemplateStore opens (and if needed creates) the sqlite database.
func NewTemplateStore(dataSourceName string) *templateStore {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open sqlite database")
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err = db.Exec(stmt); err != nil {
			logrus.WithError(err).Fatal("failed to create sqlite schema")
		}
	}

	return &templateStore{db}
}

func (s *templateStore) List(ctx context.Context) ([]*core.Template, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, data, created_at, updated_at FROM templates ORDER BY updated_at DESC, id ASC")
	if err != nil {
		logrus.WithError(err).Error("Failed to list templates")
		return nil, errors.Wrap(err, "list templates")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close template rows")
		}
	}()

	templates := []*core.Template{}
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			logrus.WithError(err).Warn("Failed to scan template, skipping")
			continue
		}
		tmpl.Config.Elements = nil
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list templates")
	}

	logrus.Debugf("Listed %d templates", len(templates))
	return templates, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row scanner) (*core.Template, error) {
	var (
		tmpl                 core.Template
		name                 sql.NullString
		data                 []byte
		createdAt, updatedAt int64
	)
	if err := row.Scan(&tmpl.ID, &name, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &tmpl.Config); err != nil {
		return nil, errors.Wrapf(err, "decode template %s", tmpl.ID)
	}
	tmpl.Name = name.String
	tmpl.CreatedAt = time.UnixMilli(createdAt)
	tmpl.UpdatedAt = time.UnixMilli(updatedAt)
	return &tmpl, nil
}

func (s *templateStore) Get(ctx context.Context, id string) (*core.Template, error) {
	log := logrus.WithField("template_id", id)
	log.Debug("Retrieving template by ID")

	row := s.db.QueryRowContext(ctx, "SELECT id, name, data, created_at, updated_at FROM templates WHERE id = ?", id)
	tmpl, err := scanTemplate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn("Template with specified ID not found")
			return nil, errors.Wrapf(core.ErrNotFound, "template %s", id)
		}
		log.WithError(err).Error("Failed to retrieve template")
		return nil, err
	}

	log.Debug("Template retrieved successfully")
	return tmpl, nil
}

func (s *templateStore) Save(ctx context.Context, template *core.Template) error {
	if template.ID == "" {
		template.ID = ulid.Make().String()
	}
	log := logrus.WithField("template_id", template.ID)

	data, err := json.Marshal(template.Config)
	if err != nil {
		return errors.Wrap(err, "encode template")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now()
	var createdAt int64
	err = tx.QueryRowContext(ctx, "SELECT created_at FROM templates WHERE id = ?", template.ID).Scan(&createdAt)
	switch {
	case err == sql.ErrNoRows:
		createdAt = now.UnixMilli()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO templates (id, name, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			template.ID, template.Name, data, createdAt, now.UnixMilli())
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"UPDATE templates SET name = ?, data = ?, updated_at = ? WHERE id = ?",
			template.Name, data, now.UnixMilli(), template.ID)
	}
	if err != nil {
		log.WithError(err).Error("Failed to save template")
		return err
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit template")
		return err
	}

	template.CreatedAt = time.UnixMilli(createdAt)
	template.UpdatedAt = time.UnixMilli(now.UnixMilli())
	log.WithField("data_length", len(data)).Info("Template saved successfully")
	return nil
}

func (s *templateStore) Delete(ctx context.Context, id string) error {
	log := logrus.WithField("template_id", id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		log.WithError(err).Error("Failed to delete template")
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Warn("Template not found for deletion")
		return errors.Wrapf(core.ErrNotFound, "template %s", id)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM versions WHERE template_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM template_settings WHERE template_id = ?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("Template deleted successfully")
	return nil
}
