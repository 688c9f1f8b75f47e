// Package session keeps the live editing sessions of the server. Each session
// owns one editor; events for a session are applied one at a time, in the
// order they arrive.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"certificate-server/core"
	"certificate-server/editor"
	"certificate-server/history"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one open template being edited.
type Session struct {
	ID         string
	TemplateID string

	mu         sync.Mutex
	editor     *editor.Editor
	lastActive int64
}

// Registry tracks open sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    core.TemplateStore
	limit    int
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithHistoryLimit bounds the undo depth of every session.
func WithHistoryLimit(limit int) Option {
	return func(r *Registry) {
		r.limit = limit
	}
}

// NewRegistry creates a registry that loads and saves templates through store.
func NewRegistry(store core.TemplateStore, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open starts a session on the stored template, or on an empty template when
// templateID is empty.
func (r *Registry) Open(ctx context.Context, templateID string) (*Session, error) {
	cfg := core.DefaultConfig()
	if templateID != "" {
		tmpl, err := r.store.Get(ctx, templateID)
		if err != nil {
			return nil, errors.Wrapf(err, "open session for template %s", templateID)
		}
		if err := core.Validate(tmpl.Config); err != nil {
			return nil, err
		}
		cfg = tmpl.Config
	}

	s := &Session{
		ID:         ulid.Make().String(),
		TemplateID: templateID,
		editor:     editor.New(cfg, history.WithLimit[core.TemplateConfig](r.limit)),
		lastActive: r.now().UnixMilli(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session_id":  s.ID,
		"template_id": templateID,
	}).Info("Editing session opened")
	return s, nil
}

// Get returns an open session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	return s, nil
}

// Close tears a session down, discarding its history.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	delete(r.sessions, id)
	logrus.WithField("session_id", id).Info("Editing session closed")
	return nil
}

// List returns every open session, most recently active first.
func (r *Registry) List() []core.SessionInfo {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	infos := make([]core.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].LastActive == infos[j].LastActive {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].LastActive > infos[j].LastActive
	})
	return infos
}

// Do runs fn against the session's editor while holding the session lock and
// returns the resulting state.
func (r *Registry) Do(id string, fn func(ed *editor.Editor) error) (editor.State, error) {
	s, err := r.Get(id)
	if err != nil {
		return editor.State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = r.now().UnixMilli()
	if err := fn(s.editor); err != nil {
		return s.editor.State(), err
	}
	return s.editor.State(), nil
}

// Apply applies a single command to a session.
func (r *Registry) Apply(id string, cmd editor.Command) (editor.State, error) {
	return r.Do(id, func(ed *editor.Editor) error {
		return ed.Apply(cmd)
	})
}

// State returns the current state of a session.
func (r *Registry) State(id string) (editor.State, error) {
	return r.Do(id, func(*editor.Editor) error { return nil })
}

// Save persists the present template of a session. The first save of a
// session opened without a template creates one. Undo history is kept.
func (r *Registry) Save(ctx context.Context, id, name string) (*core.Template, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.editor.EndDrag()
	cfg := s.editor.Present()
	if err := core.Validate(cfg); err != nil {
		return nil, err
	}

	tmpl := &core.Template{ID: s.TemplateID, Name: name, Config: cfg}
	if s.TemplateID != "" && name == "" {
		if existing, err := r.store.Get(ctx, s.TemplateID); err == nil {
			tmpl.Name = existing.Name
			tmpl.CreatedAt = existing.CreatedAt
		}
	}

	if err := r.store.Save(ctx, tmpl); err != nil {
		return nil, errors.Wrapf(err, "save session %s", id)
	}
	s.TemplateID = tmpl.ID
	s.lastActive = r.now().UnixMilli()

	logrus.WithFields(logrus.Fields{
		"session_id":  id,
		"template_id": tmpl.ID,
		"elements":    len(cfg.Elements),
	}).Info("Editing session saved")
	return tmpl, nil
}

// Sweep closes sessions idle for longer than maxIdle and returns their ids.
func (r *Registry) Sweep(maxIdle time.Duration) []string {
	cutoff := r.now().Add(-maxIdle).UnixMilli()

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := s.lastActive < cutoff
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	if len(evicted) > 0 {
		logrus.WithField("sessions", evicted).Info("Evicted idle editing sessions")
	}
	return evicted
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(maxIdle)
		}
	}
}

// Info summarises the session.
func (s *Session) Info() core.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.SessionInfo{ID: s.ID, TemplateID: s.TemplateID, LastActive: s.lastActive}
}
