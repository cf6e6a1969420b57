// Package session restores, creates and clears the visitor session and keeps the
// credential token in storage.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Its-donkey/ivideo/internal/ui/catalog"
	"github.com/Its-donkey/ivideo/internal/ui/model"
	"github.com/Its-donkey/ivideo/internal/ui/state"
	"github.com/Its-donkey/ivideo/internal/ui/storage"
	"github.com/Its-donkey/ivideo/logging"
)

const (
	placeholderUserID      = 1
	placeholderUsername    = "user123"
	placeholderDisplayName = "Video Fan"
)

// ProfileFetcher resolves a token into its session.
type ProfileFetcher interface {
	Profile(ctx context.Context, token string) (*model.Session, error)
}

// Manager owns session transitions for a page. None of its methods return
// errors; failures are logged.
//
// Login and Logout run one at a time together with their token write, so the
// stored token always matches the last transition applied.
type Manager struct {
	mu       sync.Mutex
	profiles ProfileFetcher
	store    storage.Store
	page     *state.Page
	logger   *logging.Logger
	newToken func() string
}

// NewManager wires a manager to page.
func NewManager(profiles ProfileFetcher, store storage.Store, page *state.Page, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		profiles: profiles,
		store:    store,
		page:     page,
		logger:   logger,
		newToken: func() string { return "local-" + uuid.NewString() },
	}
}

// Bootstrap restores the session for a stored token. Without a token no request
// is made. On any failure the session stays empty and the token is kept.
func (m *Manager) Bootstrap(ctx context.Context) {
	ticket := m.page.Issue(state.ResourceSession)

	token, ok, err := m.store.Get(ctx, model.TokenStorageKey)
	if err != nil {
		m.logger.Warn("session", "token read failed", map[string]any{
			"kind":  "storage",
			"error": err.Error(),
		})
		return
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		m.logger.Debug("session", "no stored token", nil)
		return
	}

	profile, err := m.profiles.Profile(ctx, token)
	if err != nil {
		m.logger.Warn("session", "session restore failed", map[string]any{
			"kind":  catalog.Kind(err),
			"error": err.Error(),
		})
		return
	}
	if !m.page.ApplySession(ticket, profile) {
		m.logger.Debug("session", "stale session restore dropped", map[string]any{"seq": ticket.Seq})
		return
	}
	m.logger.Info("session", "session restored", map[string]any{
		"user_id":  profile.UserID,
		"username": profile.Username,
	})
}

// Login installs a placeholder session built from creds and stores a fresh
// token. No request is made. A failed token write is logged and the session is
// still installed.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket := m.page.Issue(state.ResourceSession)

	s := &model.Session{
		UserID:      placeholderUserID,
		Username:    strings.TrimSpace(creds.Username),
		DisplayName: strings.TrimSpace(creds.DisplayName),
	}
	if s.Username == "" {
		s.Username = placeholderUsername
	}
	if s.DisplayName == "" {
		s.DisplayName = placeholderDisplayName
	}

	if err := m.store.Set(ctx, model.TokenStorageKey, m.newToken()); err != nil {
		m.logger.Error("session", "token write failed", err, map[string]any{"kind": "storage"})
	}
	if !m.page.ApplySession(ticket, s) {
		m.logger.Debug("session", "stale login dropped", map[string]any{"seq": ticket.Seq})
		return m.page.Session()
	}
	m.logger.Info("session", "logged in", map[string]any{"username": s.Username})
	return m.page.Session()
}

// Logout clears the session and deletes the stored token. Calling it again has
// no further effect.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket := m.page.Issue(state.ResourceSession)
	m.page.ApplySession(ticket, nil)

	if err := m.store.Delete(ctx, model.TokenStorageKey); err != nil {
		m.logger.Error("session", "token delete failed", err, map[string]any{"kind": "storage"})
		return
	}
	m.logger.Info("session", "logged out", nil)
}
