package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
)

// SettingsStore — in-memory настройки чатов.
type SettingsStore struct {
	mu       sync.Mutex
	settings map[int64]model.ChatSettings
}

// NewSettingsStore создаёт пустое хранилище настроек.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: make(map[int64]model.ChatSettings)}
}

// Get возвращает копию настроек чата или repository.ErrNotFound.
func (s *SettingsStore) Get(ctx context.Context, chatID int64) (*model.ChatSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.settings[chatID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSettings(cs), nil
}

// EnsureDefaults сохраняет max_buttons=false, если настройка не задана.
func (s *SettingsStore) EnsureDefaults(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.settings[chatID]
	if ok && cs.MaxButtons != nil {
		return nil
	}
	off := false
	s.settings[chatID] = model.ChatSettings{ChatID: chatID, MaxButtons: &off, UpdatedAt: time.Now().UTC()}
	return nil
}

// SetMaxButtons сохраняет значение max_buttons.
func (s *SettingsStore) SetMaxButtons(ctx context.Context, chatID int64, maxButtons bool) (*model.ChatSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cs := model.ChatSettings{ChatID: chatID, MaxButtons: &maxButtons, UpdatedAt: time.Now().UTC()}
	s.settings[chatID] = cs
	return cloneSettings(cs), nil
}

func cloneSettings(cs model.ChatSettings) *model.ChatSettings {
	if cs.MaxButtons != nil {
		v := *cs.MaxButtons
		cs.MaxButtons = &v
	}
	return &cs
}

var _ repository.SettingsRepository = (*SettingsStore)(nil)
