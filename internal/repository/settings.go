package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

// SettingsRepository — настройки чатов (таблица chat_settings).
type SettingsRepository interface {
	// Get возвращает настройки чата или ErrNotFound.
	Get(ctx context.Context, chatID int64) (*model.ChatSettings, error)
	// EnsureDefaults сохраняет max_buttons=false, если настройка не задана.
	// Существующее значение не изменяется.
	EnsureDefaults(ctx context.Context, chatID int64) error
	// SetMaxButtons сохраняет значение max_buttons.
	SetMaxButtons(ctx context.Context, chatID int64, maxButtons bool) (*model.ChatSettings, error)
}

// settingsRepo — реализация SettingsRepository через pgx.
type settingsRepo struct {
	db DBTX
}

// NewSettingsRepository создаёт репозиторий настроек чатов.
func NewSettingsRepository(db DBTX) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context, chatID int64) (*model.ChatSettings, error) {
	query := `SELECT chat_id, max_buttons, updated_at FROM chat_settings WHERE chat_id = $1`

	s := &model.ChatSettings{}
	err := r.db.QueryRow(ctx, query, chatID).Scan(&s.ChatID, &s.MaxButtons, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения настроек чата: %w", err)
	}
	return s, nil
}

func (r *settingsRepo) EnsureDefaults(ctx context.Context, chatID int64) error {
	query := `
		INSERT INTO chat_settings (chat_id, max_buttons)
		VALUES ($1, false)
		ON CONFLICT (chat_id) DO UPDATE
		SET max_buttons = false, updated_at = now()
		WHERE chat_settings.max_buttons IS NULL`

	if _, err := r.db.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("ошибка сохранения настроек по умолчанию: %w", err)
	}
	return nil
}

func (r *settingsRepo) SetMaxButtons(ctx context.Context, chatID int64, maxButtons bool) (*model.ChatSettings, error) {
	query := `
		INSERT INTO chat_settings (chat_id, max_buttons)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE
		SET max_buttons = EXCLUDED.max_buttons, updated_at = now()
		RETURNING chat_id, max_buttons, updated_at`

	s := &model.ChatSettings{}
	if err := r.db.QueryRow(ctx, query, chatID, maxButtons).Scan(&s.ChatID, &s.MaxButtons, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("ошибка сохранения настроек чата: %w", err)
	}
	return s, nil
}
