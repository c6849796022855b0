// settings.go — разрешение размера страницы выдачи по настройкам чата.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
)

// settingsCacheSize — максимальное число чатов в кэше настроек.
const settingsCacheSize = 10000

// SettingsResolver читает настройки чата и при отсутствии предпочтения
// один раз сохраняет значение по умолчанию (max_buttons=false).
type SettingsResolver struct {
	repo         repository.SettingsRepository
	cache        *expirable.LRU[int64, bool]
	defaultSize  int
	extendedSize int
	logger       *slog.Logger
}

// NewSettingsResolver создаёт резолвер настроек.
// defaultSize — страница при max_buttons=false, extendedSize — при true.
func NewSettingsResolver(
	repo repository.SettingsRepository,
	defaultSize, extendedSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *SettingsResolver {
	return &SettingsResolver{
		repo:         repo,
		cache:        expirable.NewLRU[int64, bool](settingsCacheSize, nil, cacheTTL),
		defaultSize:  defaultSize,
		extendedSize: extendedSize,
		logger:       logger.With(slog.String("component", "settings_resolver")),
	}
}

// PageSize возвращает размер страницы выдачи для чата.
func (r *SettingsResolver) PageSize(ctx context.Context, chatID int64) (int, error) {
	maxButtons, ok := r.cache.Get(chatID)
	if !ok {
		s, err := r.Settings(ctx, chatID)
		if err != nil {
			return 0, err
		}
		maxButtons = *s.MaxButtons
	}
	if maxButtons {
		return r.extendedSize, nil
	}
	return r.defaultSize, nil
}

// Settings возвращает настройки чата, создавая значения по умолчанию при их отсутствии.
// Возвращённое MaxButtons всегда не nil.
func (r *SettingsResolver) Settings(ctx context.Context, chatID int64) (*model.ChatSettings, error) {
	s, err := r.repo.Get(ctx, chatID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError("чтение настроек чата", err)
	}

	if s == nil || s.MaxButtons == nil {
		if err := r.repo.EnsureDefaults(ctx, chatID); err != nil {
			return nil, storeError("сохранение настроек по умолчанию", err)
		}
		r.logger.Debug("Сохранены настройки по умолчанию", slog.Int64("chat_id", chatID))

		s, err = r.repo.Get(ctx, chatID)
		if err != nil {
			return nil, storeError("повторное чтение настроек чата", err)
		}
		if s.MaxButtons == nil {
			off := false
			s.MaxButtons = &off
		}
	}

	r.cache.Add(chatID, *s.MaxButtons)
	return s, nil
}

// Update сохраняет max_buttons для чата и сбрасывает кэш.
func (r *SettingsResolver) Update(ctx context.Context, chatID int64, maxButtons bool) (*model.ChatSettings, error) {
	s, err := r.repo.SetMaxButtons(ctx, chatID, maxButtons)
	if err != nil {
		return nil, storeError("обновление настроек чата", err)
	}
	r.cache.Remove(chatID)

	r.logger.Info("Настройки чата обновлены",
		slog.Int64("chat_id", chatID),
		slog.Bool("max_buttons", maxButtons),
	)
	return s, nil
}
