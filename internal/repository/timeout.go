// timeout.go — ограничение времени каждого обращения к хранилищу (CM_DB_QUERY_TIMEOUT).
// Зависший запрос завершается context.DeadlineExceeded, который сервисный слой
// превращает в ErrStoreUnavailable.
package repository

import (
	"context"
	"time"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

// WithQueryTimeout оборачивает репозиторий каталога: каждый вызов получает
// контекст с таймаутом d. При d <= 0 репозиторий возвращается без изменений.
func WithQueryTimeout(media MediaRepository, d time.Duration) MediaRepository {
	if d <= 0 {
		return media
	}
	return &timeoutMediaRepo{inner: media, timeout: d}
}

// WithSettingsQueryTimeout — то же для репозитория настроек чатов.
func WithSettingsQueryTimeout(settings SettingsRepository, d time.Duration) SettingsRepository {
	if d <= 0 {
		return settings
	}
	return &timeoutSettingsRepo{inner: settings, timeout: d}
}

type timeoutMediaRepo struct {
	inner   MediaRepository
	timeout time.Duration
}

func (r *timeoutMediaRepo) Insert(ctx context.Context, rec *model.MediaRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Insert(ctx, rec)
}

func (r *timeoutMediaRepo) GetByID(ctx context.Context, id string) (*model.MediaRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.GetByID(ctx, id)
}

func (r *timeoutMediaRepo) DeleteByID(ctx context.Context, id string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.DeleteByID(ctx, id)
}

func (r *timeoutMediaRepo) DeleteByNameSizeMime(ctx context.Context, names []string, size int64, mime *string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.DeleteByNameSizeMime(ctx, names, size, mime)
}

func (r *timeoutMediaRepo) DropAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.DropAll(ctx)
}

func (r *timeoutMediaRepo) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Count(ctx)
}

func (r *timeoutMediaRepo) CountMatching(ctx context.Context, f MediaFilter) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.CountMatching(ctx, f)
}

func (r *timeoutMediaRepo) Find(ctx context.Context, f MediaFilter, limit, offset int) ([]*model.MediaRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Find(ctx, f, limit, offset)
}

type timeoutSettingsRepo struct {
	inner   SettingsRepository
	timeout time.Duration
}

func (r *timeoutSettingsRepo) Get(ctx context.Context, chatID int64) (*model.ChatSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Get(ctx, chatID)
}

func (r *timeoutSettingsRepo) EnsureDefaults(ctx context.Context, chatID int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.EnsureDefaults(ctx, chatID)
}

func (r *timeoutSettingsRepo) SetMaxButtons(ctx context.Context, chatID int64, maxButtons bool) (*model.ChatSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.SetMaxButtons(ctx, chatID, maxButtons)
}
