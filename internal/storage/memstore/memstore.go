// Пакет memstore — потокобезопасное in-memory хранилище каталога.
//
// Реализует repository.MediaRepository и repository.SettingsRepository.
// Используется при CM_STORE_BACKEND=memory и в тестах сервисов.
// Не персистентное: при рестарте содержимое теряется.
package memstore

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
)

// MediaStore — in-memory каталог медиафайлов.
// Использует sync.RWMutex для конкурентного чтения и эксклюзивной записи.
type MediaStore struct {
	mu      sync.RWMutex
	records map[string]*model.MediaRecord // id → запись
	seq     int64                         // последний выданный порядковый номер
	logger  *slog.Logger
}

// NewMediaStore создаёт пустой каталог.
func NewMediaStore(logger *slog.Logger) *MediaStore {
	return &MediaStore{
		records: make(map[string]*model.MediaRecord),
		logger:  logger.With(slog.String("component", "memstore")),
	}
}

// Insert добавляет запись. Уникальность id проверяется под эксклюзивной блокировкой.
func (s *MediaStore) Insert(ctx context.Context, r *model.MediaRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[r.ID]; ok {
		return repository.ErrDuplicateKey
	}

	s.seq++
	r.Seq = s.seq
	// Копия, чтобы внешние изменения не влияли на хранилище
	copied := *r
	s.records[r.ID] = &copied
	return nil
}

// GetByID возвращает копию записи или repository.ErrNotFound.
func (s *MediaStore) GetByID(ctx context.Context, id string) (*model.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

// DeleteByID удаляет запись по id.
func (s *MediaStore) DeleteByID(ctx context.Context, id string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return 0, nil
	}
	delete(s.records, id)
	return 1, nil
}

// DeleteByNameSizeMime удаляет записи по (имя, размер, mime), перебирая варианты имени.
func (s *MediaStore) DeleteByNameSizeMime(ctx context.Context, names []string, size int64, mime *string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		deleted := 0
		for id, r := range s.records {
			if r.DisplayName == name && r.Size == size && sameOptional(r.MimeType, mime) {
				delete(s.records, id)
				deleted++
			}
		}
		if deleted > 0 {
			return deleted, nil
		}
	}
	return 0, nil
}

// DropAll удаляет все записи. Счётчик seq не сбрасывается.
func (s *MediaStore) DropAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.records)
	s.records = make(map[string]*model.MediaRecord)
	s.logger.Warn("Каталог очищен", slog.Int("records", dropped))
	return nil
}

// Count возвращает общее число записей.
func (s *MediaStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// CountMatching возвращает число записей, удовлетворяющих фильтру.
func (s *MediaStore) CountMatching(ctx context.Context, f repository.MediaFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if f.Matches(r) {
			n++
		}
	}
	return n, nil
}

// Find возвращает записи по фильтру в порядке убывания seq.
// limit 0 — без ограничения.
func (s *MediaStore) Find(ctx context.Context, f repository.MediaFilter, limit, offset int) ([]*model.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]*model.MediaRecord, 0)
	for _, r := range s.records {
		if f.Matches(r) {
			copied := *r
			matched = append(matched, &copied)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Seq > matched[j].Seq
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*model.MediaRecord{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// CheckReady реализует handlers.ReadinessChecker: in-memory хранилище всегда готово.
func (s *MediaStore) CheckReady() (status string, message string) {
	return "ok", "in-memory хранилище"
}

// sameOptional сравнивает необязательные строки с учётом nil (аналог IS NOT DISTINCT FROM).
func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

var _ repository.MediaRepository = (*MediaStore)(nil)
