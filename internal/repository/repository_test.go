package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goartstore/catalog-module/internal/config"
	"github.com/bigkaa/goartstore/catalog-module/internal/database"
	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("catalog_test"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("CM_DB_HOST", host)
	t.Setenv("CM_DB_PORT", port.Port())
	t.Setenv("CM_DB_NAME", "catalog_test")
	t.Setenv("CM_DB_USER", "catalog")
	t.Setenv("CM_DB_PASSWORD", "test-password")
	t.Setenv("CM_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newRecord(id, name string, size int64, kind model.Kind) *model.MediaRecord {
	return &model.MediaRecord{
		ID:          id,
		Reference:   "ref-" + id,
		DisplayName: name,
		Size:        size,
		Kind:        kind,
		CreatedAt:   time.Now().UTC(),
	}
}

// --- Тесты MediaRepository ---

func TestMediaInsertAndGet(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	mime := "video/x-matroska"
	rec := newRecord("key-1", "The Matrix 1999", 1500, model.KindVideo)
	rec.MimeType = &mime

	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	if rec.Seq == 0 {
		t.Error("Seq не назначен")
	}

	got, err := repo.GetByID(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.DisplayName != "The Matrix 1999" || got.Kind != model.KindVideo {
		t.Errorf("получено %+v", got)
	}
	if got.MimeType == nil || *got.MimeType != mime {
		t.Errorf("MimeType = %v, ожидался %q", got.MimeType, mime)
	}
	if got.Caption != nil {
		t.Errorf("Caption = %v, ожидался nil", *got.Caption)
	}

	// Повторная вставка — ErrDuplicateKey, исходная запись не изменяется
	dup := newRecord("key-1", "Other name", 1, model.KindAudio)
	if err := repo.Insert(ctx, dup); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("повторный Insert() ошибка = %v, ожидалась ErrDuplicateKey", err)
	}
	got, _ = repo.GetByID(ctx, "key-1")
	if got.DisplayName != "The Matrix 1999" {
		t.Errorf("запись перезаписана: %q", got.DisplayName)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) ошибка = %v, ожидалась ErrNotFound", err)
	}
}

func TestMediaFindOrderAndFilter(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	names := []string{"The Matrix 1999", "The Matrix Reloaded", "Thematrix", "Inception"}
	for i, n := range names {
		if err := repo.Insert(ctx, newRecord(fmt.Sprintf("k%d", i), n, int64(i), model.KindVideo)); err != nil {
			t.Fatalf("Insert(%q) ошибка: %v", n, err)
		}
	}

	f := MediaFilter{Pattern: mustPattern(t, "matrix")}
	total, err := repo.CountMatching(ctx, f)
	if err != nil {
		t.Fatalf("CountMatching() ошибка: %v", err)
	}
	if total != 2 {
		t.Errorf("CountMatching() = %d, ожидалось 2", total)
	}

	items, err := repo.Find(ctx, f, 0, 0)
	if err != nil {
		t.Fatalf("Find() ошибка: %v", err)
	}
	if len(items) != 2 || items[0].DisplayName != "The Matrix Reloaded" || items[1].DisplayName != "The Matrix 1999" {
		t.Errorf("Find() вернул %v, ожидались новые первыми", items)
	}

	page, err := repo.Find(ctx, MediaFilter{}, 2, 2)
	if err != nil {
		t.Fatalf("Find(limit, offset) ошибка: %v", err)
	}
	if len(page) != 2 || page[0].ID != "k1" || page[1].ID != "k0" {
		t.Errorf("вторая страница = %v", page)
	}
}

// TestMediaPatternSemantics выполняет шаблоны поиска в PostgreSQL (~*, \y)
// и сверяет результат с той же проверкой на стороне Go (MediaFilter.Matches).
func TestMediaPatternSemantics(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	caption := "foo bar live session"
	records := []*model.MediaRecord{
		newRecord("sep-underscore", "foo_bar_1080p", 1, model.KindVideo),
		newRecord("sep-dot", "foo.bar", 2, model.KindVideo),
		newRecord("sep-dash", "foo-bar", 3, model.KindAudio),
		newRecord("no-sep", "foobar", 4, model.KindVideo),
		newRecord("cpp-word", "learn c++17", 5, model.KindDocument),
		newRecord("cpp-space", "c++ primer", 6, model.KindDocument),
		newRecord("cyr-word", "Матрица 1999", 7, model.KindVideo),
		newRecord("cyr-inside", "Перезагрузкаматрица", 8, model.KindVideo),
		newRecord("captioned", "clip_0001", 9, model.KindDocument),
	}
	records[len(records)-1].Caption = &caption

	for _, rec := range records {
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%q) ошибка: %v", rec.DisplayName, err)
		}
	}

	video := model.KindVideo
	tests := []struct {
		name    string
		query   string
		kind    *model.Kind
		caption bool
		want    int
	}{
		{"разделители, но не слитно", "foo bar", nil, false, 3},
		{"разделители и тип", "foo bar", &video, false, 2},
		{"разделители и подпись", "foo bar", nil, true, 4},
		{"слитный токен", "foobar", nil, false, 1},
		{"не-словесные края токена", "c++", nil, false, 1},
		{"кириллица без учёта регистра", "матрица", nil, false, 1},
		{"подпись без флага", "session", nil, false, 0},
		{"подпись с флагом", "session", nil, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := MediaFilter{Pattern: mustPattern(t, tt.query), Kind: tt.kind, IncludeCaption: tt.caption}

			got, err := repo.CountMatching(ctx, f)
			if err != nil {
				t.Fatalf("CountMatching(%q) ошибка: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("CountMatching(%q) = %d, ожидалось %d", tt.query, got, tt.want)
			}

			inMemory := 0
			for _, rec := range records {
				if f.Matches(rec) {
					inMemory++
				}
			}
			if inMemory != got {
				t.Errorf("Matches(%q) совпало %d, PostgreSQL — %d", tt.query, inMemory, got)
			}
		})
	}
}

func TestMediaDeleteByNameSizeMime(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	// Запись, нормализованная по устаревшей посимвольной схеме
	if err := repo.Insert(ctx, newRecord("legacy", "a  b mkv", 10, model.KindDocument)); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}

	n, err := repo.DeleteByNameSizeMime(ctx, model.NameVariants("a__b.mkv"), 10, nil)
	if err != nil {
		t.Fatalf("DeleteByNameSizeMime() ошибка: %v", err)
	}
	if n != 1 {
		t.Errorf("удалено %d, ожидалась 1", n)
	}

	n, err = repo.DeleteByID(ctx, "legacy")
	if err != nil || n != 0 {
		t.Errorf("DeleteByID() = %d, %v; ожидалось 0, nil", n, err)
	}
}

func TestMediaDropAllAndCount(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	for i := range 3 {
		if err := repo.Insert(ctx, newRecord(fmt.Sprintf("d%d", i), "name", 1, model.KindUnknown)); err != nil {
			t.Fatalf("Insert() ошибка: %v", err)
		}
	}
	if n, _ := repo.Count(ctx); n != 3 {
		t.Errorf("Count() = %d, ожидалось 3", n)
	}
	if err := repo.DropAll(ctx); err != nil {
		t.Fatalf("DropAll() ошибка: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Errorf("Count() после DropAll = %d, ожидалось 0", n)
	}
}

// --- Тесты SettingsRepository ---

func TestSettingsEnsureDefaults(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewSettingsRepository(pool)

	if _, err := repo.Get(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() ошибка = %v, ожидалась ErrNotFound", err)
	}

	if err := repo.EnsureDefaults(ctx, 42); err != nil {
		t.Fatalf("EnsureDefaults() ошибка: %v", err)
	}
	s, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if s.MaxButtons == nil || *s.MaxButtons {
		t.Errorf("MaxButtons = %v, ожидалось false", s.MaxButtons)
	}

	// Существующее значение сохраняется
	if _, err := repo.SetMaxButtons(ctx, 42, true); err != nil {
		t.Fatalf("SetMaxButtons() ошибка: %v", err)
	}
	if err := repo.EnsureDefaults(ctx, 42); err != nil {
		t.Fatalf("EnsureDefaults() ошибка: %v", err)
	}
	s, _ = repo.Get(ctx, 42)
	if s.MaxButtons == nil || !*s.MaxButtons {
		t.Errorf("MaxButtons = %v, ожидалось true", s.MaxButtons)
	}
}
