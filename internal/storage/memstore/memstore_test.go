package memstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
	"github.com/bigkaa/goartstore/catalog-module/internal/search"
)

// testLogger возвращает логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func record(id, name string) *model.MediaRecord {
	return &model.MediaRecord{ID: id, DisplayName: name, Size: 1, Kind: model.KindVideo}
}

func TestInsert_Duplicate(t *testing.T) {
	s := NewMediaStore(testLogger())
	ctx := context.Background()

	if err := s.Insert(ctx, record("a", "first")); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	if err := s.Insert(ctx, record("a", "second")); !errors.Is(err, repository.ErrDuplicateKey) {
		t.Errorf("ошибка = %v, ожидалась ErrDuplicateKey", err)
	}

	got, err := s.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.DisplayName != "first" {
		t.Errorf("DisplayName = %q, запись не должна перезаписываться", got.DisplayName)
	}
}

func TestInsert_Validation(t *testing.T) {
	s := NewMediaStore(testLogger())

	err := s.Insert(context.Background(), &model.MediaRecord{ID: "x", Size: 1, Kind: model.KindVideo})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("ошибка = %v, ожидалась ErrValidation", err)
	}
}

// TestInsert_ConcurrentSameID проверяет, что ровно одна из конкурирующих вставок проходит.
func TestInsert_ConcurrentSameID(t *testing.T) {
	s := NewMediaStore(testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	saved, dup := 0, 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Insert(ctx, record("same", "name"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				saved++
			case errors.Is(err, repository.ErrDuplicateKey):
				dup++
			}
		}()
	}
	wg.Wait()

	if saved != 1 || dup != 49 {
		t.Errorf("saved = %d, dup = %d; ожидалось 1 и 49", saved, dup)
	}
}

func TestFind_OrderAndPagination(t *testing.T) {
	s := NewMediaStore(testLogger())
	ctx := context.Background()

	for i := range 7 {
		if err := s.Insert(ctx, record(fmt.Sprintf("id%d", i), fmt.Sprintf("file %d", i))); err != nil {
			t.Fatalf("Insert() ошибка: %v", err)
		}
	}

	page, err := s.Find(ctx, repository.MediaFilter{}, 3, 0)
	if err != nil {
		t.Fatalf("Find() ошибка: %v", err)
	}
	if len(page) != 3 || page[0].ID != "id6" || page[2].ID != "id4" {
		t.Errorf("первая страница = %v", ids(page))
	}

	page, _ = s.Find(ctx, repository.MediaFilter{}, 3, 6)
	if len(page) != 1 || page[0].ID != "id0" {
		t.Errorf("последняя страница = %v", ids(page))
	}

	page, _ = s.Find(ctx, repository.MediaFilter{}, 3, 100)
	if len(page) != 0 {
		t.Errorf("страница за пределами = %v, ожидалась пустая", ids(page))
	}

	all, _ := s.Find(ctx, repository.MediaFilter{}, 0, 0)
	if len(all) != 7 {
		t.Errorf("limit 0 вернул %d, ожидалось 7", len(all))
	}
}

func TestFind_Pattern(t *testing.T) {
	s := NewMediaStore(testLogger())
	ctx := context.Background()

	for i, n := range []string{"The Matrix 1999", "Thematrix", "The Matrix Reloaded"} {
		_ = s.Insert(ctx, record(fmt.Sprint(i), n))
	}

	p, err := search.Build("matrix")
	if err != nil {
		t.Fatalf("search.Build() ошибка: %v", err)
	}
	f := repository.MediaFilter{Pattern: p}

	n, _ := s.CountMatching(ctx, f)
	if n != 2 {
		t.Errorf("CountMatching() = %d, ожидалось 2", n)
	}
	items, _ := s.Find(ctx, f, 0, 0)
	if len(items) != 2 || items[0].DisplayName != "The Matrix Reloaded" {
		t.Errorf("Find() = %v", ids(items))
	}
}

func TestDeleteByNameSizeMime(t *testing.T) {
	s := NewMediaStore(testLogger())
	ctx := context.Background()

	mime := "video/mp4"
	withMime := record("m", "a b mkv")
	withMime.MimeType = &mime
	_ = s.Insert(ctx, withMime)
	_ = s.Insert(ctx, record("n", "a b mkv"))

	// mime=nil удаляет только запись без mime
	n, err := s.DeleteByNameSizeMime(ctx, model.NameVariants("a_b.mkv"), 1, nil)
	if err != nil || n != 1 {
		t.Fatalf("DeleteByNameSizeMime() = %d, %v; ожидалось 1", n, err)
	}
	if _, err := s.GetByID(ctx, "m"); err != nil {
		t.Error("запись с mime не должна быть удалена")
	}

	n, _ = s.DeleteByNameSizeMime(ctx, []string{"a b mkv"}, 2, &mime)
	if n != 0 {
		t.Errorf("удалено %d при другом размере, ожидалось 0", n)
	}
}

func TestDropAll_KeepsSequence(t *testing.T) {
	s := NewMediaStore(testLogger())
	ctx := context.Background()

	_ = s.Insert(ctx, record("a", "a"))
	if err := s.DropAll(ctx); err != nil {
		t.Fatalf("DropAll() ошибка: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("Count() = %d после DropAll", n)
	}

	r := record("b", "b")
	_ = s.Insert(ctx, r)
	if r.Seq != 2 {
		t.Errorf("Seq = %d, ожидалось 2", r.Seq)
	}
}

func TestCancelledContext(t *testing.T) {
	s := NewMediaStore(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Insert(ctx, record("a", "a")); !errors.Is(err, context.Canceled) {
		t.Errorf("ошибка = %v, ожидалась context.Canceled", err)
	}
}

func TestSettingsStore(t *testing.T) {
	s := NewSettingsStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("ошибка = %v, ожидалась ErrNotFound", err)
	}

	_ = s.EnsureDefaults(ctx, 1)
	cs, _ := s.Get(ctx, 1)
	if cs.MaxButtons == nil || *cs.MaxButtons {
		t.Errorf("MaxButtons = %v, ожидалось false", cs.MaxButtons)
	}

	_, _ = s.SetMaxButtons(ctx, 1, true)
	_ = s.EnsureDefaults(ctx, 1)
	cs, _ = s.Get(ctx, 1)
	if !*cs.MaxButtons {
		t.Error("EnsureDefaults не должен менять заданное значение")
	}
}

func ids(rs []*model.MediaRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
