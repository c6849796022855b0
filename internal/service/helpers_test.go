package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/fileid"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
	"github.com/bigkaa/goartstore/catalog-module/internal/storage/memstore"
)

// testLogger возвращает логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// remoteID строит синтетический удалённый идентификатор видеофайла.
func remoteID(mediaID int64, reference string) string {
	return fileid.Encode(&fileid.FileID{
		Type:       fileid.TypeVideo,
		DCID:       2,
		MediaID:    mediaID,
		AccessHash: mediaID * 7919,
		Reference:  []byte(reference),
	})
}

// descriptor строит описание видеофайла.
func descriptor(mediaID int64, name string) model.IngestDescriptor {
	return model.IngestDescriptor{
		RemoteFileID: remoteID(mediaID, "ref"),
		FileName:     name,
		FileSize:     1000 + mediaID,
		FileType:     "video",
	}
}

// newTestCatalog создаёт сервис каталога поверх in-memory хранилища.
func newTestCatalog(media repository.MediaRepository) *CatalogService {
	return NewCatalogService(media, NewMetadataCache(100, time.Minute), 4, 100, testLogger())
}

// failingMedia — хранилище, недоступное для записи и чтения.
type failingMedia struct {
	*memstore.MediaStore
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

func (f failingMedia) Insert(context.Context, *model.MediaRecord) error { return errConnRefused }

func (f failingMedia) CountMatching(context.Context, repository.MediaFilter) (int, error) {
	return 0, errConnRefused
}

func (f failingMedia) DeleteByID(context.Context, string) (int, error) { return 0, errConnRefused }

// hangingMedia — хранилище, запись в которое не отвечает до отмены контекста.
type hangingMedia struct {
	*memstore.MediaStore
}

func (h hangingMedia) Insert(ctx context.Context, _ *model.MediaRecord) error {
	<-ctx.Done()
	return ctx.Err()
}

// failingSettings — хранилище настроек, недоступное для чтения.
type failingSettings struct {
	*memstore.SettingsStore
}

func (f failingSettings) Get(context.Context, int64) (*model.ChatSettings, error) {
	return nil, errConnRefused
}
