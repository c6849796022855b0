package model

import (
	"fmt"
	"time"
)

// IngestDescriptor — описание файла, поступающее от мессенджера.
type IngestDescriptor struct {
	// RemoteFileID — удалённый идентификатор файла
	RemoteFileID string `json:"remote_file_id"`
	// FileName — исходное имя файла
	FileName string `json:"file_name"`
	// FileSize — размер в байтах
	FileSize int64 `json:"file_size"`
	// FileType — тип: document, video, audio
	FileType string `json:"file_type"`
	// MimeType — MIME-тип (опционально)
	MimeType string `json:"mime_type,omitempty"`
	// Caption — подпись к сообщению (опционально)
	Caption string `json:"caption,omitempty"`
}

// NewMediaRecord собирает запись каталога из входного описания и уже
// вычисленных ключа и ссылки. Значения по умолчанию разрешаются здесь,
// один раз: пустые mime/caption → nil, пустой тип → unknown.
func NewMediaRecord(d IngestDescriptor, id, reference string, now time.Time) (*MediaRecord, error) {
	kind, err := ParseKind(d.FileType)
	if err != nil {
		return nil, err
	}

	r := &MediaRecord{
		ID:          id,
		Reference:   reference,
		DisplayName: NormalizeName(d.FileName),
		Size:        d.FileSize,
		Kind:        kind,
		MimeType:    optional(d.MimeType),
		Caption:     optional(d.Caption),
		CreatedAt:   now.UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("файл %q: %w", d.FileName, err)
	}
	return r, nil
}
