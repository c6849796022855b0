// Пакет model — доменные модели каталога медиафайлов.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrValidation — запись не соответствует схеме каталога.
var ErrValidation = errors.New("ошибка валидации записи")

// Kind — тип медиафайла.
type Kind string

// Допустимые типы медиафайлов.
const (
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindUnknown  Kind = "unknown"
)

// Valid сообщает, входит ли значение в перечисление.
func (k Kind) Valid() bool {
	switch k {
	case KindDocument, KindVideo, KindAudio, KindUnknown:
		return true
	}
	return false
}

// ParseKind преобразует тип из входного описания.
// Пустая строка — KindUnknown, неизвестное значение — ошибка валидации.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindUnknown, nil
	}
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: недопустимый тип %q, допустимые: document, video, audio, unknown", ErrValidation, s)
	}
	return k, nil
}

// MediaRecord — запись каталога медиафайлов.
// После создания не изменяется: повторная вставка с тем же ID отклоняется.
type MediaRecord struct {
	// ID — ключ дедупликации, производный только от полей идентичности файла
	ID string
	// Reference — изменчивая ссылка на файл (base64url)
	Reference string
	// DisplayName — нормализованное имя файла
	DisplayName string
	// Size — размер файла в байтах
	Size int64
	// Kind — тип медиафайла
	Kind Kind
	// MimeType — MIME-тип (опционально)
	MimeType *string
	// Caption — подпись (опционально)
	Caption *string
	// Seq — порядковый номер вставки, назначается хранилищем
	Seq int64
	// CreatedAt — время индексации
	CreatedAt time.Time
}

// Validate проверяет запись перед вставкой.
func (r *MediaRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: пустой id", ErrValidation)
	}
	if r.DisplayName == "" {
		return fmt.Errorf("%w: пустое имя файла", ErrValidation)
	}
	if r.Size < 0 {
		return fmt.Errorf("%w: отрицательный размер %d", ErrValidation, r.Size)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: недопустимый тип %q", ErrValidation, r.Kind)
	}
	return nil
}

// separatorRun — серии символов-разделителей в именах файлов.
var separatorRun = regexp.MustCompile(`[_+.\-]+`)

// separatorChar — одиночный символ-разделитель (устаревшая схема нормализации).
var separatorChar = regexp.MustCompile(`[_+.\-]`)

// NormalizeName приводит имя файла к отображаемому виду:
// серии символов `_ + . -` заменяются одним пробелом.
func NormalizeName(name string) string {
	return strings.TrimSpace(separatorRun.ReplaceAllString(strings.TrimSpace(name), " "))
}

// NameVariants возвращает варианты имени для удаления по (name, size, mime):
// текущая нормализация, устаревшая посимвольная нормализация, исходное имя.
// Порядок важен — первый вариант с совпадениями выигрывает. Дубли отброшены.
func NameVariants(name string) []string {
	candidates := []string{
		NormalizeName(name),
		separatorChar.ReplaceAllString(name, " "),
		name,
	}

	variants := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		variants = append(variants, c)
	}
	return variants
}

// optional возвращает nil для пустой строки.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
