// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/fileid"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
	"github.com/bigkaa/goartstore/catalog-module/internal/search"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrStoreUnavailable — хранилище недоступно или запрос прерван.
	ErrStoreUnavailable = errors.New("хранилище недоступно")
	// ErrInvalidRequest — запрос не содержит достаточных данных.
	ErrInvalidRequest = errors.New("некорректный запрос")
	// ErrBatchTooLarge — пакет индексации превышает допустимый размер.
	ErrBatchTooLarge = errors.New("пакет индексации слишком большой")
)

// storeError приводит ошибку хранилища к ошибке сервисного слоя.
// Доменные ошибки пропускаются как есть, остальные считаются недоступностью хранилища.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateKey),
		errors.Is(err, model.ErrValidation),
		errors.Is(err, search.ErrPatternCompile),
		errors.Is(err, fileid.ErrDecode):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
