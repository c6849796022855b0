// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/search"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrDuplicateKey — запись с таким id уже есть в каталоге.
	ErrDuplicateKey = errors.New("запись с таким id уже существует")
)

// Коды SQLSTATE PostgreSQL.
const (
	pgUniqueViolation       = "23505"
	pgCheckViolation        = "23514"
	pgNotNullViolation      = "23502"
	pgInvalidRegularExpress = "2201B"
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgErrorCode возвращает SQLSTATE ошибки PostgreSQL или пустую строку.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

// mapPgError переводит ошибки PostgreSQL в ошибки доменного уровня.
// Остальные ошибки оборачиваются с сообщением op.
func mapPgError(err error, op string) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return ErrDuplicateKey
	case pgCheckViolation, pgNotNullViolation:
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	case pgInvalidRegularExpress:
		return fmt.Errorf("%w: %v", search.ErrPatternCompile, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
