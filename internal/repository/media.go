package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/search"
)

// mediaColumns — список столбцов таблицы media_files для SELECT-запросов.
const mediaColumns = `id, reference, display_name, size, kind, mime_type, caption, seq, created_at`

// MediaFilter — условие выборки для поиска.
type MediaFilter struct {
	// Pattern — шаблон по имени (nil — совпадение со всем)
	Pattern *search.Pattern
	// Kind — точный фильтр по типу (nil — любой тип)
	Kind *model.Kind
	// IncludeCaption — шаблон проверяется также по подписи
	IncludeCaption bool
}

// Matches сообщает, удовлетворяет ли запись фильтру.
// Используется in-memory хранилищем; PostgreSQL проверяет то же условие через ~*.
func (f MediaFilter) Matches(r *model.MediaRecord) bool {
	if f.Kind != nil && r.Kind != *f.Kind {
		return false
	}
	if f.Pattern == nil {
		return true
	}
	if f.Pattern.MatchString(r.DisplayName) {
		return true
	}
	return f.IncludeCaption && r.Caption != nil && f.Pattern.MatchString(*r.Caption)
}

// MediaRepository — хранилище записей каталога.
// Записи только добавляются: повторная вставка с тем же id отклоняется.
type MediaRepository interface {
	// Insert добавляет запись. ErrDuplicateKey — id уже есть, model.ErrValidation — нарушение схемы.
	Insert(ctx context.Context, r *model.MediaRecord) error
	// GetByID возвращает запись по id или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.MediaRecord, error)
	// DeleteByID удаляет запись по id, возвращает число удалённых (0 или 1).
	DeleteByID(ctx context.Context, id string) (int, error)
	// DeleteByNameSizeMime удаляет записи по (имя, размер, mime).
	// Варианты имени проверяются по порядку, первый вариант с удалениями выигрывает.
	DeleteByNameSizeMime(ctx context.Context, names []string, size int64, mime *string) (int, error)
	// DropAll удаляет все записи каталога.
	DropAll(ctx context.Context) error
	// Count возвращает общее число записей.
	Count(ctx context.Context) (int, error)
	// CountMatching возвращает число записей, удовлетворяющих фильтру.
	CountMatching(ctx context.Context, f MediaFilter) (int, error)
	// Find возвращает записи по фильтру, новые первыми. limit 0 — без ограничения.
	Find(ctx context.Context, f MediaFilter, limit, offset int) ([]*model.MediaRecord, error)
}

// mediaRepo — реализация MediaRepository через pgx.
type mediaRepo struct {
	db DBTX
}

// NewMediaRepository создаёт репозиторий каталога.
func NewMediaRepository(db DBTX) MediaRepository {
	return &mediaRepo{db: db}
}

func (r *mediaRepo) Insert(ctx context.Context, rec *model.MediaRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO media_files (id, reference, display_name, size, kind, mime_type, caption, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`

	err := r.db.QueryRow(ctx, query,
		rec.ID, rec.Reference, rec.DisplayName, rec.Size, string(rec.Kind),
		rec.MimeType, rec.Caption, rec.CreatedAt,
	).Scan(&rec.Seq)
	if err != nil {
		return mapPgError(err, "ошибка вставки записи")
	}
	return nil
}

func (r *mediaRepo) GetByID(ctx context.Context, id string) (*model.MediaRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM media_files WHERE id = $1`, mediaColumns)

	rec, err := scanMedia(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return rec, nil
}

func (r *mediaRepo) DeleteByID(ctx context.Context, id string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_files WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления записи: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *mediaRepo) DeleteByNameSizeMime(ctx context.Context, names []string, size int64, mime *string) (int, error) {
	query := `
		DELETE FROM media_files
		WHERE display_name = $1 AND size = $2 AND mime_type IS NOT DISTINCT FROM $3`

	for _, name := range names {
		tag, err := r.db.Exec(ctx, query, name, size, mime)
		if err != nil {
			return 0, fmt.Errorf("ошибка удаления по имени: %w", err)
		}
		if n := int(tag.RowsAffected()); n > 0 {
			return n, nil
		}
	}
	return 0, nil
}

func (r *mediaRepo) DropAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `TRUNCATE TABLE media_files`); err != nil {
		return fmt.Errorf("ошибка очистки каталога: %w", err)
	}
	return nil
}

func (r *mediaRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM media_files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта записей: %w", err)
	}
	return n, nil
}

func (r *mediaRepo) CountMatching(ctx context.Context, f MediaFilter) (int, error) {
	where, args := buildMediaWhere(f, 1)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM media_files %s`, where)

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapPgError(err, "ошибка подсчёта совпадений")
	}
	return n, nil
}

func (r *mediaRepo) Find(ctx context.Context, f MediaFilter, limit, offset int) ([]*model.MediaRecord, error) {
	where, args := buildMediaWhere(f, 1)
	argNum := len(args) + 1

	query := fmt.Sprintf(`SELECT %s FROM media_files %s ORDER BY seq DESC`, mediaColumns, where)
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argNum)
		args = append(args, limit)
		argNum++
	}
	if offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argNum)
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "ошибка поиска записей")
	}
	defer rows.Close()

	var result []*model.MediaRecord
	for rows.Next() {
		rec, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "ошибка итерации результатов")
	}
	return result, nil
}

// buildMediaWhere строит WHERE-условие и аргументы для выборки записей.
// startArg — номер первого $-параметра.
func buildMediaWhere(f MediaFilter, startArg int) (whereClause string, args []any) {
	var conditions []string
	argNum := startArg

	if f.Pattern != nil {
		if f.IncludeCaption {
			conditions = append(conditions,
				fmt.Sprintf("(display_name ~* $%d OR caption ~* $%d)", argNum, argNum))
		} else {
			conditions = append(conditions, fmt.Sprintf("display_name ~* $%d", argNum))
		}
		args = append(args, f.Pattern.Postgres())
		argNum++
	}

	if f.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argNum))
		args = append(args, string(*f.Kind))
	}

	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	return whereClause, args
}

// scanMedia читает запись из строки результата.
func scanMedia(row pgx.Row) (*model.MediaRecord, error) {
	rec := &model.MediaRecord{}
	var kind string
	if err := row.Scan(
		&rec.ID, &rec.Reference, &rec.DisplayName, &rec.Size, &kind,
		&rec.MimeType, &rec.Caption, &rec.Seq, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Kind = model.Kind(kind)
	return rec, nil
}
