package repository

import (
	"context"
	"errors"
	"fmt"

	"review-api/internal/data/entity"
	"review-api/pkg/apperror"
	"review-api/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TitleRepository interface {
	Create(ctx context.Context, title *entity.Title) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error)
	FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error)
	CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error)
	Update(ctx context.Context, title *entity.Title) error
	Delete(ctx context.Context, id uuid.UUID) error

	// LockForUpdate loads the title and holds a row lock until the
	// surrounding transaction ends.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Title, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating *float64) error
}

type titleRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTitleRepository(db database.Querier, log *zap.Logger) TitleRepository {
	return &titleRepository{
		db:  db,
		log: log.With(zap.String("repository", "title")),
	}
}

var titleColumns = []string{
	"t.id", "t.name", "t.year", "t.description", "t.category_id",
	"t.rating", "t.created_at", "t.updated_at",
}

func scanTitle(row pgx.Row) (*entity.Title, error) {
	var title entity.Title
	err := row.Scan(
		&title.ID,
		&title.Name,
		&title.Year,
		&title.Description,
		&title.CategoryID,
		&title.Rating,
		&title.CreatedAt,
		&title.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &title, nil
}

func applyTitleFilter(b sq.SelectBuilder, filter entity.TitleFilter) sq.SelectBuilder {
	if filter.CategorySlug != nil {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM categories c WHERE c.id = t.category_id AND c.slug = ?)",
			*filter.CategorySlug,
		))
	}
	if filter.GenreSlug != nil {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM title_genres tg JOIN genres g ON g.id = tg.genre_id WHERE tg.title_id = t.id AND g.slug = ?)",
			*filter.GenreSlug,
		))
	}
	if filter.Name != nil {
		b = b.Where(sq.ILike{"t.name": containsPattern(*filter.Name)})
	}
	if filter.Year != nil {
		b = b.Where(sq.Eq{"t.year": *filter.Year})
	}
	return b
}

func titleListQuery(filter entity.TitleFilter, limit, offset int) sq.SelectBuilder {
	return applyTitleFilter(psql.Select(titleColumns...).From("titles t"), filter).
		OrderBy("t.year DESC", "t.name").
		Limit(uint64(limit)).
		Offset(uint64(offset))
}

func titleCountQuery(filter entity.TitleFilter) sq.SelectBuilder {
	return applyTitleFilter(psql.Select("COUNT(*)").From("titles t"), filter)
}

func (r *titleRepository) Create(ctx context.Context, title *entity.Title) error {
	query := `
		INSERT INTO titles (id, name, year, description, category_id, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		title.ID,
		title.Name,
		title.Year,
		title.Description,
		title.CategoryID,
		title.Rating,
		title.CreatedAt,
		title.UpdatedAt,
	)

	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperror.Field("category", "Category does not exist")
		}
		r.log.Error("Failed to create title",
			zap.Error(err),
			zap.String("name", title.Name),
		)
		return fmt.Errorf("create title: %w", err)
	}

	return nil
}

func (r *titleRepository) findByID(ctx context.Context, id uuid.UUID, suffix string) (*entity.Title, error) {
	query, args, err := psql.Select(titleColumns...).
		From("titles t").
		Where(sq.Eq{"t.id": id}).
		Suffix(suffix).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build title query: %w", err)
	}

	title, err := scanTitle(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find title by ID",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return nil, fmt.Errorf("find title by id: %w", err)
	}

	return title, nil
}

func (r *titleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error) {
	return r.findByID(ctx, id, "")
}

func (r *titleRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Title, error) {
	return r.findByID(ctx, id, "FOR UPDATE")
}

func (r *titleRepository) FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error) {
	query, args, err := titleListQuery(filter, limit, offset).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build titles query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find titles",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find titles: %w", err)
	}
	defer rows.Close()

	var titles []*entity.Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			r.log.Error("Failed to scan title row", zap.Error(err))
			return nil, fmt.Errorf("scan title row: %w", err)
		}
		titles = append(titles, title)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles rows: %w", err)
	}

	return titles, nil
}

func (r *titleRepository) CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error) {
	query, args, err := titleCountQuery(filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build titles count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count titles", zap.Error(err))
		return 0, fmt.Errorf("count titles: %w", err)
	}

	return total, nil
}

// Update writes the descriptive fields. The rating is owned by UpdateRating.
func (r *titleRepository) Update(ctx context.Context, title *entity.Title) error {
	query := `
		UPDATE titles
		SET name = $2, year = $3, description = $4, category_id = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		title.ID,
		title.Name,
		title.Year,
		title.Description,
		title.CategoryID,
		title.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperror.Field("category", "Category does not exist")
		}
		r.log.Error("Failed to update title",
			zap.Error(err),
			zap.String("title_id", title.ID.String()),
		)
		return fmt.Errorf("update title %s: %w", title.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NotFound("title %s not found", title.ID.String())
	}

	return nil
}

// Delete removes the title; reviews, comments and genre links cascade.
func (r *titleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete title",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return fmt.Errorf("delete title %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NotFound("title %s not found", id.String())
	}

	r.log.Info("Title deleted", zap.String("title_id", id.String()))
	return nil
}

func (r *titleRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating *float64) error {
	_, err := r.db.Exec(ctx, `UPDATE titles SET rating = $2 WHERE id = $1`, id, rating)
	if err != nil {
		r.log.Error("Failed to update title rating",
			zap.Error(err),
			zap.String("title_id", id.String()),
		)
		return fmt.Errorf("update rating of title %s: %w", id.String(), err)
	}

	return nil
}
