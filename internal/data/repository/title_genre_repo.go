package repository

import (
	"context"
	"fmt"

	"review-api/internal/data/entity"
	"review-api/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TitleGenreRepository interface {
	CreateBatch(ctx context.Context, links []*entity.TitleGenre) error
	DeleteByTitleID(ctx context.Context, titleID uuid.UUID) error
}

type titleGenreRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTitleGenreRepository(db database.Querier, log *zap.Logger) TitleGenreRepository {
	return &titleGenreRepository{
		db:  db,
		log: log.With(zap.String("repository", "title_genre")),
	}
}

// CreateBatch inserts all links in one statement. Duplicate pairs are ignored.
func (r *titleGenreRepository) CreateBatch(ctx context.Context, links []*entity.TitleGenre) error {
	if len(links) == 0 {
		return nil
	}

	b := psql.Insert("title_genres").Columns("id", "title_id", "genre_id", "created_at")
	for _, link := range links {
		b = b.Values(link.ID, link.TitleID, link.GenreID, link.CreatedAt)
	}

	query, args, err := b.Suffix("ON CONFLICT ON CONSTRAINT title_genres_title_genre_key DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build title genres insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		r.log.Error("Failed to create title genres",
			zap.Error(err),
			zap.String("title_id", links[0].TitleID.String()),
			zap.Int("count", len(links)),
		)
		return fmt.Errorf("create title genres: %w", err)
	}

	return nil
}

func (r *titleGenreRepository) DeleteByTitleID(ctx context.Context, titleID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM title_genres WHERE title_id = $1`, titleID)
	if err != nil {
		r.log.Error("Failed to delete title genres",
			zap.Error(err),
			zap.String("title_id", titleID.String()),
		)
		return fmt.Errorf("delete title genres of %s: %w", titleID.String(), err)
	}

	return nil
}
