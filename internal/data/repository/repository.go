package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"review-api/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// psql builds statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repository struct {
	User         UserRepository
	Confirmation ConfirmationCodeRepository
	Category     CategoryRepository
	Genre        GenreRepository
	Title        TitleRepository
	TitleGenre   TitleGenreRepository
	Review       ReviewRepository
	Comment      CommentRepository

	// Tx runs a unit of work against repositories sharing one transaction.
	Tx Transactor
}

// Transactor commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(repo *Repository) error) error
}

func (r *Repository) InTx(ctx context.Context, fn func(repo *Repository) error) error {
	return r.Tx.InTx(ctx, fn)
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return newRepository(db, log, &pgTransactor{db: db, log: log.With(zap.String("repository", "tx"))})
}

func newRepository(q database.Querier, log *zap.Logger, tx Transactor) *Repository {
	return &Repository{
		User:         NewUserRepository(q, log),
		Confirmation: NewConfirmationCodeRepository(q, log),
		Category:     NewCategoryRepository(q, log),
		Genre:        NewGenreRepository(q, log),
		Title:        NewTitleRepository(q, log),
		TitleGenre:   NewTitleGenreRepository(q, log),
		Review:       NewReviewRepository(q, log),
		Comment:      NewCommentRepository(q, log),
		Tx:           tx,
	}
}

// Migrate applies the bootstrap schema. Every statement is idempotent.
func Migrate(ctx context.Context, db database.Querier) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type pgTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgTransactor) InTx(ctx context.Context, fn func(repo *Repository) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			t.log.Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	repo := newRepository(tx, t.log, nil)
	repo.Tx = joinedTx{repo: repo}

	if err := fn(repo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// joinedTx runs nested units of work in the enclosing transaction.
type joinedTx struct {
	repo *Repository
}

func (j joinedTx) InTx(ctx context.Context, fn func(repo *Repository) error) error {
	return fn(j.repo)
}

// containsPattern escapes LIKE wildcards in s and wraps it in %.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
