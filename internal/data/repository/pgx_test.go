package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"review-api/internal/data/entity"
	"review-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRatingStats(t *testing.T) {
	statsQuery := regexp.QuoteMeta(`SELECT AVG(score)::float8, COUNT(*) FROM reviews WHERE title_id = $1`)
	avg := 7.5

	tests := []struct {
		name    string
		average *float64
		count   int64
	}{
		{"no reviews", nil, 0},
		{"with reviews", &avg, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewReviewRepository(mock, zap.NewNop())
			titleID := uuid.New()

			mock.ExpectQuery(statsQuery).
				WithArgs(titleID).
				WillReturnRows(pgxmock.NewRows([]string{"avg", "count"}).AddRow(tt.average, tt.count))

			stats, err := repo.GetTitleRatingStats(context.Background(), titleID)
			require.NoError(t, err)
			assert.Equal(t, tt.count, stats.Count)
			if tt.average == nil {
				assert.Nil(t, stats.Average)
			} else {
				require.NotNil(t, stats.Average)
				assert.InDelta(t, *tt.average, *stats.Average, 1e-9)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReviewCreateErrors(t *testing.T) {
	insert := regexp.QuoteMeta(`INSERT INTO reviews`)
	args := make([]any, 7)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}

	newReview := func() *entity.Review {
		return &entity.Review{
			Base:     entity.NewBase(time.Now()),
			TitleID:  uuid.New(),
			AuthorID: uuid.New(),
			Text:     "great",
			Score:    9,
		}
	}

	t.Run("unique violation is a conflict", func(t *testing.T) {
		mock := newMock(t)
		repo := NewReviewRepository(mock, zap.NewNop())

		mock.ExpectExec(insert).WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "reviews_title_id_author_id_key"})

		err := repo.Create(context.Background(), newReview())
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

		var appErr *apperror.Error
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "title")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other failures are wrapped", func(t *testing.T) {
		mock := newMock(t)
		repo := NewReviewRepository(mock, zap.NewNop())
		boom := errors.New("connection reset")

		mock.ExpectExec(insert).WithArgs(args...).WillReturnError(boom)

		err := repo.Create(context.Background(), newReview())
		require.ErrorIs(t, err, boom)
		assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLockForUpdate(t *testing.T) {
	lockQuery := `FROM titles t WHERE t\.id = \$1 FOR UPDATE`

	t.Run("locks the row", func(t *testing.T) {
		mock := newMock(t)
		repo := NewTitleRepository(mock, zap.NewNop())
		id := uuid.New()
		now := time.Now()
		rating := 8.0

		mock.ExpectQuery(lockQuery).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "name", "year", "description", "category_id", "rating", "created_at", "updated_at",
			}).AddRow(id, "Solaris", 1972, (*string)(nil), (*uuid.UUID)(nil), &rating, now, now))

		title, err := repo.LockForUpdate(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, title)
		assert.Equal(t, "Solaris", title.Name)
		require.NotNil(t, title.Rating)
		assert.InDelta(t, 8.0, *title.Rating, 1e-9)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing title", func(t *testing.T) {
		mock := newMock(t)
		repo := NewTitleRepository(mock, zap.NewNop())
		id := uuid.New()

		mock.ExpectQuery(lockQuery).WithArgs(id).WillReturnError(pgx.ErrNoRows)

		title, err := repo.LockForUpdate(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInTxRollsBackOnError(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	titleID := uuid.New()
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE titles SET rating = $2 WHERE id = $1`)).
		WithArgs(titleID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx *Repository) error {
		if err := tx.Title.UpdateRating(context.Background(), titleID, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxCommits(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock, zap.NewNop())
	titleID := uuid.New()
	rating := 6.0

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE titles SET rating = $2 WHERE id = $1`)).
		WithArgs(titleID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx *Repository) error {
		return tx.Title.UpdateRating(context.Background(), titleID, &rating)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
