package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("create review: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "reviews_title_author_key",
	})

	constraint, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "reviews_title_author_key", constraint)

	_, ok = UniqueViolation(errors.New("boom"))
	assert.False(t, ok)
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}
