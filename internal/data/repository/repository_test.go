package repository

import (
	"testing"

	"review-api/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%dune%", containsPattern("dune"))
	assert.Equal(t, `%100\% \_real\\%`, containsPattern(`100% _real\`))
}

func TestTitleListQuery(t *testing.T) {
	category := "films"
	genre := "drama"
	name := "god"
	year := 1972

	sql, args, err := titleListQuery(entity.TitleFilter{
		CategorySlug: &category,
		GenreSlug:    &genre,
		Name:         &name,
		Year:         &year,
	}, 10, 20).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM titles t")
	assert.Contains(t, sql, "c.slug = $1")
	assert.Contains(t, sql, "g.slug = $2")
	assert.Contains(t, sql, "t.name ILIKE $3")
	assert.Contains(t, sql, "t.year = $4")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 20")
	assert.Equal(t, []interface{}{"films", "drama", "%god%", 1972}, args)
}

func TestTitleCountQueryWithoutFilter(t *testing.T) {
	sql, args, err := titleCountQuery(entity.TitleFilter{}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM titles t", sql)
	assert.Empty(t, args)
}
