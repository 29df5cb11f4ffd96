package ledger

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapPgErrorConflictCodes(t *testing.T) {
	// Lock contention (NOWAIT), serialization abort, deadlock.
	for _, code := range []string{"55P03", "40001", "40P01"} {
		err := mapPgError(&pgconn.PgError{Code: code})
		require.ErrorIs(t, err, ErrConcurrencyConflict, code)
	}

	err := mapPgError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, err, ErrStorage)
	require.NotErrorIs(t, err, ErrConcurrencyConflict)
}

func TestBuildWhereCategoryFilter(t *testing.T) {
	where, args := buildWhere(Filter{CategoryID: 7})
	require.Equal(t, "WHERE p.category_id = $1", where)
	require.Equal(t, []any{int64(7)}, args)

	where, args = buildWhere(Filter{ProductID: 3, CategoryID: 7, Type: MovementIn})
	require.Equal(t, "WHERE m.product_id = $1 AND p.category_id = $2 AND m.movement_type = $3", where)
	require.Len(t, args, 3)
}
