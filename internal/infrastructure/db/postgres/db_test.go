package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubOpenPool(t *testing.T) *int {
	t.Helper()
	calls := 0
	orig := openPool
	openPool = func(context.Context, string) (Pool, error) {
		calls++
		return pgxmock.NewPool()
	}
	t.Cleanup(func() { openPool = orig })
	return &calls
}

func TestOpen_SharesPoolPerDSN(t *testing.T) {
	calls := stubOpenPool(t)
	ctx := context.Background()

	a, err := Open(ctx, "postgres://shared/a")
	require.NoError(t, err)
	b, err := Open(ctx, "postgres://shared/a")
	require.NoError(t, err)
	c, err := Open(ctx, "postgres://shared/c")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, *calls)

	a.Close()
	c.Close()
}

func TestOpen_ReconnectsAfterClose(t *testing.T) {
	calls := stubOpenPool(t)
	ctx := context.Background()

	a, err := Open(ctx, "postgres://reopen")
	require.NoError(t, err)
	a.Close()

	b, err := Open(ctx, "postgres://reopen")
	require.NoError(t, err)
	defer b.Close()

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, *calls)
}

func TestOpen_FailureIsNotCached(t *testing.T) {
	orig := openPool
	t.Cleanup(func() { openPool = orig })
	openPool = func(context.Context, string) (Pool, error) {
		return nil, errors.New("refused")
	}

	_, err := Open(context.Background(), "postgres://down")
	require.Error(t, err)

	registry.mu.Lock()
	_, cached := registry.dbs[registryKey("postgres://down")]
	registry.mu.Unlock()
	assert.False(t, cached)
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	for range migrations {
		mock.ExpectExec(`CREATE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	db := &DB{Pool: mock}
	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
