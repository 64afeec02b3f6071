// Package dbtest opens throwaway databases for repository and handler tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"waterdist/internal/adapters/out/postgres"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// OpenSQLite returns a migrated in-memory sqlite database private to the test.
// The pool is pinned to one connection, so concurrent units of work queue on
// Begin the way row locks would serialise them on postgres.
func OpenSQLite(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:waterdist_test_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := postgres.Open("sqlite", dsn, postgres.PoolConfig{MaxOpenConns: 1}, "silent")
	require.NoError(tb, err)
	require.NoError(tb, postgres.Migrate(db))

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}
