// Package sqltest opens throwaway sqlite stores for tests.
package sqltest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailapi/backend/internal/config"
	"mailapi/backend/internal/domain"
	sqlstore "mailapi/backend/internal/storage/sql"
)

var seq atomic.Int64

// NewStore returns a Store on a private in-memory sqlite database holding the
// domain, mailbox, alias and used_quota tables. It is closed when t ends.
func NewStore(t testing.TB) *sqlstore.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:mailapi_test_%d?mode=memory&cache=shared", seq.Add(1))

	store, err := sqlstore.Open(config.DatabaseConfig{Type: "sqlite3", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	CreateSchema(t, store)
	return store
}

// CreateSchema creates the four mail tables on store. Production databases
// already carry the schema; this exists only for tests.
func CreateSchema(t testing.TB, store *sqlstore.Store) {
	t.Helper()
	err := store.DB().AutoMigrate(
		&domain.Domain{},
		&domain.Mailbox{},
		&domain.Alias{},
		&domain.UsedQuota{},
	)
	require.NoError(t, err)
}
