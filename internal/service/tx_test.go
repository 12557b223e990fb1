package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"

	"mailapi/backend/internal/config"
	"mailapi/backend/internal/domain"
	sqlstore "mailapi/backend/internal/storage/sql"
)

// setupMockStore returns a MySQL-dialect store whose statements are checked
// against mock.
func setupMockStore(t *testing.T) (*sqlstore.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := sqlstore.NewStoreWithDialector(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), zap.NewNop())
	require.NoError(t, err)
	return store, mock
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count(*)"}).AddRow(n)
}

func TestDomainService_DeleteStatementOrder(t *testing.T) {
	store, mock := setupMockStore(t)
	svc := NewDomainService(store, zap.NewNop(), nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `domain` WHERE domain = ?")).
		WithArgs("example.com").
		WillReturnRows(countRows(1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `alias` WHERE domain = ?")).
		WithArgs("example.com").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `mailbox` WHERE domain = ?")).
		WithArgs("example.com").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `domain` WHERE domain = ?")).
		WithArgs("example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := svc.Delete(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDomainService_DeleteRollsBackOnFailure(t *testing.T) {
	store, mock := setupMockStore(t)
	svc := NewDomainService(store, zap.NewNop(), nil)

	boom := errors.New("lock wait timeout exceeded")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `domain`")).
		WillReturnRows(countRows(1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `alias`")).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `mailbox`")).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := svc.Delete(context.Background(), "example.com")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMailboxService_CreateRollsBackSelfAlias(t *testing.T) {
	tests := []struct {
		name      string
		insertErr error
		want      error
	}{
		{"driver failure", errors.New("disk full"), nil},
		{"duplicate key", &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, domain.ErrMailboxExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := setupMockStore(t)
			cfg := config.Defaults()
			svc := NewMailboxService(store, cfg.Mailbox, cfg.Maildir, zap.NewNop(), nil)

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `domain`")).
				WithArgs("example.com").
				WillReturnRows(countRows(1))
			mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `mailbox`")).
				WithArgs("john@example.com").
				WillReturnRows(countRows(0))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `alias`")).
				WithArgs("john@example.com", "john@example.com", "example.com").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `mailbox`")).
				WillReturnError(tt.insertErr)
			mock.ExpectRollback()

			m, err := svc.Create(context.Background(), CreateMailboxInput{
				Address:  "john@example.com",
				Password: "secret",
			})
			require.Error(t, err)
			assert.Nil(t, m)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.ErrorIs(t, err, tt.insertErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
