package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailapi/backend/internal/config"
	"mailapi/backend/internal/domain"
	"mailapi/backend/internal/monitoring"
	sqlstore "mailapi/backend/internal/storage/sql"
	"mailapi/backend/internal/storage/sql/sqltest"
)

// fakeClock is a settable clock for deterministic timestamps.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	store     *sqlstore.Store
	metrics   *monitoring.Metrics
	clock     *fakeClock
	domains   *DomainService
	mailboxes *MailboxService
	aliases   *AliasService
	quotas    *QuotaService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := sqltest.NewStore(t)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	log := zap.NewNop()
	cfg := config.Defaults()

	clock := &fakeClock{t: time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)}
	mailboxes := NewMailboxService(store, cfg.Mailbox, cfg.Maildir, log, metrics)
	mailboxes.SetClock(clock.Now)

	return &testEnv{
		store:     store,
		metrics:   metrics,
		clock:     clock,
		domains:   NewDomainService(store, log, metrics),
		mailboxes: mailboxes,
		aliases:   NewAliasService(store, log, metrics),
		quotas:    NewQuotaService(store, log, metrics),
	}
}

func (e *testEnv) mustDomain(t *testing.T, name string) {
	t.Helper()
	_, err := e.domains.Create(context.Background(), name, "")
	require.NoError(t, err)
}

func (e *testEnv) mustMailbox(t *testing.T, address, name, password string) *domain.Mailbox {
	t.Helper()
	m, err := e.mailboxes.Create(context.Background(), CreateMailboxInput{
		Address:     address,
		DisplayName: name,
		Password:    password,
	})
	require.NoError(t, err)
	return m
}

func (e *testEnv) mustUsage(t *testing.T, address, domainName string, bytes, messages int64) {
	t.Helper()
	err := e.store.DB().Create(&domain.UsedQuota{
		Address:  address,
		Domain:   domainName,
		Bytes:    bytes,
		Messages: messages,
	}).Error
	require.NoError(t, err)
}
