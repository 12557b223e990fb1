package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailapi/backend/internal/config"
	"mailapi/backend/internal/domain"
	sqlstore "mailapi/backend/internal/storage/sql"
)

func TestDomainService_Create(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	d, err := env.domains.Create(ctx, "example.com", "primary")
	require.NoError(t, err)
	assert.Equal(t, "example.com", d.Name)
	assert.Equal(t, "primary", d.Description)

	_, err = env.domains.Create(ctx, "example.com", "")
	assert.ErrorIs(t, err, domain.ErrDomainExists)

	for _, name := range []string{"", "localhost", "exa mple.com", "example+x.com", "example.c0m"} {
		_, err := env.domains.Create(ctx, name, "")
		assert.ErrorIs(t, err, domain.ErrInvalidDomain, name)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.DomainsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.OperationsTotal.WithLabelValues("domain.create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.OperationsTotal.WithLabelValues("domain.create", "domain_exists")))
	assert.Equal(t, 5.0, testutil.ToFloat64(env.metrics.OperationsTotal.WithLabelValues("domain.create", "invalid_domain")))
}

func TestDomainService_Lookups(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	d, err := env.domains.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Nil(t, d)

	ok, err := env.domains.Exists(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	env.mustDomain(t, "example.com")
	env.mustDomain(t, "another.org")

	d, err = env.domains.Get(ctx, "example.com")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "example.com", d.Name)

	ok, err = env.domains.Exists(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	domains, err := env.domains.List(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "another.org", domains[0].Name)
}

func TestDomainService_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.domains.Delete(ctx, "never.example")
	assert.ErrorIs(t, err, domain.ErrNoSuchDomain)

	env.mustDomain(t, "example.com")
	env.mustDomain(t, "other.org")
	env.mustMailbox(t, "john@example.com", "John", "secret")
	env.mustMailbox(t, "jane@example.com", "Jane", "secret")
	env.mustMailbox(t, "bob@other.org", "Bob", "secret")
	_, err = env.aliases.Add(ctx, "sales@example.com", "john@example.com")
	require.NoError(t, err)

	deleted, err := env.domains.Delete(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, deleted)

	ok, err := env.domains.Exists(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, address := range []string{"john@example.com", "jane@example.com"} {
		m, err := env.mailboxes.Get(ctx, address)
		require.NoError(t, err)
		assert.Nil(t, m, address)

		aliases, err := env.aliases.ListByDest(ctx, address)
		require.NoError(t, err)
		assert.Empty(t, aliases, address)
	}

	// other domains are untouched
	m, err := env.mailboxes.Get(ctx, "bob@other.org")
	require.NoError(t, err)
	assert.NotNil(t, m)
	aliases, err := env.aliases.ListByDest(ctx, "bob@other.org")
	require.NoError(t, err)
	assert.Len(t, aliases, 1)

	_, err = env.domains.Delete(ctx, "example.com")
	assert.ErrorIs(t, err, domain.ErrNoSuchDomain)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.DomainsDeleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.MailboxesDeleted))
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.AliasesDeleted))
}

func TestDomainService_DeleteAliasesAndMailboxes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.domains.DeleteAliases(ctx, "missing.example")
	assert.ErrorIs(t, err, domain.ErrNoSuchDomain)
	_, err = env.domains.DeleteMailboxes(ctx, "missing.example")
	assert.ErrorIs(t, err, domain.ErrNoSuchDomain)

	env.mustDomain(t, "example.com")

	deleted, err := env.domains.DeleteAliases(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = env.domains.DeleteMailboxes(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, deleted)

	env.mustMailbox(t, "john@example.com", "John", "secret")

	deleted, err = env.domains.DeleteAliases(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, deleted)

	aliases, err := env.aliases.ListByDest(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Empty(t, aliases)

	// the mailbox row survives an alias purge
	ok, err := env.mailboxes.Exists(ctx, "john@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	deleted, err = env.domains.DeleteMailboxes(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, deleted)

	ok, err = env.mailboxes.Exists(ctx, "john@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDomainService_ListMailboxes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.domains.ListMailboxes(ctx, "example.com")
	assert.ErrorIs(t, err, domain.ErrNoSuchDomain)

	env.mustDomain(t, "example.com")
	env.mustDomain(t, "other.org")

	mailboxes, err := env.domains.ListMailboxes(ctx, "example.com")
	require.NoError(t, err)
	assert.Empty(t, mailboxes)

	env.mustMailbox(t, "john@example.com", "John", "secret")
	env.mustMailbox(t, "bob@other.org", "Bob", "secret")

	mailboxes, err = env.domains.ListMailboxes(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, mailboxes, 1)
	assert.Equal(t, "john@example.com", mailboxes[0].Address)
}

func TestServices_NotInitialized(t *testing.T) {
	ctx := context.Background()

	t.Run("nil store", func(t *testing.T) {
		domains := NewDomainService(nil, nil, nil)
		_, err := domains.Create(ctx, "example.com", "")
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
		_, err = domains.Get(ctx, "example.com")
		assert.ErrorIs(t, err, domain.ErrNotInitialized)

		mailboxes := NewMailboxService(nil, config.DefaultMailbox(), config.MaildirConfig{}, nil, nil)
		_, err = mailboxes.Create(ctx, CreateMailboxInput{Address: "john@example.com"})
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
		_, err = mailboxes.Search(ctx, "john")
		assert.ErrorIs(t, err, domain.ErrNotInitialized)

		aliases := NewAliasService(nil, nil, nil)
		_, err = aliases.Add(ctx, "a@example.com", "b@example.com")
		assert.ErrorIs(t, err, domain.ErrNotInitialized)

		quotas := NewQuotaService(nil, nil, nil)
		_, err = quotas.SumByDomain(ctx, "example.com")
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
	})

	t.Run("unopened store", func(t *testing.T) {
		var store *sqlstore.Store

		domains := NewDomainService(store, nil, nil)
		_, err := domains.List(ctx)
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
		_, err = domains.Delete(ctx, "example.com")
		assert.ErrorIs(t, err, domain.ErrNotInitialized)

		mailboxes := NewMailboxService(&sqlstore.Store{}, config.DefaultMailbox(), config.MaildirConfig{}, nil, nil)
		_, err = mailboxes.Create(ctx, CreateMailboxInput{Address: "john@example.com", Password: "x"})
		assert.ErrorIs(t, err, domain.ErrNotInitialized)

		quotas := NewQuotaService(store, nil, nil)
		_, err = quotas.Reset(ctx, "john@example.com")
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
	})
}
