package storage

import (
	"context"
	"errors"
	"time"

	"mailapi/backend/internal/domain"
)

var (
	// ErrNotFound is returned by single-row lookups when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate key")
)

// DomainRepository covers the `domain` table.
type DomainRepository interface {
	CreateDomain(ctx context.Context, d *domain.Domain) error
	GetDomain(ctx context.Context, name string) (*domain.Domain, error)
	DomainExists(ctx context.Context, name string) (bool, error)
	ListDomains(ctx context.Context) ([]domain.Domain, error)
	DeleteDomain(ctx context.Context, name string) (int64, error)
}

// MailboxRepository covers the `mailbox` table.
type MailboxRepository interface {
	CreateMailbox(ctx context.Context, m *domain.Mailbox) error
	GetMailbox(ctx context.Context, address string) (*domain.Mailbox, error)
	MailboxExists(ctx context.Context, address string) (bool, error)
	ListMailboxes(ctx context.Context) ([]domain.Mailbox, error)
	ListMailboxesByDomain(ctx context.Context, domainName string) ([]domain.Mailbox, error)
	// SearchMailboxesByName and SearchMailboxesByAddress match query as a literal substring.
	SearchMailboxesByName(ctx context.Context, query string) ([]domain.Mailbox, error)
	SearchMailboxesByAddress(ctx context.Context, query string) ([]domain.Mailbox, error)
	UpdateMailboxPassword(ctx context.Context, address, hash string, changedAt time.Time) (int64, error)
	DeleteMailbox(ctx context.Context, address string) (int64, error)
	DeleteMailboxesByDomain(ctx context.Context, domainName string) (int64, error)
}

// AliasRepository covers the `alias` table.
type AliasRepository interface {
	CreateAlias(ctx context.Context, a *domain.Alias) error
	AliasExists(ctx context.Context, source, dest string) (bool, error)
	ListAliasesByDest(ctx context.Context, dest string) ([]domain.Alias, error)
	// DeleteForwardingAliases removes every alias pointing at dest except dest's own self alias.
	DeleteForwardingAliases(ctx context.Context, dest string) (int64, error)
	DeleteAlias(ctx context.Context, source, dest string) (int64, error)
	DeleteAliasesByDomain(ctx context.Context, domainName string) (int64, error)
}

// QuotaRepository covers the `used_quota` table.
type QuotaRepository interface {
	SumUsedQuotaByDomain(ctx context.Context, domainName string) (domain.QuotaTotals, error)
	GetUsedQuota(ctx context.Context, address string) (*domain.UsedQuota, error)
	ListUsedQuotaByDomain(ctx context.Context, domainName string) ([]domain.UsedQuota, error)
	DeleteUsedQuota(ctx context.Context, address string) (int64, error)
	ResetUsedQuota(ctx context.Context, address string) (int64, error)
}

// Store is the persistence gateway used by the services.
type Store interface {
	DomainRepository
	MailboxRepository
	AliasRepository
	QuotaRepository

	// WithTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Health() error
	Close() error
}
