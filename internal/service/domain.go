package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mailapi/backend/internal/domain"
	"mailapi/backend/internal/monitoring"
	"mailapi/backend/internal/storage"
)

// DomainService 封装邮件域名的管理及级联删除逻辑。
type DomainService struct {
	base
}

// NewDomainService 创建域名业务服务。
func NewDomainService(store storage.Store, log *zap.Logger, metrics *monitoring.Metrics) *DomainService {
	return &DomainService{base: newBase(store, log, metrics)}
}

// Create 注册一个新的邮件域名。
func (s *DomainService) Create(ctx context.Context, name, description string) (d *domain.Domain, err error) {
	defer func() { s.observe("domain.create", err, zap.String("domain", name)) }()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if !domain.IsDomain(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidDomain, name)
	}

	exists, err := s.store.DomainExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check domain %s: %w", name, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDomainExists, name)
	}

	d = &domain.Domain{Name: name, Description: description}
	if err := s.store.CreateDomain(ctx, d); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDomainExists, name)
		}
		return nil, fmt.Errorf("failed to create domain %s: %w", name, err)
	}

	s.metrics.RecordDomainCreated()
	s.log.Info("domain created", zap.String("domain", name))
	return d, nil
}

// Get 获取域名，不存在时返回 nil。
func (s *DomainService) Get(ctx context.Context, name string) (*domain.Domain, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	d, err := s.store.GetDomain(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get domain %s: %w", name, err)
	}
	return d, nil
}

// Exists 判断域名是否已注册。
func (s *DomainService) Exists(ctx context.Context, name string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.store.DomainExists(ctx, name)
}

// List 列出所有域名。
func (s *DomainService) List(ctx context.Context) ([]domain.Domain, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListDomains(ctx)
}

// Delete 在同一事务中依次删除域名下的别名、邮箱和域名本身。
// 返回域名记录是否被删除。
func (s *DomainService) Delete(ctx context.Context, name string) (deleted bool, err error) {
	defer func() { s.observe("domain.delete", err, zap.String("domain", name)) }()

	if err := s.ready(); err != nil {
		return false, err
	}

	var aliases, mailboxes int64
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := requireDomain(ctx, tx, name); err != nil {
			return err
		}

		var err error
		if aliases, err = tx.DeleteAliasesByDomain(ctx, name); err != nil {
			return fmt.Errorf("failed to delete aliases of %s: %w", name, err)
		}
		if mailboxes, err = tx.DeleteMailboxesByDomain(ctx, name); err != nil {
			return fmt.Errorf("failed to delete mailboxes of %s: %w", name, err)
		}
		n, err := tx.DeleteDomain(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to delete domain %s: %w", name, err)
		}
		deleted = n == 1
		return nil
	})
	if err != nil {
		return false, err
	}

	s.metrics.RecordAliasesDeleted(aliases)
	s.metrics.RecordMailboxesDeleted(mailboxes)
	if deleted {
		s.metrics.RecordDomainDeleted()
	}
	s.log.Info("domain deleted",
		zap.String("domain", name),
		zap.Int64("aliases", aliases),
		zap.Int64("mailboxes", mailboxes),
	)
	return deleted, nil
}

// DeleteAliases 删除域名下的所有别名（包括自身别名），至少删除一条时返回 true。
func (s *DomainService) DeleteAliases(ctx context.Context, name string) (deleted bool, err error) {
	defer func() { s.observe("domain.delete_aliases", err, zap.String("domain", name)) }()

	if err := s.ready(); err != nil {
		return false, err
	}
	if err := requireDomain(ctx, s.store, name); err != nil {
		return false, err
	}

	n, err := s.store.DeleteAliasesByDomain(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete aliases of %s: %w", name, err)
	}
	s.metrics.RecordAliasesDeleted(n)
	s.log.Info("domain aliases deleted", zap.String("domain", name), zap.Int64("count", n))
	return n >= 1, nil
}

// DeleteMailboxes 删除域名下的所有邮箱记录，别名保持不变。
// 至少删除一条时返回 true。
func (s *DomainService) DeleteMailboxes(ctx context.Context, name string) (deleted bool, err error) {
	defer func() { s.observe("domain.delete_mailboxes", err, zap.String("domain", name)) }()

	if err := s.ready(); err != nil {
		return false, err
	}
	if err := requireDomain(ctx, s.store, name); err != nil {
		return false, err
	}

	n, err := s.store.DeleteMailboxesByDomain(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete mailboxes of %s: %w", name, err)
	}
	s.metrics.RecordMailboxesDeleted(n)
	s.log.Info("domain mailboxes deleted", zap.String("domain", name), zap.Int64("count", n))
	return n >= 1, nil
}

// ListMailboxes 列出已注册域名下的邮箱。
func (s *DomainService) ListMailboxes(ctx context.Context, name string) ([]domain.Mailbox, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := requireDomain(ctx, s.store, name); err != nil {
		return nil, err
	}
	return s.store.ListMailboxesByDomain(ctx, name)
}

// requireDomain 域名未注册时返回 domain.ErrNoSuchDomain。
func requireDomain(ctx context.Context, store storage.DomainRepository, name string) error {
	exists, err := store.DomainExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check domain %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrNoSuchDomain, name)
	}
	return nil
}

// requireMailbox 邮箱不存在时返回 domain.ErrNoSuchMailbox。
func requireMailbox(ctx context.Context, store storage.MailboxRepository, address string) error {
	exists, err := store.MailboxExists(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to check mailbox %s: %w", address, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrNoSuchMailbox, address)
	}
	return nil
}
