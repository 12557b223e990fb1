package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mailapi/backend/internal/auth"
	"mailapi/backend/internal/config"
	"mailapi/backend/internal/domain"
	"mailapi/backend/internal/maildir"
	"mailapi/backend/internal/monitoring"
	"mailapi/backend/internal/storage"
)

// MailboxService 封装邮箱及其自身别名的管理逻辑。
type MailboxService struct {
	base
	defaults config.MailboxConfig
	layout   config.MaildirConfig
	now      func() time.Time
}

// NewMailboxService 创建邮箱业务服务。
// defaults 用于补全 CreateMailboxInput 的空字段，layout 决定 maildir 格式。
func NewMailboxService(store storage.Store, defaults config.MailboxConfig, layout config.MaildirConfig, log *zap.Logger, metrics *monitoring.Metrics) *MailboxService {
	return &MailboxService{
		base:     newBase(store, log, metrics),
		defaults: defaults,
		layout:   layout,
		now:      time.Now,
	}
}

// SetClock 替换生成时间戳和 maildir 名称所用的时钟。
func (s *MailboxService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateMailboxInput 定义创建邮箱的输入，零值字段使用配置的默认值。
type CreateMailboxInput struct {
	Address        string
	DisplayName    string
	Password       string // plain text
	QuotaMB        int64
	Language       string
	StorageBaseDir string
	StorageNode    string
}

// Create 在已注册域名下创建邮箱。
// 自身别名（address -> address）和邮箱记录在同一事务中写入。
func (s *MailboxService) Create(ctx context.Context, input CreateMailboxInput) (m *domain.Mailbox, err error) {
	defer func() { s.observe("mailbox.create", err, zap.String("address", input.Address)) }()

	if err := s.ready(); err != nil {
		return nil, err
	}

	address := input.Address
	localPart, domainName, err := domain.ParseEmailDomain(address)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.timestamp()
	dir, err := maildir.Path(address, maildir.Options{
		Hashed:          s.layout.Hashed,
		PrependDomain:   s.layout.PrependDomain,
		AppendTimestamp: s.layout.AppendTimestamp,
		Now:             func() time.Time { return now },
	})
	if err != nil {
		return nil, err
	}

	m = &domain.Mailbox{
		Address:             address,
		PasswordHash:        hash,
		DisplayName:         input.DisplayName,
		LocalPart:           localPart,
		Domain:              domainName,
		Maildir:             dir,
		QuotaMB:             orDefault(input.QuotaMB, s.defaults.DefaultQuotaMB),
		Language:            orDefault(input.Language, s.defaults.DefaultLanguage),
		StorageBaseDir:      orDefault(input.StorageBaseDir, s.defaults.StorageBaseDir),
		StorageNode:         orDefault(input.StorageNode, s.defaults.StorageNode),
		Active:              true,
		CreatedAt:           now,
		ModifiedAt:          now,
		PasswordLastChanged: now,
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := requireDomain(ctx, tx, domainName); err != nil {
			return err
		}

		exists, err := tx.MailboxExists(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to check mailbox %s: %w", address, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrMailboxExists, address)
		}

		self := &domain.Alias{Address: address, Goto: address, Domain: domainName}
		if err := tx.CreateAlias(ctx, self); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return fmt.Errorf("%w: %s -> %s", domain.ErrAliasExists, address, address)
			}
			return fmt.Errorf("failed to create self alias for %s: %w", address, err)
		}

		if err := tx.CreateMailbox(ctx, m); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return fmt.Errorf("%w: %s", domain.ErrMailboxExists, address)
			}
			return fmt.Errorf("failed to create mailbox %s: %w", address, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAliasCreated()
	s.metrics.RecordMailboxCreated()
	s.log.Info("mailbox created",
		zap.String("address", address),
		zap.String("maildir", m.Maildir),
	)
	return m, nil
}

// Exists 判断邮箱是否存在。
func (s *MailboxService) Exists(ctx context.Context, address string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.store.MailboxExists(ctx, address)
}

// Get 获取邮箱，不存在时返回 nil。
func (s *MailboxService) Get(ctx context.Context, address string) (*domain.Mailbox, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m, err := s.store.GetMailbox(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mailbox %s: %w", address, err)
	}
	return m, nil
}

// List 列出所有邮箱。
func (s *MailboxService) List(ctx context.Context) ([]domain.Mailbox, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListMailboxes(ctx)
}

// Delete 在同一事务中删除投递到该地址的别名、自身别名和邮箱记录。
// 返回邮箱记录是否被删除。used_quota 中的用量记录不受影响。
func (s *MailboxService) Delete(ctx context.Context, address string) (deleted bool, err error) {
	defer func() { s.observe("mailbox.delete", err, zap.String("address", address)) }()

	if err := s.ready(); err != nil {
		return false, err
	}

	var aliases int64
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := requireMailbox(ctx, tx, address); err != nil {
			return err
		}

		forwarding, err := tx.DeleteForwardingAliases(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to delete aliases to %s: %w", address, err)
		}
		self, err := tx.DeleteAlias(ctx, address, address)
		if err != nil {
			return fmt.Errorf("failed to delete self alias of %s: %w", address, err)
		}
		aliases = forwarding + self

		n, err := tx.DeleteMailbox(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to delete mailbox %s: %w", address, err)
		}
		deleted = n == 1
		return nil
	})
	if err != nil {
		return false, err
	}

	s.metrics.RecordAliasesDeleted(aliases)
	if deleted {
		s.metrics.RecordMailboxesDeleted(1)
	}
	s.log.Info("mailbox deleted", zap.String("address", address), zap.Int64("aliases", aliases))
	return deleted, nil
}

// ResetPassword 重新计算密码哈希并更新修改时间。
func (s *MailboxService) ResetPassword(ctx context.Context, address, plain string) (ok bool, err error) {
	defer func() { s.observe("mailbox.reset_password", err, zap.String("address", address)) }()

	if err := s.ready(); err != nil {
		return false, err
	}

	hash, err := auth.HashPassword(plain)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.timestamp()
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		current, err := tx.GetMailbox(ctx, address)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrNoSuchMailbox, address)
		}
		if err != nil {
			return fmt.Errorf("failed to get mailbox %s: %w", address, err)
		}

		changedAt := nextChange(now, current.PasswordLastChanged, current.ModifiedAt)
		if _, err := tx.UpdateMailboxPassword(ctx, address, hash, changedAt); err != nil {
			return fmt.Errorf("failed to update password of %s: %w", address, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.log.Info("mailbox password reset", zap.String("address", address))
	return true, nil
}

// Search 按显示名称或地址模糊查找邮箱。
// 名称匹配的结果在前，每个邮箱只出现一次。
func (s *MailboxService) Search(ctx context.Context, query string) ([]domain.Mailbox, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	byName, err := s.store.SearchMailboxesByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailboxes: %w", err)
	}
	byAddress, err := s.store.SearchMailboxesByAddress(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailboxes: %w", err)
	}

	seen := make(map[string]struct{}, len(byName)+len(byAddress))
	results := make([]domain.Mailbox, 0, len(byName)+len(byAddress))
	for _, group := range [][]domain.Mailbox{byName, byAddress} {
		for _, m := range group {
			if _, dup := seen[m.Address]; dup {
				continue
			}
			seen[m.Address] = struct{}{}
			results = append(results, m)
		}
	}
	return results, nil
}

// Authenticate 校验已激活邮箱的密码。
func (s *MailboxService) Authenticate(ctx context.Context, address, plain string) (ok bool, err error) {
	defer func() { s.observe("mailbox.authenticate", err, zap.String("address", address)) }()

	if err := s.ready(); err != nil {
		return false, err
	}

	m, err := s.store.GetMailbox(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("%w: %s", domain.ErrNoSuchMailbox, address)
	}
	if err != nil {
		return false, fmt.Errorf("failed to get mailbox %s: %w", address, err)
	}
	if !m.Active {
		return false, nil
	}
	return auth.VerifyPassword(m.PasswordHash, plain), nil
}

// nextChange 返回 now；若 now 不晚于之前的时间戳，则取最晚时间戳加一秒，
// 保证修改时间单调递增。
func nextChange(now time.Time, previous ...time.Time) time.Time {
	stamp := now
	for _, p := range previous {
		if !stamp.After(p) {
			stamp = p.UTC().Truncate(time.Second).Add(time.Second)
		}
	}
	return stamp
}

// timestamp 返回按表结构精度（秒）截断的当前时间。
func (s *MailboxService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
