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

// QuotaService 读取并维护 used_quota 用量记录。
// 记录由邮件服务器写入，本服务只负责查询、重置和删除。
type QuotaService struct {
	base
}

// NewQuotaService 创建用量业务服务。
func NewQuotaService(store storage.Store, log *zap.Logger, metrics *monitoring.Metrics) *QuotaService {
	return &QuotaService{base: newBase(store, log, metrics)}
}

// SumByDomain 汇总已注册域名的字节数和邮件数，无记录时为零。
func (s *QuotaService) SumByDomain(ctx context.Context, domainName string) (domain.QuotaTotals, error) {
	if err := s.ready(); err != nil {
		return domain.QuotaTotals{}, err
	}
	if err := requireDomain(ctx, s.store, domainName); err != nil {
		return domain.QuotaTotals{}, err
	}
	totals, err := s.store.SumUsedQuotaByDomain(ctx, domainName)
	if err != nil {
		return domain.QuotaTotals{}, fmt.Errorf("failed to sum quota of %s: %w", domainName, err)
	}
	return totals, nil
}

// GetByMailbox 获取邮箱的用量记录，邮件服务器尚未写入时返回 nil。
func (s *QuotaService) GetByMailbox(ctx context.Context, address string) (*domain.UsedQuota, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := requireMailbox(ctx, s.store, address); err != nil {
		return nil, err
	}
	q, err := s.store.GetUsedQuota(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quota of %s: %w", address, err)
	}
	return q, nil
}

// ListByDomain 列出已注册域名的用量记录。
func (s *QuotaService) ListByDomain(ctx context.Context, domainName string) ([]domain.UsedQuota, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := requireDomain(ctx, s.store, domainName); err != nil {
		return nil, err
	}
	return s.store.ListUsedQuotaByDomain(ctx, domainName)
}

// Delete 删除邮箱的用量记录，恰好删除一条时返回 true。
func (s *QuotaService) Delete(ctx context.Context, address string) (deleted bool, err error) {
	defer func() { s.observe("quota.delete", err, zap.String("address", address)) }()

	if err := s.ready(); err != nil {
		return false, err
	}
	if err := requireMailbox(ctx, s.store, address); err != nil {
		return false, err
	}

	n, err := s.store.DeleteUsedQuota(ctx, address)
	if err != nil {
		return false, fmt.Errorf("failed to delete quota of %s: %w", address, err)
	}
	s.log.Info("quota deleted", zap.String("address", address))
	return n == 1, nil
}

// Reset 将邮箱的字节数和邮件数清零，没有用量记录时返回 false。
func (s *QuotaService) Reset(ctx context.Context, address string) (reset bool, err error) {
	defer func() { s.observe("quota.reset", err, zap.String("address", address)) }()

	if err := s.ready(); err != nil {
		return false, err
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := requireMailbox(ctx, tx, address); err != nil {
			return err
		}

		// Checked up front: MySQL counts rows that already hold zero as unaffected.
		if _, err := tx.GetUsedQuota(ctx, address); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get quota of %s: %w", address, err)
		}
		if _, err := tx.ResetUsedQuota(ctx, address); err != nil {
			return fmt.Errorf("failed to reset quota of %s: %w", address, err)
		}
		reset = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if reset {
		s.log.Info("quota reset", zap.String("address", address))
	}
	return reset, nil
}
