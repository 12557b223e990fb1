package sql

import (
	"context"

	"mailapi/backend/internal/domain"
)

// ========== Quota Repository ==========

// SumUsedQuotaByDomain 汇总域名的字节数和邮件数，无记录时为零
func (s *Store) SumUsedQuotaByDomain(ctx context.Context, domainName string) (domain.QuotaTotals, error) {
	var totals domain.QuotaTotals
	db, err := s.conn(ctx)
	if err != nil {
		return totals, err
	}
	err = db.Model(&domain.UsedQuota{}).
		Select("COALESCE(SUM(bytes), 0) AS bytes, COALESCE(SUM(messages), 0) AS messages").
		Where("domain = ?", domainName).
		Scan(&totals).Error
	return totals, err
}

// GetUsedQuota 获取用量记录，不存在时返回 storage.ErrNotFound
func (s *Store) GetUsedQuota(ctx context.Context, address string) (*domain.UsedQuota, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var q domain.UsedQuota
	if err := db.Where("username = ?", address).Take(&q).Error; err != nil {
		return nil, translate(err)
	}
	return &q, nil
}

// ListUsedQuotaByDomain 按地址列出域名的用量记录
func (s *Store) ListUsedQuotaByDomain(ctx context.Context, domainName string) ([]domain.UsedQuota, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows := []domain.UsedQuota{}
	err = db.Where("domain = ?", domainName).Order("username").Find(&rows).Error
	return rows, err
}

// DeleteUsedQuota 删除邮箱的用量记录
func (s *Store) DeleteUsedQuota(ctx context.Context, address string) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("username = ?", address).Delete(&domain.UsedQuota{})
	return res.RowsAffected, res.Error
}

// ResetUsedQuota 将字节数和邮件数清零
// MySQL 对值未变化的行不计入影响行数，调用方应先确认记录存在
func (s *Store) ResetUsedQuota(ctx context.Context, address string) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Model(&domain.UsedQuota{}).
		Where("username = ?", address).
		Updates(map[string]interface{}{"bytes": 0, "messages": 0})
	return res.RowsAffected, res.Error
}
