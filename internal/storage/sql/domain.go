package sql

import (
	"context"

	"mailapi/backend/internal/domain"
)

// ========== Domain Repository ==========

// CreateDomain 插入域名记录
func (s *Store) CreateDomain(ctx context.Context, d *domain.Domain) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return translate(db.Create(d).Error)
}

// GetDomain 获取域名，不存在时返回 storage.ErrNotFound
func (s *Store) GetDomain(ctx context.Context, name string) (*domain.Domain, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var d domain.Domain
	if err := db.Where("domain = ?", name).Take(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// DomainExists 判断域名记录是否存在
func (s *Store) DomainExists(ctx context.Context, name string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var n int64
	err = db.Model(&domain.Domain{}).Where("domain = ?", name).Count(&n).Error
	return n > 0, err
}

// ListDomains 按名称列出所有域名
func (s *Store) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	domains := []domain.Domain{}
	err = db.Order("domain").Find(&domains).Error
	return domains, err
}

// DeleteDomain 仅删除域名记录，返回删除行数
func (s *Store) DeleteDomain(ctx context.Context, name string) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("domain = ?", name).Delete(&domain.Domain{})
	return res.RowsAffected, res.Error
}
