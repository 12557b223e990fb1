package sql

import (
	"context"

	"mailapi/backend/internal/domain"
)

// ========== Alias Repository ==========

// CreateAlias 插入别名记录，重复时返回 storage.ErrDuplicate
func (s *Store) CreateAlias(ctx context.Context, a *domain.Alias) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return translate(db.Create(a).Error)
}

// AliasExists 判断 (source, dest) 别名是否存在
func (s *Store) AliasExists(ctx context.Context, source, dest string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var n int64
	err = db.Model(&domain.Alias{}).Where("address = ? AND goto = ?", source, dest).Count(&n).Error
	return n > 0, err
}

// ListAliasesByDest 列出投递到 dest 的别名（包括自身别名）
func (s *Store) ListAliasesByDest(ctx context.Context, dest string) ([]domain.Alias, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	aliases := []domain.Alias{}
	err = db.Where("goto = ?", dest).Order("address").Find(&aliases).Error
	return aliases, err
}

// DeleteForwardingAliases 删除投递到 dest 的别名，保留 (dest, dest)
func (s *Store) DeleteForwardingAliases(ctx context.Context, dest string) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("goto = ? AND address <> ?", dest, dest).Delete(&domain.Alias{})
	return res.RowsAffected, res.Error
}

// DeleteAlias 删除 (source, dest) 别名
func (s *Store) DeleteAlias(ctx context.Context, source, dest string) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("address = ? AND goto = ?", source, dest).Delete(&domain.Alias{})
	return res.RowsAffected, res.Error
}

// DeleteAliasesByDomain 删除目标地址属于指定域名的所有别名
func (s *Store) DeleteAliasesByDomain(ctx context.Context, domainName string) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("domain = ?", domainName).Delete(&domain.Alias{})
	return res.RowsAffected, res.Error
}
