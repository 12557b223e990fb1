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

// AliasService 封装转发别名处理逻辑。
type AliasService struct {
	base
}

// NewAliasService 创建别名业务服务。
func NewAliasService(store storage.Store, log *zap.Logger, metrics *monitoring.Metrics) *AliasService {
	return &AliasService{base: newBase(store, log, metrics)}
}

// Add 创建别名 source -> dest，别名归属 dest 所在域名。
// 已存在的别名返回 domain.ErrAliasExists。
func (s *AliasService) Add(ctx context.Context, source, dest string) (a *domain.Alias, err error) {
	defer func() { s.observe("alias.add", err, zap.String("source", source), zap.String("dest", dest)) }()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if !domain.IsEmail(source) {
		return nil, fmt.Errorf("%w: invalid source %s", domain.ErrInvalidEmail, source)
	}
	_, destDomain, err := domain.ParseEmailDomain(dest)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.AliasExists(ctx, source, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to check alias %s -> %s: %w", source, dest, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrAliasExists, source, dest)
	}

	a = &domain.Alias{Address: source, Goto: dest, Domain: destDomain}
	if err := s.store.CreateAlias(ctx, a); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s -> %s", domain.ErrAliasExists, source, dest)
		}
		return nil, fmt.Errorf("failed to create alias %s -> %s: %w", source, dest, err)
	}

	s.metrics.RecordAliasCreated()
	s.log.Info("alias created", zap.String("source", source), zap.String("dest", dest))
	return a, nil
}

// ListByDest 列出投递到 dest 的别名，包括自身别名。
func (s *AliasService) ListByDest(ctx context.Context, dest string) ([]domain.Alias, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListAliasesByDest(ctx, dest)
}

// DeleteAllByDest 删除投递到 dest 的所有别名，保留自身别名（dest -> dest）。
// 至少删除一条时返回 true。
func (s *AliasService) DeleteAllByDest(ctx context.Context, dest string) (deleted bool, err error) {
	defer func() { s.observe("alias.delete_all", err, zap.String("dest", dest)) }()

	if err := s.ready(); err != nil {
		return false, err
	}
	n, err := s.store.DeleteForwardingAliases(ctx, dest)
	if err != nil {
		return false, fmt.Errorf("failed to delete aliases to %s: %w", dest, err)
	}

	s.metrics.RecordAliasesDeleted(n)
	s.log.Info("aliases deleted", zap.String("dest", dest), zap.Int64("count", n))
	return n >= 1, nil
}

// DeleteOne 删除别名 source -> dest，恰好删除一条时返回 true。
func (s *AliasService) DeleteOne(ctx context.Context, source, dest string) (deleted bool, err error) {
	defer func() { s.observe("alias.delete", err, zap.String("source", source), zap.String("dest", dest)) }()

	if err := s.ready(); err != nil {
		return false, err
	}
	n, err := s.store.DeleteAlias(ctx, source, dest)
	if err != nil {
		return false, fmt.Errorf("failed to delete alias %s -> %s: %w", source, dest, err)
	}

	s.metrics.RecordAliasesDeleted(n)
	if n > 0 {
		s.log.Info("alias deleted", zap.String("source", source), zap.String("dest", dest))
	}
	return n == 1, nil
}
