package service

import (
	"go.uber.org/zap"

	"mailapi/backend/internal/domain"
	"mailapi/backend/internal/monitoring"
	"mailapi/backend/internal/storage"
)

// base 各仓储服务共用的依赖。
type base struct {
	store   storage.Store
	log     *zap.Logger
	metrics *monitoring.Metrics
}

func newBase(store storage.Store, log *zap.Logger, metrics *monitoring.Metrics) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{store: store, log: log, metrics: metrics}
}

// ready 未注入存储时返回 domain.ErrNotInitialized。
func (b *base) ready() error {
	if b.store == nil {
		return domain.ErrNotInitialized
	}
	return nil
}

// observe 记录操作结果指标，失败时输出告警日志。
func (b *base) observe(op string, err error, fields ...zap.Field) {
	b.metrics.Observe(op, err)
	if err != nil {
		b.log.Warn(op+" failed", append(fields, zap.Error(err))...)
	}
}
