package sql

import (
	"context"
	"strings"
	"time"

	"mailapi/backend/internal/domain"
)

// likeEscape LIKE 模式的转义字符（反斜杠在 MySQL 中需要额外转义）
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// containsPattern 将 query 转换为按字面子串匹配的 LIKE 模式
func containsPattern(query string) string {
	return "%" + likeReplacer.Replace(query) + "%"
}

// ========== Mailbox Repository ==========

// CreateMailbox 插入邮箱记录
func (s *Store) CreateMailbox(ctx context.Context, m *domain.Mailbox) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return translate(db.Create(m).Error)
}

// GetMailbox 获取邮箱，不存在时返回 storage.ErrNotFound
func (s *Store) GetMailbox(ctx context.Context, address string) (*domain.Mailbox, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var m domain.Mailbox
	if err := db.Where("username = ?", address).Take(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// MailboxExists 判断邮箱记录是否存在
func (s *Store) MailboxExists(ctx context.Context, address string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var n int64
	err = db.Model(&domain.Mailbox{}).Where("username = ?", address).Count(&n).Error
	return n > 0, err
}

// ListMailboxes 按地址列出所有邮箱
func (s *Store) ListMailboxes(ctx context.Context) ([]domain.Mailbox, error) {
	return s.findMailboxes(ctx, "", nil)
}

// ListMailboxesByDomain 列出指定域名的邮箱
func (s *Store) ListMailboxesByDomain(ctx context.Context, domainName string) ([]domain.Mailbox, error) {
	return s.findMailboxes(ctx, "domain = ?", domainName)
}

// SearchMailboxesByName 按显示名称模糊查找邮箱
func (s *Store) SearchMailboxesByName(ctx context.Context, query string) ([]domain.Mailbox, error) {
	return s.findMailboxes(ctx, "name LIKE ? ESCAPE '"+likeEscape+"'", containsPattern(query))
}

// SearchMailboxesByAddress 按地址模糊查找邮箱
func (s *Store) SearchMailboxesByAddress(ctx context.Context, query string) ([]domain.Mailbox, error) {
	return s.findMailboxes(ctx, "username LIKE ? ESCAPE '"+likeEscape+"'", containsPattern(query))
}

func (s *Store) findMailboxes(ctx context.Context, where string, arg interface{}) ([]domain.Mailbox, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if where != "" {
		db = db.Where(where, arg)
	}
	mailboxes := []domain.Mailbox{}
	err = db.Order("username").Find(&mailboxes).Error
	return mailboxes, err
}

// UpdateMailboxPassword 更新密码哈希及 passwordlastchanged、modified 时间
func (s *Store) UpdateMailboxPassword(ctx context.Context, address, hash string, changedAt time.Time) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Model(&domain.Mailbox{}).
		Where("username = ?", address).
		Updates(map[string]interface{}{
			"password":            hash,
			"passwordlastchanged": changedAt,
			"modified":            changedAt,
		})
	return res.RowsAffected, res.Error
}

// DeleteMailbox 仅删除邮箱记录
func (s *Store) DeleteMailbox(ctx context.Context, address string) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("username = ?", address).Delete(&domain.Mailbox{})
	return res.RowsAffected, res.Error
}

// DeleteMailboxesByDomain 删除指定域名的所有邮箱记录
func (s *Store) DeleteMailboxesByDomain(ctx context.Context, domainName string) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("domain = ?", domainName).Delete(&domain.Mailbox{})
	return res.RowsAffected, res.Error
}
