package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailapi/backend/internal/config"
	"mailapi/backend/internal/domain"
	"mailapi/backend/internal/storage"
)

const pingTimeout = 10 * time.Second

// Store 基于 GORM 的邮件库存储实现（支持 MySQL、PostgreSQL 和 SQLite）
// 零值不可用：所有方法返回 domain.ErrNotInitialized。
type Store struct {
	db     *gorm.DB
	driver string
	inTx   bool
	log    *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// Open 按配置连接数据库并返回可用的 Store，这是唯一的初始化入口。
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	driver, dsn, err := ParseConnString(cfg.Type, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; one connection also keeps in-memory databases alive.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.New(mysql.Config{Conn: db})
	case DriverPostgres, DriverPgx:
		dialector = postgres.New(postgres.Config{Conn: db})
	case DriverSQLite:
		dialector = &sqlite.Dialector{Conn: db}
	}

	store, err := newStore(dialector, cfg.LogSQL, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.driver = driver

	log.Info("connected to mail database", zap.String("driver", driver))
	return store, nil
}

// NewStoreWithDialector 使用已配置的 GORM 方言创建存储
func NewStoreWithDialector(dialector gorm.Dialector, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	store, err := newStore(dialector, false, log)
	if err != nil {
		return nil, err
	}
	store.driver = dialector.Name()
	return store, nil
}

func newStore(dialector gorm.Dialector, logSQL bool, log *zap.Logger) (*Store, error) {
	mode := logger.Silent
	if logSQL {
		mode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(mode),
		// Multi-statement operations open their own transaction through WithTx.
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// DB 返回底层 GORM 句柄
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Driver 返回使用的 database/sql 驱动名称
func (s *Store) Driver() string {
	if s == nil {
		return ""
	}
	return s.driver
}

// Close 关闭数据库连接，事务内的 Store 不做任何操作
func (s *Store) Close() error {
	if s == nil || s.db == nil || s.inTx {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	if s == nil || s.db == nil {
		return domain.ErrNotInitialized
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// WithTx 在单个事务中执行 fn，嵌套调用使用保存点
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(gtx *gorm.DB) error {
		return fn(&Store{db: gtx, driver: s.driver, inTx: true, log: s.log})
	})
}

// conn 返回绑定 ctx 的会话
func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, domain.ErrNotInitialized
	}
	return s.db.WithContext(ctx), nil
}

// translate 将 GORM 错误转换为存储层错误
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", storage.ErrDuplicate, err)
	default:
		return err
	}
}
