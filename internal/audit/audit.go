package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BaSui01/contentguard/types"
)

// Record 一条审核判定的审计记录
type Record struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RequestID string    `gorm:"index" json:"request_id"`
	TaskID    string    `gorm:"index" json:"task_id,omitempty"`
	HasText   bool      `json:"has_text"`
	HasImage  bool      `json:"has_image"`
	Safe      bool      `json:"safe"`
	RiskLevel string    `gorm:"index" json:"risk_level"`
	// 完整判定的 JSON 快照
	Verdict   string    `json:"verdict"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定审计表名
func (Record) TableName() string {
	return "moderation_audit"
}

// Store 审核判定的审计落库。写入是尽力而为的：
// 落库失败只记日志，不影响审核请求本身。
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Entry 一次待落库的审核事件
type Entry struct {
	RequestID string
	TaskID    string
	HasText   bool
	HasImage  bool
	Verdict   *types.OverallVerdict
}

// NewStore 打开 SQLite 审计库并完成建表迁移。
// path 为 ":memory:" 时使用内存库，适合测试。
func NewStore(path string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	log.Info("audit store initialized", zap.String("path", path))
	return &Store{
		db:     db,
		logger: log.With(zap.String("component", "audit")),
	}, nil
}

// Write 落库一条审核事件。失败只记日志并返回错误，调用方可以忽略。
func (s *Store) Write(ctx context.Context, e Entry) error {
	snapshot, err := json.Marshal(e.Verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}

	record := Record{
		RequestID: e.RequestID,
		TaskID:    e.TaskID,
		HasText:   e.HasText,
		HasImage:  e.HasImage,
		Safe:      e.Verdict.OverallSafe,
		RiskLevel: string(e.Verdict.RiskLevel),
		Verdict:   string(snapshot),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logger.Warn("audit write failed",
			zap.String("request_id", e.RequestID),
			zap.Error(err),
		)
		return fmt.Errorf("audit write failed: %w", err)
	}
	return nil
}

// Recent 按时间倒序返回最近 limit 条审计记录
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []Record
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("audit query failed: %w", err)
	}
	return records, nil
}

// Ping 验证底层数据库可用，用于就绪检查
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
