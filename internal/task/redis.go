package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// keyPrefix 任务记录在 Redis 中的键前缀
const keyPrefix = "contentguard:task:"

// RedisConfig Redis 任务存储配置
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	TTL          time.Duration
}

// RedisStore 基于 Redis 的任务存储，记录以 JSON 序列化并按 TTL 过期。
// 多实例部署时任务状态在实例间共享。
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewRedisStore 创建 Redis 任务存储并验证连接
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s := &RedisStore{
		redis:  client,
		ttl:    cfg.TTL,
		logger: logger.With(zap.String("component", "task_store")),
	}

	logger.Info("redis task store initialized",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.TTL),
	)
	return s, nil
}

func (s *RedisStore) Save(ctx context.Context, t *Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("task store is closed")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := s.redis.Set(ctx, keyPrefix+t.ID, data, s.ttl).Err(); err != nil {
		s.logger.Error("task save failed", zap.String("task_id", t.ID), zap.Error(err))
		return fmt.Errorf("task save failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("task store is closed")
	}

	data, err := s.redis.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("task get failed", zap.String("task_id", id), zap.Error(err))
		return nil, fmt.Errorf("task get failed: %w", err)
	}

	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &t, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("task store is closed")
	}

	var tasks []*Task
	iter := s.redis.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.redis.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			// 扫描与读取之间过期，跳过
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("task list failed: %w", err)
		}
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			s.logger.Warn("skipping malformed task record", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		tasks = append(tasks, &t)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("task list failed: %w", err)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("task store is closed")
	}

	removed, err := s.redis.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		s.logger.Error("task delete failed", zap.String("task_id", id), zap.Error(err))
		return fmt.Errorf("task delete failed: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping 验证 Redis 连接可用，用于就绪检查
func (s *RedisStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("task store is closed")
	}
	return s.redis.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("closing task store")
	return s.redis.Close()
}
