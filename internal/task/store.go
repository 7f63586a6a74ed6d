package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/types"
)

// ErrNotFound 任务不存在或已过期
var ErrNotFound = types.NewError(types.ErrTaskNotFound, "任务不存在").WithHTTPStatus(404)

// Store 异步任务存储
type Store interface {
	// Save 写入或覆盖任务记录
	Save(ctx context.Context, t *Task) error

	// Get 按 ID 读取任务，不存在时返回 ErrNotFound
	Get(ctx context.Context, id string) (*Task, error)

	// List 按创建时间倒序返回所有未过期任务
	List(ctx context.Context) ([]*Task, error)

	// Delete 删除任务记录，不存在时返回 ErrNotFound
	Delete(ctx context.Context, id string) error

	// Close 释放存储资源
	Close() error
}

// =============================================================================
// 💾 进程内存储
// =============================================================================

// memoryEntry 带过期时间的任务记录
type memoryEntry struct {
	task      *Task
	expiresAt time.Time
}

// MemoryStore 进程内任务存储，适合单实例部署和测试。
// 记录按 TTL 过期，后台清理循环定期回收。
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	logger  *zap.Logger
	done    chan struct{}
	closed  bool
}

// NewMemoryStore 创建进程内任务存储并启动过期清理循环
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		logger:  logger.With(zap.String("component", "task_store")),
		done:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStore) Save(ctx context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[t.ID] = memoryEntry{
		task:      cloneTask(t),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return cloneTask(entry.task), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	tasks := make([]*Task, 0, len(s.entries))
	for _, entry := range s.entries {
		if now.After(entry.expiresAt) {
			continue
		}
		tasks = append(tasks, cloneTask(entry.task))
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// sweepLoop 定期回收过期任务
func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("expired tasks swept", zap.Int("removed", removed))
	}
}

// cloneTask 返回任务的浅拷贝，避免调用方拿到存储内部指针
func cloneTask(t *Task) *Task {
	cp := *t
	return &cp
}
