package task

import (
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/contentguard/types"
)

// Status 异步审核任务状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task 一次异步审核任务的完整记录
type Task struct {
	ID        string                `json:"task_id"`
	Status    Status                `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Result    *types.OverallVerdict `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// New 创建一个 pending 状态的新任务
func New() *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing 标记任务进入处理中
func (t *Task) MarkProcessing() {
	t.Status = StatusProcessing
	t.UpdatedAt = time.Now().UTC()
}

// MarkCompleted 标记任务完成并记录判定结果
func (t *Task) MarkCompleted(result *types.OverallVerdict) {
	t.Status = StatusCompleted
	t.Result = result
	t.Error = ""
	t.UpdatedAt = time.Now().UTC()
}

// MarkFailed 标记任务失败并记录错误信息
func (t *Task) MarkFailed(err error) {
	t.Status = StatusFailed
	if err != nil {
		t.Error = err.Error()
	}
	t.UpdatedAt = time.Now().UTC()
}
