package api

import (
	"time"

	"github.com/BaSui01/contentguard/types"
)

// =============================================================================
// 审核接口类型
// =============================================================================

// TextModerationRequest 文本审核请求。
// @Description 文本审核请求结构
type TextModerationRequest struct {
	// 用于请求跟踪的跟踪 ID
	TraceID string `json:"trace_id,omitempty" example:"trace-123"`
	// 待审核文本
	Text string `json:"text" binding:"required"`
}

// ModerationResponse 一次审核的完整结果。
// @Description 审核结果结构
type ModerationResponse struct {
	// 整体判定
	types.OverallVerdict
	// 请求 ID（由中间件注入）
	RequestID string `json:"request_id,omitempty"`
	// 处理耗时（毫秒）
	DurationMS int64 `json:"duration_ms"`
}

// TaskCreatedResponse 异步任务受理回执。
// @Description 异步任务创建响应
type TaskCreatedResponse struct {
	// 任务 ID
	TaskID string `json:"task_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	// 初始状态，总是 pending
	Status string `json:"status" example:"pending"`
	// 受理时间
	CreatedAt time.Time `json:"created_at"`
}
