package moderation

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/BaSui01/contentguard/llm"
	"github.com/BaSui01/contentguard/types"
)

// stubProvider 按模型名返回预置回复，用于各节点测试。
type stubProvider struct {
	replies map[string]string // model → 回复内容
	errs    map[string]error  // model → 返回错误
	calls   atomic.Int64
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		replies: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

func (s *stubProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.calls.Add(1)
	if err, ok := s.errs[req.Model]; ok {
		return nil, err
	}
	return &llm.ChatResponse{
		Provider: s.Name(),
		Model:    req.Model,
		Choices: []llm.ChatChoice{
			{Message: llm.Message{Role: llm.RoleAssistant, Content: s.replies[req.Model]}},
		},
	}, nil
}

func upstreamErr(msg string) error {
	return types.NewError(types.ErrUpstreamError, msg).WithRetryable(true)
}

const (
	testTextModel   = "qwen-plus"
	testVisionModel = "qwen3-vl-plus"
)
