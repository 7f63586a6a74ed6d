package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/types"
)

func newTextModerator(provider *stubProvider) *TextModerator {
	return NewTextModerator(provider, nil, testTextModel, zap.NewNop())
}

func TestTextModerator_EmptyText(t *testing.T) {
	provider := newStubProvider()
	m := newTextModerator(provider)

	for _, text := range []string{"", "   ", "\n\t "} {
		v := m.Moderate(context.Background(), text)
		assert.True(t, v.IsSafe)
		assert.Equal(t, types.RiskLow, v.RiskLevel)
		assert.Equal(t, types.MethodNoContent, v.Method)
		assert.Equal(t, 1.0, v.Confidence)
	}
	// 空文本不应触发任何模型调用
	assert.Zero(t, provider.calls.Load())
}

func TestTextModerator_LLMSuccess(t *testing.T) {
	provider := newStubProvider()
	provider.replies[testTextModel] = "```json\n" +
		`{"is_safe": false, "risk_level": "high", "categories": ["violence"], "reasons": ["文本包含暴力内容"], "confidence": 0.95}` +
		"\n```"
	m := newTextModerator(provider)

	v := m.Moderate(context.Background(), "一段需要审核的文本")
	assert.False(t, v.IsSafe)
	assert.Equal(t, types.RiskHigh, v.RiskLevel)
	assert.Equal(t, types.MethodLLMAnalysis, v.Method)
	assert.Equal(t, []string{"violence"}, v.Categories)
}

func TestTextModerator_InvocationFailureFallsBack(t *testing.T) {
	provider := newStubProvider()
	provider.errs[testTextModel] = upstreamErr("connection refused")
	m := newTextModerator(provider)

	v := m.Moderate(context.Background(), "这是一段包含暴力和血腥的内容")
	assert.False(t, v.IsSafe)
	assert.Equal(t, types.MethodKeywordAnalysis, v.Method)
	assert.Equal(t, []string{"violence"}, v.Categories)
	assert.Equal(t, types.RiskMedium, v.RiskLevel)
}

func TestTextModerator_ParseFailureFallsBack(t *testing.T) {
	provider := newStubProvider()
	provider.replies[testTextModel] = "这不是JSON"
	m := newTextModerator(provider)

	v := m.Moderate(context.Background(), "今天天气很好")
	// 降级路径：干净文本 → 安全
	assert.True(t, v.IsSafe)
	assert.Equal(t, types.RiskLow, v.RiskLevel)
	assert.Empty(t, v.Categories)
	assert.Equal(t, types.MethodKeywordAnalysis, v.Method)
}
