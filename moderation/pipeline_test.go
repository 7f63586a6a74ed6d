package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/types"
)

func newTestPipeline(provider *stubProvider) *Pipeline {
	logger := zap.NewNop()
	return NewPipeline(
		NewTextModerator(provider, nil, testTextModel, logger),
		NewImageModerator(provider, testVisionModel, logger),
		NewImageDescriber(provider, testVisionModel, logger),
		logger,
	)
}

func TestPipeline_NoContent(t *testing.T) {
	// 既无文本也无图片：整体安全，只有一行通过摘要
	provider := newStubProvider()
	p := newTestPipeline(provider)

	result, err := p.Run(context.Background(), &Request{})
	require.NoError(t, err)

	assert.True(t, result.OverallSafe)
	assert.Equal(t, types.RiskLow, result.RiskLevel)
	assert.Equal(t, []string{"内容审核通过"}, result.Recommendations)
	assert.Nil(t, result.ImageModeration)
	require.NotNil(t, result.TextModeration)
	assert.Equal(t, types.MethodNoContent, result.TextModeration.Method)
	assert.Zero(t, provider.calls.Load())
}

func TestPipeline_TextOnly(t *testing.T) {
	provider := newStubProvider()
	provider.replies[testTextModel] = `{"is_safe": true, "risk_level": "low", "confidence": 0.97}`
	p := newTestPipeline(provider)

	result, err := p.Run(context.Background(), &Request{Text: "今天天气很好"})
	require.NoError(t, err)

	assert.True(t, result.OverallSafe)
	assert.Equal(t, types.RiskLow, result.RiskLevel)
	assert.Nil(t, result.ImageModeration)
	assert.Empty(t, result.ImageDescription)
	// 无图片时视觉模型不应被调用
	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestPipeline_TextAndImage(t *testing.T) {
	provider := newStubProvider()
	provider.errs[testTextModel] = upstreamErr("text model down")
	provider.replies[testVisionModel] = `{"is_safe": true, "risk_level": "low", "confidence": 0.9, "description": "一张风景照片"}`
	p := newTestPipeline(provider)

	result, err := p.Run(context.Background(), &Request{
		Text:  "这是一段包含暴力和血腥的内容",
		Image: testImage(),
	})
	require.NoError(t, err)

	// 文本节点降级到关键词匹配，图片节点正常
	assert.False(t, result.OverallSafe)
	assert.Equal(t, types.RiskMedium, result.RiskLevel)
	require.NotNil(t, result.TextModeration)
	assert.Equal(t, types.MethodKeywordAnalysis, result.TextModeration.Method)
	require.NotNil(t, result.ImageModeration)
	assert.True(t, result.ImageModeration.IsSafe)
	// 审核与描述共用同一视觉模型回复
	assert.Equal(t, "一张风景照片", result.ImageDescription)
	// text + image_check + image_describe
	assert.Equal(t, int64(3), provider.calls.Load())
}

func TestPipeline_ImageFailureMakesOverallUnsafe(t *testing.T) {
	// 视觉模型失败不会中断图，但保守判定必须传导到整体结果
	provider := newStubProvider()
	provider.replies[testTextModel] = `{"is_safe": true, "risk_level": "low", "confidence": 0.99}`
	provider.errs[testVisionModel] = upstreamErr("vision service down")
	p := newTestPipeline(provider)

	result, err := p.Run(context.Background(), &Request{
		Text:  "今天天气很好",
		Image: testImage(),
	})
	require.NoError(t, err)

	assert.False(t, result.OverallSafe)
	assert.Equal(t, types.RiskMedium, result.RiskLevel)
	require.NotNil(t, result.ImageModeration)
	assert.Equal(t, types.MethodAnalysisFailed, result.ImageModeration.Method)
	assert.Equal(t, []string{"unknown"}, result.ImageModeration.Categories)
	// 描述节点同样失败时返回带标注的占位描述
	assert.Contains(t, result.ImageDescription, "图片分析失败")
}

func TestPipeline_NodePanicReturnsGraphError(t *testing.T) {
	// 逃逸出节点的编程错误以 ErrPipelineFailed 返回，不产生判定
	p := NewPipeline(nil, nil, nil, zap.NewNop())

	result, err := p.Run(context.Background(), &Request{Text: "任意文本"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, types.ErrPipelineFailed, types.GetErrorCode(err))
}
