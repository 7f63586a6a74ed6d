package moderation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/llm"
	"github.com/BaSui01/contentguard/types"
)

// Image 是待审核的图片内容（base64 编码 + 格式）。
type Image struct {
	Base64 string
	Format llm.ImageFormat
}

// Empty 报告是否未提供图片。
func (img *Image) Empty() bool {
	return img == nil || img.Base64 == ""
}

func (img *Image) userParts(text string) []llm.ContentPart {
	return []llm.ContentPart{
		llm.NewTextPart(text),
		llm.NewImagePart(img.Base64, img.Format),
	}
}

// ImageModerator 是图片审核节点。与文本不同，图片没有确定性的降级
// 路径：调用或解析失败时返回保守判定——无法分析的图片不能按安全处理。
type ImageModerator struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger
}

// NewImageModerator 创建图片审核节点。model 应为视觉模型（如 qwen3-vl-plus）。
func NewImageModerator(provider llm.Provider, model string, logger *zap.Logger) *ImageModerator {
	return &ImageModerator{
		provider: provider,
		model:    model,
		logger:   logger.With(zap.String("component", "image_moderator")),
	}
}

// Moderate 审核一张图片。永不返回错误。
func (m *ImageModerator) Moderate(ctx context.Context, img *Image) types.Verdict {
	if img.Empty() {
		v := types.NewNoContentVerdict("无图片内容")
		v.Description = "未提供图片"
		return v
	}

	req := &llm.ChatRequest{
		Model: m.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: imageModerationSystemPrompt},
			{Role: llm.RoleUser, Parts: img.userParts(imageModerationUserText)},
		},
		Temperature: 0.1,
	}

	resp, err := m.provider.Completion(ctx, req)
	if err != nil {
		m.logger.Warn("视觉模型调用失败，返回保守判定", zap.Error(err))
		return failedImageVerdict()
	}

	verdict, err := parseVerdict(resp.FirstChoiceContent())
	if err != nil {
		m.logger.Warn("视觉模型回复解析失败，返回保守判定", zap.Error(err))
		return failedImageVerdict()
	}
	verdict.Method = types.MethodLLMAnalysis
	return verdict
}

func failedImageVerdict() types.Verdict {
	v := types.NewAnalysisFailedVerdict("图片分析失败，需要人工审核")
	v.Description = "无法分析图片内容"
	return v
}

// ImageDescriber 是独立的图片描述节点，仅作审计记录用途。
// 失败返回带错误标注的描述串，永不影响安全判定。
type ImageDescriber struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger
}

// NewImageDescriber 创建图片描述节点。
func NewImageDescriber(provider llm.Provider, model string, logger *zap.Logger) *ImageDescriber {
	return &ImageDescriber{
		provider: provider,
		model:    model,
		logger:   logger.With(zap.String("component", "image_describer")),
	}
}

// Describe 生成图片内容的自由文本描述。
func (d *ImageDescriber) Describe(ctx context.Context, img *Image) string {
	if img.Empty() {
		return ""
	}

	req := &llm.ChatRequest{
		Model: d.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: imageDescribeSystemPrompt},
			{Role: llm.RoleUser, Parts: img.userParts(imageDescribeUserText)},
		},
		Temperature: 0.3,
	}

	resp, err := d.provider.Completion(ctx, req)
	if err != nil {
		d.logger.Warn("图片描述失败", zap.Error(err))
		return fmt.Sprintf("图片分析失败: %v", err)
	}
	return resp.FirstChoiceContent()
}
