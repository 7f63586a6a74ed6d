package moderation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/llm"
	"github.com/BaSui01/contentguard/types"
)

// TextModerator 是文本审核节点。优先使用 LLM 审核，调用或解析失败时
// 降级到关键词匹配。Moderate 永不返回错误——总能给出一个判定。
type TextModerator struct {
	provider llm.Provider
	matcher  *KeywordMatcher
	model    string
	logger   *zap.Logger
}

// NewTextModerator 创建文本审核节点。
func NewTextModerator(provider llm.Provider, matcher *KeywordMatcher, model string, logger *zap.Logger) *TextModerator {
	if matcher == nil {
		matcher = NewKeywordMatcher(nil)
	}
	return &TextModerator{
		provider: provider,
		matcher:  matcher,
		model:    model,
		logger:   logger.With(zap.String("component", "text_moderator")),
	}
}

// Moderate 审核一段文本。
//
// 策略：
//  1. 空/纯空白文本直接返回 no_content 判定，不调用模型。
//  2. 调用 LLM 并解析严格 JSON 回复，成功时标记 llm_analysis。
//  3. 调用或解析失败时静默降级到关键词匹配，标记 keyword_analysis。
func (m *TextModerator) Moderate(ctx context.Context, text string) types.Verdict {
	if strings.TrimSpace(text) == "" {
		return types.NewNoContentVerdict("无文本内容")
	}

	verdict, err := m.moderateWithLLM(ctx, text)
	if err != nil {
		m.logger.Warn("LLM 文本审核失败，降级到关键词匹配", zap.Error(err))
		return m.matcher.Match(text)
	}
	verdict.Method = types.MethodLLMAnalysis
	return verdict
}

func (m *TextModerator) moderateWithLLM(ctx context.Context, text string) (types.Verdict, error) {
	req := &llm.ChatRequest{
		Model: m.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: textModerationSystemPrompt},
			{Role: llm.RoleUser, Content: textModerationUserPrefix + text},
		},
		Temperature: 0.1, // 低温度以获得更一致的判断
	}

	resp, err := m.provider.Completion(ctx, req)
	if err != nil {
		return types.Verdict{}, err
	}

	return parseVerdict(resp.FirstChoiceContent())
}
