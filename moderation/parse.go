package moderation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/contentguard/types"
)

// verdictPayload 是模型回复中约定的 JSON 结构。
type verdictPayload struct {
	IsSafe      bool     `json:"is_safe"`
	RiskLevel   string   `json:"risk_level"`
	Categories  []string `json:"categories"`
	Reasons     []string `json:"reasons"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description,omitempty"`
}

// extractJSONBlock 从模型回复中提取 JSON 文本。
// 模型经常把 JSON 包在 markdown 围栏里；存在 ```json 围栏时只取围栏内
// 的内容，否则整段回复按 JSON 处理。
func extractJSONBlock(content string) string {
	const fence = "```json"
	start := strings.Index(content, fence)
	if start < 0 {
		return strings.TrimSpace(content)
	}
	rest := content[start+len(fence):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// parseVerdict 将模型回复解析为判定。
// 风险级别防御性归一（协议外的字符串按 medium 处理）；置信度钳制到
// [0,1]；维护不变量 is_safe ⇒ categories 为空。
func parseVerdict(content string) (types.Verdict, error) {
	raw := extractJSONBlock(content)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return types.Verdict{}, fmt.Errorf("parse moderation reply: %w", err)
	}

	categories := payload.Categories
	if payload.IsSafe || categories == nil {
		categories = []string{}
	}
	reasons := payload.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return types.Verdict{
		IsSafe:      payload.IsSafe,
		RiskLevel:   types.RiskLevel(payload.RiskLevel).Normalize(),
		Categories:  categories,
		Reasons:     reasons,
		Confidence:  confidence,
		Description: payload.Description,
	}, nil
}
