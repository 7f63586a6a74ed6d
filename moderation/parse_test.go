package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/contentguard/types"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain json",
			content: `{"is_safe": true}`,
			want:    `{"is_safe": true}`,
		},
		{
			name:    "fenced json",
			content: "审核结果如下：\n```json\n{\"is_safe\": false}\n```\n请参考。",
			want:    `{"is_safe": false}`,
		},
		{
			name:    "fence without closing",
			content: "```json\n{\"is_safe\": true}",
			want:    `{"is_safe": true}`,
		},
		{
			name:    "surrounding whitespace",
			content: "  \n{\"is_safe\": true}\n  ",
			want:    `{"is_safe": true}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONBlock(tt.content))
		})
	}
}

func TestParseVerdict_Valid(t *testing.T) {
	v, err := parseVerdict(`{
		"is_safe": false,
		"risk_level": "high",
		"categories": ["violence"],
		"reasons": ["文本包含暴力内容"],
		"confidence": 0.95
	}`)
	require.NoError(t, err)
	assert.False(t, v.IsSafe)
	assert.Equal(t, types.RiskHigh, v.RiskLevel)
	assert.Equal(t, []string{"violence"}, v.Categories)
	assert.Equal(t, 0.95, v.Confidence)
}

func TestParseVerdict_Fenced(t *testing.T) {
	v, err := parseVerdict("```json\n{\"is_safe\": true, \"risk_level\": \"low\", \"confidence\": 1.0}\n```")
	require.NoError(t, err)
	assert.True(t, v.IsSafe)
	assert.Equal(t, types.RiskLow, v.RiskLevel)
}

func TestParseVerdict_UnknownRiskNormalizedToMedium(t *testing.T) {
	v, err := parseVerdict(`{"is_safe": false, "risk_level": "critical", "categories": ["x"], "confidence": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, types.RiskMedium, v.RiskLevel)
}

func TestParseVerdict_SafeClearsCategories(t *testing.T) {
	// 不变量：is_safe ⇒ categories 为空
	v, err := parseVerdict(`{"is_safe": true, "risk_level": "low", "categories": ["violence"], "confidence": 1.0}`)
	require.NoError(t, err)
	assert.Empty(t, v.Categories)
}

func TestParseVerdict_Invalid(t *testing.T) {
	_, err := parseVerdict("抱歉，我无法给出JSON格式的回复。")
	require.Error(t, err)
}

func TestParseVerdict_NilSlicesBecomeEmpty(t *testing.T) {
	v, err := parseVerdict(`{"is_safe": false, "risk_level": "medium", "confidence": 0.5}`)
	require.NoError(t, err)
	assert.NotNil(t, v.Categories)
	assert.NotNil(t, v.Reasons)
}

func TestParseVerdict_ConfidenceClamped(t *testing.T) {
	// 置信度协议上约定在 [0,1]，模型越界时防御性钳制
	v, err := parseVerdict(`{"is_safe": false, "risk_level": "high", "categories": ["violence"], "confidence": 1.5}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Confidence)

	v, err = parseVerdict(`{"is_safe": true, "risk_level": "low", "confidence": -0.2}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.Confidence)
}
