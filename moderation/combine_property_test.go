package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/BaSui01/contentguard/types"
)

func riskGen() *rapid.Generator[types.RiskLevel] {
	return rapid.SampledFrom([]types.RiskLevel{types.RiskLow, types.RiskMedium, types.RiskHigh})
}

func verdictGen() *rapid.Generator[*types.Verdict] {
	return rapid.Custom(func(rt *rapid.T) *types.Verdict {
		isSafe := rapid.Bool().Draw(rt, "isSafe")
		categories := []string{}
		if !isSafe {
			categories = rapid.SliceOfN(rapid.SampledFrom([]string{"violence", "adult", "illegal", "hate"}), 1, 4).Draw(rt, "categories")
		}
		return &types.Verdict{
			IsSafe:     isSafe,
			RiskLevel:  riskGen().Draw(rt, "risk"),
			Categories: categories,
			Reasons:    []string{},
			Confidence: rapid.Float64Range(0, 1).Draw(rt, "confidence"),
			Method:     types.MethodLLMAnalysis,
		}
	})
}

// 合并器是纯函数：相同输入两次调用产生相同输出。
func TestProperty_Combine_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := verdictGen().Draw(rt, "text")
		img := verdictGen().Draw(rt, "image")
		desc := rapid.StringN(0, 32, 64).Draw(rt, "desc")

		first := Combine(text, img, desc)
		second := Combine(text, img, desc)
		assert.Equal(t, first, second)
	})
}

// 单调性：任一模态从安全翻转为不安全时，整体必然不安全且风险不降。
func TestProperty_Combine_Monotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := verdictGen().Draw(rt, "text")
		img := verdictGen().Draw(rt, "image")

		base := Combine(text, img, "")

		flipped := *text
		flipped.IsSafe = false
		if len(flipped.Categories) == 0 {
			flipped.Categories = []string{"violence"}
		}
		after := Combine(&flipped, img, "")

		assert.False(t, after.OverallSafe)
		assert.GreaterOrEqual(t, after.RiskLevel.Ordinal(), base.RiskLevel.Ordinal(),
			"风险级别只升不降: base=%s after=%s", base.RiskLevel, after.RiskLevel)
	})
}

// 整体不安全当且仅当至少一个在场模态不安全。
func TestProperty_Combine_SafeIffAllSafe(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := verdictGen().Draw(rt, "text")
		img := verdictGen().Draw(rt, "image")

		result := Combine(text, img, "")
		assert.Equal(t, text.IsSafe && img.IsSafe, result.OverallSafe)
	})
}

// 首行永远是通过/不通过摘要，且与 overall_safe 标志一致。
func TestProperty_Combine_SummaryLineFirst(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := verdictGen().Draw(rt, "text")
		img := verdictGen().Draw(rt, "image")

		result := Combine(text, img, "")
		assert.NotEmpty(t, result.Recommendations)
		if result.OverallSafe {
			assert.Equal(t, "内容审核通过", result.Recommendations[0])
		} else {
			assert.Equal(t, "内容审核未通过，建议修改后重新提交", result.Recommendations[0])
		}
	})
}

// 图片缺席时风险级别完全由文本判定决定。
func TestProperty_Combine_AbsentImageDoesNotContribute(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := verdictGen().Draw(rt, "text")

		result := Combine(text, nil, "")
		assert.Nil(t, result.ImageModeration)
		if !text.IsSafe {
			assert.Equal(t, text.RiskLevel, result.RiskLevel)
		} else {
			assert.Equal(t, types.RiskLow, result.RiskLevel)
		}
	})
}
