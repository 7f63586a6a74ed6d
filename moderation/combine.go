package moderation

import (
	"fmt"
	"strings"

	"github.com/BaSui01/contentguard/types"
)

// 推荐语固定文案。首行是通过/不通过摘要，之后按文本、图片顺序附加明细。
const (
	recommendPassed     = "内容审核通过"
	recommendFailed     = "内容审核未通过，建议修改后重新提交"
	recommendImageSafe  = "图片内容安全"
	recommendDescribed  = "图片内容已生成描述记录"
	recommendTextPrefix = "文本内容存在风险"
	recommendImgPrefix  = "图片内容存在风险"
)

// Combine 将各模态判定合并为整体结论。纯函数：相同输入产生相同输出。
//
// 规则：
//   - overall_safe 初始为 true，任一模态不安全则为 false
//   - risk_level 按序数只升不降（low < medium < high），缺席的模态不参与
//   - 推荐语顺序固定：摘要行、文本明细、图片明细、描述记录标记
//   - description 仅作记录，不参与安全判定
func Combine(textVerdict, imageVerdict *types.Verdict, description string) types.OverallVerdict {
	overallSafe := true
	riskLevel := types.RiskLow
	var details []string

	if textVerdict != nil && !textVerdict.IsSafe {
		overallSafe = false
		riskLevel = riskLevel.Max(textVerdict.RiskLevel)
		if len(textVerdict.Categories) > 0 {
			details = append(details, fmt.Sprintf("%s: %s", recommendTextPrefix, strings.Join(textVerdict.Categories, ", ")))
		}
	}

	if imageVerdict != nil {
		if !imageVerdict.IsSafe {
			overallSafe = false
			riskLevel = riskLevel.Max(imageVerdict.RiskLevel)
			if len(imageVerdict.Categories) > 0 {
				details = append(details, fmt.Sprintf("%s: %s", recommendImgPrefix, strings.Join(imageVerdict.Categories, ", ")))
			}
		} else {
			details = append(details, recommendImageSafe)
		}
	}

	if description != "" {
		details = append(details, recommendDescribed)
	}

	summary := recommendPassed
	if !overallSafe {
		summary = recommendFailed
	}
	recommendations := append([]string{summary}, details...)

	return types.OverallVerdict{
		OverallSafe:      overallSafe,
		RiskLevel:        riskLevel,
		Recommendations:  recommendations,
		TextModeration:   textVerdict,
		ImageModeration:  imageVerdict,
		ImageDescription: description,
	}
}
