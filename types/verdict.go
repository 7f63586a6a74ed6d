package types

// RiskLevel 表示风险级别，序数关系为 low < medium < high。
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// riskOrdinals 定义风险级别的序数位置。
var riskOrdinals = map[RiskLevel]int{
	RiskLow:    0,
	RiskMedium: 1,
	RiskHigh:   2,
}

// Ordinal 返回风险级别的序数位置。
// 未知级别防御性地按 medium 处理（模型偶尔会返回协议外的字符串）。
func (r RiskLevel) Ordinal() int {
	if ord, ok := riskOrdinals[r]; ok {
		return ord
	}
	return riskOrdinals[RiskMedium]
}

// Normalize 将任意风险级别字符串归一为合法级别。
func (r RiskLevel) Normalize() RiskLevel {
	if _, ok := riskOrdinals[r]; ok {
		return r
	}
	return RiskMedium
}

// Max 返回两个风险级别中较高的一个（按序数比较）。
func (r RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.Ordinal() > r.Ordinal() {
		return other.Normalize()
	}
	return r.Normalize()
}

// Method 表示判定的来源，用于审计追溯。
type Method string

const (
	// MethodLLMAnalysis 判定来自 LLM 分析
	MethodLLMAnalysis Method = "llm_analysis"
	// MethodKeywordAnalysis 判定来自关键词匹配（LLM 降级路径）
	MethodKeywordAnalysis Method = "keyword_analysis"
	// MethodNoContent 无内容，直接放行
	MethodNoContent Method = "no_content"
	// MethodAnalysisFailed 分析失败，返回保守判定
	MethodAnalysisFailed Method = "analysis_failed"
)

// Verdict 是单一模态（文本或图片）的审核判定。
// 不变量：IsSafe == true 时 Categories 必须为空。
type Verdict struct {
	IsSafe     bool      `json:"is_safe"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Categories []string  `json:"categories"`
	Reasons    []string  `json:"reasons"`
	Confidence float64   `json:"confidence"`
	Method     Method    `json:"method"`
	// Description 仅图片模态使用，记录视觉模型对图片内容的描述。
	Description string `json:"description,omitempty"`
}

// NewNoContentVerdict 返回"无内容"判定：安全、低风险、置信度 1.0。
func NewNoContentVerdict(reason string) Verdict {
	return Verdict{
		IsSafe:     true,
		RiskLevel:  RiskLow,
		Categories: []string{},
		Reasons:    []string{reason},
		Confidence: 1.0,
		Method:     MethodNoContent,
	}
}

// NewAnalysisFailedVerdict 返回分析失败时的保守判定。
// 无法分析的内容不能按安全处理。
func NewAnalysisFailedVerdict(reason string) Verdict {
	return Verdict{
		IsSafe:     false,
		RiskLevel:  RiskMedium,
		Categories: []string{"unknown"},
		Reasons:    []string{reason},
		Confidence: 0.5,
		Method:     MethodAnalysisFailed,
	}
}

// OverallVerdict 是合并后的整体审核结果。
type OverallVerdict struct {
	OverallSafe bool      `json:"overall_safe"`
	RiskLevel   RiskLevel `json:"risk_level"`
	// Recommendations 首行固定为通过/不通过摘要，之后按文本、图片顺序附加明细。
	Recommendations []string `json:"recommendations"`
	TextModeration  *Verdict `json:"text_moderation,omitempty"`
	ImageModeration *Verdict `json:"image_moderation,omitempty"`
	// ImageDescription 仅作记录用途，不参与安全判定。
	ImageDescription string `json:"image_description,omitempty"`
}
