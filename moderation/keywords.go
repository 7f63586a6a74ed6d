package moderation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/contentguard/types"
)

// KeywordCategory 是一个风险类别及其关键词列表。
// 类别在表中的顺序决定匹配结果的输出顺序。
type KeywordCategory struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// DefaultKeywordTable 返回内置的敏感词分类表。
// 生产环境建议通过配置文件扩展（见 config.ModerationConfig.KeywordFile）。
func DefaultKeywordTable() []KeywordCategory {
	return []KeywordCategory{
		{Name: "violence", Keywords: []string{"杀", "死", "暴力", "打斗", "血腥", "战争", "恐怖", "威胁"}},
		{Name: "adult", Keywords: []string{"色情", "成人", "性", "裸露", "露骨", "色情内容"}},
		{Name: "illegal", Keywords: []string{"毒品", "赌博", "诈骗", "违法", "犯罪", "走私", "盗版"}},
		{Name: "hate", Keywords: []string{"歧视", "种族", "仇恨", "辱骂", "侮辱", "诽谤"}},
		{Name: "politics", Keywords: []string{"政治", "政府", "领导人", "敏感政治话题"}},
	}
}

// LoadKeywordTable 从 YAML 文件加载敏感词分类表。
//
// 文件格式:
//
//	categories:
//	  - name: violence
//	    keywords: ["暴力", "血腥"]
func LoadKeywordTable(path string) ([]KeywordCategory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}

	var file struct {
		Categories []KeywordCategory `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("keyword file %s contains no categories", path)
	}
	return file.Categories, nil
}

// KeywordMatcher 是确定性的文本分类器，按子串包含匹配敏感词。
// 纯本地计算，永不失败，作为 LLM 审核的降级路径。
type KeywordMatcher struct {
	table []KeywordCategory
}

// NewKeywordMatcher 创建关键词匹配器。table 为 nil 时使用内置分类表。
func NewKeywordMatcher(table []KeywordCategory) *KeywordMatcher {
	if table == nil {
		table = DefaultKeywordTable()
	}
	return &KeywordMatcher{table: table}
}

// Match 对文本执行关键词匹配并返回判定。
// 调用方负责空文本短路（见 TextModerator），此处假定输入非空。
//
// 规则：
//   - 大小写不敏感的子串包含
//   - is_safe = 无任何类别命中
//   - risk_level：安全为 low，命中 ≥3 个不同类别为 high，否则 medium
//   - confidence：有命中 0.8，无命中 1.0
func (m *KeywordMatcher) Match(text string) types.Verdict {
	textLower := strings.ToLower(text)

	var categories []string
	var keywords []string
	seen := make(map[string]bool)

	for _, cat := range m.table {
		hit := false
		for _, kw := range cat.Keywords {
			if strings.Contains(textLower, strings.ToLower(kw)) {
				hit = true
				keywords = append(keywords, kw)
			}
		}
		if hit && !seen[cat.Name] {
			seen[cat.Name] = true
			categories = append(categories, cat.Name)
		}
	}

	isSafe := len(categories) == 0
	riskLevel := types.RiskLow
	if !isSafe {
		if len(categories) >= 3 {
			riskLevel = types.RiskHigh
		} else {
			riskLevel = types.RiskMedium
		}
	}

	confidence := 1.0
	reasons := []string{}
	if len(keywords) > 0 {
		confidence = 0.8
		reasons = append(reasons, fmt.Sprintf("检测到敏感词: %s", strings.Join(keywords, ", ")))
	}
	if categories == nil {
		categories = []string{}
	}

	return types.Verdict{
		IsSafe:     isSafe,
		RiskLevel:  riskLevel,
		Categories: categories,
		Reasons:    reasons,
		Confidence: confidence,
		Method:     types.MethodKeywordAnalysis,
	}
}
