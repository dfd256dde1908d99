package scoring

import (
	"math"

	"github.com/iWorld-y/compliance_radar/pkg/model"
	"github.com/iWorld-y/compliance_radar/pkg/rules"
)

// ScoreCheck 单条检查得分：通过为 100，未通过为 0。
// 分析器给出的本身就是二元判断，不做部分给分。
func ScoreCheck(passed bool) float64 {
	if passed {
		return 100
	}
	return 0
}

// ScoreCategory 类别加权得分：Σ(通过检查的权重) / Σ(全部权重) × 100。
// verdicts 中缺失的检查（分析器未返回）按未通过计，避免失败静默抬高分数。
func ScoreCategory(cat rules.Category, verdicts []model.CheckVerdict) float64 {
	if len(cat.Checks) == 0 {
		return 0
	}
	passed := make(map[string]bool, len(verdicts))
	for _, v := range verdicts {
		passed[v.ID] = v.Passed
	}

	var totalWeight, passedWeight float64
	for _, ck := range cat.Checks {
		totalWeight += ck.Weight
		if passed[ck.ID] {
			passedWeight += ck.Weight
		}
	}
	if totalWeight <= 0 {
		return 0
	}
	return round2(passedWeight / totalWeight * 100)
}

// ScoreOverall 整体加权得分：Σ(类别得分 × 类别权重)，保留两位小数。
// 注意：不按实际参与的类别权重重新归一化。只检查部分类别时，
// 未检查类别的权重直接丢弃——例如只检查 accessibility（权重 0.25）
// 且全部通过时，整体得分是 25.0 而不是 100.0。这是既定行为。
func ScoreOverall(categoryScores map[string]float64) float64 {
	var total float64
	for key, score := range categoryScores {
		cat, ok := rules.Get(key)
		if !ok {
			continue
		}
		total += score * cat.Weight
	}
	return round2(total)
}

// Grade 由整体得分推导字母等级，各档下界含等号
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// SeverityCounts 按严重程度统计未通过的检查项
func SeverityCounts(categories []model.CategoryResult) map[model.Severity]int {
	counts := map[model.Severity]int{
		model.SeverityHigh:   0,
		model.SeverityMedium: 0,
		model.SeverityLow:    0,
	}
	for _, cat := range categories {
		for _, ck := range cat.Checks {
			if !ck.Passed {
				counts[ck.Severity]++
			}
		}
	}
	return counts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
