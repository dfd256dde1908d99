package scoring

import (
	"testing"

	"github.com/iWorld-y/compliance_radar/pkg/model"
	"github.com/iWorld-y/compliance_radar/pkg/rules"
)

func TestScoreCheck(t *testing.T) {
	if got := ScoreCheck(true); got != 100 {
		t.Errorf("ScoreCheck(true) = %v, want 100", got)
	}
	if got := ScoreCheck(false); got != 0 {
		t.Errorf("ScoreCheck(false) = %v, want 0", got)
	}
}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "A"},
		{90.0, "A"},
		{89.999, "B"},
		{80.0, "B"},
		{79.999, "C"},
		{70.0, "C"},
		{69.999, "D"},
		{60.0, "D"},
		{59.999, "F"},
		{0, "F"},
	}
	for _, c := range cases {
		if got := Grade(c.score); got != c.want {
			t.Errorf("Grade(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

// verdictsFor 生成指定类别的裁决，passedIDs 中的检查为通过
func verdictsFor(cat rules.Category, passedIDs ...string) []model.CheckVerdict {
	pass := make(map[string]bool)
	for _, id := range passedIDs {
		pass[id] = true
	}
	var out []model.CheckVerdict
	for _, ck := range cat.Checks {
		out = append(out, model.CheckVerdict{
			ID:       ck.ID,
			Name:     ck.Name,
			Passed:   pass[ck.ID],
			Severity: ck.Severity,
		})
	}
	return out
}

func TestScoreCategoryAllPass(t *testing.T) {
	cat, _ := rules.Get("accessibility")
	verdicts := verdictsFor(cat,
		"alt_text", "heading_hierarchy", "aria_labels", "color_contrast", "keyboard_navigation")
	if got := ScoreCategory(cat, verdicts); got != 100 {
		t.Errorf("ScoreCategory all pass = %v, want 100", got)
	}
}

func TestScoreCategoryAllFail(t *testing.T) {
	cat, _ := rules.Get("accessibility")
	if got := ScoreCategory(cat, verdictsFor(cat)); got != 0 {
		t.Errorf("ScoreCategory all fail = %v, want 0", got)
	}
}

func TestScoreCategoryWeighted(t *testing.T) {
	// accessibility 权重: alt_text 0.3, aria_labels 0.2，总权重 1.0
	cat, _ := rules.Get("accessibility")
	verdicts := verdictsFor(cat, "alt_text", "aria_labels")
	if got := ScoreCategory(cat, verdicts); got != 50 {
		t.Errorf("ScoreCategory weighted = %v, want 50", got)
	}
}

func TestScoreCategoryMissingVerdictCountsAsFailed(t *testing.T) {
	// 分析器未返回 keyboard_navigation (权重 0.1)，应按未通过计
	cat, _ := rules.Get("accessibility")
	verdicts := verdictsFor(cat, "alt_text", "heading_hierarchy", "aria_labels", "color_contrast")
	verdicts = verdicts[:4] // 去掉缺失的那条
	if got := ScoreCategory(cat, verdicts); got != 90 {
		t.Errorf("ScoreCategory with missing verdict = %v, want 90", got)
	}
}

func TestScoreOverallNoRenormalization(t *testing.T) {
	// 只检查 accessibility（权重 0.25）且满分时，整体得分是 25 而不是 100。
	// 未检查类别的权重直接丢弃，这是既定行为。
	got := ScoreOverall(map[string]float64{"accessibility": 100})
	if got != 25.0 {
		t.Errorf("ScoreOverall(accessibility only) = %v, want 25.0", got)
	}
}

func TestScoreOverallFullAudit(t *testing.T) {
	scores := map[string]float64{}
	for _, cat := range rules.All() {
		scores[cat.Key] = 100
	}
	if got := ScoreOverall(scores); got != 100.0 {
		t.Errorf("ScoreOverall full audit = %v, want 100.0", got)
	}
}

func TestScoreOverallUnknownCategoryIgnored(t *testing.T) {
	if got := ScoreOverall(map[string]float64{"bogus": 100}); got != 0 {
		t.Errorf("ScoreOverall(unknown) = %v, want 0", got)
	}
}

func TestScoreOverallLinear(t *testing.T) {
	half := ScoreOverall(map[string]float64{"seo": 50, "security": 50})
	full := ScoreOverall(map[string]float64{"seo": 100, "security": 100})
	if full != half*2 {
		t.Errorf("ScoreOverall not linear: half=%v full=%v", half, full)
	}
}

func TestSeverityCounts(t *testing.T) {
	categories := []model.CategoryResult{
		{
			Category: "accessibility",
			Checks: []model.CheckVerdict{
				{ID: "alt_text", Passed: false, Severity: model.SeverityHigh},
				{ID: "aria_labels", Passed: false, Severity: model.SeverityMedium},
				{ID: "color_contrast", Passed: true, Severity: model.SeverityMedium},
			},
		},
		{
			Category: "content_quality",
			Checks: []model.CheckVerdict{
				{ID: "readability", Passed: false, Severity: model.SeverityLow},
			},
		},
	}

	counts := SeverityCounts(categories)
	if counts[model.SeverityHigh] != 1 || counts[model.SeverityMedium] != 1 || counts[model.SeverityLow] != 1 {
		t.Errorf("SeverityCounts = %v, want high=1 medium=1 low=1", counts)
	}
}
