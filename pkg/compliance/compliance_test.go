package compliance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iWorld-y/compliance_radar/pkg/model"
)

// stubProvider 可配置的页面内容提供方
type stubProvider struct {
	failPaths  map[string]bool
	panicPaths map[string]bool
}

func (s *stubProvider) GetPageContent(ctx context.Context, pagePath string) (*model.PageContent, error) {
	if s.panicPaths[pagePath] {
		panic("provider defect: " + pagePath)
	}
	if s.failPaths[pagePath] {
		return nil, errors.New("connection timeout")
	}
	return &model.PageContent{
		Path:  pagePath,
		Title: "Page " + pagePath,
		HTML:  "<html><body><h1>ok</h1></body></html>",
	}, nil
}

// stubAnalyzer 所有检查返回同一结论
type stubAnalyzer struct {
	passed bool
}

func (s *stubAnalyzer) Analyze(ctx context.Context, html string, checkPrompt string) *model.AnalysisVerdict {
	if s.passed {
		return &model.AnalysisVerdict{Passed: true, Issues: []string{}, Recommendations: []string{}}
	}
	return &model.AnalysisVerdict{
		Passed:          false,
		Issues:          []string{"found an issue"},
		Recommendations: []string{"fix it"},
	}
}

func TestCheckPageAllPass(t *testing.T) {
	e := NewEvaluator(&stubProvider{}, &stubAnalyzer{passed: true}, 0)
	res := e.CheckPage(context.Background(), "/content/site/home", nil)

	if res.OverallScore != 100 {
		t.Errorf("OverallScore = %v, want 100", res.OverallScore)
	}
	if res.Grade != "A" {
		t.Errorf("Grade = %q, want A", res.Grade)
	}
	if len(res.Categories) != 6 {
		t.Errorf("len(Categories) = %d, want 6", len(res.Categories))
	}
	if res.TotalIssues != 0 {
		t.Errorf("TotalIssues = %d, want 0", res.TotalIssues)
	}
	if res.PageTitle != "Page /content/site/home" {
		t.Errorf("PageTitle = %q", res.PageTitle)
	}
	if res.CheckedAt.IsZero() {
		t.Error("CheckedAt not set")
	}
}

func TestCheckPageAllFail(t *testing.T) {
	e := NewEvaluator(&stubProvider{}, &stubAnalyzer{passed: false}, 0)
	res := e.CheckPage(context.Background(), "/content/site/home", nil)

	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %v, want 0", res.OverallScore)
	}
	if res.Grade != "F" {
		t.Errorf("Grade = %q, want F", res.Grade)
	}
	// 全量 30 条检查均未通过
	if res.TotalIssues != 30 {
		t.Errorf("TotalIssues = %d, want 30", res.TotalIssues)
	}
	if res.HighPriorityIssues != 9 {
		t.Errorf("HighPriorityIssues = %d, want 9", res.HighPriorityIssues)
	}
	if res.MediumPriorityIssues != 11 {
		t.Errorf("MediumPriorityIssues = %d, want 11", res.MediumPriorityIssues)
	}
	if res.LowPriorityIssues != 10 {
		t.Errorf("LowPriorityIssues = %d, want 10", res.LowPriorityIssues)
	}
}

func TestCheckPageSingleCategory(t *testing.T) {
	// 只检查 accessibility 时其余类别的权重被丢弃，满分也只有 25
	e := NewEvaluator(&stubProvider{}, &stubAnalyzer{passed: true}, 0)
	res := e.CheckPage(context.Background(), "/content/site/home", []string{"accessibility"})

	if len(res.Categories) != 1 {
		t.Fatalf("len(Categories) = %d, want 1", len(res.Categories))
	}
	if res.Categories[0].Score != 100 {
		t.Errorf("category score = %v, want 100", res.Categories[0].Score)
	}
	if res.OverallScore != 25.0 {
		t.Errorf("OverallScore = %v, want 25.0", res.OverallScore)
	}
	if res.Grade != "F" {
		t.Errorf("Grade = %q, want F", res.Grade)
	}
}

func TestCheckPageUnknownCategory(t *testing.T) {
	e := NewEvaluator(&stubProvider{}, &stubAnalyzer{passed: true}, 0)
	res := e.CheckPage(context.Background(), "/content/site/home", []string{"bogus"})

	if len(res.Categories) != 0 {
		t.Errorf("len(Categories) = %d, want 0", len(res.Categories))
	}
	if res.OverallScore != 0 || res.Grade != "F" {
		t.Errorf("score/grade = %v/%q, want 0/F", res.OverallScore, res.Grade)
	}
	if res.TotalIssues != 0 {
		t.Errorf("TotalIssues = %d, want 0", res.TotalIssues)
	}
}

func TestCheckPageFetchError(t *testing.T) {
	provider := &stubProvider{failPaths: map[string]bool{"/content/broken": true}}
	e := NewEvaluator(provider, &stubAnalyzer{passed: true}, 0)
	res := e.CheckPage(context.Background(), "/content/broken", nil)

	if res.OverallScore != 0 || res.Grade != "F" {
		t.Errorf("score/grade = %v/%q, want 0/F", res.OverallScore, res.Grade)
	}
	if res.PageTitle != "Error: /content/broken" {
		t.Errorf("PageTitle = %q, want Error: /content/broken", res.PageTitle)
	}
	if res.TotalIssues != 1 || res.HighPriorityIssues != 1 {
		t.Errorf("issues = %d/%d, want 1/1", res.TotalIssues, res.HighPriorityIssues)
	}
	if res.Categories == nil || len(res.Categories) != 0 {
		t.Errorf("Categories = %v, want empty slice", res.Categories)
	}
}

func TestCheckPagesIsolation(t *testing.T) {
	paths := []string{
		"/content/a", "/content/b", "/content/broken", "/content/c", "/content/d",
	}
	provider := &stubProvider{failPaths: map[string]bool{"/content/broken": true}}
	e := NewEvaluator(provider, &stubAnalyzer{passed: true}, 3)

	results := e.CheckPages(context.Background(), paths, nil, 0)
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}

	// 返回顺序不保证，按 page_path 匹配
	byPath := make(map[string]*model.ComplianceResult, len(results))
	for _, r := range results {
		byPath[r.PagePath] = r
	}
	for _, p := range paths {
		if byPath[p] == nil {
			t.Fatalf("missing result for %s", p)
		}
	}

	if got := byPath["/content/broken"]; !strings.HasPrefix(got.PageTitle, "Error:") {
		t.Errorf("broken page title = %q, want error result", got.PageTitle)
	}
	if got := byPath["/content/a"]; got.Grade != "A" {
		t.Errorf("healthy page downgraded: %+v", got)
	}
}

func TestCheckPagesPanicRecovery(t *testing.T) {
	provider := &stubProvider{panicPaths: map[string]bool{"/content/boom": true}}
	e := NewEvaluator(provider, &stubAnalyzer{passed: true}, 2)

	results := e.CheckPages(context.Background(), []string{"/content/ok", "/content/boom"}, []string{"seo"}, 0)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	for _, r := range results {
		if r.PagePath == "/content/boom" {
			if r.Grade != "F" || r.PageTitle != "Error: /content/boom" {
				t.Errorf("panicking page result = %+v, want error result", r)
			}
		} else if r.OverallScore == 0 {
			t.Errorf("healthy page affected by sibling panic: %+v", r)
		}
	}
}

func TestCheckPagesEmpty(t *testing.T) {
	e := NewEvaluator(&stubProvider{}, &stubAnalyzer{passed: true}, 0)
	if got := e.CheckPages(context.Background(), nil, nil, 0); got != nil {
		t.Errorf("CheckPages(empty) = %v, want nil", got)
	}
}

func TestCheckPageDeterministic(t *testing.T) {
	e := NewEvaluator(&stubProvider{}, &stubAnalyzer{passed: true}, 0)
	a := e.CheckPage(context.Background(), "/content/site", nil)
	b := e.CheckPage(context.Background(), "/content/site", nil)
	if a.OverallScore != b.OverallScore || a.Grade != b.Grade || a.TotalIssues != b.TotalIssues {
		t.Errorf("results differ between runs: %v/%v", a.OverallScore, b.OverallScore)
	}
}

func TestSummarize(t *testing.T) {
	results := []*model.ComplianceResult{
		{OverallScore: 80, Grade: "B", TotalIssues: 2, HighPriorityIssues: 1, LowPriorityIssues: 1},
		{OverallScore: 60, Grade: "D", TotalIssues: 5, MediumPriorityIssues: 5},
	}
	s := Summarize(results, 70.0)

	if s.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", s.TotalPages)
	}
	if s.AverageScore != 70.0 {
		t.Errorf("AverageScore = %v, want 70.0", s.AverageScore)
	}
	if s.PagesPassed != 1 || s.PagesFailed != 1 {
		t.Errorf("passed/failed = %d/%d, want 1/1", s.PagesPassed, s.PagesFailed)
	}
	if s.GradeDistribution["B"] != 1 || s.GradeDistribution["D"] != 1 {
		t.Errorf("GradeDistribution = %v", s.GradeDistribution)
	}
	if s.TotalIssues != 7 || s.HighPriorityIssues != 1 || s.MediumPriorityIssues != 5 || s.LowPriorityIssues != 1 {
		t.Errorf("issue totals = %d/%d/%d/%d", s.TotalIssues, s.HighPriorityIssues, s.MediumPriorityIssues, s.LowPriorityIssues)
	}
}

func TestSummarizeThresholdBoundary(t *testing.T) {
	// 通过线是大于等于
	results := []*model.ComplianceResult{{OverallScore: 70.0, Grade: "C"}}
	s := Summarize(results, 70.0)
	if s.PagesPassed != 1 || s.PagesFailed != 0 {
		t.Errorf("passed/failed = %d/%d, want 1/0", s.PagesPassed, s.PagesFailed)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 70.0)
	if s.TotalPages != 0 || s.AverageScore != 0 || s.PagesPassed != 0 || s.PagesFailed != 0 {
		t.Errorf("empty summary not zeroed: %+v", s)
	}
	if s.GradeDistribution == nil {
		t.Error("GradeDistribution is nil, want empty map")
	}
}
