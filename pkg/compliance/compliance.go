package compliance

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/iWorld-y/compliance_radar/pkg/logger"
	"github.com/iWorld-y/compliance_radar/pkg/model"
	"github.com/iWorld-y/compliance_radar/pkg/rules"
	"github.com/iWorld-y/compliance_radar/pkg/scoring"
)

// DefaultMaxConcurrency 页面检查的默认并发上限
const DefaultMaxConcurrency = 5

// ContentProvider 页面内容提供方
type ContentProvider interface {
	GetPageContent(ctx context.Context, pagePath string) (*model.PageContent, error)
}

// Analyzer 检查分析适配器。实现方对格式正确的输入永不报错：
// 内部失败以 passed=false 加诊断信息的形式返回。
type Analyzer interface {
	Analyze(ctx context.Context, html string, checkPrompt string) *model.AnalysisVerdict
}

// Evaluator 页面合规评估器
type Evaluator struct {
	provider       ContentProvider
	analyzer       Analyzer
	maxConcurrency int
}

// NewEvaluator 创建评估器。maxConcurrency 小于等于 0 时使用默认值。
func NewEvaluator(provider ContentProvider, analyzer Analyzer, maxConcurrency int) *Evaluator {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Evaluator{
		provider:       provider,
		analyzer:       analyzer,
		maxConcurrency: maxConcurrency,
	}
}

// CheckPage 对单个页面执行端到端合规检查。永不返回错误：
// 页面抓取失败时返回 0 分 F 级的降级结果。
// categories 为空表示检查全部类别；未知类别 key 静默忽略。
func (e *Evaluator) CheckPage(ctx context.Context, pagePath string, categories []string) *model.ComplianceResult {
	content, err := e.provider.GetPageContent(ctx, pagePath)
	if err != nil {
		logger.WithPage(pagePath).Errorf("页面抓取失败: %v", err)
		return errorResult(pagePath)
	}

	working := rules.Filter(categories)

	categoryResults := make([]model.CategoryResult, 0, len(working))
	categoryScores := make(map[string]float64, len(working))

	for _, cat := range working {
		catResult := e.checkCategory(ctx, cat, content.HTML)
		categoryResults = append(categoryResults, catResult)
		categoryScores[cat.Key] = catResult.Score
	}

	overall := scoring.ScoreOverall(categoryScores)
	counts := scoring.SeverityCounts(categoryResults)
	high := counts[model.SeverityHigh]
	medium := counts[model.SeverityMedium]
	low := counts[model.SeverityLow]

	return &model.ComplianceResult{
		PagePath:             pagePath,
		PageTitle:            content.Title,
		OverallScore:         overall,
		Grade:                scoring.Grade(overall),
		Categories:           categoryResults,
		TotalIssues:          high + medium + low,
		HighPriorityIssues:   high,
		MediumPriorityIssues: medium,
		LowPriorityIssues:    low,
		CheckedAt:            time.Now(),
	}
}

// checkCategory 顺序执行类别内的全部检查并归约为类别结果
func (e *Evaluator) checkCategory(ctx context.Context, cat rules.Category, html string) model.CategoryResult {
	verdicts := make([]model.CheckVerdict, 0, len(cat.Checks))
	passed := 0

	for _, ck := range cat.Checks {
		analysis := e.analyzer.Analyze(ctx, html, ck.Prompt)

		verdict := model.CheckVerdict{
			ID:              ck.ID,
			Name:            ck.Name,
			Passed:          analysis.Passed,
			Score:           scoring.ScoreCheck(analysis.Passed),
			Issues:          analysis.Issues,
			Recommendations: analysis.Recommendations,
			Severity:        ck.Severity,
		}
		if verdict.Passed {
			passed++
		}
		verdicts = append(verdicts, verdict)
	}

	return model.CategoryResult{
		Category:     cat.Key,
		Name:         cat.Name,
		Score:        scoring.ScoreCategory(cat, verdicts),
		Checks:       verdicts,
		TotalChecks:  len(cat.Checks),
		PassedChecks: passed,
	}
}

// CheckPages 以有界并发对多个页面执行检查。
// 单个页面的失败（包括意外 panic）只影响它自己的结果，不会中断其他页面。
// 返回顺序不保证与输入一致，调用方应按 page_path 匹配。
func (e *Evaluator) CheckPages(ctx context.Context, pagePaths []string, categories []string, maxConcurrency int) []*model.ComplianceResult {
	if maxConcurrency <= 0 {
		maxConcurrency = e.maxConcurrency
	}
	if maxConcurrency > len(pagePaths) {
		maxConcurrency = len(pagePaths)
	}
	if len(pagePaths) == 0 {
		return nil
	}

	jobs := make(chan string)
	results := make([]*model.ComplianceResult, 0, len(pagePaths))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				res := e.checkGuarded(ctx, path, categories)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

	for _, path := range pagePaths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	return results
}

// checkGuarded 把任务内的意外 panic 统一转化为降级结果，
// 保证一个页面的缺陷不会拖垮整批检查
func (e *Evaluator) checkGuarded(ctx context.Context, pagePath string, categories []string) (res *model.ComplianceResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithPage(pagePath).Errorf("检查任务异常: %v", r)
			res = errorResult(pagePath)
		}
	}()
	return e.CheckPage(ctx, pagePath, categories)
}

// errorResult 降级结果：0 分、F 级、一条高优先级问题
func errorResult(pagePath string) *model.ComplianceResult {
	return &model.ComplianceResult{
		PagePath:           pagePath,
		PageTitle:          fmt.Sprintf("Error: %s", pagePath),
		OverallScore:       0,
		Grade:              "F",
		Categories:         []model.CategoryResult{},
		TotalIssues:        1,
		HighPriorityIssues: 1,
		CheckedAt:          time.Now(),
	}
}

// Summarize 汇总一批检查结果。纯函数，空输入返回全零汇总。
// passThreshold 是页面通过线，与字母等级的分档阈值相互独立。
func Summarize(results []*model.ComplianceResult, passThreshold float64) model.Summary {
	summary := model.Summary{
		GradeDistribution: map[string]int{},
	}
	if len(results) == 0 {
		return summary
	}

	var totalScore float64
	for _, r := range results {
		totalScore += r.OverallScore
		summary.GradeDistribution[r.Grade]++
		summary.TotalIssues += r.TotalIssues
		summary.HighPriorityIssues += r.HighPriorityIssues
		summary.MediumPriorityIssues += r.MediumPriorityIssues
		summary.LowPriorityIssues += r.LowPriorityIssues
		if r.OverallScore >= passThreshold {
			summary.PagesPassed++
		} else {
			summary.PagesFailed++
		}
	}

	summary.TotalPages = len(results)
	summary.AverageScore = math.Round(totalScore/float64(len(results))*100) / 100

	return summary
}
