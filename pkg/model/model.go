package model

import "time"

// Severity 检查项严重程度
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// CheckVerdict 单条检查的裁决结果，生成后不再修改
type CheckVerdict struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Passed          bool     `json:"passed"`
	Score           float64  `json:"score"` // 100 或 0
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Severity        Severity `json:"severity"`
}

// CategoryResult 单个类别的检查结果
type CategoryResult struct {
	Category     string         `json:"category"`
	Name         string         `json:"name"`
	Score        float64        `json:"score"` // 类别加权得分 [0,100]
	Checks       []CheckVerdict `json:"checks"`
	TotalChecks  int            `json:"total_checks"`
	PassedChecks int            `json:"passed_checks"`
}

// ComplianceResult 单个页面的合规检查结果
type ComplianceResult struct {
	PagePath             string           `json:"page_path"`
	PageTitle            string           `json:"page_title"`
	OverallScore         float64          `json:"overall_score"`
	Grade                string           `json:"grade"` // A-F
	Categories           []CategoryResult `json:"categories"`
	TotalIssues          int              `json:"total_issues"`
	HighPriorityIssues   int              `json:"high_priority_issues"`
	MediumPriorityIssues int              `json:"medium_priority_issues"`
	LowPriorityIssues    int              `json:"low_priority_issues"`
	CheckedAt            time.Time        `json:"checked_at"`
}

// Summary 多页面批量检查的汇总统计
type Summary struct {
	TotalPages           int            `json:"total_pages"`
	AverageScore         float64        `json:"average_score"`
	GradeDistribution    map[string]int `json:"grade_distribution"`
	TotalIssues          int            `json:"total_issues"`
	HighPriorityIssues   int            `json:"high_priority_issues"`
	MediumPriorityIssues int            `json:"medium_priority_issues"`
	LowPriorityIssues    int            `json:"low_priority_issues"`
	PagesPassed          int            `json:"pages_passed"`
	PagesFailed          int            `json:"pages_failed"`
}

// AnalysisVerdict 分析器对单条检查的原始裁决
type AnalysisVerdict struct {
	Passed          bool     `json:"passed"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// PageContent 页面抓取结果
type PageContent struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Description string `json:"description"`
	HTML        string `json:"html"`
}

// PageInfo QueryBuilder 查询返回的页面元信息
type PageInfo struct {
	Path         string `json:"path"`
	Title        string `json:"title"`
	LastModified string `json:"last_modified,omitempty"`
	Template     string `json:"template,omitempty"`
}
