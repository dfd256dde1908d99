package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/compliance_radar/pkg/aem"
	"github.com/iWorld-y/compliance_radar/pkg/compliance"
	"github.com/iWorld-y/compliance_radar/pkg/config"
	"github.com/iWorld-y/compliance_radar/pkg/intent"
	"github.com/iWorld-y/compliance_radar/pkg/model"
	"github.com/iWorld-y/compliance_radar/pkg/storage"
)

// AuditService 聚合核心能力，供 HTTP 层调用
type AuditService struct {
	evaluator  *compliance.Evaluator
	classifier *intent.KeywordClassifier
	aemClient  *aem.Client
	store      *storage.Storage // 可为 nil，表示未配置数据库
	cfg        *config.Config
	log        *log.Helper
}

// NewAuditService 创建服务实例。store 允许为 nil。
func NewAuditService(
	evaluator *compliance.Evaluator,
	classifier *intent.KeywordClassifier,
	aemClient *aem.Client,
	store *storage.Storage,
	cfg *config.Config,
	logger log.Logger,
) *AuditService {
	return &AuditService{
		evaluator:  evaluator,
		classifier: classifier,
		aemClient:  aemClient,
		store:      store,
		cfg:        cfg,
		log:        log.NewHelper(logger),
	}
}

// CheckRequest 批量合规检查请求
type CheckRequest struct {
	PagePaths      []string `json:"page_paths"`
	Categories     []string `json:"categories,omitempty"`
	MaxConcurrency int      `json:"max_concurrency,omitempty"`
}

// CheckResponse 批量合规检查响应
type CheckResponse struct {
	Results []*model.ComplianceResult `json:"results"`
	Summary model.Summary             `json:"summary"`
	RunID   int                       `json:"run_id,omitempty"`
}

// CheckCompliance 执行批量检查，配置了数据库时同步落库
func (s *AuditService) CheckCompliance(ctx context.Context, req *CheckRequest) *CheckResponse {
	results := s.evaluator.CheckPages(ctx, req.PagePaths, req.Categories, req.MaxConcurrency)
	summary := compliance.Summarize(results, s.cfg.Compliance.PassThreshold)

	resp := &CheckResponse{
		Results: results,
		Summary: summary,
	}

	if s.store != nil && len(results) > 0 {
		runID, err := s.store.SaveRun(results, summary)
		if err != nil {
			s.log.Errorf("保存审计运行失败: %v", err)
		} else {
			resp.RunID = runID
		}
	}

	return resp
}

// IntentRequest 意图识别请求
type IntentRequest struct {
	Text        string `json:"text"`
	CurrentMode string `json:"current_mode,omitempty"`
}

// IntentResponse 意图识别响应
type IntentResponse struct {
	intent.Decision
	ShouldSwitch bool   `json:"should_switch"`
	Message      string `json:"message,omitempty"`
}

// DetectIntent 分类意图并给出模式切换建议
func (s *AuditService) DetectIntent(req *IntentRequest) *IntentResponse {
	decision := s.classifier.Classify(req.Text)

	current := intent.Mode(req.CurrentMode)
	if current == "" {
		current = intent.ModeChat
	}
	shouldSwitch := s.classifier.ShouldSwitchMode(current, decision.Intent, decision.Confidence)

	resp := &IntentResponse{
		Decision:     decision,
		ShouldSwitch: shouldSwitch,
	}
	if shouldSwitch {
		resp.Message = intent.ModeSuggestionMessage(decision.SuggestedMode)
	}
	return resp
}

// QueryPages 列出指定路径下的页面
func (s *AuditService) QueryPages(ctx context.Context, rootPath string, depth int) ([]model.PageInfo, error) {
	return s.aemClient.QueryPages(ctx, rootPath, aem.QueryOptions{Depth: depth})
}

// ListRuns 返回最近的审计历史
func (s *AuditService) ListRuns(limit int) ([]storage.RunSummary, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListRuns(limit)
}

// HealthStatus 各依赖服务的健康状态
type HealthStatus struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health 汇报 AEM 连通性与 LLM 配置状态
func (s *AuditService) Health(ctx context.Context) *HealthStatus {
	services := map[string]string{}

	if s.aemClient.CheckHealth(ctx) {
		services["aem"] = "up"
	} else {
		services["aem"] = "down"
	}

	if s.cfg.LLM.APIKey != "" && s.cfg.LLM.Model != "" {
		services["llm"] = "configured"
	} else {
		services["llm"] = "unconfigured"
	}

	if s.store != nil {
		services["db"] = "up"
	} else {
		services["db"] = "disabled"
	}

	status := "ok"
	if services["aem"] == "down" {
		status = "degraded"
	}

	return &HealthStatus{Status: status, Services: services}
}
