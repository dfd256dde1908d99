package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/compliance_radar/pkg/compliance"
	"github.com/iWorld-y/compliance_radar/pkg/config"
	"github.com/iWorld-y/compliance_radar/pkg/logger"
	dm "github.com/iWorld-y/compliance_radar/pkg/model"
)

// Ensure LLMAnalyzer implements compliance.Analyzer
var _ compliance.Analyzer = (*LLMAnalyzer)(nil)

// 超过该长度的 HTML 会被截断后再送入模型，防止超出 token 限制
const maxHTMLLength = 4000

const systemPrompt = `You are an expert web developer and accessibility auditor.
Analyze the provided HTML and answer the specific compliance question.
Respond with a strict JSON object and nothing else:
{
	"passed": true or false,
	"issues": ["specific issue found", ...] (empty array if passed),
	"recommendations": ["specific improvement needed", ...]
}`

// LLMAnalyzer 基于 LLM 的合规检查分析器。
// Analyze 永不返回错误：内部失败会转化为一条未通过的裁决。
type LLMAnalyzer struct {
	chatModel model.ChatModel
	limiter   *rate.Limiter
}

// NewLLMAnalyzer 创建分析器实例
func NewLLMAnalyzer(ctx context.Context, llmCfg config.LLMConfig, conc config.ConcurrencyConfig) (*LLMAnalyzer, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: llmCfg.BaseURL,
		APIKey:  llmCfg.APIKey,
		Model:   llmCfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	limit := rate.Limit(float64(conc.RPM) / 60.0)
	limiter := rate.NewLimiter(limit, conc.QPS)

	return &LLMAnalyzer{
		chatModel: chatModel,
		limiter:   limiter,
	}, nil
}

// Analyze 对 HTML 执行一条检查并返回结构化裁决
func (a *LLMAnalyzer) Analyze(ctx context.Context, html string, checkPrompt string) *dm.AnalysisVerdict {
	if len(html) > maxHTMLLength {
		html = html[:maxHTMLLength] + "\n...[content truncated]"
	}

	userPrompt := fmt.Sprintf(`HTML Content:
`+"```html\n%s\n```"+`

Compliance Check: %s

Provide your analysis as JSON:`, html, checkPrompt)

	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return failedVerdict(fmt.Sprintf("analysis canceled: %v", err))
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: systemPrompt},
			{Role: schema.User, Content: userPrompt},
		}

		resp, err := a.chatModel.Generate(ctx, messages)
		if err != nil {
			lastErr = err
			if isRateLimited(err) && i < maxRetries {
				time.Sleep(baseDelay * time.Duration(1<<i))
				continue
			}
			break
		}

		verdict, err := parseVerdict(resp.Content)
		if err != nil {
			lastErr = err
			if i < maxRetries {
				continue
			}
			break
		}
		return verdict
	}

	logger.Log.Errorf("检查分析失败: %v", lastErr)
	return failedVerdict(fmt.Sprintf("Analysis failed: %v", lastErr))
}

// parseVerdict 清洗模型输出中的 markdown 围栏并反序列化
func parseVerdict(raw string) (*dm.AnalysisVerdict, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var verdict dm.AnalysisVerdict
	if err := json.Unmarshal([]byte(clean), &verdict); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	if verdict.Issues == nil {
		verdict.Issues = []string{}
	}
	if verdict.Recommendations == nil {
		verdict.Recommendations = []string{}
	}
	return &verdict, nil
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

func failedVerdict(diagnostic string) *dm.AnalysisVerdict {
	return &dm.AnalysisVerdict{
		Passed:          false,
		Issues:          []string{diagnostic},
		Recommendations: []string{"Retry the analysis"},
	}
}
