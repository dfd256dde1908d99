package intent

import (
	"regexp"
	"strings"

	"github.com/iWorld-y/compliance_radar/pkg/config"
)

// Intent 用户请求意图的闭集
type Intent string

const (
	IntentChat          Intent = "chat"
	IntentFileUpload    Intent = "file_upload"
	IntentWebSearch     Intent = "web_search"
	IntentAEMQuery      Intent = "aem_query"
	IntentAEMCompliance Intent = "aem_compliance"
	IntentUnknown       Intent = "unknown"
)

// Mode 处理模式
type Mode string

const (
	ModeChat Mode = "chat"
	ModeFile Mode = "file"
	ModeWeb  Mode = "web"
	ModeAEM  Mode = "aem"
)

// fallbackConfidence 未命中任何意图时回落到闲聊意图的固定置信度。
// 必须低于自动切换阈值，否则低置信度的分类也会触发模式切换。
const fallbackConfidence = 0.5

// Decision 单次分类的结果
type Decision struct {
	Intent        Intent         `json:"intent"`
	Confidence    float64        `json:"confidence"`
	SuggestedMode Mode           `json:"suggested_mode"`
	Entities      map[string]any `json:"extracted_entities"`
}

// Classifier 意图分类接口。路由策略只依赖这个契约，
// 便于将来替换为向量相似度等实现。
type Classifier interface {
	Classify(text string) Decision
}

// 三路信号的权重：关键词 0.3、短语正则 0.4、领域关键词 0.3
const (
	keywordWeight = 0.3
	phraseWeight  = 0.4
	domainWeight  = 0.3
)

// 信号饱和点：命中数达到饱和点即记满分，再多不加分
const (
	keywordSaturation = 3
	phraseSaturation  = 2
	domainSaturation  = 2
)

type pattern struct {
	intent         Intent
	keywords       []string
	phrases        []*regexp.Regexp
	domainKeywords []string
}

func mustPhrases(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// patterns 各意图的信号定义，包级只读。
// 使用有序切片而不是 map，保证平分时的胜者稳定。
var patterns = []pattern{
	{
		intent: IntentAEMCompliance,
		keywords: []string{
			"compliance", "check", "audit", "validate", "accessibility",
			"seo", "performance", "security", "analyze page", "scan",
			"wcag", "a11y", "best practices", "standards",
		},
		phrases: mustPhrases(
			`check.*compliance`, `run.*audit`, `analyze.*page`,
			`compliance.*check`, `audit.*page`, `scan.*page`,
			`validate.*page`, `check.*accessibility`, `seo.*audit`,
		),
		domainKeywords: []string{"aem", "content", "page", "component", "template"},
	},
	{
		intent: IntentAEMQuery,
		keywords: []string{
			"find", "list", "show", "get", "search", "query",
			"pages under", "content under", "browse", "display",
		},
		phrases: mustPhrases(
			`find.*pages`, `list.*pages`, `show.*pages`,
			`get.*pages`, `pages under`, `content under`,
			`search.*content`, `browse.*content`,
		),
		domainKeywords: []string{"aem", "content", "page", "site", "/content"},
	},
	{
		intent: IntentFileUpload,
		keywords: []string{
			"upload", "file", "document", "pdf", "analyze document",
			"read file", "parse", "extract", "document analysis",
		},
		phrases: mustPhrases(
			`analyze.*document`, `read.*file`, `upload.*file`,
			`parse.*document`, `extract.*from`, `review.*document`,
		),
	},
	{
		intent: IntentWebSearch,
		keywords: []string{
			"search web", "google", "find online", "look up",
			"search for", "web search", "internet", "online",
		},
		phrases: mustPhrases(
			`search.*web`, `search.*online`, `find.*online`,
			`look.*up`, `search.*internet`, `google.*for`,
		),
	},
}

var (
	contentPathRe = regexp.MustCompile(`/content[/\w-]*`)
	questionRe    = regexp.MustCompile(`(?i)(what|how|explain|summarize|analyze).*`)
	queryPrefixRe = regexp.MustCompile(`(?i)^(search for|search|find|look up|google)\s+`)
)

// KeywordClassifier 基于关键词与正则的启发式分类器
type KeywordClassifier struct {
	detectThreshold float64
	switchThreshold float64
}

var _ Classifier = (*KeywordClassifier)(nil)

// NewClassifier 创建分类器实例
func NewClassifier(cfg config.IntentConfig) *KeywordClassifier {
	detect := cfg.DetectThreshold
	if detect <= 0 {
		detect = 0.6
	}
	switchTh := cfg.SwitchThreshold
	if switchTh <= 0 {
		switchTh = 0.7
	}
	return &KeywordClassifier{
		detectThreshold: detect,
		switchThreshold: switchTh,
	}
}

// Classify 对输入文本进行意图分类。
// 最高分意图达到检出阈值时返回该意图及其实体；
// 否则回落到闲聊意图，置信度固定为 fallbackConfidence。
func (c *KeywordClassifier) Classify(text string) Decision {
	lowered := strings.ToLower(strings.TrimSpace(text))

	var best Intent
	var bestScore float64
	for _, p := range patterns {
		score := signalScore(lowered, p)
		if score > bestScore {
			best = p.intent
			bestScore = score
		}
	}

	if best != "" && bestScore >= c.detectThreshold {
		return Decision{
			Intent:        best,
			Confidence:    bestScore,
			SuggestedMode: ModeFor(best),
			Entities:      extractEntities(text, lowered, best),
		}
	}

	return Decision{
		Intent:        IntentChat,
		Confidence:    fallbackConfidence,
		SuggestedMode: ModeChat,
		Entities:      map[string]any{},
	}
}

// signalScore 三路信号各自封顶 1.0 后加权求和，总分再封顶 1.0
func signalScore(text string, p pattern) float64 {
	var score float64

	if len(p.keywords) > 0 {
		matches := 0
		for _, kw := range p.keywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		score += capRatio(matches, keywordSaturation) * keywordWeight
	}

	if len(p.phrases) > 0 {
		matches := 0
		for _, re := range p.phrases {
			if re.MatchString(text) {
				matches++
			}
		}
		score += capRatio(matches, phraseSaturation) * phraseWeight
	}

	if len(p.domainKeywords) > 0 {
		matches := 0
		for _, kw := range p.domainKeywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		score += capRatio(matches, domainSaturation) * domainWeight
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func capRatio(matches, saturation int) float64 {
	r := float64(matches) / float64(saturation)
	if r > 1.0 {
		r = 1.0
	}
	return r
}

// extractEntities 按意图提取相关实体
func extractEntities(original, lowered string, intent Intent) map[string]any {
	entities := map[string]any{}

	switch intent {
	case IntentAEMQuery, IntentAEMCompliance:
		if m := contentPathRe.FindString(original); m != "" {
			entities["path"] = m
		}
		if intent == IntentAEMCompliance {
			switch {
			case strings.Contains(lowered, "accessibility") || strings.Contains(lowered, "a11y"):
				entities["categories"] = []string{"accessibility"}
			case strings.Contains(lowered, "seo"):
				entities["categories"] = []string{"seo"}
			case strings.Contains(lowered, "performance"):
				entities["categories"] = []string{"performance"}
			case strings.Contains(lowered, "security"):
				entities["categories"] = []string{"security"}
			}
		}

	case IntentWebSearch:
		query := strings.TrimSpace(original)
		// 反复剥掉开头的指令性前缀，留下真正的查询语句
		for {
			stripped := queryPrefixRe.ReplaceAllString(query, "")
			if stripped == query {
				break
			}
			query = stripped
		}
		entities["query"] = strings.TrimSpace(query)

	case IntentFileUpload:
		if m := questionRe.FindString(original); m != "" {
			entities["question"] = m
		}
	}

	return entities
}

// ModeFor 意图到处理模式的映射
func ModeFor(intent Intent) Mode {
	switch intent {
	case IntentFileUpload:
		return ModeFile
	case IntentWebSearch:
		return ModeWeb
	case IntentAEMQuery, IntentAEMCompliance:
		return ModeAEM
	default:
		return ModeChat
	}
}

// ShouldSwitchMode 判定是否自动切换处理模式：
// 只有置信度达到切换阈值、且目标模式与当前不同时才切换
func (c *KeywordClassifier) ShouldSwitchMode(current Mode, detected Intent, confidence float64) bool {
	if confidence < c.switchThreshold {
		return false
	}
	suggested := ModeFor(detected)
	if current == suggested {
		return false
	}
	switch detected {
	case IntentAEMQuery, IntentAEMCompliance, IntentFileUpload, IntentWebSearch:
		return true
	}
	return false
}

// ModeSuggestionMessage 模式切换的提示文案
func ModeSuggestionMessage(mode Mode) string {
	switch mode {
	case ModeAEM:
		return "It looks like you want to work with AEM. I've switched to AEM mode for you."
	case ModeFile:
		return "It seems you want to analyze a file. Please upload your file to continue."
	case ModeWeb:
		return "I'll search the web for that information."
	case ModeChat:
		return "Let's continue our conversation."
	}
	return ""
}
