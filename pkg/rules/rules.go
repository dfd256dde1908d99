package rules

import (
	"fmt"

	"github.com/iWorld-y/compliance_radar/pkg/model"
)

// Check 单条合规检查规则定义
type Check struct {
	ID          string
	Name        string
	Description string
	Severity    model.Severity
	Weight      float64
	Prompt      string
}

// Category 一组带权重的相关检查规则
type Category struct {
	Key    string
	Name   string
	Weight float64
	Checks []Check
}

// taxonomy 全量规则定义。启动时加载一次，所有并发检查只读共享。
// 类别顺序是稳定的，不使用 map 以保证遍历顺序。
var taxonomy = []Category{
	{
		Key:    "accessibility",
		Name:   "Accessibility Compliance",
		Weight: 0.25,
		Checks: []Check{
			{
				ID:          "alt_text",
				Name:        "Image Alt Text",
				Description: "All images must have descriptive alt text",
				Severity:    model.SeverityHigh,
				Weight:      0.3,
				Prompt:      "Check if all images in this HTML have alt text attributes. List any images missing alt text.",
			},
			{
				ID:          "heading_hierarchy",
				Name:        "Heading Hierarchy",
				Description: "Headings must follow proper hierarchy (h1, h2, h3, etc.)",
				Severity:    model.SeverityHigh,
				Weight:      0.25,
				Prompt:      "Analyze the heading structure. Are headings in proper hierarchy? List any issues.",
			},
			{
				ID:          "aria_labels",
				Name:        "ARIA Labels",
				Description: "Interactive elements should have ARIA labels",
				Severity:    model.SeverityMedium,
				Weight:      0.2,
				Prompt:      "Check if buttons, links, and interactive elements have appropriate ARIA labels.",
			},
			{
				ID:          "color_contrast",
				Name:        "Color Contrast",
				Description: "Text should have sufficient color contrast",
				Severity:    model.SeverityMedium,
				Weight:      0.15,
				Prompt:      "Review inline styles and classes for potential color contrast issues.",
			},
			{
				ID:          "keyboard_navigation",
				Name:        "Keyboard Navigation",
				Description: "All interactive elements should be keyboard accessible",
				Severity:    model.SeverityHigh,
				Weight:      0.1,
				Prompt:      "Check if interactive elements have tabindex or are naturally keyboard accessible.",
			},
		},
	},
	{
		Key:    "seo",
		Name:   "SEO Best Practices",
		Weight: 0.2,
		Checks: []Check{
			{
				ID:          "title_tag",
				Name:        "Title Tag",
				Description: "Page must have a unique, descriptive title tag",
				Severity:    model.SeverityHigh,
				Weight:      0.3,
				Prompt:      "Does this page have a title tag? Is it descriptive and under 60 characters?",
			},
			{
				ID:          "meta_description",
				Name:        "Meta Description",
				Description: "Page should have a meta description",
				Severity:    model.SeverityHigh,
				Weight:      0.25,
				Prompt:      "Check for meta description tag. Is it present and under 160 characters?",
			},
			{
				ID:          "h1_tag",
				Name:        "H1 Tag",
				Description: "Page should have exactly one H1 tag",
				Severity:    model.SeverityMedium,
				Weight:      0.2,
				Prompt:      "How many H1 tags are on this page? There should be exactly one.",
			},
			{
				ID:          "canonical_url",
				Name:        "Canonical URL",
				Description: "Page should have a canonical URL",
				Severity:    model.SeverityLow,
				Weight:      0.15,
				Prompt:      "Is there a canonical link tag present?",
			},
			{
				ID:          "image_optimization",
				Name:        "Image Optimization",
				Description: "Images should have appropriate format and size",
				Severity:    model.SeverityMedium,
				Weight:      0.1,
				Prompt:      "Review image tags for lazy loading attributes and appropriate formats.",
			},
		},
	},
	{
		Key:    "performance",
		Name:   "Performance Optimization",
		Weight: 0.2,
		Checks: []Check{
			{
				ID:          "script_async",
				Name:        "Async Scripts",
				Description: "Scripts should be loaded asynchronously when possible",
				Severity:    model.SeverityMedium,
				Weight:      0.3,
				Prompt:      "Check script tags. Are they using async or defer attributes?",
			},
			{
				ID:          "css_inline",
				Name:        "Inline CSS",
				Description: "Critical CSS should be inline, non-critical external",
				Severity:    model.SeverityLow,
				Weight:      0.2,
				Prompt:      "Analyze CSS loading. Is there excessive inline CSS?",
			},
			{
				ID:          "lazy_loading",
				Name:        "Lazy Loading",
				Description: "Images below fold should use lazy loading",
				Severity:    model.SeverityMedium,
				Weight:      0.25,
				Prompt:      "Are images using loading=\"lazy\" attribute?",
			},
			{
				ID:          "resource_hints",
				Name:        "Resource Hints",
				Description: "Use preload, prefetch for critical resources",
				Severity:    model.SeverityLow,
				Weight:      0.15,
				Prompt:      "Check for link rel=\"preload\" or rel=\"prefetch\" tags.",
			},
			{
				ID:          "compression",
				Name:        "Resource Compression",
				Description: "Resources should be compressed",
				Severity:    model.SeverityMedium,
				Weight:      0.1,
				Prompt:      "Review if inline scripts/styles appear minified.",
			},
		},
	},
	{
		Key:    "security",
		Name:   "Security Headers",
		Weight: 0.15,
		Checks: []Check{
			{
				ID:          "csp",
				Name:        "Content Security Policy",
				Description: "Page should have CSP meta tag",
				Severity:    model.SeverityHigh,
				Weight:      0.3,
				Prompt:      "Is there a Content-Security-Policy meta tag?",
			},
			{
				ID:          "external_links",
				Name:        "External Links Security",
				Description: "External links should have rel=\"noopener noreferrer\"",
				Severity:    model.SeverityMedium,
				Weight:      0.25,
				Prompt:      "Check external links for rel=\"noopener noreferrer\" attributes.",
			},
			{
				ID:          "form_validation",
				Name:        "Form Validation",
				Description: "Forms should have proper validation",
				Severity:    model.SeverityHigh,
				Weight:      0.2,
				Prompt:      "Review forms for validation attributes and security measures.",
			},
			{
				ID:          "https_resources",
				Name:        "HTTPS Resources",
				Description: "All resources should load over HTTPS",
				Severity:    model.SeverityHigh,
				Weight:      0.15,
				Prompt:      "Check if all src/href attributes use HTTPS URLs.",
			},
			{
				ID:          "input_sanitization",
				Name:        "Input Sanitization",
				Description: "User inputs should be sanitized",
				Severity:    model.SeverityHigh,
				Weight:      0.1,
				Prompt:      "Review if there are any potential XSS vulnerabilities in the code.",
			},
		},
	},
	{
		Key:    "content_quality",
		Name:   "Content Quality",
		Weight: 0.1,
		Checks: []Check{
			{
				ID:          "broken_links",
				Name:        "Broken Links",
				Description: "No broken or empty links",
				Severity:    model.SeverityMedium,
				Weight:      0.3,
				Prompt:      "Identify any links with empty href or href=\"#\".",
			},
			{
				ID:          "duplicate_content",
				Name:        "Duplicate Content",
				Description: "Avoid duplicate text blocks",
				Severity:    model.SeverityLow,
				Weight:      0.2,
				Prompt:      "Check for repeated paragraphs or content blocks.",
			},
			{
				ID:          "readability",
				Name:        "Content Readability",
				Description: "Content should be clear and well-structured",
				Severity:    model.SeverityLow,
				Weight:      0.25,
				Prompt:      "Assess paragraph length and sentence structure for readability.",
			},
			{
				ID:          "language_tag",
				Name:        "Language Tag",
				Description: "HTML should have lang attribute",
				Severity:    model.SeverityMedium,
				Weight:      0.15,
				Prompt:      "Does the HTML tag have a lang attribute?",
			},
			{
				ID:          "content_structure",
				Name:        "Content Structure",
				Description: "Content should use semantic HTML",
				Severity:    model.SeverityLow,
				Weight:      0.1,
				Prompt:      "Review use of semantic tags like article, section, nav, aside.",
			},
		},
	},
	{
		Key:    "aem_specific",
		Name:   "AEM Best Practices",
		Weight: 0.1,
		Checks: []Check{
			{
				ID:          "component_structure",
				Name:        "Component Structure",
				Description: "AEM components should follow best practices",
				Severity:    model.SeverityMedium,
				Weight:      0.3,
				Prompt:      "Review data-cq-* attributes and component structure.",
			},
			{
				ID:          "clientlibs",
				Name:        "Client Libraries",
				Description: "Proper use of AEM clientlibs",
				Severity:    model.SeverityLow,
				Weight:      0.25,
				Prompt:      "Check for proper clientlib categories and dependencies.",
			},
			{
				ID:          "edit_mode",
				Name:        "Edit Mode Config",
				Description: "Components should have edit configurations",
				Severity:    model.SeverityLow,
				Weight:      0.2,
				Prompt:      "Look for cq:editConfig or related AEM authoring configurations.",
			},
			{
				ID:          "responsive_grid",
				Name:        "Responsive Grid",
				Description: "Use AEM responsive grid system",
				Severity:    model.SeverityLow,
				Weight:      0.15,
				Prompt:      "Check for responsive grid classes and breakpoints.",
			},
			{
				ID:          "sling_models",
				Name:        "Sling Models",
				Description: "Efficient use of Sling models",
				Severity:    model.SeverityLow,
				Weight:      0.1,
				Prompt:      "Review data-sly-use for efficient model usage.",
			},
		},
	},
}

// All 返回全量规则。返回的切片是共享的，调用方不可修改。
func All() []Category {
	return taxonomy
}

// Get 按类别 key 查找规则，未找到时返回 false
func Get(key string) (Category, bool) {
	for _, c := range taxonomy {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// Filter 按给定的类别 key 过滤规则，保持定义顺序。
// 未知的 key 会被静默忽略；keys 为空时返回全量规则。
func Filter(keys []string) []Category {
	if len(keys) == 0 {
		return taxonomy
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []Category
	for _, c := range taxonomy {
		if want[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// TotalChecks 所有类别的检查项总数
func TotalChecks() int {
	total := 0
	for _, c := range taxonomy {
		total += len(c.Checks)
	}
	return total
}

// Validate 校验规则定义的完整性：权重必须为正，严重程度必须在闭集内，
// 类别内检查 ID 不可重复。在启动阶段调用一次。
func Validate() error {
	seenCat := make(map[string]bool)
	for _, c := range taxonomy {
		if c.Key == "" {
			return fmt.Errorf("category with empty key")
		}
		if seenCat[c.Key] {
			return fmt.Errorf("duplicate category key: %s", c.Key)
		}
		seenCat[c.Key] = true
		if c.Weight <= 0 || c.Weight > 1 {
			return fmt.Errorf("category %s: weight %v out of range (0,1]", c.Key, c.Weight)
		}
		seenCheck := make(map[string]bool)
		for _, ck := range c.Checks {
			if ck.ID == "" {
				return fmt.Errorf("category %s: check with empty id", c.Key)
			}
			if seenCheck[ck.ID] {
				return fmt.Errorf("category %s: duplicate check id: %s", c.Key, ck.ID)
			}
			seenCheck[ck.ID] = true
			if ck.Weight <= 0 {
				return fmt.Errorf("category %s: check %s: weight must be positive", c.Key, ck.ID)
			}
			switch ck.Severity {
			case model.SeverityHigh, model.SeverityMedium, model.SeverityLow:
			default:
				return fmt.Errorf("category %s: check %s: unknown severity %q", c.Key, ck.ID, ck.Severity)
			}
			if ck.Prompt == "" {
				return fmt.Errorf("category %s: check %s: empty prompt", c.Key, ck.ID)
			}
		}
	}
	return nil
}
