package aem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/compliance_radar/pkg/compliance"
	"github.com/iWorld-y/compliance_radar/pkg/config"
	"github.com/iWorld-y/compliance_radar/pkg/model"
)

// Ensure Client implements compliance.ContentProvider
var _ compliance.ContentProvider = (*Client)(nil)

// Client AEM 实例的 HTTP 客户端，使用 Basic Auth 访问
type Client struct {
	host     string
	username string
	password string
	client   *http.Client
}

// NewClient 创建一个新的 AEM 客户端
func NewClient(cfg config.AEMConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		host:     strings.TrimSuffix(cfg.Host, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetPageContent 抓取页面 HTML，并用 readability 提取标题和摘要。
// 非 200 状态码和网络错误都以 error 返回，由上层决定降级方式。
func (c *Client) GetPageContent(ctx context.Context, pagePath string) (*model.PageContent, error) {
	pageURL := c.host + pagePath + ".html"

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "text/html")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status code %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	html := string(body)

	content := &model.PageContent{
		Path:  pagePath,
		Title: fallbackTitle(pagePath),
		HTML:  html,
	}

	// readability 提取标题与 meta 描述；解析失败不影响返回原始 HTML
	if u, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(html), u); err == nil {
			if article.Title != "" {
				content.Title = article.Title
			}
			content.Description = article.Excerpt
		}
	}

	return content, nil
}

// queryBuilderResponse QueryBuilder API 响应结构
type queryBuilderResponse struct {
	Success bool              `json:"success"`
	Total   int               `json:"total"`
	Hits    []queryBuilderHit `json:"hits"`
}

type queryBuilderHit struct {
	Path    string           `json:"jcr:path"`
	Content *queryHitContent `json:"jcr:content"`
}

type queryHitContent struct {
	Title        string `json:"jcr:title"`
	Template     string `json:"cq:template"`
	LastModified string `json:"cq:lastModified"`
}

// QueryOptions 页面查询选项
type QueryOptions struct {
	Depth            int
	IncludeTemplates []string
	ExcludeTemplates []string
}

// QueryPages 通过 QueryBuilder API 列出指定路径下的 cq:Page 节点
func (c *Client) QueryPages(ctx context.Context, rootPath string, opts QueryOptions) ([]model.PageInfo, error) {
	if rootPath == "" {
		rootPath = "/content"
	}
	if opts.Depth <= 0 {
		opts.Depth = 3
	}

	u, err := url.Parse(c.host + "/bin/querybuilder.json")
	if err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	q := u.Query()
	q.Set("path", rootPath)
	q.Set("type", "cq:Page")
	q.Set("p.limit", "-1")
	q.Set("p.hits", "full")
	q.Set("p.guessTotal", "true")
	q.Set("1_property", "jcr:content/jcr:title")
	q.Set("1_property.operation", "exists")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("querybuilder error (status %d): %s", res.StatusCode, string(body))
	}

	var qbResp queryBuilderResponse
	if err := json.NewDecoder(res.Body).Decode(&qbResp); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}

	include := make(map[string]bool, len(opts.IncludeTemplates))
	for _, t := range opts.IncludeTemplates {
		include[t] = true
	}
	exclude := make(map[string]bool, len(opts.ExcludeTemplates))
	for _, t := range opts.ExcludeTemplates {
		exclude[t] = true
	}

	var pages []model.PageInfo
	for _, hit := range qbResp.Hits {
		if hit.Path == "" {
			continue
		}
		// 按深度过滤
		depth := strings.Count(hit.Path, "/") - strings.Count(rootPath, "/")
		if depth > opts.Depth {
			continue
		}

		var title, template, lastMod string
		if hit.Content != nil {
			title = hit.Content.Title
			template = hit.Content.Template
			lastMod = hit.Content.LastModified
		}
		if len(include) > 0 && !include[template] {
			continue
		}
		if exclude[template] {
			continue
		}
		if title == "" {
			title = fallbackTitle(hit.Path)
		}

		pages = append(pages, model.PageInfo{
			Path:         hit.Path,
			Title:        title,
			LastModified: lastMod,
			Template:     template,
		})
	}

	return pages, nil
}

// PageExists 检查页面是否存在
func (c *Client) PageExists(ctx context.Context, pagePath string) bool {
	req, err := http.NewRequestWithContext(ctx, "HEAD", c.host+pagePath+".html", nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth(c.username, c.password)

	res, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK
}

// CheckHealth 检查 AEM 实例是否可达。401/403 说明服务在线但需要认证，也视为健康。
func (c *Client) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", c.host+"/libs/granite/core/content/login.html", nil)
	if err != nil {
		return false
	}

	res, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// fallbackTitle 用路径末段充当标题
func fallbackTitle(pagePath string) string {
	parts := strings.Split(strings.TrimSuffix(pagePath, "/"), "/")
	return parts[len(parts)-1]
}
