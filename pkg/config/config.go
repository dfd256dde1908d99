package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	AEM         AEMConfig         `yaml:"aem"`
	Pages       []string          `yaml:"pages"`      // 批量检查的页面路径
	Categories  []string          `yaml:"categories"` // 限定检查的类别，空为全量
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Compliance  ComplianceConfig  `yaml:"compliance"`
	Intent      IntentConfig      `yaml:"intent"`
	DB          DBConfig          `yaml:"db"`
	Server      ServerConfig      `yaml:"server"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// AEMConfig AEM 实例相关配置
type AEMConfig struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  int    `yaml:"timeout"` // 秒
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	MaxChecks int `yaml:"max_checks"` // 页面检查的最大并发数
	QPS       int `yaml:"qps"`
	RPM       int `yaml:"rpm"`
}

// ComplianceConfig 合规检查相关配置
type ComplianceConfig struct {
	// PassThreshold 汇总统计中页面判定通过的分数线。
	// 与 Grade 的 C 档下界同为 70，但属于两个独立的策略开关。
	PassThreshold float64 `yaml:"pass_threshold"`
}

// IntentConfig 意图识别相关配置
type IntentConfig struct {
	DetectThreshold float64 `yaml:"detect_threshold"` // 意图命中的最低置信度
	SwitchThreshold float64 `yaml:"switch_threshold"` // 自动切换模式的最低置信度
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ServerConfig HTTP 服务相关配置
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	Timeout  string `yaml:"timeout"`
}

// LoadConfig 从指定路径加载配置并填充默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config failed: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AEM.Host == "" {
		c.AEM.Host = "http://localhost:4502"
	}
	if c.AEM.Username == "" {
		c.AEM.Username = "admin"
	}
	if c.AEM.Timeout <= 0 {
		c.AEM.Timeout = 30
	}
	if c.Concurrency.MaxChecks <= 0 {
		c.Concurrency.MaxChecks = 5
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 2
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Compliance.PassThreshold <= 0 {
		c.Compliance.PassThreshold = 70.0
	}
	if c.Intent.DetectThreshold <= 0 {
		c.Intent.DetectThreshold = 0.6
	}
	if c.Intent.SwitchThreshold <= 0 {
		c.Intent.SwitchThreshold = 0.7
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8000"
	}
}
