package main

import (
	"context"
	"flag"
	"log"

	"github.com/iWorld-y/compliance_radar/pkg/aem"
	"github.com/iWorld-y/compliance_radar/pkg/analyzer"
	"github.com/iWorld-y/compliance_radar/pkg/compliance"
	"github.com/iWorld-y/compliance_radar/pkg/config"
	"github.com/iWorld-y/compliance_radar/pkg/logger"
	"github.com/iWorld-y/compliance_radar/pkg/rules"
	"github.com/iWorld-y/compliance_radar/pkg/storage"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if len(cfg.Pages) == 0 {
		log.Fatal("配置错误: 未设置待检查的页面 (pages)")
	}
	if err := rules.Validate(); err != nil {
		log.Fatalf("规则定义校验失败: %v", err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Infof("启动合规雷达，共 %d 个页面，%d 条检查规则", len(cfg.Pages), rules.TotalChecks())

	ctx := context.Background()

	// 3. 初始化数据库连接（可选）
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 本次运行结果将不会保存。", err)
		} else {
			store = s
			defer store.Close()
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过数据库连接")
	}

	// 4. 初始化分析器与 AEM 客户端
	llmAnalyzer, err := analyzer.NewLLMAnalyzer(ctx, cfg.LLM, cfg.Concurrency)
	if err != nil {
		logger.Log.Fatalf("分析器初始化失败: %v", err)
	}
	aemClient := aem.NewClient(cfg.AEM)

	// 5. 批量执行检查
	evaluator := compliance.NewEvaluator(aemClient, llmAnalyzer, cfg.Concurrency.MaxChecks)
	results := evaluator.CheckPages(ctx, cfg.Pages, cfg.Categories, 0)

	for _, res := range results {
		logger.WithPage(res.PagePath).Infof("得分 %.2f (%s)，问题 %d 个 (高 %d / 中 %d / 低 %d)",
			res.OverallScore, res.Grade, res.TotalIssues,
			res.HighPriorityIssues, res.MediumPriorityIssues, res.LowPriorityIssues)
	}

	// 6. 汇总并保存
	summary := compliance.Summarize(results, cfg.Compliance.PassThreshold)
	logger.Log.Infof("检查完成: %d 个页面，平均分 %.2f，通过 %d / 未通过 %d，问题总数 %d",
		summary.TotalPages, summary.AverageScore,
		summary.PagesPassed, summary.PagesFailed, summary.TotalIssues)

	if store != nil {
		runID, err := store.SaveRun(results, summary)
		if err != nil {
			logger.Log.Errorf("保存审计运行失败: %v", err)
		} else {
			logger.Log.Infof("✅ 审计结果已保存 (run_id=%d)", runID)
		}
	}
}
