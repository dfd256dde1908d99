package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/compliance_radar/pkg/aem"
	"github.com/iWorld-y/compliance_radar/pkg/analyzer"
	"github.com/iWorld-y/compliance_radar/pkg/compliance"
	"github.com/iWorld-y/compliance_radar/pkg/config"
	"github.com/iWorld-y/compliance_radar/pkg/intent"
	"github.com/iWorld-y/compliance_radar/pkg/logger"
	"github.com/iWorld-y/compliance_radar/pkg/rules"
	"github.com/iWorld-y/compliance_radar/pkg/server"
	"github.com/iWorld-y/compliance_radar/pkg/storage"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "compliance_radar"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		stdlog.Fatalf("无法加载配置文件: %v", err)
	}
	if err := rules.Validate(); err != nil {
		stdlog.Fatalf("规则定义校验失败: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		stdlog.Fatalf("无法初始化日志: %v", err)
	}

	// kratos 日志记录器，包含时间戳、调用者信息、服务ID等上下文
	klogger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	ctx := context.Background()

	llmAnalyzer, err := analyzer.NewLLMAnalyzer(ctx, cfg.LLM, cfg.Concurrency)
	if err != nil {
		stdlog.Fatalf("分析器初始化失败: %v", err)
	}
	aemClient := aem.NewClient(cfg.AEM)

	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 审计历史将不可用。", err)
		} else {
			store = s
			defer store.Close()
		}
	}

	evaluator := compliance.NewEvaluator(aemClient, llmAnalyzer, cfg.Concurrency.MaxChecks)
	classifier := intent.NewClassifier(cfg.Intent)
	svc := server.NewAuditService(evaluator, classifier, aemClient, store, cfg, klogger)
	httpSrv := server.NewHTTPServer(cfg.Server, svc)

	app := kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Logger(klogger),
		kratos.Server(httpSrv),
	)

	if err := app.Run(); err != nil {
		stdlog.Fatalf("服务退出: %v", err)
	}
}
