package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/tracing"
)

// 命令行参数定义
var (
	configPath = pflag.StringP("config", "c", "", "配置文件路径，为空时自动查找")
	command    = pflag.String("cmd", "analyze", "执行的命令: extract, fields, score, analyze, chat, jobs, init-config")
	pdfPath    = pflag.String("pdf", "", "本地PDF简历路径")
	storeName  = pflag.String("store", "local", "存储后端: local, minio, s3")
	objectKey  = pflag.String("key", "", "存储中的对象路径，与 --store 一起使用")
	policy     = pflag.String("policy", "", "评分策略: primary, alternate (覆盖配置)")
	patterns   = pflag.String("patterns", "", "字段匹配变体: primary, alternate (覆盖配置)")
	question   = pflag.StringP("question", "q", "", "chat 命令的问题")
	location   = pflag.String("location", "", "职位搜索地点")
	skills     = pflag.StringSlice("skills", nil, "jobs 命令使用的技能，逗号分隔；为空时从简历提取")
	maxResults = pflag.Int("max-results", 0, "职位搜索结果数上限")
	outputPath = pflag.StringP("output", "o", "", "结果写入的文件，为空时输出到标准输出")
	maxLen     = pflag.Int("maxlen", 1000, "extract 命令显示的文本最大长度，-1 显示全部")
)

func main() {
	pflag.Parse()

	// init-config 不依赖已有配置
	if *command == "init-config" {
		if err := runInitConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "生成示例配置失败: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)

	logger.InitWithWriter(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	}, os.Stderr)

	shutdown, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn().Err(err).Msg("初始化链路追踪失败，继续运行")
	} else {
		defer shutdown(context.Background())
	}

	switch *command {
	case "extract":
		err = runExtract(ctx, cfg)
	case "fields":
		err = runFields(ctx, cfg)
	case "score":
		err = runScore(ctx, cfg)
	case "analyze":
		err = runAnalyze(ctx, cfg)
	case "chat":
		err = runChat(ctx, cfg)
	case "jobs":
		err = runJobs(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "错误: 未知命令 '%s'。支持的命令: extract, fields, score, analyze, chat, jobs, init-config\n", *command)
		pflag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error().Err(err).Str("cmd", *command).Msg("命令执行失败")
		os.Exit(1)
	}
}

func applyFlagOverrides(cfg *config.Config) {
	if *policy != "" {
		cfg.Scoring.Policy = *policy
	}
	if *patterns != "" {
		cfg.Parser.Patterns = *patterns
	}
	if *maxResults > 0 {
		cfg.JobSearch.MaxResults = *maxResults
	}
}

// runInitConfig 写出示例配置，路径取 --output，默认 ./config.yaml；不覆盖已有文件
func runInitConfig() error {
	path := *outputPath
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("文件已存在: %s", path)
	}
	if err := config.CreateSampleConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "示例配置已写入 %s\n", path)
	return nil
}
