package main

import (
	"context"
	"fmt"
	"time"

	"resume-advisor/internal/advisor"
	"resume-advisor/internal/config"
	"resume-advisor/internal/jobsearch"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/processor"
	"resume-advisor/internal/types"
)

func runExtract(ctx context.Context, cfg *config.Config) error {
	path, cleanup, err := resolveDocument(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := processor.NewFromConfig(ctx, cfg, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	text, pages, err := p.ExtractText(ctx, path)
	if err != nil {
		return err
	}
	logger.Info().Int("pages", pages).Int("chars", len(text)).Dur("elapsed", time.Since(start)).Msg("提取完成")

	display := string(text)
	if *maxLen >= 0 && len([]rune(display)) > *maxLen {
		display = string([]rune(display)[:*maxLen]) + "..."
	}
	if *outputPath != "" {
		return writeJSON(map[string]interface{}{"pages": pages, "text": string(text)})
	}
	fmt.Println(display)
	return nil
}

func runFields(ctx context.Context, cfg *config.Config) error {
	parsed, err := parseDocument(ctx, cfg)
	if err != nil {
		return err
	}
	return writeJSON(parsed.Fields)
}

func runScore(ctx context.Context, cfg *config.Config) error {
	parsed, err := parseDocument(ctx, cfg)
	if err != nil {
		return err
	}
	return writeJSON(map[string]interface{}{
		"score":  parsed.Score,
		"policy": parsed.ScoringPolicy,
	})
}

func parseDocument(ctx context.Context, cfg *config.Config) (*types.ParsedResume, error) {
	path, cleanup, err := resolveDocument(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	p, err := processor.NewFromConfig(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, path)
}

func runAnalyze(ctx context.Context, cfg *config.Config) error {
	path, cleanup, err := resolveDocument(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	guidance, _, err := advisor.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	p, err := processor.NewFromConfig(ctx, cfg, guidance)
	if err != nil {
		return err
	}

	source := path
	if *objectKey != "" && *pdfPath == "" {
		source = *storeName + ":" + *objectKey
	}
	report := p.Analyze(ctx, path, processor.WithLocation(*location), processor.WithSource(source))
	return writeJSON(report)
}

func runChat(ctx context.Context, cfg *config.Config) error {
	_, assistant, err := advisor.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	reply := assistant.Ask(ctx, *question)
	if *outputPath != "" {
		return writeJSON(reply)
	}
	fmt.Println(reply.Answer)
	return nil
}

func runJobs(ctx context.Context, cfg *config.Config) error {
	list := *skills
	if len(list) == 0 {
		parsed, err := parseDocument(ctx, cfg)
		if err != nil {
			return err
		}
		list = parsed.Fields.Skills
	}

	client := jobsearch.NewAdzunaClient(cfg.JobSearch)
	result := client.FetchJobs(ctx, list, *location, cfg.JobSearch.MaxResults)
	if result.Degraded {
		logger.Warn().Str("reason", result.Reason).Msg("职位搜索不可用")
	}
	return writeJSON(result)
}
