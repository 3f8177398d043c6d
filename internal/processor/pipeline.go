// Package processor 串联文本提取、字段提取、评分、推荐和职位搜索
package processor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"resume-advisor/internal/constants"
	"resume-advisor/internal/jobsearch"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/parser"
	"resume-advisor/internal/recommend"
	"resume-advisor/internal/scoring"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/types"
)

// Pipeline 只持有不可变配置和无状态组件，同一个值可以被并发调用
type Pipeline struct {
	extractor       parser.TextExtractor
	fields          *parser.FieldExtractor
	policy          scoring.ScoringPolicy
	recommender     *recommend.Engine
	jobs            jobsearch.Provider
	defaultLocation string
	maxResults      int

	tracer trace.Tracer
	logger zerolog.Logger
}

// Option 流水线组件选项
type Option func(*Pipeline)

// WithTextExtractor 设置文本提取器
func WithTextExtractor(extractor parser.TextExtractor) Option {
	return func(p *Pipeline) {
		p.extractor = extractor
	}
}

// WithFieldExtractor 设置字段提取器
func WithFieldExtractor(fields *parser.FieldExtractor) Option {
	return func(p *Pipeline) {
		p.fields = fields
	}
}

// WithPolicy 设置评分策略
func WithPolicy(policy scoring.ScoringPolicy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithRecommender 设置推荐引擎
func WithRecommender(engine *recommend.Engine) Option {
	return func(p *Pipeline) {
		p.recommender = engine
	}
}

// WithJobSearch 设置职位搜索及其默认地点、结果数
func WithJobSearch(provider jobsearch.Provider, defaultLocation string, maxResults int) Option {
	return func(p *Pipeline) {
		p.jobs = provider
		p.defaultLocation = defaultLocation
		p.maxResults = maxResults
	}
}

// New 创建流水线，未设置的组件使用默认实现
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		tracer: tracing.Tracer("processor"),
		logger: logger.Component("processor.pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.extractor == nil {
		p.extractor = parser.NewLedongthucExtractor()
	}
	if p.fields == nil {
		p.fields = parser.NewFieldExtractor(parser.PrimaryPatterns(), nil)
	}
	if p.policy == nil {
		p.policy = scoring.Primary{}
	}
	if p.recommender == nil {
		p.recommender = recommend.NewEngine(nil)
	}
	return p
}

// PolicyName 当前评分策略名称
func (p *Pipeline) PolicyName() string { return p.policy.Name() }

// ExtractText 只执行文本提取
func (p *Pipeline) ExtractText(ctx context.Context, documentPath string) (types.RawDocumentText, int, error) {
	ctx, span := p.tracer.Start(ctx, "extract_text", trace.WithAttributes(
		attribute.String("document.path", tracing.SafeAttributeValue("document.path", documentPath, tracing.DefaultMaxLength)),
	))
	defer span.End()

	text, pages, err := p.extractor.ExtractText(ctx, documentPath)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDocument)
		return "", 0, err
	}
	span.SetAttributes(attribute.Int("document.pages", pages), attribute.Int("document.chars", len(text)))
	return text, pages, nil
}

// ExtractFields 对已有文本执行字段提取
func (p *Pipeline) ExtractFields(text types.RawDocumentText) types.ExtractedFields {
	return p.fields.ExtractFields(string(text))
}

// Score 按当前策略评分
func (p *Pipeline) Score(fields types.ExtractedFields) types.ResumeScore {
	return p.policy.Score(fields)
}

// Parse 执行核心流程：提取文本、提取字段、评分
// 文档无法读取时返回 *parser.DocumentReadError
func (p *Pipeline) Parse(ctx context.Context, documentPath string) (*types.ParsedResume, error) {
	ctx, span := p.tracer.Start(ctx, "parse")
	defer span.End()

	text, pages, err := p.ExtractText(ctx, documentPath)
	if err != nil {
		return nil, err
	}

	fields := p.ExtractFields(text)
	score := p.Score(fields)
	span.SetAttributes(attribute.Int("resume.score", int(score)), attribute.Int("resume.skills", len(fields.Skills)))
	p.logger.Debug().
		Str("path", documentPath).
		Int("pages", pages).
		Str("email", tracing.MaskPtr(fields.Email)).
		Int("score", int(score)).
		Str("policy", p.policy.Name()).
		Msg("简历解析完成")

	return &types.ParsedResume{
		Text:          text,
		Pages:         pages,
		Fields:        fields,
		Score:         score,
		ScoringPolicy: p.policy.Name(),
	}, nil
}

// AnalyzeOption 单次分析的参数
type AnalyzeOption func(*analyzeParams)

type analyzeParams struct {
	location string
	source   string
}

// WithLocation 覆盖职位搜索地点
func WithLocation(location string) AnalyzeOption {
	return func(a *analyzeParams) { a.location = location }
}

// WithSource 设置报告中的来源标识，默认为文档路径
func WithSource(source string) AnalyzeOption {
	return func(a *analyzeParams) { a.source = source }
}

// Analyze 执行完整分析，总是返回可展示的报告
// 文档不可读时报告字段为空、评分为0，并带上空技能时的提示
func (p *Pipeline) Analyze(ctx context.Context, documentPath string, opts ...AnalyzeOption) *types.AnalysisReport {
	params := analyzeParams{location: p.defaultLocation, source: documentPath}
	for _, opt := range opts {
		opt(&params)
	}
	if params.location == "" {
		params.location = p.defaultLocation
	}

	ctx, span := p.tracer.Start(ctx, "analyze")
	defer span.End()

	report := &types.AnalysisReport{
		ReportID:      newReportID(),
		Source:        params.source,
		ScoringPolicy: p.policy.Name(),
		StageTimings:  make(map[string]time.Duration),
		CreatedAt:     time.Now(),
		Jobs:          types.JobSearchResult{Postings: []types.JobPosting{}},
	}
	span.SetAttributes(
		attribute.String("report.id", report.ReportID),
		attribute.String("report.source", tracing.SafeAttributeValue("report.source", params.source, tracing.DefaultMaxLength)),
		attribute.String("job.location", tracing.SafeAttributeValue("job.location", params.location, tracing.DefaultMaxLength)),
	)
	log := p.logger.With().Str("report_id", report.ReportID).Str("source", tracing.TruncateString(params.source, tracing.DefaultMaxLength)).Logger()

	start := time.Now()
	text, _, err := p.ExtractText(ctx, documentPath)
	report.StageTimings[constants.StageExtract] = time.Since(start)
	if err != nil {
		log.Warn().Err(err).Msg("简历文档无法读取，返回空报告")
		report.DocumentError = err.Error()
		report.Fields = types.ExtractedFields{Skills: []string{}, Education: []string{}, Experience: []string{}}
		report.Recommendation = p.recommender.Recommend(ctx, nil, 0)
		return report
	}
	if sum, err := FileMD5(documentPath); err == nil {
		report.FileMD5 = sum
	}

	start = time.Now()
	_, fspan := p.tracer.Start(ctx, "extract_fields")
	report.Fields = p.ExtractFields(text)
	fspan.SetAttributes(attribute.Int("resume.skills", len(report.Fields.Skills)))
	fspan.End()
	report.StageTimings[constants.StageFields] = time.Since(start)

	start = time.Now()
	_, sspan := p.tracer.Start(ctx, "score")
	report.Score = p.Score(report.Fields)
	sspan.SetAttributes(attribute.String("score.policy", p.policy.Name()), attribute.Int("resume.score", int(report.Score)))
	sspan.End()
	report.StageTimings[constants.StageScore] = time.Since(start)
	log.Debug().
		Str("email", tracing.MaskPtr(report.Fields.Email)).
		Str("phone", tracing.MaskPtr(report.Fields.Phone)).
		Int("education", len(report.Fields.Education)).
		Int("experience", len(report.Fields.Experience)).
		Msg("字段提取完成")

	skills := report.Fields.Skills

	// 建议生成和职位搜索互不依赖，并行执行；两者都以降级代替报错
	var recTime, jobsTime time.Duration
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s := time.Now()
		rctx, rspan := p.tracer.Start(gctx, "recommend")
		defer rspan.End()
		report.Recommendation = p.recommender.Recommend(rctx, skills, report.Score)
		if report.Recommendation.GuidanceDegraded {
			tracing.RecordDegraded(rspan, tracing.ErrorTypeLLM, report.Recommendation.GuidanceText)
		}
		recTime = time.Since(s)
		return nil
	})
	if p.jobs != nil {
		g.Go(func() error {
			s := time.Now()
			jctx, jspan := p.tracer.Start(gctx, "job_search")
			defer jspan.End()
			report.Jobs = p.jobs.FetchJobs(jctx, skills, params.location, p.maxResults)
			if report.Jobs.Degraded {
				tracing.RecordDegraded(jspan, tracing.ErrorTypeJobSearch, report.Jobs.Reason)
			}
			jobsTime = time.Since(s)
			return nil
		})
	}
	_ = g.Wait()
	report.StageTimings[constants.StageRecommend] = recTime
	if p.jobs != nil {
		report.StageTimings[constants.StageJobs] = jobsTime
	}

	span.SetAttributes(attribute.Int("resume.score", int(report.Score)), attribute.Int("jobs.count", len(report.Jobs.Postings)))
	log.Info().
		Int("score", int(report.Score)).
		Int("skills", len(skills)).
		Strs("roles", report.Recommendation.Roles).
		Int("jobs", len(report.Jobs.Postings)).
		Msg("简历分析完成")
	return report
}

// FileMD5 计算文件内容的MD5
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("计算文件MD5失败: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func newReportID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}
