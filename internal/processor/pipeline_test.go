package processor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"resume-advisor/internal/advisor"
	"resume-advisor/internal/config"
	"resume-advisor/internal/constants"
	"resume-advisor/internal/parser"
	"resume-advisor/internal/recommend"
	"resume-advisor/internal/scoring"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/types"
)

const sampleResume = "John Doe\n" +
	"john.doe@example.com\n" +
	"+91 9876543210\n" +
	"https://linkedin.com/in/johndoe\n" +
	"Skills: Python, Django\n" +
	"3 years of experience in backend work\n"

// fakeExtractor 返回固定文本或错误
type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText(ctx context.Context, path string) (types.RawDocumentText, int, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	return types.RawDocumentText(f.text), 1, nil
}

type mockGuidance struct {
	mock.Mock
}

func (m *mockGuidance) GenerateGuidance(ctx context.Context, skills []string, score types.ResumeScore) types.GuidanceResult {
	args := m.Called(skills, score)
	return args.Get(0).(types.GuidanceResult)
}

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) FetchJobs(ctx context.Context, skills []string, location string, maxResults int) types.JobSearchResult {
	args := m.Called(skills, location, maxResults)
	return args.Get(0).(types.JobSearchResult)
}

func writeTempDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse_EndToEnd(t *testing.T) {
	p := New(WithTextExtractor(fakeExtractor{text: sampleResume}))

	parsed, err := p.Parse(context.Background(), "resume.pdf")
	require.NoError(t, err)

	f := parsed.Fields
	require.NotNil(t, f.Email)
	assert.Equal(t, "john.doe@example.com", *f.Email)
	require.NotNil(t, f.Phone)
	assert.Equal(t, "+91 9876543210", *f.Phone)
	require.NotNil(t, f.LinkedInURL)
	assert.Equal(t, "https://linkedin.com/in/johndoe", *f.LinkedInURL)
	assert.Nil(t, f.GitHubURL)
	assert.ElementsMatch(t, []string{"Python", "Django"}, f.Skills)
	assert.Empty(t, f.Education)
	assert.Equal(t, []string{"3 years"}, f.Experience)

	assert.Equal(t, types.ResumeScore(64), parsed.Score)
	assert.Equal(t, "primary", parsed.ScoringPolicy)
	assert.Equal(t, 1, parsed.Pages)
}

func TestParse_ReturnsDocumentReadError(t *testing.T) {
	p := New()
	path := writeTempDoc(t, "this is not a pdf")

	parsed, err := p.Parse(context.Background(), path)
	assert.Nil(t, parsed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrDocumentRead))

	var docErr *parser.DocumentReadError
	assert.True(t, errors.As(err, &docErr))
}

func TestAnalyze_UnreadableDocumentDegrades(t *testing.T) {
	guidance := new(mockGuidance)
	jobs := new(mockJobs)
	p := New(
		WithRecommender(recommend.NewEngine(guidance)),
		WithJobSearch(jobs, "India", 5),
	)
	path := writeTempDoc(t, "garbage")

	report := p.Analyze(context.Background(), path)
	require.NotNil(t, report)

	assert.NotEmpty(t, report.DocumentError)
	assert.Nil(t, report.Fields.Email)
	assert.Empty(t, report.Fields.Skills)
	assert.Equal(t, types.ResumeScore(0), report.Score)
	assert.Equal(t, []string{recommend.NoMatchRole}, report.Recommendation.Roles)
	assert.Equal(t, recommend.NoSkillsGuidance, report.Recommendation.GuidanceText)
	assert.Empty(t, report.Jobs.Postings)
	assert.Contains(t, report.StageTimings, constants.StageExtract)

	data, err := json.Marshal(report.Fields)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":null,"phone":null,"linkedin_url":null,"github_url":null,"skills":[],"education":[],"experience":[]}`, string(data))

	guidance.AssertNotCalled(t, "GenerateGuidance", mock.Anything, mock.Anything)
	jobs.AssertNotCalled(t, "FetchJobs", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyze_FullReport(t *testing.T) {
	guidance := new(mockGuidance)
	guidance.On("GenerateGuidance", []string{"Python", "Django"}, types.ResumeScore(64)).
		Return(types.GuidanceResult{Text: "Learn cloud deployment."}).Once()

	jobs := new(mockJobs)
	jobs.On("FetchJobs", []string{"Python", "Django"}, "Pune", 3).
		Return(types.JobSearchResult{Postings: []types.JobPosting{{Title: "Python Developer", Company: "Acme"}}}).Once()

	p := New(
		WithTextExtractor(fakeExtractor{text: sampleResume}),
		WithRecommender(recommend.NewEngine(guidance)),
		WithJobSearch(jobs, "India", 3),
	)
	path := writeTempDoc(t, "pdf bytes")

	report := p.Analyze(context.Background(), path, WithLocation("Pune"), WithSource("bucket/cv.pdf"))

	assert.Empty(t, report.DocumentError)
	assert.Equal(t, "bucket/cv.pdf", report.Source)
	assert.Equal(t, types.ResumeScore(64), report.Score)
	assert.Equal(t, []string{"Web Developer"}, report.Recommendation.Roles)
	assert.Equal(t, "Learn cloud deployment.", report.Recommendation.GuidanceText)
	require.Len(t, report.Jobs.Postings, 1)
	assert.Equal(t, "Acme", report.Jobs.Postings[0].Company)

	sum, err := FileMD5(path)
	require.NoError(t, err)
	assert.Equal(t, sum, report.FileMD5)

	id, err := uuid.FromString(report.ReportID)
	require.NoError(t, err)
	assert.Equal(t, byte(7), id.Version())

	for _, stage := range []string{constants.StageExtract, constants.StageFields, constants.StageScore, constants.StageRecommend, constants.StageJobs} {
		assert.Contains(t, report.StageTimings, stage)
	}

	guidance.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestAnalyze_DegradedCollaboratorsStillReport(t *testing.T) {
	guidance := new(mockGuidance)
	guidance.On("GenerateGuidance", mock.Anything, mock.Anything).
		Return(types.GuidanceResult{Text: "API Error: rate limited", Degraded: true})
	jobs := new(mockJobs)
	jobs.On("FetchJobs", mock.Anything, "India", 5).
		Return(types.JobSearchResult{Postings: []types.JobPosting{}, Degraded: true, Reason: "http_500"})

	p := New(
		WithTextExtractor(fakeExtractor{text: sampleResume}),
		WithRecommender(recommend.NewEngine(guidance)),
		WithJobSearch(jobs, "India", 5),
	)
	report := p.Analyze(context.Background(), writeTempDoc(t, "x"))

	assert.Equal(t, types.ResumeScore(64), report.Score)
	assert.True(t, report.Recommendation.GuidanceDegraded)
	assert.Equal(t, "API Error: rate limited", report.Recommendation.GuidanceText)
	assert.True(t, report.Jobs.Degraded)
	assert.Empty(t, report.Jobs.Postings)
}

func TestAnalyze_NoSkillsSkipsGuidance(t *testing.T) {
	guidance := new(mockGuidance)
	p := New(
		WithTextExtractor(fakeExtractor{text: "Jane\njane@example.org\n"}),
		WithRecommender(recommend.NewEngine(guidance)),
	)
	report := p.Analyze(context.Background(), writeTempDoc(t, "x"))

	assert.Equal(t, types.ResumeScore(10), report.Score)
	assert.Equal(t, []string{recommend.NoMatchRole}, report.Recommendation.Roles)
	assert.Equal(t, recommend.NoSkillsGuidance, report.Recommendation.GuidanceText)
	assert.NotContains(t, report.StageTimings, constants.StageJobs)
	guidance.AssertNotCalled(t, "GenerateGuidance", mock.Anything, mock.Anything)
}

func TestAnalyze_AlternatePolicy(t *testing.T) {
	p := New(
		WithTextExtractor(fakeExtractor{text: sampleResume}),
		WithFieldExtractor(parser.NewFieldExtractor(parser.AlternatePatterns(), nil)),
		WithPolicy(scoring.Alternate{}),
	)
	parsed, err := p.Parse(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "alternate", parsed.ScoringPolicy)
	require.NotNil(t, parsed.Fields.LinkedInURL)
	assert.Equal(t, "linkedin.com/in/johndoe", *parsed.Fields.LinkedInURL)
}

func TestAnalyze_Concurrent(t *testing.T) {
	p := New(WithTextExtractor(fakeExtractor{text: sampleResume}))
	path := writeTempDoc(t, "x")

	var wg sync.WaitGroup
	reports := make([]*types.AnalysisReport, 16)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i] = p.Analyze(context.Background(), path)
		}(i)
	}
	wg.Wait()

	ids := map[string]bool{}
	for _, r := range reports {
		assert.Equal(t, types.ResumeScore(64), r.Score)
		ids[r.ReportID] = true
	}
	assert.Len(t, ids, len(reports), "每份报告的ID应唯一")
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scoring.Policy = "alternate"
	cfg.Parser.Patterns = "alternate"
	cfg.Parser.Skills = []string{"Go", "Kubernetes"}

	p, err := NewFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "alternate", p.PolicyName())
	assert.Nil(t, p.jobs, "未配置 Adzuna 凭据时不启用职位搜索")

	cfg.Scoring.Policy = "weighted"
	_, err = NewFromConfig(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg.Scoring.Policy = ""
	cfg.Parser.Backend = "tika"
	_, err = NewFromConfig(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, parser.ErrUnknownBackend)
}

func TestAnalyze_DefaultConfigWithoutAPIKey(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "")
	t.Setenv("ADZUNA_APP_ID", "")
	t.Setenv("ADZUNA_APP_KEY", "")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logger:\n  level: info\n"), 0o644))
	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	require.Equal(t, config.LLMProviderTogether, cfg.LLM.Provider)

	guidance, _, err := advisor.NewFromConfig(context.Background(), cfg)
	require.NoError(t, err, "缺少密钥不应阻止启动")
	p, err := NewFromConfig(context.Background(), cfg, guidance)
	require.NoError(t, err)
	p.extractor = fakeExtractor{text: sampleResume}

	report := p.Analyze(context.Background(), writeTempDoc(t, "x"))
	require.NotNil(t, report)
	assert.Empty(t, report.DocumentError)
	assert.Equal(t, types.ResumeScore(64), report.Score)
	assert.Equal(t, []string{"Web Developer"}, report.Recommendation.Roles)
	assert.True(t, report.Recommendation.GuidanceDegraded)
	assert.Equal(t, "API Error: missing API key", report.Recommendation.GuidanceText)
}

func TestAnalyze_SpanAttributesAreBounded(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	p := New(WithTextExtractor(fakeExtractor{text: sampleResume}))
	p.tracer = tp.Tracer("test")

	source := "uploads/" + strings.Repeat("a", 500) + ".pdf"
	p.Analyze(context.Background(), writeTempDoc(t, "x"), WithSource(source))

	var found bool
	for _, s := range recorder.Ended() {
		if s.Name() != "analyze" {
			continue
		}
		for _, kv := range s.Attributes() {
			if kv.Key == "report.source" {
				found = true
				assert.LessOrEqual(t, len(kv.Value.AsString()), tracing.DefaultMaxLength)
				assert.True(t, strings.HasPrefix(kv.Value.AsString(), "uploads/"))
			}
		}
	}
	assert.True(t, found, "analyze span 应包含 report.source")
}
