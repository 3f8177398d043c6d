package processor

import (
	"context"
	"fmt"

	"resume-advisor/internal/config"
	"resume-advisor/internal/jobsearch"
	"resume-advisor/internal/parser"
	"resume-advisor/internal/recommend"
	"resume-advisor/internal/scoring"
)

// NewFromConfig 按配置组装流水线；guidance 为 nil 时推荐只给出角色
func NewFromConfig(ctx context.Context, cfg *config.Config, guidance recommend.GuidanceGenerator) (*Pipeline, error) {
	extractor, err := parser.NewTextExtractor(ctx, cfg.Parser.Backend)
	if err != nil {
		return nil, err
	}

	patterns, ok := parser.PatternsByName(cfg.Parser.Patterns)
	if !ok {
		return nil, fmt.Errorf("未知的字段匹配变体: %q", cfg.Parser.Patterns)
	}

	taxonomy := parser.DefaultTaxonomy()
	if len(cfg.Parser.Skills) > 0 {
		taxonomy = parser.NewTaxonomy(cfg.Parser.Skills...)
	}
	matcher := parser.NewSkillMatcher(taxonomy, parser.WithPhraseMatching(cfg.Parser.PhraseMatching))

	policy, err := scoring.PolicyByName(cfg.Scoring.Policy)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithTextExtractor(extractor),
		WithFieldExtractor(parser.NewFieldExtractor(patterns, matcher)),
		WithPolicy(policy),
		WithRecommender(recommend.NewEngine(guidance)),
	}
	if cfg.JobSearch.AppID != "" && cfg.JobSearch.AppKey != "" {
		opts = append(opts, WithJobSearch(
			jobsearch.NewAdzunaClient(cfg.JobSearch),
			cfg.JobSearch.DefaultLocation,
			cfg.JobSearch.MaxResults,
		))
	}
	return New(opts...), nil
}
