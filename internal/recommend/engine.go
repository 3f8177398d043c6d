// Package recommend 将技能集合映射为岗位推荐，并委托外部生成建议文本
package recommend

import (
	"context"
	"strings"

	"resume-advisor/internal/types"
)

const (
	// NoMatchRole 技能为空时的唯一角色
	NoMatchRole = "No matching jobs found"
	// NoSkillsGuidance 技能为空时的固定改进提示
	NoSkillsGuidance = "Please add relevant skills to improve your resume."
	// FallbackRole 没有规则命中时的兜底角色
	FallbackRole = "Software Engineer"
)

// SkillSet 小写化后的技能集合
type SkillSet map[string]struct{}

// Has 判断技能是否存在（参数需为小写）
func (s SkillSet) Has(skill string) bool {
	_, ok := s[skill]
	return ok
}

// Rule 一条推荐规则，条件满足时追加 Role
type Rule struct {
	Role  string
	Match func(SkillSet) bool
}

// DefaultRules 固定顺序的推荐规则
func DefaultRules() []Rule {
	return []Rule{
		{Role: "ML Engineer", Match: func(s SkillSet) bool {
			return s.Has("python") && s.Has("machine learning")
		}},
		{Role: "Web Developer", Match: func(s SkillSet) bool {
			return s.Has("web development") || s.Has("django") || s.Has("html")
		}},
		{Role: "Data Analyst", Match: func(s SkillSet) bool {
			return s.Has("data analysis") || s.Has("pandas")
		}},
		{Role: "Backend Developer", Match: func(s SkillSet) bool {
			return s.Has("java") && s.Has("spring")
		}},
	}
}

// GuidanceGenerator 外部建议文本生成器，失败时返回诊断文本而不是错误
type GuidanceGenerator interface {
	GenerateGuidance(ctx context.Context, skills []string, score types.ResumeScore) types.GuidanceResult
}

// Engine 推荐引擎，规则与生成器在构造时注入，之后只读
type Engine struct {
	rules    []Rule
	guidance GuidanceGenerator
}

// Option Engine 配置项
type Option func(*Engine)

// WithRules 替换默认规则
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// NewEngine 创建推荐引擎；guidance 为 nil 时建议文本为空
func NewEngine(guidance GuidanceGenerator, opts ...Option) *Engine {
	e := &Engine{rules: DefaultRules(), guidance: guidance}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecommendRoles 按规则顺序计算角色列表，结果非空且按插入顺序去重
func (e *Engine) RecommendRoles(skills []string) []string {
	if len(skills) == 0 {
		return []string{NoMatchRole}
	}

	set := make(SkillSet, len(skills))
	for _, s := range skills {
		set[strings.ToLower(s)] = struct{}{}
	}

	roles := make([]string, 0, len(e.rules)+1)
	seen := make(map[string]struct{}, len(e.rules))
	for _, rule := range e.rules {
		if !rule.Match(set) {
			continue
		}
		if _, dup := seen[rule.Role]; dup {
			continue
		}
		seen[rule.Role] = struct{}{}
		roles = append(roles, rule.Role)
	}

	if len(roles) == 0 {
		roles = append(roles, FallbackRole)
	}
	return roles
}

// Recommend 计算角色并请求建议文本；技能为空时不调用外部生成器
func (e *Engine) Recommend(ctx context.Context, skills []string, score types.ResumeScore) types.Recommendation {
	if len(skills) == 0 {
		return types.Recommendation{
			Roles:        []string{NoMatchRole},
			GuidanceText: NoSkillsGuidance,
		}
	}

	rec := types.Recommendation{Roles: e.RecommendRoles(skills)}
	if e.guidance != nil {
		g := e.guidance.GenerateGuidance(ctx, skills, score)
		rec.GuidanceText = g.Text
		rec.GuidanceDegraded = g.Degraded
	}
	return rec
}

// RecommendRoles 使用默认规则计算角色列表
func RecommendRoles(skills []string) []string {
	return NewEngine(nil).RecommendRoles(skills)
}
