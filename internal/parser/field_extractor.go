package parser

import (
	"resume-advisor/internal/types"
)

// FieldExtractor 对全文执行各字段的正则匹配，并调用 SkillMatcher 提取技能
// 提取从不返回错误：未命中的字段保持为空
type FieldExtractor struct {
	patterns PatternSet
	skills   *SkillMatcher
}

// NewFieldExtractor 创建字段提取器，正则集与技能匹配器均在构造时注入
func NewFieldExtractor(patterns PatternSet, skills *SkillMatcher) *FieldExtractor {
	if patterns.email == nil {
		patterns = primaryPatterns
	}
	if skills == nil {
		skills = NewSkillMatcher(DefaultTaxonomy())
	}
	return &FieldExtractor{patterns: patterns, skills: skills}
}

// Patterns 返回当前使用的正则集
func (e *FieldExtractor) Patterns() PatternSet { return e.patterns }

// ExtractFields 从全文提取结构化字段
func (e *FieldExtractor) ExtractFields(text string) types.ExtractedFields {
	fields := types.ExtractedFields{
		Email:       firstMatch(e.patterns.email.FindString(text)),
		Phone:       firstMatch(e.patterns.phone.FindString(text)),
		LinkedInURL: firstMatch(e.patterns.linkedin.FindString(text)),
		Skills:      e.skills.MatchSkills(text),
		Education:   e.education(text),
		Experience:  e.experience(text),
	}

	if handle := e.patterns.github.FindString(text); handle != "" {
		url := "https://" + handle
		fields.GitHubURL = &url
	}
	return fields
}

// education 收集学位片段，按首次出现顺序去重
func (e *FieldExtractor) education(text string) []string {
	matches := e.patterns.education.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		degree := m[1]
		if _, ok := seen[degree]; ok {
			continue
		}
		seen[degree] = struct{}{}
		out = append(out, degree)
	}
	return out
}

// experience 收集所有年限描述，统一格式为 "<N> years"，不去重
func (e *FieldExtractor) experience(text string) []string {
	matches := e.patterns.experience.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		out = append(out, m[1]+" years")
	}
	return out
}

func firstMatch(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
