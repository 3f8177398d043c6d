package parser

import (
	"regexp"

	"resume-advisor/internal/config"
)

// PatternSet 字段提取使用的一组不可变正则
// 两个命名变体的联系方式正则精度不同，教育与工作年限正则共用
type PatternSet struct {
	name       string
	email      *regexp.Regexp
	phone      *regexp.Regexp
	linkedin   *regexp.Regexp
	github     *regexp.Regexp
	education  *regexp.Regexp
	experience *regexp.Regexp
}

// Name 变体名称
func (p PatternSet) Name() string { return p.name }

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	githubPattern = regexp.MustCompile(`github\.com/[a-zA-Z0-9_-]+`)

	// 第一个分组为学位片段，匹配必须以换行、逗号或句点结束，结束符不计入结果
	educationPattern = regexp.MustCompile(`(?i)((?:B\.?Tech|M\.?Tech|B\.?Sc|M\.?Sc|Bachelor|Master|Ph\.?D)[^\n,.]*)[\n,.]`)

	experiencePattern = regexp.MustCompile(`(?i)(\d+)\+?\s*(?:years|yrs|year)\s*(?:of)?\s*(?:experience)?`)

	primaryPatterns = PatternSet{
		name:       config.VariantPrimary,
		email:      emailPattern,
		phone:      regexp.MustCompile(`(\+91[\-\s]?)?[789]\d{9}`),
		linkedin:   regexp.MustCompile(`https?://(www\.)?linkedin\.com/in/[a-zA-Z0-9_-]+/?`),
		github:     githubPattern,
		education:  educationPattern,
		experience: experiencePattern,
	}

	// 电话正则中的固定号码片段保持原样，作为独立变体保留
	alternatePatterns = PatternSet{
		name:       config.VariantAlternate,
		email:      emailPattern,
		phone:      regexp.MustCompile(`(\+91 9182919149 [\-\s]?)?[6789]\d{9}`),
		linkedin:   regexp.MustCompile(`linkedin\.com/in/[a-zA-Z0-9_-]+`),
		github:     githubPattern,
		education:  educationPattern,
		experience: experiencePattern,
	}
)

// PrimaryPatterns 带协议头的 LinkedIn 链接、以 7/8/9 开头的手机号
func PrimaryPatterns() PatternSet { return primaryPatterns }

// AlternatePatterns 不带协议头的 LinkedIn 片段、以 6-9 开头的手机号
func AlternatePatterns() PatternSet { return alternatePatterns }

// PatternsByName 按名称取变体，未知名称返回 false
func PatternsByName(name string) (PatternSet, bool) {
	switch name {
	case config.VariantPrimary, "":
		return primaryPatterns, true
	case config.VariantAlternate:
		return alternatePatterns, true
	default:
		return PatternSet{}, false
	}
}
