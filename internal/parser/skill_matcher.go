package parser

import (
	"regexp"
	"strings"
)

// defaultSkills 内置技能词表，大小写即规范写法
var defaultSkills = []string{
	"Python", "Java", "C++", "Machine Learning", "Deep Learning", "Data Science",
	"Django", "Flask", "React", "SQL", "MongoDB", "Git", "HTML", "CSS", "JavaScript",
}

// tokenPattern 词边界切分；词内允许 + # 以保留 C++、C#
// 句点只在后跟小写字母或数字时留在词内（Node.js），"Python.Built" 会切成两个词
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}](?:[\p{L}\p{N}+#]|\.[\p{Ll}\p{N}])*`)

// Taxonomy 不可变的技能词表
type Taxonomy struct {
	names []string
	index map[string]struct{}
}

// NewTaxonomy 由规范写法列表构建词表，重复项与空白项被忽略
func NewTaxonomy(names ...string) Taxonomy {
	t := Taxonomy{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := t.index[n]; ok {
			continue
		}
		t.index[n] = struct{}{}
		t.names = append(t.names, n)
	}
	return t
}

// DefaultTaxonomy 返回内置词表
func DefaultTaxonomy() Taxonomy {
	return NewTaxonomy(defaultSkills...)
}

// Names 返回词表副本，顺序与构建时一致
func (t Taxonomy) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Contains 精确（区分大小写）判断是否为词表成员
func (t Taxonomy) Contains(skill string) bool {
	_, ok := t.index[skill]
	return ok
}

// Len 词表大小
func (t Taxonomy) Len() int { return len(t.names) }

// SkillMatcherOption SkillMatcher 的配置项
type SkillMatcherOption func(*SkillMatcher)

// WithPhraseMatching 开启后多词技能按连续词序列匹配；默认关闭，多词技能在正文中不会命中
func WithPhraseMatching(enabled bool) SkillMatcherOption {
	return func(m *SkillMatcher) {
		m.phraseMatching = enabled
	}
}

// SkillMatcher 将文本切分为词并与词表做精确匹配
type SkillMatcher struct {
	taxonomy       Taxonomy
	phraseMatching bool
}

// NewSkillMatcher 创建匹配器，词表在构造时注入
func NewSkillMatcher(taxonomy Taxonomy, opts ...SkillMatcherOption) *SkillMatcher {
	m := &SkillMatcher{taxonomy: taxonomy}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Taxonomy 返回匹配器使用的词表
func (m *SkillMatcher) Taxonomy() Taxonomy { return m.taxonomy }

// MatchSkills 返回在文本中以完整词形出现的词表成员，按词表顺序排列
func (m *SkillMatcher) MatchSkills(text string) []string {
	tokens := Tokenize(text)
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[tok] = struct{}{}
	}

	matched := make([]string, 0)
	for _, skill := range m.taxonomy.names {
		if _, ok := seen[skill]; ok {
			matched = append(matched, skill)
			continue
		}
		if m.phraseMatching {
			if words := strings.Fields(skill); len(words) > 1 && containsSequence(tokens, words) {
				matched = append(matched, skill)
			}
		}
	}
	return matched
}

// Tokenize 按词边界切分文本
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

func containsSequence(tokens, words []string) bool {
	if len(words) == 0 || len(tokens) < len(words) {
		return false
	}
outer:
	for i := 0; i+len(words) <= len(tokens); i++ {
		for j, w := range words {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

// MatchSkills 以默认选项（逐词精确匹配）在给定词表上匹配
func MatchSkills(text string, taxonomy Taxonomy) []string {
	return NewSkillMatcher(taxonomy).MatchSkills(text)
}
