package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSkills_CaseSensitiveExactTokens(t *testing.T) {
	taxonomy := NewTaxonomy("Python", "C++")

	assert.Equal(t, []string{"Python", "C++"}, MatchSkills("I know Python and C++ well", taxonomy))
	assert.Empty(t, MatchSkills("I know python", taxonomy))
}

func TestMatchSkills_Punctuation(t *testing.T) {
	taxonomy := NewTaxonomy("Python", "C++", "SQL", "React")

	got := MatchSkills("Skills: Python, C++. (SQL) React/Redux; Pythonic", taxonomy)
	assert.Equal(t, []string{"Python", "C++", "SQL", "React"}, got)
}

func TestMatchSkills_NoSubstringMatches(t *testing.T) {
	taxonomy := NewTaxonomy("Java", "Git")

	assert.Empty(t, MatchSkills("JavaScript developer using GitHub", taxonomy))
}

func TestMatchSkills_MultiWordEntries(t *testing.T) {
	taxonomy := NewTaxonomy("Machine Learning", "Python")
	text := "Python and Machine Learning projects"

	// 逐词匹配下多词技能不会命中
	assert.Equal(t, []string{"Python"}, NewSkillMatcher(taxonomy).MatchSkills(text))

	withPhrases := NewSkillMatcher(taxonomy, WithPhraseMatching(true))
	assert.Equal(t, []string{"Machine Learning", "Python"}, withPhrases.MatchSkills(text))
	assert.Empty(t, withPhrases.MatchSkills("machine learning"), "词组匹配同样区分大小写")
	assert.Empty(t, withPhrases.MatchSkills("Machine and Learning"))
}

func TestMatchSkills_Deduplicated(t *testing.T) {
	got := MatchSkills("Python Python Python", DefaultTaxonomy())
	assert.Equal(t, []string{"Python"}, got)
}

func TestMatchSkills_OnlyTaxonomyMembers(t *testing.T) {
	taxonomy := DefaultTaxonomy()
	for _, skill := range MatchSkills(sampleResume+" Rust Kotlin HTML CSS JavaScript", taxonomy) {
		assert.True(t, taxonomy.Contains(skill), "%s 不在词表中", skill)
	}
}

func TestTaxonomy(t *testing.T) {
	taxonomy := NewTaxonomy("Go", " ", "Go", "Rust")
	assert.Equal(t, 2, taxonomy.Len())
	assert.Equal(t, []string{"Go", "Rust"}, taxonomy.Names())

	names := taxonomy.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"Go", "Rust"}, taxonomy.Names(), "Names 返回副本")

	assert.Equal(t, 15, DefaultTaxonomy().Len())
	assert.True(t, DefaultTaxonomy().Contains("C++"))
	assert.False(t, DefaultTaxonomy().Contains("python"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"C++", "C#", "Node.js", "is", "fun"}, Tokenize("C++, C#; Node.js is fun."))
	assert.Empty(t, Tokenize(" ,.; "))
	assert.Equal(t, []string{"Python", "Built", "v3.11"}, Tokenize("Python.Built v3.11."))
}

func TestMatchSkills_GluedSentences(t *testing.T) {
	// PDF 提取的文本常丢失句点后的空格
	got := MatchSkills("Worked in Python.Built services with Django", DefaultTaxonomy())
	assert.Equal(t, []string{"Python", "Django"}, got)

	got = MatchSkills("Shipped React.Used SQL daily.Git for versioning", DefaultTaxonomy())
	assert.Equal(t, []string{"React", "SQL", "Git"}, got)
}
