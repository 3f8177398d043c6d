package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `John Doe
john.doe@example.com | +91 9876543210
https://www.linkedin.com/in/john-doe/
github.com/johndoe
B.Tech in Computer Science, IIT Delhi.
Skills: Python, Django, SQL, Git
3 years of experience in backend development. Previously 2 yrs at a startup.
`

func TestExtractFields_OnlyEmail(t *testing.T) {
	ex := NewFieldExtractor(PrimaryPatterns(), nil)
	fields := ex.ExtractFields("Contact me at john.doe@example.com anytime")

	require.NotNil(t, fields.Email)
	assert.Equal(t, "john.doe@example.com", *fields.Email)
	assert.Nil(t, fields.Phone)
	assert.Nil(t, fields.LinkedInURL)
	assert.Nil(t, fields.GitHubURL)
	assert.Empty(t, fields.Skills)
	assert.Empty(t, fields.Education)
	assert.Empty(t, fields.Experience)
}

func TestExtractFields_EmptyText(t *testing.T) {
	for _, patterns := range []PatternSet{PrimaryPatterns(), AlternatePatterns()} {
		t.Run(patterns.Name(), func(t *testing.T) {
			fields := NewFieldExtractor(patterns, nil).ExtractFields("")
			assert.Nil(t, fields.Email)
			assert.Nil(t, fields.Phone)
			assert.Nil(t, fields.LinkedInURL)
			assert.Nil(t, fields.GitHubURL)
			assert.NotNil(t, fields.Skills)
			assert.Empty(t, fields.Skills)
			assert.Empty(t, fields.Education)
			assert.Empty(t, fields.Experience)
		})
	}
}

func TestExtractFields_PrimaryFullResume(t *testing.T) {
	fields := NewFieldExtractor(PrimaryPatterns(), nil).ExtractFields(sampleResume)

	require.NotNil(t, fields.Email)
	assert.Equal(t, "john.doe@example.com", *fields.Email)
	require.NotNil(t, fields.Phone)
	assert.Equal(t, "+91 9876543210", *fields.Phone)
	require.NotNil(t, fields.LinkedInURL)
	assert.Equal(t, "https://www.linkedin.com/in/john-doe/", *fields.LinkedInURL)
	require.NotNil(t, fields.GitHubURL)
	assert.Equal(t, "https://github.com/johndoe", *fields.GitHubURL)

	assert.Equal(t, []string{"Python", "Django", "SQL", "Git"}, fields.Skills)
	assert.Equal(t, []string{"B.Tech in Computer Science"}, fields.Education)
	assert.Equal(t, []string{"3 years", "2 years"}, fields.Experience)
}

func TestExtractFields_AlternateVariant(t *testing.T) {
	fields := NewFieldExtractor(AlternatePatterns(), nil).ExtractFields(sampleResume)

	require.NotNil(t, fields.LinkedInURL)
	assert.Equal(t, "linkedin.com/in/john-doe", *fields.LinkedInURL, "备用变体不带协议头")
	require.NotNil(t, fields.Phone)
	assert.Equal(t, "9876543210", *fields.Phone, "备用变体的前缀分组带固定号码，普通 +91 前缀不会被包含")
	require.NotNil(t, fields.GitHubURL)
	assert.Equal(t, "https://github.com/johndoe", *fields.GitHubURL)
}

func TestPhonePatterns_Diverge(t *testing.T) {
	testCases := []struct {
		name      string
		text      string
		primary   string
		alternate string
	}{
		{"以9开头", "call 9123456789", "9123456789", "9123456789"},
		{"以6开头仅备用命中", "call 6123456789", "", "6123456789"},
		{"带连字符国家码", "call +91-8123456789", "+91-8123456789", "8123456789"},
		{"以5开头均不命中", "call 5123456789", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewFieldExtractor(PrimaryPatterns(), nil).ExtractFields(tc.text)
			a := NewFieldExtractor(AlternatePatterns(), nil).ExtractFields(tc.text)
			assert.Equal(t, tc.primary, deref(p.Phone))
			assert.Equal(t, tc.alternate, deref(a.Phone))
		})
	}
}

func TestExtractFields_FirstMatchWins(t *testing.T) {
	fields := NewFieldExtractor(PrimaryPatterns(), nil).ExtractFields("a@one.com then b@two.org")
	require.NotNil(t, fields.Email)
	assert.Equal(t, "a@one.com", *fields.Email)
}

func TestExtractFields_LinkedInRequiresSchemeInPrimary(t *testing.T) {
	text := "profile: linkedin.com/in/jane"
	assert.Nil(t, NewFieldExtractor(PrimaryPatterns(), nil).ExtractFields(text).LinkedInURL)
	assert.Equal(t, "linkedin.com/in/jane", deref(NewFieldExtractor(AlternatePatterns(), nil).ExtractFields(text).LinkedInURL))
}

func TestEducation(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{"逗号结束", "M.Tech in AI, IISc", []string{"M.Tech in AI"}},
		{"大小写不敏感", "bachelor of arts\n", []string{"bachelor of arts"}},
		{"博士", "Ph.D. in Physics", []string{"Ph.D"}},
		{"去重", "BSc Maths, BSc Maths, MSc Stats.", []string{"BSc Maths", "MSc Stats"}},
		{"无结束符不命中", "Master of Science", []string{}},
		{"多个学位", "B.Sc Physics\nM.Sc Chemistry\n", []string{"B.Sc Physics", "M.Sc Chemistry"}},
	}

	ex := NewFieldExtractor(PrimaryPatterns(), nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ex.ExtractFields(tc.text).Education)
		})
	}
}

func TestExperience(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{"完整短语", "5 years of experience", []string{"5 years"}},
		{"加号与缩写", "10+ yrs building APIs", []string{"10 years"}},
		{"单数", "1 year", []string{"1 years"}},
		{"保留重复与顺序", "2 years here, 4 Years there, 2 years again", []string{"2 years", "4 years", "2 years"}},
		{"无数字", "many years", []string{}},
	}

	ex := NewFieldExtractor(PrimaryPatterns(), nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ex.ExtractFields(tc.text).Experience)
		})
	}
}

func TestPatternsByName(t *testing.T) {
	p, ok := PatternsByName("primary")
	require.True(t, ok)
	assert.Equal(t, "primary", p.Name())

	p, ok = PatternsByName("alternate")
	require.True(t, ok)
	assert.Equal(t, "alternate", p.Name())

	_, ok = PatternsByName("strict")
	assert.False(t, ok)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
