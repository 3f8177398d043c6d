package types

import "time"

// RawDocumentText 按页提取后以换行拼接的简历全文
type RawDocumentText string

// ExtractedFields 从简历文本中提取的结构化字段
// 可选字段未匹配时为 nil，集合字段未匹配时为空切片
type ExtractedFields struct {
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	LinkedInURL *string  `json:"linkedin_url"`
	GitHubURL   *string  `json:"github_url"`
	Skills      []string `json:"skills"`     // 仅包含词表成员，已去重
	Education   []string `json:"education"`  // 原始匹配片段，已去重
	Experience  []string `json:"experience"` // 形如 "3 years"，保留重复与出现顺序
}

// HasEmail 等为评分策略提供的存在性判断
func (f ExtractedFields) HasEmail() bool    { return present(f.Email) }
func (f ExtractedFields) HasPhone() bool    { return present(f.Phone) }
func (f ExtractedFields) HasLinkedIn() bool { return present(f.LinkedInURL) }
func (f ExtractedFields) HasGitHub() bool   { return present(f.GitHubURL) }

func present(s *string) bool {
	return s != nil && *s != ""
}

// ResumeScore 完整度评分，取值 [0,100]
type ResumeScore int

// Recommendation 岗位推荐结果
type Recommendation struct {
	Roles            []string `json:"roles"`
	GuidanceText     string   `json:"guidance_text"`
	GuidanceDegraded bool     `json:"guidance_degraded,omitempty"`
}

// JobPosting 职位搜索返回的单条职位
type JobPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	ApplyLink   string `json:"apply_link"`
}

// JobSearchResult 职位搜索结果，失败时 Postings 为空且 Degraded 为 true
type JobSearchResult struct {
	Postings []JobPosting `json:"postings"`
	Degraded bool         `json:"degraded,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// GuidanceResult 建议文本生成结果，失败时 Text 为诊断字符串
type GuidanceResult struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded,omitempty"`
}

// ChatReply 聊天助手回答，失败时 Answer 为错误字符串
type ChatReply struct {
	Answer   string `json:"answer"`
	Degraded bool   `json:"degraded,omitempty"`
}

// ParsedResume 核心流水线（提取、字段、评分）的产物
type ParsedResume struct {
	Text          RawDocumentText `json:"-"`
	Pages         int             `json:"pages"`
	Fields        ExtractedFields `json:"fields"`
	Score         ResumeScore     `json:"score"`
	ScoringPolicy string          `json:"scoring_policy"`
}

// AnalysisReport 一次完整分析的结果，始终可以直接展示给用户
type AnalysisReport struct {
	ReportID       string                   `json:"report_id"`
	Source         string                   `json:"source"`
	FileMD5        string                   `json:"file_md5,omitempty"`
	Fields         ExtractedFields          `json:"fields"`
	Score          ResumeScore              `json:"score"`
	ScoringPolicy  string                   `json:"scoring_policy"`
	Recommendation Recommendation           `json:"recommendation"`
	Jobs           JobSearchResult          `json:"jobs"`
	DocumentError  string                   `json:"document_error,omitempty"`
	StageTimings   map[string]time.Duration `json:"stage_timings,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}
