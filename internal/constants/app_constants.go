package constants

import "time"

const (
	// ServiceName 服务名，用于日志、trace 和 User-Agent
	ServiceName = "resume-advisor"

	// DefaultReportTTL 分析报告缓存时长
	DefaultReportTTL = 24 * time.Hour

	// 流水线阶段名，用于耗时统计和 span 命名
	StageExtract   = "extract"
	StageFields    = "fields"
	StageScore     = "score"
	StageRecommend = "recommend"
	StageJobs      = "jobs"
)
