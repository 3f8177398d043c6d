package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ReportModulePrefix 分析报告模块
	ReportModulePrefix = "report"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"

	// EntityAnalysis 分析报告实体
	EntityAnalysis = "analysis"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"

	// KeyAnalysisReport 按文件MD5与职位搜索地点缓存的分析报告 (STRING, JSON)
	// 格式: app:report:analysis:{md5}:{location}
	KeyAnalysisReport = AppPrefix + ":" + ReportModulePrefix + ":" + EntityAnalysis + ":%s:%s"

	// DefaultLocationKey 请求未指定地点时使用的键段
	DefaultLocationKey = "_default"

	// KeyFileMD5Set 已分析文件的MD5集合 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet
)
