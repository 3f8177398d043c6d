package storage

import (
	"fmt"
	"time"

	"resume-advisor/internal/types"
)

// AnalyzeRequest 分析请求消息
type AnalyzeRequest struct {
	RequestID   string    `json:"request_id"`
	Store       string    `json:"store"`              // local, minio, s3
	ObjectKey   string    `json:"object_key"`         // 存储中的对象路径
	Location    string    `json:"location,omitempty"` // 职位搜索地点，为空时使用默认值
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// Validate 校验必填字段
func (m *AnalyzeRequest) Validate() error {
	if m.RequestID == "" {
		return fmt.Errorf("request_id 不能为空")
	}
	if m.ObjectKey == "" {
		return fmt.Errorf("object_key 不能为空")
	}
	return nil
}

// AnalyzeResult 分析结果消息
type AnalyzeResult struct {
	RequestID string                `json:"request_id"`
	Cached    bool                  `json:"cached"`
	Report    *types.AnalysisReport `json:"report,omitempty"`
	Error     string                `json:"error,omitempty"`
}
