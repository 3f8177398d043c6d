package worker

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage = errors.New("无效的分析请求")
	ErrUnknownStore   = errors.New("未知的存储后端")
	ErrFetchFailed    = errors.New("获取简历文件失败")
	ErrPublishFailed  = errors.New("发布分析结果失败")
)

// TaskError 包含请求ID和失败步骤的错误
type TaskError struct {
	RequestID string
	Op        string
	BaseErr   error
	Detail    string
}

func (e *TaskError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 请求:%s): %s", e.BaseErr, e.Op, e.RequestID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 请求:%s)", e.BaseErr, e.Op, e.RequestID)
}

func (e *TaskError) Unwrap() error {
	return e.BaseErr
}

func newTaskError(requestID, op string, base error, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &TaskError{RequestID: requestID, Op: op, BaseErr: base, Detail: detail}
}
