package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentRead 文档无法打开或不是合法的 PDF
	ErrDocumentRead = errors.New("读取简历文档失败")
	// ErrUnknownBackend 配置了不存在的解析后端
	ErrUnknownBackend = errors.New("未知的PDF解析后端")
)

// DocumentReadError 文档读取失败的详细错误，对本次流水线调用是致命的
type DocumentReadError struct {
	Path    string
	Op      string // open, parse, page
	BaseErr error
	Detail  string
}

func (e *DocumentReadError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 路径:%s): %s", ErrDocumentRead, e.Op, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 路径:%s)", ErrDocumentRead, e.Op, e.Path)
}

func (e *DocumentReadError) Unwrap() error {
	return e.BaseErr
}

// Is 让 errors.Is(err, ErrDocumentRead) 对所有 DocumentReadError 成立
func (e *DocumentReadError) Is(target error) bool {
	return target == ErrDocumentRead || errors.Is(e.BaseErr, target)
}

func newOpenError(path string, err error) error {
	return &DocumentReadError{Path: path, Op: "open", BaseErr: err, Detail: errDetail(err)}
}

func newParseError(path string, err error) error {
	return &DocumentReadError{Path: path, Op: "parse", BaseErr: err, Detail: errDetail(err)}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
