package parser

import (
	"context"
	"fmt"
	"strings"

	"resume-advisor/internal/config"
	"resume-advisor/internal/types"
)

// TextExtractor 从 PDF 文档按页提取纯文本
// 无文本的页面被跳过；文档无法打开或解析时返回 *DocumentReadError
type TextExtractor interface {
	ExtractText(ctx context.Context, documentPath string) (types.RawDocumentText, int, error)
}

// NewTextExtractor 根据配置的后端名称构建提取器
func NewTextExtractor(ctx context.Context, backend string) (TextExtractor, error) {
	switch backend {
	case "", config.ParserBackendLedongthuc:
		return NewLedongthucExtractor(), nil
	case config.ParserBackendEino:
		return NewEinoExtractor(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

// joinPages 跳过空白页，用换行拼接其余页面
func joinPages(pages []string) (types.RawDocumentText, int) {
	var sb strings.Builder
	kept := 0
	for _, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		sb.WriteString(p)
		sb.WriteString("\n")
		kept++
	}
	return types.RawDocumentText(sb.String()), kept
}
