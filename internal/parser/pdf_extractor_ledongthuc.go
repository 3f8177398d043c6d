package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"resume-advisor/internal/logger"
	"resume-advisor/internal/types"
)

// LedongthucExtractor 基于 ledongthuc/pdf 的逐页文本提取器，默认后端
type LedongthucExtractor struct {
	logger zerolog.Logger
}

// NewLedongthucExtractor 创建默认的 PDF 文本提取器
func NewLedongthucExtractor() *LedongthucExtractor {
	return &LedongthucExtractor{logger: logger.Component("pdf.ledongthuc")}
}

// ExtractText 打开文档，按页提取文本，返回拼接后的全文与有效页数
func (e *LedongthucExtractor) ExtractText(ctx context.Context, documentPath string) (text types.RawDocumentText, pages int, err error) {
	start := time.Now()

	// 损坏的文档可能让底层库 panic，统一转换为 DocumentReadError
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = newParseError(documentPath, fmt.Errorf("panic: %v", r))
		}
	}()

	f, reader, openErr := pdf.Open(documentPath)
	if openErr != nil {
		return "", 0, newOpenError(documentPath, openErr)
	}
	defer f.Close()

	total := reader.NumPage()
	if total == 0 {
		return "", 0, newParseError(documentPath, fmt.Errorf("文档不包含任何页面"))
	}

	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", 0, ctxErr
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			e.logger.Warn().Err(pageErr).Int("page", i).Str("path", documentPath).Msg("页面文本提取失败，已跳过")
			continue
		}
		texts = append(texts, content)
	}

	text, pages = joinPages(texts)
	e.logger.Debug().
		Str("path", documentPath).
		Int("pages_total", total).
		Int("pages_with_text", pages).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("PDF文本提取完成")
	return text, pages, nil
}
