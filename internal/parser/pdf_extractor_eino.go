package parser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-advisor/internal/logger"
	"resume-advisor/internal/types"
)

// EinoExtractor 使用 Eino PDF Parser 提取文本，按页返回文档
type EinoExtractor struct {
	parser *pdf.PDFParser
	logger zerolog.Logger
}

// NewEinoExtractor 初始化 Eino PDF 文本提取器
// ToPages 必须开启，空白页需要逐页判断后丢弃
func NewEinoExtractor(ctx context.Context) (*EinoExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("创建Eino PDF解析器失败: %w", err)
	}
	return &EinoExtractor{
		parser: p,
		logger: logger.Component("pdf.eino"),
	}, nil
}

// ExtractText 实现 TextExtractor
func (e *EinoExtractor) ExtractText(ctx context.Context, documentPath string) (text types.RawDocumentText, pages int, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = newParseError(documentPath, fmt.Errorf("panic: %v", r))
		}
	}()

	file, openErr := os.Open(documentPath)
	if openErr != nil {
		return "", 0, newOpenError(documentPath, openErr)
	}
	defer file.Close()

	docs, parseErr := e.parser.Parse(ctx, file,
		einoParser.WithURI(documentPath),
		einoParser.WithExtraMeta(map[string]any{"source_file_path": documentPath}),
	)
	if parseErr != nil {
		return "", 0, newParseError(documentPath, parseErr)
	}
	if len(docs) == 0 {
		return "", 0, newParseError(documentPath, fmt.Errorf("解析结果为空"))
	}

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		contents = append(contents, doc.Content)
	}

	text, pages = joinPages(contents)
	e.logger.Debug().
		Str("path", documentPath).
		Int("documents", len(docs)).
		Int("pages_with_text", pages).
		Dur("elapsed", time.Since(start)).
		Msg("PDF文本提取完成")
	return text, pages, nil
}
