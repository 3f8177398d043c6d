package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"resume-advisor/internal/logger"
)

const defaultGeminiModelName = "gemini-2.0-flash"

// GeminiChatModel 基于 google.golang.org/genai 的聊天模型
type GeminiChatModel struct {
	client    *genai.Client
	modelName string
	logger    zerolog.Logger
}

var _ model.ToolCallingChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel 创建 Gemini 客户端
func NewGeminiChatModel(ctx context.Context, apiKey, modelName string) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空: %w", ErrMissingAPIKey)
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultGeminiModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Gemini客户端失败: %w", err)
	}

	return &GeminiChatModel{
		client:    client,
		modelName: modelName,
		logger:    logger.Component("llm.gemini"),
	}, nil
}

// Generate 系统消息转为 SystemInstruction，其余消息按角色映射为 user/model
func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	opts := model.GetCommonOptions(&model.Options{Model: &g.modelName}, options...)

	modelName := g.modelName
	if opts.Model != nil && *opts.Model != "" {
		modelName = *opts.Model
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:   opts.Temperature,
		TopP:          opts.TopP,
		StopSequences: opts.Stop,
	}
	if opts.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*opts.MaxTokens)
	}

	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			systemParts = append(systemParts, m.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(systemParts) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(systemParts, "\n"), genai.RoleUser)
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("没有可发送的消息")
	}

	result, err := g.client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("Gemini生成失败: %w", err)
	}

	text := result.Text()
	g.logger.Debug().Str("model", modelName).Int("chars", len(text)).Msg("收到Gemini响应")
	return schema.AssistantMessage(text, nil), nil
}

// Stream 以单条消息的流返回完整结果
func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, messages, options...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools 不支持
func (g *GeminiChatModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return nil, ErrToolsUnsupported
}
