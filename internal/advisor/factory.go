package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
	"resume-advisor/pkg/agent"
	"resume-advisor/pkg/ratelimit"
)

// NewChatModel 按配置创建带限流的聊天模型；provider 为 none 时返回 nil
func NewChatModel(ctx context.Context, cfg *config.Config, modelName string) (model.ToolCallingChatModel, error) {
	var (
		base model.ToolCallingChatModel
		err  error
	)

	switch cfg.LLM.Provider {
	case config.LLMProviderNone:
		return nil, nil
	case config.LLMProviderGemini:
		base, err = agent.NewGeminiChatModel(ctx, cfg.LLM.APIKey, modelName)
	case config.LLMProviderTogether, "":
		base, err = agent.NewTogetherChatModel(cfg.LLM.APIKey, modelName, cfg.LLM.APIURL, cfg.LLMTimeout())
	default:
		return nil, fmt.Errorf("未知的LLM提供方: %s", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}

	return ratelimit.NewLLMWithRateLimit(
		base,
		modelName,
		cfg.LLM.ModelQPMLimits,
		cfg.LLM.QPM,
		cfg.LLM.MaxRetries,
		time.Duration(cfg.LLM.RetryWaitSeconds)*time.Second,
	), nil
}

// NewFromConfig 同时创建建议生成器与问答助手
// 缺少 API 密钥时不中断，生成器与助手的每次调用都返回 "API Error: missing API key"
func NewFromConfig(ctx context.Context, cfg *config.Config) (*GuidanceGenerator, *ChatAssistant, error) {
	guidanceModel, err := newModelOrUnavailable(ctx, cfg, cfg.LLM.GuidanceModel)
	if err != nil {
		return nil, nil, fmt.Errorf("创建建议生成模型失败: %w", err)
	}
	chatModel, err := newModelOrUnavailable(ctx, cfg, cfg.LLM.ChatModel)
	if err != nil {
		return nil, nil, fmt.Errorf("创建问答模型失败: %w", err)
	}

	timeout := cfg.LLMTimeout()
	return NewGuidanceGenerator(guidanceModel, cfg.LLM.GuidanceModel, timeout),
		NewChatAssistant(chatModel, cfg.LLM.ChatModel, timeout), nil
}

func newModelOrUnavailable(ctx context.Context, cfg *config.Config, modelName string) (model.BaseChatModel, error) {
	m, err := NewChatModel(ctx, cfg, modelName)
	if errors.Is(err, agent.ErrMissingAPIKey) {
		logger.Warn().Str("provider", cfg.LLM.Provider).Str("model", modelName).Msg("未配置LLM API密钥，职业建议与问答将返回错误文本")
		return unavailableModel{reason: agent.ErrMissingAPIKey.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	if m == nil {
		// provider 为 none
		return nil, nil
	}
	return m, nil
}

// unavailableModel 无法调用接口时的占位模型，每次调用都返回 APIError
type unavailableModel struct {
	reason string
}

func (u unavailableModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return nil, &agent.APIError{StatusCode: http.StatusUnauthorized, Body: u.reason}
}

func (u unavailableModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, &agent.APIError{StatusCode: http.StatusUnauthorized, Body: u.reason}
}
