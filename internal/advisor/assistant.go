package advisor

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-advisor/internal/logger"
	"resume-advisor/internal/types"
)

const (
	// AssistantPersona 聊天助手固定的系统指令
	AssistantPersona = "You are an AI career assistant that helps with resume advice, job suggestions, and interview tips."
	// EmptyQuestionReply 问题为空时的固定回复
	EmptyQuestionReply = "Please enter a question."

	chatMaxTokens   = 512
	chatTemperature = 0.7
	chatTopP        = 0.9
)

// ChatAssistant 职业问答助手，失败时返回错误文本而不是 error
type ChatAssistant struct {
	model     model.BaseChatModel
	modelName string
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewChatAssistant 创建问答助手
func NewChatAssistant(chatModel model.BaseChatModel, modelName string, timeout time.Duration) *ChatAssistant {
	return &ChatAssistant{
		model:     chatModel,
		modelName: modelName,
		timeout:   timeout,
		logger:    logger.Component("advisor.chat"),
	}
}

// Ask 回答一个问题
func (a *ChatAssistant) Ask(ctx context.Context, question string) types.ChatReply {
	question = strings.TrimSpace(question)
	if question == "" {
		return types.ChatReply{Answer: EmptyQuestionReply}
	}
	if a.model == nil {
		return types.ChatReply{Answer: "Error: chat model is not configured", Degraded: true}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	opts := []model.Option{
		model.WithMaxTokens(chatMaxTokens),
		model.WithTemperature(chatTemperature),
		model.WithTopP(chatTopP),
	}
	if a.modelName != "" {
		opts = append(opts, model.WithModel(a.modelName))
	}

	msg, err := a.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(AssistantPersona),
		schema.UserMessage(question),
	}, opts...)
	if err != nil {
		a.logger.Warn().Err(err).Msg("聊天助手调用失败")
		return types.ChatReply{Answer: describeFailure(err, "Error: "), Degraded: true}
	}

	return types.ChatReply{Answer: strings.TrimSpace(msg.Content)}
}
