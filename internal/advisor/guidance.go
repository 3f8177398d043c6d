// Package advisor 基于聊天模型的职业建议与问答助手
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-advisor/internal/logger"
	"resume-advisor/internal/types"
	"resume-advisor/pkg/agent"
)

const (
	guidanceMaxTokens   = 200
	guidanceTemperature = 0.7
	guidanceTopP        = 0.9
)

const guidancePromptTemplate = `
A user has the following skills: %s.
Their resume score is %d/100.

Provide a personalized career guidance message for the user (not just job roles). The message should include:
- Analysis of their strengths
- Career path suggestions
- Recommended next steps (e.g., courses, projects, certifications)
- Encouragement based on current tech trends

Write it as a short personalized message, not a list.
`

// GuidanceGenerator 根据技能与评分生成职业建议，失败时返回诊断文本
type GuidanceGenerator struct {
	model     model.BaseChatModel
	modelName string
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewGuidanceGenerator modelName 为空时使用模型客户端自身的默认模型
func NewGuidanceGenerator(chatModel model.BaseChatModel, modelName string, timeout time.Duration) *GuidanceGenerator {
	return &GuidanceGenerator{
		model:     chatModel,
		modelName: modelName,
		timeout:   timeout,
		logger:    logger.Component("advisor.guidance"),
	}
}

// BuildGuidancePrompt 生成发送给模型的提示
func BuildGuidancePrompt(skills []string, score types.ResumeScore) string {
	return fmt.Sprintf(guidancePromptTemplate, strings.Join(skills, ", "), int(score))
}

// GenerateGuidance 实现 recommend.GuidanceGenerator
func (g *GuidanceGenerator) GenerateGuidance(ctx context.Context, skills []string, score types.ResumeScore) types.GuidanceResult {
	if g.model == nil {
		return types.GuidanceResult{Text: "Exception: guidance model is not configured", Degraded: true}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	opts := []model.Option{
		model.WithMaxTokens(guidanceMaxTokens),
		model.WithTemperature(guidanceTemperature),
		model.WithTopP(guidanceTopP),
	}
	if g.modelName != "" {
		opts = append(opts, model.WithModel(g.modelName))
	}

	msg, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(BuildGuidancePrompt(skills, score))}, opts...)
	if err != nil {
		g.logger.Warn().Err(err).Int("skills", len(skills)).Msg("生成职业建议失败")
		return types.GuidanceResult{Text: describeFailure(err, "Exception: "), Degraded: true}
	}

	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return types.GuidanceResult{Text: "Exception: empty completion", Degraded: true}
	}
	return types.GuidanceResult{Text: text}
}

// describeFailure 接口错误返回 "API Error: <body>"，其余错误加上给定前缀
func describeFailure(err error, otherPrefix string) string {
	var apiErr *agent.APIError
	if errors.As(err, &apiErr) {
		return "API Error: " + apiErr.Body
	}
	return otherPrefix + err.Error()
}
