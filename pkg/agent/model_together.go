package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-advisor/internal/logger"
)

const (
	// Together 的 OpenAI 兼容接口
	defaultTogetherAPIURL    = "https://api.together.xyz/v1/chat/completions"
	defaultTogetherModelName = "mistralai/Mistral-7B-Instruct-v0.1"
)

// ErrToolsUnsupported 当前模型实现不支持工具调用
var ErrToolsUnsupported = errors.New("该模型不支持工具调用")

// ErrMissingAPIKey 未配置 API 密钥
var ErrMissingAPIKey = errors.New("missing API key")

// APIError 接口返回非 2xx 状态码
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("LLM接口返回状态码 %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus 供限流器判断是否可重试
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// TogetherChatModel 实现 model.ToolCallingChatModel，调用 Together 的 chat/completions 接口
type TogetherChatModel struct {
	apiKey     string
	modelName  string
	apiURL     string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ model.ToolCallingChatModel = (*TogetherChatModel)(nil)

// NewTogetherChatModel 创建模型客户端，modelName 与 apiURL 为空时使用默认值
func NewTogetherChatModel(apiKey, modelName, apiURL string, timeout time.Duration) (*TogetherChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空: %w", ErrMissingAPIKey)
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultTogetherModelName
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultTogetherAPIURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &TogetherChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Component("llm.together"),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate 实现 model.ChatModel
func (tc *TogetherChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	opts := model.GetCommonOptions(&model.Options{Model: &tc.modelName}, options...)

	reqPayload := chatCompletionRequest{
		Model:       tc.modelName,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
		Stop:        opts.Stop,
	}
	if opts.Model != nil && *opts.Model != "" {
		reqPayload.Model = *opts.Model
	}
	for _, m := range messages {
		if m == nil {
			continue
		}
		reqPayload.Messages = append(reqPayload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+tc.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := tc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	tc.logger.Debug().
		Str("model", reqPayload.Model).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("收到LLM响应")

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: httpResp.StatusCode, Body: string(bodyBytes)}
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, fmt.Errorf("反序列化响应失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM响应中没有候选结果")
	}

	choice := resp.Choices[0]
	msg := schema.AssistantMessage(choice.Message.Content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{FinishReason: choice.FinishReason}
	if resp.Usage != nil {
		msg.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return msg, nil
}

// Stream 以单条消息的流返回完整结果
func (tc *TogetherChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := tc.Generate(ctx, messages, options...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools 建议与问答都不需要工具调用
func (tc *TogetherChatModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return nil, ErrToolsUnsupported
}
