package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse MockChatModel 的单次响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatModel 测试用的 model.ToolCallingChatModel，并发安全
type MockChatModel struct {
	mu        sync.Mutex
	responses []MockResponse
	index     int
	calls     []MockCall
}

// MockCall 记录一次调用收到的消息与选项
type MockCall struct {
	Messages []*schema.Message
	Options  *model.Options
}

var _ model.ToolCallingChatModel = (*MockChatModel)(nil)

// NewMockChatModel 每次调用都返回同一个响应
func NewMockChatModel(content string, err error) *MockChatModel {
	return &MockChatModel{responses: []MockResponse{{Content: content, Error: err}}}
}

// NewMockChatModelSequential 依次返回给定响应，用完后重复最后一个
func NewMockChatModelSequential(responses ...MockResponse) *MockChatModel {
	if len(responses) == 0 {
		responses = []MockResponse{{Error: errors.New("mock model has no responses configured")}}
	}
	return &MockChatModel{responses: responses}
}

// Generate 实现 model.ChatModel
func (m *MockChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	received := make([]*schema.Message, len(input))
	copy(received, input)
	m.calls = append(m.calls, MockCall{
		Messages: received,
		Options:  model.GetCommonOptions(&model.Options{}, opts...),
	})

	resp := m.responses[min(m.index, len(m.responses)-1)]
	m.index++
	if resp.Error != nil {
		return nil, resp.Error
	}
	return schema.AssistantMessage(resp.Content, nil), nil
}

// Stream 以单条消息的流返回
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools 返回自身
func (m *MockChatModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// Calls 返回所有调用记录
func (m *MockChatModel) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 调用次数
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
