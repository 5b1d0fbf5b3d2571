package volc

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Options ChatModel 专有的调用选项
type Options struct {
	JSON bool
}

// WithJSONResponse 要求Ark返回JSON对象，其他chat model实现会忽略该选项
func WithJSONResponse() einomodel.Option {
	return einomodel.WrapImplSpecificOptFn(func(o *Options) {
		o.JSON = true
	})
}

// ChatModel 将 ArkClient 适配为 eino 的 BaseChatModel，可直接作为链节点。
// 非2xx响应以 *APIError 返回
type ChatModel struct {
	client *ArkClient
	model  string
}

func NewChatModel(client *ArkClient, model string) *ChatModel {
	return &ChatModel{client: client, model: model}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	modelName := m.model
	common := einomodel.GetCommonOptions(&einomodel.Options{Model: &modelName}, opts...)
	impl := einomodel.GetImplSpecificOptions(&Options{}, opts...)

	msgs := make([]ChatMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		msgs = append(msgs, ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	params := ChatParams{
		Messages:    msgs,
		Temperature: common.Temperature,
		MaxTokens:   common.MaxTokens,
		JSON:        impl.JSON,
	}
	if common.Model != nil {
		params.Model = *common.Model
	}

	res, err := m.client.Chat(ctx, params)
	if err != nil {
		return nil, err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: res.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: res.FinishReason,
			Usage: &schema.TokenUsage{
				PromptTokens:     res.Usage.PromptTokens,
				CompletionTokens: res.Usage.CompletionTokens,
				TotalTokens:      res.Usage.TotalTokens,
			},
		},
	}, nil
}

// Stream 将完整响应作为单个分片返回
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var _ einomodel.BaseChatModel = (*ChatModel)(nil)
