// Package testkit provides fakes shared by package tests.
package testkit

import (
	"context"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reply is what a handler returns for a single call.
type Reply struct {
	Content string
	Err     error
}

// Call records one Generate invocation.
type Call struct {
	System string
	User   string
}

// ChatModel is a scripted eino BaseChatModel. Handler sees every call in
// order and decides the reply.
type ChatModel struct {
	Handler func(n int, call Call) Reply

	mu    sync.Mutex
	calls []Call
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var call Call
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			call.System = msg.Content
		case schema.User:
			call.User = msg.Content
		}
	}
	m.mu.Lock()
	n := len(m.calls)
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	reply := m.Handler(n, call)
	if reply.Err != nil {
		return nil, reply.Err
	}
	return schema.AssistantMessage(reply.Content, nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls returns a copy of the recorded calls.
func (m *ChatModel) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsContaining counts calls whose user prompt contains substr.
func (m *ChatModel) CallsContaining(substr string) int {
	n := 0
	for _, c := range m.Calls() {
		if strings.Contains(c.User, substr) {
			n++
		}
	}
	return n
}

var _ einomodel.BaseChatModel = (*ChatModel)(nil)
