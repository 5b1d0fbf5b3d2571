// Package generate turns a prompt and an expected response shape into a
// validated value by calling a chat model through an eino chain.
package generate

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/soppliger/auteur/internal/volc"
)

const (
	objectInstruction = "You are a production systems architect for an automated film studio. " +
		"Respond with a single JSON value that conforms to this JSON schema. " +
		"Do not add commentary or markdown.\n\nSchema:\n"
	textInstruction = "You are a senior platform engineer for an automated film studio. " +
		"Respond with the requested file content only, without commentary."
)

// Request is one remote generation call.
type Request struct {
	Step        string
	Prompt      string
	Shape       *schema.ParameterInfo
	Temperature *float32
}

// Client issues generation requests against a chat model.
type Client struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

// NewClient compiles the template → chat model chain used by every call.
func NewClient(ctx context.Context, chat einomodel.BaseChatModel) (*Client, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	template := prompt.FromMessages(schema.FString,
		schema.SystemMessage("{instruction}"),
		schema.UserMessage("{prompt}"),
	)
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template).AppendChatModel(chat)
	runner, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chain: %w", err)
	}
	return &Client{runner: runner}, nil
}

// Object requests a JSON value matching req.Shape and decodes it into out.
func (c *Client) Object(ctx context.Context, req Request, out any) error {
	if req.Shape == nil {
		return fmt.Errorf("%s: shape required", req.Step)
	}
	schemaDoc, err := Describe(req.Shape)
	if err != nil {
		return err
	}
	raw, err := c.complete(ctx, req, objectInstruction+schemaDoc, volc.WithJSONResponse())
	if err != nil {
		return err
	}
	if err := Decode(raw, req.Shape, out); err != nil {
		logrus.WithField("step", req.Step).WithError(err).Debug("rejected response")
		return err
	}
	return nil
}

// Text requests freeform text. A fence wrapping the whole response is
// removed.
func (c *Client) Text(ctx context.Context, req Request) (string, error) {
	raw, err := c.complete(ctx, req, textInstruction)
	if err != nil {
		return "", err
	}
	text := StripFence(raw)
	if text == "" {
		return "", malformed(raw, "empty text response")
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, req Request, instruction string, extra ...einomodel.Option) (string, error) {
	opts := extra
	if req.Temperature != nil {
		opts = append(opts, einomodel.WithTemperature(*req.Temperature))
	}
	msg, err := c.runner.Invoke(ctx, map[string]any{
		"instruction": instruction,
		"prompt":      req.Prompt,
	}, compose.WithChatModelOption(opts...))
	if err != nil {
		if IsAuth(err) {
			return "", &AuthError{Err: err}
		}
		return "", fmt.Errorf("%s: generate: %w", req.Step, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", malformed("", "empty response")
	}
	logrus.WithField("step", req.Step).WithField("chars", len(msg.Content)).Debug("response received")
	return msg.Content, nil
}
