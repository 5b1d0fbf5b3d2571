package volc

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

	"github.com/sirupsen/logrus"
)

const (
	defaultBase     = "https://ark.cn-beijing.volces.com"
	chatPath        = "/api/v3/chat/completions"
	maxErrorBodyLen = 4096
)

// APIError Ark 返回非2xx状态码时的错误
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ark http status %d: %s", e.StatusCode, e.Body)
}

// Unauthorized 状态码表示凭证缺失或被拒绝时返回true
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

type ArkClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewArkClient 创建Ark客户端，baseURL为空时使用默认地址
func NewArkClient(apiKey, baseURL string, timeout time.Duration) *ArkClient {
	if baseURL == "" {
		baseURL = defaultBase
	}
	return &ArkClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// ChatMessage 单条对话消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams 对话补全请求参数
type ChatParams struct {
	Model       string
	Messages    []ChatMessage
	Temperature *float32
	MaxTokens   *int
	JSON        bool // 要求返回JSON对象
}

// ChatUsage token 用量
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult 对话补全结果
type ChatResult struct {
	Content      string
	FinishReason string
	Usage        ChatUsage
}

// Chat 调用对话补全接口
func (c *ArkClient) Chat(ctx context.Context, p ChatParams) (*ChatResult, error) {
	if p.Model == "" {
		return nil, errors.New("model required")
	}
	if len(p.Messages) == 0 {
		return nil, errors.New("messages required")
	}
	body := map[string]any{
		"model":    p.Model,
		"messages": p.Messages,
	}
	if p.Temperature != nil {
		body["temperature"] = *p.Temperature
	}
	if p.MaxTokens != nil {
		body["max_tokens"] = *p.MaxTokens
	}
	if p.JSON {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage ChatUsage `json:"usage"`
	}
	if err := c.postJSON(ctx, chatPath, body, &resp); err != nil {
		return nil, err
	}
	out := &ChatResult{Usage: resp.Usage}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		if out.Content == "" {
			out.Content = resp.Choices[0].Delta.Content
		}
		out.FinishReason = resp.Choices[0].FinishReason
	}
	return out, nil
}

func (c *ArkClient) postJSON(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	logrus.WithField("url", req.URL.String()).WithField("bytes", len(b)).Debug("ark request")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("ark request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyLen))
		return &APIError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}
	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
