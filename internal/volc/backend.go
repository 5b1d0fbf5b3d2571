package volc

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/soppliger/auteur/internal/config"
)

// NewBackend 按 cfg.Backend 创建对应的 chat model
func NewBackend(ctx context.Context, cfg config.Config) (einomodel.BaseChatModel, error) {
	switch cfg.Backend {
	case config.BackendHTTP:
		client := NewArkClient(cfg.APIKey, cfg.BaseURL, cfg.RequestTimeout)
		return NewChatModel(client, cfg.ChatModel), nil
	case config.BackendArkSDK:
		// 重试由 internal/retry 负责
		noRetry := 0
		timeout := cfg.RequestTimeout
		chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/api/v3",
			Region:     cfg.Region,
			Model:      cfg.ChatModel,
			HTTPClient: &http.Client{Timeout: timeout},
			Timeout:    &timeout,
			RetryTimes: &noRetry,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
