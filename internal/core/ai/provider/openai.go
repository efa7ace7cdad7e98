package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bekal-bangsa/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// OpenAIClient talks to any OpenAI-compatible /chat/completions endpoint (Kolosal, OpenRouter).
type OpenAIClient struct {
	config Config
	client *resty.Client
}

type chatContent struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	ImageURL map[string]string `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// NewOpenAIClient creates a resty-backed client.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Bekal Bangsa").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &OpenAIClient{
		config: cfg,
		client: client,
	}
}

// Generate sends the request and returns the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	body := chatRequest{
		Model:       c.config.Model,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.config.MaxTokens
	}
	if body.Temperature == nil && c.config.Temperature > 0 {
		body.Temperature = Temperature(c.config.Temperature)
	}

	for _, m := range req.Messages {
		if m.ImageURL == "" {
			body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
			continue
		}
		url := m.ImageURL
		if !strings.HasPrefix(url, "data:image/") && !strings.HasPrefix(url, "http") {
			url = "data:image/jpeg;base64," + url
		}
		body.Messages = append(body.Messages, chatMessage{
			Role: m.Role,
			Content: []chatContent{
				{Type: "text", Text: m.Content},
				{Type: "image_url", ImageURL: map[string]string{"url": url}},
			},
		})
	}

	common.LogDebug("sending chat completion",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
	)

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		common.LogAICall(body.Model, time.Since(start), err)
		return nil, common.Wrap(common.ErrAIServiceError, fmt.Errorf("failed to send request: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("status %d: %s", resp.StatusCode(), truncate(resp.String(), 300))
		common.LogAICall(body.Model, time.Since(start), err)
		return nil, common.Wrap(common.ErrAIServiceError, err)
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, common.Wrap(common.ErrAIServiceError, fmt.Errorf("failed to parse response: %w", err))
	}
	if len(result.Choices) == 0 {
		return nil, common.Wrap(common.ErrAIServiceError, fmt.Errorf("no choices in response"))
	}

	content := result.Choices[0].Message.Content
	common.LogAICall(body.Model, time.Since(start), nil)

	return &Response{Content: content, Usage: result.Usage}, nil
}

// GetModel returns the configured model name.
func (c *OpenAIClient) GetModel() string {
	return c.config.Model
}

// GetTimeout returns the per-request timeout.
func (c *OpenAIClient) GetTimeout() time.Duration {
	return c.config.Timeout
}

// Close releases idle connections.
func (c *OpenAIClient) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
