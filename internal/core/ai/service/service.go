package service

import (
	"context"
	"strings"
	"time"

	"bekal-bangsa/internal/core/ai/cache"
	"bekal-bangsa/internal/core/ai/provider"
	"bekal-bangsa/internal/core/ai/queue"
	"bekal-bangsa/internal/pkg/common"

	"go.uber.org/zap"
)

// Response is the text returned by the model.
type Response struct {
	Content  string        `json:"content"`
	CacheHit bool          `json:"cache_hit"`
	Duration time.Duration `json:"duration"`
}

// Service routes LLM calls through the response cache and the worker queue.
type Service struct {
	provider     provider.Provider
	cacheManager *cache.CacheManager
	queue        *queue.Manager
}

// NewService creates an AI service. cacheManager may be nil.
func NewService(p provider.Provider, cacheManager *cache.CacheManager, q *queue.Manager) *Service {
	return &Service{
		provider:     p,
		cacheManager: cacheManager,
		queue:        q,
	}
}

// Complete sends req and caches the answer under its messages.
func (s *Service) Complete(ctx context.Context, req *provider.Request) (*Response, error) {
	prompt, image := cacheKeyParts(req)

	if val, err := s.cacheManager.Get(ctx, prompt, image); err == nil && val != "" {
		return &Response{Content: val, CacheHit: true}, nil
	}

	resp, err := s.CompleteFresh(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.cacheManager.Set(ctx, prompt, image, resp.Content); err != nil {
		common.LogWarn("failed to cache AI response", zap.Error(err))
	}
	return resp, nil
}

// CompleteFresh sends req without consulting the cache.
func (s *Service) CompleteFresh(ctx context.Context, req *provider.Request) (*Response, error) {
	start := time.Now()

	var (
		resp *provider.Response
		err  error
	)
	if s.queue != nil {
		resp, err = s.queue.Do(ctx, req)
	} else {
		resp, err = s.provider.Generate(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	return &Response{Content: resp.Content, Duration: time.Since(start)}, nil
}

// ProcessRequest asks a single question with an optional system prompt and image data URI.
func (s *Service) ProcessRequest(ctx context.Context, system, prompt, imageData string) (*Response, error) {
	req := &provider.Request{}
	if system != "" {
		req.Messages = append(req.Messages, provider.Message{Role: "system", Content: system})
	}
	req.Messages = append(req.Messages, provider.Message{Role: "user", Content: prompt, ImageURL: imageData})
	return s.Complete(ctx, req)
}

// Model returns the provider's model name.
func (s *Service) Model() string {
	return s.provider.GetModel()
}

// cacheKeyParts normalizes whitespace so formatting differences share a cache entry.
func cacheKeyParts(req *provider.Request) (prompt, image string) {
	var b strings.Builder
	for _, m := range req.Messages {
		b.WriteString(m.Role)
		b.WriteString(":")
		b.WriteString(strings.Join(strings.Fields(m.Content), " "))
		b.WriteString("\n")
		if m.ImageURL != "" {
			image += m.ImageURL
		}
	}
	return b.String(), image
}
