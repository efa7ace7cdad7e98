// Package kitchen implements the kitchen (SPPG) operations: menu recommendation,
// chef chat, cooking log and cooked-meal inspection.
package kitchen

import (
	"context"
	"fmt"

	"bekal-bangsa/internal/core/ai/provider"
	aiservice "bekal-bangsa/internal/core/ai/service"
	"bekal-bangsa/internal/core/rescue"
	"bekal-bangsa/internal/pkg/common"

	"go.uber.org/zap"
)

// Completer sends chat completions.
type Completer interface {
	Complete(ctx context.Context, req *provider.Request) (*aiservice.Response, error)
	CompleteFresh(ctx context.Context, req *provider.Request) (*aiservice.Response, error)
}

// Generator asks the model for a rescue recipe and returns its raw text.
type Generator struct {
	ai        Completer
	maxTokens int
}

// NewGenerator creates a Generator.
func NewGenerator(ai Completer, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &Generator{ai: ai, maxTokens: maxTokens}
}

// Generate returns the model's raw answer for the given ingredient names. Callers normalize it
// with rescue.Normalize.
func (g *Generator) Generate(ctx context.Context, names []string) (string, error) {
	if len(names) == 0 {
		return "", common.NewValidationError("ingredients must not be empty")
	}

	common.LogInfo("requesting menu recommendation", zap.Strings("ingredients", names))

	resp, err := g.ai.CompleteFresh(ctx, &provider.Request{
		Messages:  []provider.Message{{Role: "user", Content: menuRecommendationPrompt(names)}},
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("menu recommendation: %w", err)
	}
	return resp.Content, nil
}

// Recommend generates and normalizes a recipe in one step.
func (g *Generator) Recommend(ctx context.Context, names []string) (*common.RescueRecipe, error) {
	raw, err := g.Generate(ctx, names)
	if err != nil {
		return nil, err
	}
	res := rescue.Normalize(raw)
	if !res.HasRecipe() {
		common.LogWarn("unusable menu recommendation",
			zap.String("kind", res.Kind.String()),
			zap.Int("raw_length", len(raw)),
		)
		return nil, common.Wrap(common.ErrAIMalformed, fmt.Errorf("response shape: %s", res.Kind))
	}
	return res.Recipe, nil
}
