// Package openai implements ports.LLMAdjudicator against OpenAI's chat
// completions API (or any compatible endpoint via base_url): one
// single-shot judgment call per gray-zone message, no conversation state.
package openai

import (
	"context"
	"fmt"

	"github.com/nauanbek/saqshy/internal/adapters/llm/llmprompt"
	"github.com/nauanbek/saqshy/pkg/llm"
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/types"
	goopenai "github.com/sashabaranov/go-openai"
)

func init() {
	llm.Register("openai", func(cfg registry.Config) (ports.LLMAdjudicator, error) {
		return New(cfg)
	})
}

// Adjudicator wraps an OpenAI chat client configured for gray-zone message
// judgment.
type Adjudicator struct {
	client      *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
}

// New builds an Adjudicator from registry.Config.
//
//	cfg["model"]       string  required, e.g. "gpt-4o-mini"
//	cfg["api_key"]             optional, falls back to OPENAI_API_KEY
//	cfg["base_url"]    string  optional, for OpenAI-compatible endpoints
//	cfg["temperature"] float   optional, default 0.2 (low for judgment consistency)
//	cfg["max_tokens"]  int     optional, default 200
func New(cfg registry.Config) (*Adjudicator, error) {
	model, err := registry.RequireString(cfg, "model")
	if err != nil {
		return nil, fmt.Errorf("openai adjudicator requires 'model' configuration")
	}
	apiKey, err := registry.GetAPIKeyWithEnv(cfg, "OPENAI_API_KEY", "openai adjudicator")
	if err != nil {
		return nil, err
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	if baseURL := registry.GetString(cfg, "base_url", ""); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &Adjudicator{
		client:      goopenai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: registry.GetFloat32(cfg, "temperature", 0.2),
		maxTokens:   registry.GetInt(cfg, "max_tokens", 200),
	}, nil
}

// Adjudicate asks the model to judge msg given risk, the rule-based result
// that landed it in the gray zone.
func (a *Adjudicator) Adjudicate(ctx context.Context, msg types.MessageContext, risk types.RiskResult) (types.Verdict, string, float64, error) {
	req := goopenai.ChatCompletionRequest{
		Model: a.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llmprompt.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: llmprompt.BuildUserPrompt(msg, risk)},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", "", 0, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", "", 0, fmt.Errorf("openai adjudicator: empty response")
	}

	verdict, explanation, confidence, err := llmprompt.ParseJudgment(resp.Choices[0].Message.Content)
	if err != nil {
		return "", "", 0, err
	}
	return verdict, explanation, confidence, nil
}

// wrapError classifies OpenAI API errors into ports.ErrorClass rather
// than a provider-specific error type, so the pipeline's breaker/retry
// logic can branch on class alone.
func wrapError(err error) error {
	apiErr, ok := err.(*goopenai.APIError)
	if !ok {
		return &ports.ClassifiedError{Class: ports.ErrClassAPI, Err: err}
	}

	switch apiErr.HTTPStatusCode {
	case 429:
		return &ports.ClassifiedError{Class: ports.ErrClassRateLimit, Err: err}
	case 400:
		return &ports.ClassifiedError{Class: ports.ErrClassBadRequest, Err: err}
	case 401, 403:
		return &ports.ClassifiedError{Class: ports.ErrClassForbidden, Err: err}
	case 500, 502, 503, 504:
		return &ports.ClassifiedError{Class: ports.ErrClassNetwork, Err: err}
	default:
		return &ports.ClassifiedError{Class: ports.ErrClassAPI, Err: err}
	}
}

var _ ports.LLMAdjudicator = (*Adjudicator)(nil)
