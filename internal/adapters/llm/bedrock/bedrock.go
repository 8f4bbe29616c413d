// Package bedrock implements ports.LLMAdjudicator against AWS Bedrock's
// InvokeModel API. Each supported model family has its own request and
// response body shape, so marshalling is dispatched on the model ID
// prefix rather than a single payload struct.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/nauanbek/saqshy/internal/adapters/llm/llmprompt"
	"github.com/nauanbek/saqshy/pkg/llm"
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/types"
)

func init() {
	llm.Register("bedrock", func(cfg registry.Config) (ports.LLMAdjudicator, error) {
		return New(cfg)
	})
}

const (
	defaultMaxTokens   = 200
	defaultTemperature = 0.2
)

// Adjudicator wraps an AWS Bedrock Runtime client configured for gray-zone
// message judgment.
type Adjudicator struct {
	client      *bedrockruntime.Client
	modelID     string
	maxTokens   int
	temperature float64
	topP        float64
}

// New builds an Adjudicator from registry.Config.
//
//	cfg["model"]       string  required, e.g. "anthropic.claude-3-haiku-20240307-v1:0"
//	cfg["region"]      string  required, AWS region
//	cfg["max_tokens"]  int     optional, default 200
//	cfg["temperature"] float   optional, default 0.2
//	cfg["top_p"]       float   optional
//	cfg["endpoint"]    string  optional, custom endpoint for testing
func New(cfg registry.Config) (*Adjudicator, error) {
	modelID, err := registry.RequireString(cfg, "model")
	if err != nil {
		return nil, fmt.Errorf("bedrock adjudicator: %w", err)
	}
	region, err := registry.RequireString(cfg, "region")
	if err != nil {
		return nil, fmt.Errorf("bedrock adjudicator: %w", err)
	}

	a := &Adjudicator{
		modelID:     modelID,
		maxTokens:   registry.GetInt(cfg, "max_tokens", defaultMaxTokens),
		temperature: registry.GetFloat64(cfg, "temperature", defaultTemperature),
		topP:        registry.GetFloat64(cfg, "top_p", 0),
	}

	ctx := context.Background()
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock adjudicator: failed to load AWS config: %w", err)
	}

	var clientOpts []func(*bedrockruntime.Options)
	if endpoint := registry.GetString(cfg, "endpoint", ""); endpoint != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	a.client = bedrockruntime.NewFromConfig(awsCfg, clientOpts...)
	return a, nil
}

// Adjudicate asks the model to judge msg given risk, the rule-based result
// that landed it in the gray zone.
func (a *Adjudicator) Adjudicate(ctx context.Context, msg types.MessageContext, risk types.RiskResult) (types.Verdict, string, float64, error) {
	userPrompt := llmprompt.BuildUserPrompt(msg, risk)

	var requestBody []byte
	var err error
	switch {
	case strings.HasPrefix(a.modelID, "anthropic.claude"):
		requestBody, err = a.buildClaudeRequest(userPrompt)
	case strings.HasPrefix(a.modelID, "amazon.titan"):
		requestBody, err = a.buildTitanRequest(userPrompt)
	case strings.HasPrefix(a.modelID, "meta.llama"):
		requestBody, err = a.buildLlamaRequest(userPrompt)
	default:
		return "", "", 0, fmt.Errorf("bedrock adjudicator: unsupported model family: %s", a.modelID)
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("bedrock adjudicator: failed to build request: %w", err)
	}

	output, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.modelID),
		Body:        requestBody,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", "", 0, a.handleError(err)
	}

	var text string
	switch {
	case strings.HasPrefix(a.modelID, "anthropic.claude"):
		text, err = a.parseClaudeResponse(output.Body)
	case strings.HasPrefix(a.modelID, "amazon.titan"):
		text, err = a.parseTitanResponse(output.Body)
	case strings.HasPrefix(a.modelID, "meta.llama"):
		text, err = a.parseLlamaResponse(output.Body)
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("bedrock adjudicator: failed to parse response: %w", err)
	}

	verdict, explanation, confidence, err := llmprompt.ParseJudgment(text)
	if err != nil {
		return "", "", 0, err
	}
	return verdict, explanation, confidence, nil
}

func (a *Adjudicator) buildClaudeRequest(userPrompt string) ([]byte, error) {
	req := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        a.maxTokens,
		"temperature":       a.temperature,
		"system":            llmprompt.SystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": userPrompt},
		},
	}
	if a.topP > 0 {
		req["top_p"] = a.topP
	}
	return json.Marshal(req)
}

func (a *Adjudicator) parseClaudeResponse(body []byte) (string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	var text string
	for _, c := range resp.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	return text, nil
}

func (a *Adjudicator) buildTitanRequest(userPrompt string) ([]byte, error) {
	prompt := llmprompt.SystemPrompt + "\n\n" + userPrompt
	cfg := map[string]any{
		"maxTokenCount": a.maxTokens,
		"temperature":   a.temperature,
	}
	if a.topP > 0 {
		cfg["topP"] = a.topP
	}
	return json.Marshal(map[string]any{
		"inputText":            prompt,
		"textGenerationConfig": cfg,
	})
}

func (a *Adjudicator) parseTitanResponse(body []byte) (string, error) {
	var resp struct {
		Results []struct {
			OutputText string `json:"outputText"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("no results in Titan response")
	}
	return resp.Results[0].OutputText, nil
}

func (a *Adjudicator) buildLlamaRequest(userPrompt string) ([]byte, error) {
	prompt := fmt.Sprintf("<s>[INST] <<SYS>>\n%s\n<</SYS>>\n\n%s [/INST]", llmprompt.SystemPrompt, userPrompt)
	req := map[string]any{
		"prompt":      prompt,
		"max_gen_len": a.maxTokens,
		"temperature": a.temperature,
	}
	if a.topP > 0 {
		req["top_p"] = a.topP
	}
	return json.Marshal(req)
}

func (a *Adjudicator) parseLlamaResponse(body []byte) (string, error) {
	var resp struct {
		Generation string `json:"generation"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	return resp.Generation, nil
}

// handleError classifies Bedrock InvokeModel errors into ports.ErrorClass
// by matching on exception name substrings, since the AWS SDK surfaces
// these as plain error strings rather than a typed hierarchy here.
func (a *Adjudicator) handleError(err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "ThrottlingException"), strings.Contains(errStr, "TooManyRequestsException"):
		return &ports.ClassifiedError{Class: ports.ErrClassRateLimit, Err: err}
	case strings.Contains(errStr, "AccessDeniedException"), strings.Contains(errStr, "UnauthorizedException"):
		return &ports.ClassifiedError{Class: ports.ErrClassForbidden, Err: err}
	case strings.Contains(errStr, "ValidationException"):
		return &ports.ClassifiedError{Class: ports.ErrClassBadRequest, Err: err}
	case strings.Contains(errStr, "ServiceUnavailableException"), strings.Contains(errStr, "InternalServerException"):
		return &ports.ClassifiedError{Class: ports.ErrClassNetwork, Err: err}
	default:
		return &ports.ClassifiedError{Class: ports.ErrClassAPI, Err: err}
	}
}

var _ ports.LLMAdjudicator = (*Adjudicator)(nil)
