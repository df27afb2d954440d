// Package openai implements page advice on the OpenAI Chat Completions API.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/fwojciec/seoaudit"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// APIKeyEnv is the environment variable holding the API key.
const APIKeyEnv = "OPENAI_API_KEY"

// Request parameters.
const (
	temperature = 0.1
	maxTokens   = 400
	schemaName  = "PageAudit"
)

var _ seoaudit.Advisor = (*Advisor)(nil)

// Advisor implements seoaudit.Advisor with a strict JSON schema response.
type Advisor struct {
	client openai.Client
	model  string
}

// NewAdvisor creates an Advisor. An empty model selects DefaultModel.
// Without option.WithAPIKey the client reads OPENAI_API_KEY.
func NewAdvisor(model string, opts ...option.RequestOption) *Advisor {
	if model == "" {
		model = DefaultModel
	}
	return &Advisor{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Advise reviews one page.
func (a *Advisor) Advise(ctx context.Context, req seoaudit.AdviceRequest) (*seoaudit.Advice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := a.client.Chat.Completions.New(ctx, BuildParams(a.model, req))
	if err != nil {
		return nil, apiError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "openai returned no choices")
	}
	if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
		return nil, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "openai refused: %s", refusal)
	}

	return seoaudit.ParseAdvice(resp.Choices[0].Message.Content)
}

// BuildParams returns the chat completion request for req.
func BuildParams(model string, req seoaudit.AdviceRequest) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(seoaudit.AdvisorSystemPrompt),
			openai.UserMessage(seoaudit.BuildAdvicePrompt(req)),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: AdviceSchema(),
					Strict: openai.Bool(true),
				},
			},
		},
	}
}

// AdviceSchema is the strict JSON schema of seoaudit.Advice.
func AdviceSchema() map[string]any {
	list := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":         map[string]any{"type": "string"},
			"top_issues":      list,
			"recommendations": list,
		},
		"required":             []string{"summary", "top_issues", "recommendations"},
		"additionalProperties": false,
	}
}

// apiError maps API failures to application errors. The request, which
// carries the key, is never included in the message.
func apiError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return seoaudit.Errorf(seoaudit.EFORBIDDEN, "openai rejected the API key (HTTP %d)", apiErr.StatusCode)
	case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusNotFound:
		return seoaudit.Errorf(seoaudit.EINVALID, "openai rejected the request (HTTP %d)", apiErr.StatusCode)
	default:
		return seoaudit.Errorf(seoaudit.EUNAVAILABLE, "openai unavailable (HTTP %d)", apiErr.StatusCode)
	}
}
