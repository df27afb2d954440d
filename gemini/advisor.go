// Package gemini implements page advice and token counting on Google Gemini.
package gemini

import (
	"context"

	"github.com/fwojciec/seoaudit"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// APIKeyEnv is the environment variable holding the API key.
const APIKeyEnv = "GEMINI_API_KEY"

var _ seoaudit.Advisor = (*Advisor)(nil)

// Advisor implements seoaudit.Advisor using Google Gemini.
type Advisor struct {
	client *genai.Client
	model  string
}

// NewAdvisor creates a new Advisor. An empty model selects DefaultModel.
func NewAdvisor(client *genai.Client, model string) *Advisor {
	if model == "" {
		model = DefaultModel
	}
	return &Advisor{client: client, model: model}
}

// Advise reviews one page.
func (a *Advisor) Advise(ctx context.Context, req seoaudit.AdviceRequest) (*seoaudit.Advice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{genai.NewContentFromText(seoaudit.BuildAdvicePrompt(req), "user")},
		BuildConfig(),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "gemini returned nil result")
	}

	return seoaudit.ParseAdvice(result.Text())
}

// BuildConfig returns the GenerateContentConfig for advice requests.
// The response is constrained to the Advice JSON shape.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: seoaudit.AdvisorSystemPrompt}},
		},
		Temperature:      &temp,
		MaxOutputTokens:  400,
		ResponseMIMEType: "application/json",
		ResponseSchema:   adviceSchema(),
	}
}

func adviceSchema() *genai.Schema {
	items := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":         {Type: genai.TypeString},
			"top_issues":      {Type: genai.TypeArray, Items: items},
			"recommendations": {Type: genai.TypeArray, Items: items},
		},
		Required: []string{"summary", "top_issues", "recommendations"},
	}
}
