package gemini

import (
	"context"

	"github.com/fwojciec/seoaudit"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// TokenizerModel is the model whose local tokenizer estimates page sizes.
const TokenizerModel = "gemini-2.0-flash"

var _ seoaudit.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens offline with the Gemini tokenizer. Counts are
// an estimate of what a page excerpt costs to send to any advisor.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = TokenizerModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "load tokenizer for %s: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the tokens in text.
func (tc *TokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, "user")}, nil)
	if err != nil {
		return 0, err
	}
	return int(result.TotalTokens), nil
}
