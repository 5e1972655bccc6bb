package classifier

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenBudget trims CV text so the structuring prompt stays inside the
// model's context window.
type TokenBudget struct {
	codec     tokenizer.Codec
	maxTokens int
}

func NewTokenBudget(maxTokens int) (*TokenBudget, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec: %w", err)
	}
	return &TokenBudget{codec: codec, maxTokens: maxTokens}, nil
}

// Fit returns text unchanged when it is within budget, otherwise its leading
// maxTokens tokens. The bool reports whether text was cut.
func (b *TokenBudget) Fit(text string) (string, bool) {
	if b == nil || b.maxTokens <= 0 {
		return text, false
	}
	ids, _, err := b.codec.Encode(text)
	if err != nil || len(ids) <= b.maxTokens {
		return text, false
	}
	trimmed, err := b.codec.Decode(ids[:b.maxTokens])
	if err != nil {
		// Fallback to character-based estimation (4 chars ≈ 1 token)
		if limit := b.maxTokens * 4; limit < len(text) {
			return text[:limit], true
		}
		return text, false
	}
	return trimmed, true
}

func (b *TokenBudget) Count(text string) int {
	count, err := b.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
