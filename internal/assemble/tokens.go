package assemble

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	encOnce sync.Once
	enc     tokenizer.Codec
)

// CountTokens returns the token count for text. O200kBase tracks current
// models closely enough for budget enforcement; when the tokenizer is
// unavailable or fails, a bytes/4 estimate stands in.
func CountTokens(text string) int {
	encOnce.Do(func() {
		if c, err := tokenizer.Get(tokenizer.O200kBase); err == nil {
			enc = c
		}
	})
	if enc == nil {
		return len(text) / 4
	}
	count, err := enc.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
