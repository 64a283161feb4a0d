// Package llm provides model provider adapters for contract review.
package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	defaultEncoder *tiktoken.Tiktoken
	encoderOnce    sync.Once
	encoderErr     error
)

func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		defaultEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return defaultEncoder, encoderErr
}

// EstimateTokens returns an estimated token count for the given text using
// the cl100k_base encoding. Disassembled bytecode tokenizes similarly across
// modern providers, so one encoding is enough for prompt budgeting; exact
// counts come back from the provider with each response.
func EstimateTokens(text string) int {
	enc, err := getEncoder()
	if err != nil {
		// Character-based fallback when the encoding tables are unavailable.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
