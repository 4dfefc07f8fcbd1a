package llm

import (
	"sync"

	"github.com/Rrens/alap/internal/domain"
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// Counter estimates the token cost of a piece of text
type Counter interface {
	Count(text string) int
}

// RuneCounter approximates tokens as one per four runes
type RuneCounter struct{}

func (RuneCounter) Count(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

var (
	defaultCounter     Counter
	defaultCounterOnce sync.Once
)

// DefaultCounter returns a cl100k_base tokenizer, or RuneCounter when the
// encoding cannot be loaded.
func DefaultCounter() Counter {
	defaultCounterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err != nil {
			log.Warn().Err(err).Msg("tiktoken unavailable, estimating tokens from rune count")
			defaultCounter = RuneCounter{}
			return
		}
		defaultCounter = tiktokenCounter{enc: enc}
	})
	return defaultCounter
}

// BuildHistory returns the messages to send upstream. Messages with empty
// content (the pending placeholder) are skipped. With budget > 0 the
// oldest messages are dropped until the rest fit; the newest message is
// always kept.
func BuildHistory(messages []domain.Message, budget int, counter Counter) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		out = append(out, m)
	}

	if budget <= 0 || len(out) <= 1 {
		return out
	}
	if counter == nil {
		counter = RuneCounter{}
	}

	total := 0
	start := len(out)
	for i := len(out) - 1; i >= 0; i-- {
		cost := counter.Count(out[i].Content)
		if i < len(out)-1 && total+cost > budget {
			break
		}
		total += cost
		start = i
	}

	// Gemini rejects a history that opens with a model turn.
	for start < len(out)-1 && out[start].Role != domain.RoleUser {
		start++
	}

	return out[start:]
}
