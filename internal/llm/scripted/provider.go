package scripted

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/llm"
)

const defaultReply = "ALAP is running in offline mode. Configure an API key to talk to a live model."

// Provider replays a canned reply word by word. It needs no network and is
// used for offline runs and demos.
type Provider struct {
	enabled bool
	reply   string
	delay   time.Duration
}

func NewProvider(cfg config.ScriptedConfig) *Provider {
	reply := cfg.Reply
	if reply == "" {
		reply = defaultReply
	}
	return &Provider{enabled: cfg.Enabled, reply: reply, delay: cfg.Delay}
}

func (p *Provider) Name() string              { return "scripted" }
func (p *Provider) AvailableModels() []string { return []string{"scripted"} }
func (p *Provider) DefaultModel() string      { return "scripted" }
func (p *Provider) IsConfigured() bool        { return p.enabled }

func (p *Provider) Stream(ctx context.Context, _ llm.Request) iter.Seq2[string, error] {
	return llm.Accumulate(func(yield func(string, error) bool) {
		for _, chunk := range chunks(p.reply) {
			if p.delay > 0 {
				select {
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				case <-time.After(p.delay):
				}
			} else if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	})
}

// chunks splits s after each run of whitespace so that joining the chunks
// gives back s exactly.
func chunks(s string) []string {
	var out []string
	for s != "" {
		i := strings.IndexAny(s, " \n\t")
		if i < 0 {
			out = append(out, s)
			break
		}
		j := i
		for j < len(s) && strings.ContainsRune(" \n\t", rune(s[j])) {
			j++
		}
		out = append(out, s[:j])
		s = s[j:]
	}
	return out
}
