// Package translate wraps the model provider for text translation with
// caching and a bounded self-check retry. Translation is never allowed
// to block a conversation: every failure degrades to returning the
// input unchanged.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pharmagen-dev/pharmagen/internal/llm/provider"
	"github.com/pharmagen-dev/pharmagen/pkg/cache"
	"github.com/pharmagen-dev/pharmagen/pkg/observability"
)

// asciiRetryThreshold is the ASCII character fraction above which a
// non-English result is presumed to have never left the source
// language. Best-effort: triggers at most one stronger-worded retry.
const asciiRetryThreshold = 0.8

const maxOutputTokens = 500

// CollapsePolicy selects how a multi-line model reply is reduced to the
// single translation line.
type CollapsePolicy int

const (
	// CollapseLongestLine keeps the longest line: explanatory preambles
	// tend to be short and the actual translation tends to be the
	// longest line.
	CollapseLongestLine CollapsePolicy = iota
	// CollapseFirstLine keeps the first line.
	CollapseFirstLine
)

// Translator translates text through the model provider.
type Translator struct {
	provider    provider.Provider
	cache       cache.Cache
	ttl         time.Duration
	model       string
	temperature float64
	collapse    CollapsePolicy
	logger      *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithModel sets the model name used for translation calls.
func WithModel(model string) Option {
	return func(t *Translator) { t.model = model }
}

// WithTemperature sets the translation temperature. Low values favor
// determinism.
func WithTemperature(temp float64) Option {
	return func(t *Translator) { t.temperature = temp }
}

// WithCollapsePolicy selects the multi-line collapse policy.
func WithCollapsePolicy(p CollapsePolicy) Option {
	return func(t *Translator) { t.collapse = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) { t.logger = logger.With("component", "translate") }
}

// New creates a Translator backed by the given provider and cache.
func New(p provider.Provider, c cache.Cache, ttl time.Duration, opts ...Option) *Translator {
	t := &Translator{
		provider:    p,
		cache:       c,
		ttl:         ttl,
		temperature: 0.1,
		collapse:    CollapseLongestLine,
		logger:      slog.Default().With("component", "translate"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate translates text from src to tgt. It never returns an
// error: a failed translation degrades to the input text (passthrough).
// src may be AutoDetect or any unknown code, which normalizes to
// auto-detection; an unknown tgt defaults to English.
func (t *Translator) Translate(ctx context.Context, text, src, tgt string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	if !KnownCode(src) {
		src = AutoDetect
	}
	if !KnownCode(tgt) {
		tgt = "en"
	}

	if src != AutoDetect && src == tgt {
		return text
	}

	key := cache.Fingerprint(text, src, tgt)
	if cached, ok := t.cache.Get(ctx, key); ok {
		observability.RecordCacheLookup(true)
		return cached
	}
	observability.RecordCacheLookup(false)

	result, err := t.request(ctx, buildPrompt(text, src, tgt))
	if err != nil {
		observability.RecordTranslation(t.provider.Name(), "error")
		t.logger.Warn("translation failed, returning input unchanged",
			"error", err, "src", src, "tgt", tgt)
		return text
	}

	// Self-check: a mostly-ASCII result for a non-English target means
	// the model likely answered in the source language. One stronger
	// retry, then accept whatever came back.
	if tgt != "en" && asciiFraction(result) > asciiRetryThreshold {
		t.logger.Debug("translation looks untranslated, retrying once",
			"tgt", tgt, "ascii_fraction", asciiFraction(result))
		if retried, err := t.request(ctx, buildRetryPrompt(text, tgt)); err == nil {
			result = retried
		}
	}

	observability.RecordTranslation(t.provider.Name(), "ok")
	t.cache.Set(ctx, key, result, t.ttl)
	return result
}

// request issues one translation completion and collapses the reply.
func (t *Translator) request(ctx context.Context, prompt string) (string, error) {
	resp, err := t.provider.CreateCompletion(ctx, provider.CompletionRequest{
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: prompt}},
		Model:       t.model,
		Temperature: t.temperature,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return "", err
	}
	return t.collapseLines(strings.TrimSpace(resp.Content)), nil
}

func buildPrompt(text, src, tgt string) string {
	tgtName := Name(tgt)
	if src == AutoDetect {
		return fmt.Sprintf(`Translate this text to %s.
IMPORTANT: Provide ONLY the direct translation. Do not include explanations, alternatives, or breakdowns.

Text to translate: %s

Translation:`, tgtName, text)
	}
	return fmt.Sprintf(`Translate this text from %s to %s.
IMPORTANT: Provide ONLY the direct translation. Do not include explanations, alternatives, or breakdowns.

Text to translate: %s

Translation:`, Name(src), tgtName, text)
}

func buildRetryPrompt(text, tgt string) string {
	tgtName := Name(tgt)
	return fmt.Sprintf(`You MUST translate the following text into %s. Respond in %s ONLY, using its native script. Output nothing except the translated text.

Text to translate: %s

%s translation:`, tgtName, tgtName, text, tgtName)
}

// collapseLines reduces a multi-line reply to one candidate line.
func (t *Translator) collapseLines(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}

	lines := strings.Split(s, "\n")
	switch t.collapse {
	case CollapseFirstLine:
		for _, line := range lines {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				return trimmed
			}
		}
		return ""
	default:
		best := ""
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if len(trimmed) > len(best) {
				best = trimmed
			}
		}
		return best
	}
}

// asciiFraction returns the fraction of characters below U+0080.
func asciiFraction(s string) float64 {
	if s == "" {
		return 0
	}
	total, ascii := 0, 0
	for _, r := range s {
		total++
		if r < 0x80 {
			ascii++
		}
	}
	return float64(ascii) / float64(total)
}
