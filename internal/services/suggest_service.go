package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/inboxkit/triage/internal/llm"
	"github.com/inboxkit/triage/internal/model"
)

// SuggestServiceImpl implements SuggestService on top of an LLM provider.
// Its output is advisory: the returned identifier is validated against the
// candidate list and only ever influences which candidate carries the
// primary flag, never the resolution precedence itself.
type SuggestServiceImpl struct {
	provider llm.Provider
	logger   *log.Logger // Optional - for debug logging
}

// NewSuggestService creates a new suggestion service
func NewSuggestService(provider llm.Provider) *SuggestServiceImpl {
	return &SuggestServiceImpl{
		provider: provider,
	}
}

// SetLogger sets the logger for debug output
func (s *SuggestServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// SuggestPrimary asks the provider which eligible candidate best fits the
// message and returns its identifier. Responses outside the candidate list
// are rejected rather than trusted.
func (s *SuggestServiceImpl) SuggestPrimary(ctx context.Context, msg *model.Message, candidates []model.ActionCandidate) (string, error) {
	if s.provider == nil {
		return "", ErrSuggestionUnavailable
	}
	if msg == nil || len(candidates) == 0 {
		return "", fmt.Errorf("message and candidates are required: %w", ErrInvalidInput)
	}

	ids := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		ids = append(ids, cand.ID)
	}

	prompt := buildSuggestPrompt(msg, ids)
	raw, err := s.provider.Generate(prompt)
	if err != nil {
		return "", fmt.Errorf("suggestion generation failed: %w", err)
	}

	answer := normalizeSuggestion(raw)
	for _, id := range ids {
		if answer == id {
			return id, nil
		}
	}

	if s.logger != nil {
		s.logger.Printf("suggestion: provider %s returned %q, not in candidate list", s.provider.Name(), raw)
	}
	return "", fmt.Errorf("provider answered %q: %w", answer, ErrSuggestionRejected)
}

func buildSuggestPrompt(msg *model.Message, ids []string) string {
	var b strings.Builder
	b.WriteString("You are an email triage assistant. Pick the single best follow-up action for the message below.\n")
	b.WriteString("Answer with exactly one identifier from this list and nothing else: ")
	b.WriteString(strings.Join(ids, ", "))
	b.WriteString("\n\nTitle: ")
	b.WriteString(msg.Title)
	if msg.Summary != "" {
		b.WriteString("\nSummary: ")
		b.WriteString(msg.Summary)
	}
	return b.String()
}

// normalizeSuggestion strips the decoration providers tend to add around a
// bare identifier (quotes, backticks, trailing punctuation)
func normalizeSuggestion(raw string) string {
	out := strings.ToLower(strings.TrimSpace(raw))
	out = strings.Trim(out, "\"'`.")
	if idx := strings.IndexAny(out, " \n"); idx > 0 {
		out = out[:idx]
	}
	return out
}
