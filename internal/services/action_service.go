package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/inboxkit/triage/internal/model"
)

// ActionServiceImpl implements ActionService
type ActionServiceImpl struct {
	catalog   CandidateSource
	overrides OverrideStore
	logger    *log.Logger // Optional - for debug logging
}

// NewActionService creates a new action resolution service
func NewActionService(catalog CandidateSource, overrides OverrideStore) *ActionServiceImpl {
	return &ActionServiceImpl{
		catalog:   catalog,
		overrides: overrides,
	}
}

// SetLogger sets the logger for debug output
func (s *ActionServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// EligibleActions returns the ordered candidate list for a message
func (s *ActionServiceImpl) EligibleActions(ctx context.Context, msg *model.Message) []model.ActionCandidate {
	if msg == nil {
		return nil
	}
	return s.catalog.EligibleActions(msg)
}

// EffectiveAction selects the single action to present for a message.
// Precedence: a persisted override that still matches an eligible candidate,
// then the first primary-flagged candidate, then the first candidate.
func (s *ActionServiceImpl) EffectiveAction(ctx context.Context, accountEmail string, msg *model.Message) (model.ActionCandidate, error) {
	if msg == nil {
		return model.ActionCandidate{}, fmt.Errorf("message cannot be nil: %w", ErrInvalidInput)
	}

	candidates := s.catalog.EligibleActions(msg)
	if len(candidates) == 0 {
		// Unreachable under the catalog contract; indicates a rule-table bug
		if s.logger != nil {
			s.logger.Printf("action resolution: empty candidate list for message %s (category %s)", msg.ID, msg.Category)
		}
		return model.ActionCandidate{}, ErrNoActionAvailable
	}

	if s.overrides != nil {
		actionID, found, err := s.overrides.Get(ctx, accountEmail, msg.ID)
		if err != nil && s.logger != nil {
			s.logger.Printf("action resolution: override lookup failed for message %s: %v", msg.ID, err)
		}
		if err == nil && found {
			for _, cand := range candidates {
				if cand.ID == actionID {
					return cand, nil
				}
			}
			// Stale override: the referenced action is no longer eligible.
			// Fall through silently; the record stays until the next save.
		}
	}

	for _, cand := range candidates {
		if cand.IsPrimary {
			return cand, nil
		}
	}
	return candidates[0], nil
}

// SetOverride records an explicit user choice for a message. Re-setting the
// same pair is a no-op in effect.
func (s *ActionServiceImpl) SetOverride(ctx context.Context, accountEmail, messageID, actionID string) error {
	if s.overrides == nil {
		return fmt.Errorf("override store not available: %w", ErrStoreUnavailable)
	}
	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" || strings.TrimSpace(actionID) == "" {
		return fmt.Errorf("accountEmail, messageID, and actionID cannot be empty: %w", ErrInvalidInput)
	}
	if _, ok := s.catalog.Candidate(actionID); !ok {
		return fmt.Errorf("unknown action %q: %w", actionID, ErrInvalidInput)
	}

	if err := s.overrides.Set(ctx, accountEmail, messageID, actionID); err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	return nil
}
