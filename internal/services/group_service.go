package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/inboxkit/triage/internal/model"
	"github.com/inboxkit/triage/internal/rules"
)

// changeState tracks the pending-change lifecycle:
// idle -> pendingConfirmation -> idle (committed or cancelled)
type changeState int

const (
	stateIdle changeState = iota
	statePendingConfirmation
)

type pendingChange struct {
	accountEmail string
	messageID    string
	candidateID  string
}

// GroupServiceImpl implements GroupService. Group membership comes from the
// compiled-in tables in the rules package, keyed by stable action identifier.
type GroupServiceImpl struct {
	actions ActionService
	catalog CandidateSource

	mu      sync.Mutex
	state   changeState
	pending *pendingChange

	logger *log.Logger // Optional - for debug logging
}

// NewGroupService creates a new compound group service
func NewGroupService(actions ActionService, catalog CandidateSource) *GroupServiceImpl {
	return &GroupServiceImpl{
		actions: actions,
		catalog: catalog,
	}
}

// SetLogger sets the logger for debug output
func (s *GroupServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// GroupFor returns the compound group containing the action, if any
func (s *GroupServiceImpl) GroupFor(actionID string) ([]string, bool) {
	return rules.GroupFor(actionID)
}

// IsSameGroup reports whether two actions are mutually substitutable. For an
// ungrouped action only the identical action matches; switching between two
// distinct ungrouped actions is never "same group".
func (s *GroupServiceImpl) IsSameGroup(actionA, actionB string) bool {
	if actionA == actionB {
		return true
	}
	group, ok := rules.GroupFor(actionA)
	if !ok {
		return false
	}
	for _, id := range group {
		if id == actionB {
			return true
		}
	}
	return false
}

// RequestChange decides how to handle switching the message's action to
// candidateID. Within a group (or from an ungrouped action) the change is
// applied immediately. Leaving a group returns a Confirm decision and parks
// the change until ConfirmChange or CancelChange.
func (s *GroupServiceImpl) RequestChange(ctx context.Context, accountEmail string, msg *model.Message, candidateID string) (*ChangeDecision, error) {
	if msg == nil || candidateID == "" {
		return nil, fmt.Errorf("message and candidateID are required: %w", ErrInvalidInput)
	}

	current, err := s.actions.EffectiveAction(ctx, accountEmail, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current action: %w", err)
	}

	group, grouped := rules.GroupFor(current.ID)
	if !grouped || s.IsSameGroup(current.ID, candidateID) {
		if current.ID != candidateID {
			if err := s.actions.SetOverride(ctx, accountEmail, msg.ID, candidateID); err != nil {
				return nil, err
			}
		}
		return &ChangeDecision{Outcome: ChangeProceed}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == statePendingConfirmation {
		return nil, ErrChangeAlreadyPending
	}
	s.state = statePendingConfirmation
	s.pending = &pendingChange{
		accountEmail: accountEmail,
		messageID:    msg.ID,
		candidateID:  candidateID,
	}

	return &ChangeDecision{
		Outcome:            ChangeConfirm,
		CurrentGroupLabels: s.labelsFor(group),
		CandidateLabel:     s.labelFor(candidateID),
	}, nil
}

// ConfirmChange commits the pending change after the user accepted the
// confirmation prompt
func (s *GroupServiceImpl) ConfirmChange(ctx context.Context) error {
	s.mu.Lock()
	if s.state != statePendingConfirmation || s.pending == nil {
		s.mu.Unlock()
		return ErrNoPendingChange
	}
	change := *s.pending
	s.state = stateIdle
	s.pending = nil
	s.mu.Unlock()

	if err := s.actions.SetOverride(ctx, change.accountEmail, change.messageID, change.candidateID); err != nil {
		return fmt.Errorf("failed to commit action change: %w", err)
	}
	if s.logger != nil {
		s.logger.Printf("compound group: committed change to %s for message %s", change.candidateID, change.messageID)
	}
	return nil
}

// CancelChange drops the pending change. Nothing has been written anywhere,
// so cancellation has no side effects beyond clearing the pending state.
func (s *GroupServiceImpl) CancelChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateIdle
	s.pending = nil
}

func (s *GroupServiceImpl) labelsFor(group []string) []string {
	out := make([]string, 0, len(group))
	for _, id := range group {
		out = append(out, s.labelFor(id))
	}
	return out
}

func (s *GroupServiceImpl) labelFor(actionID string) string {
	if cand, ok := s.catalog.Candidate(actionID); ok {
		return cand.Label
	}
	return actionID
}
