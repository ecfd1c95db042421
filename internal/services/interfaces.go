package services

import (
	"context"
	"time"

	"github.com/inboxkit/triage/internal/model"
)

// CandidateSource computes the ordered eligible-candidate list for a message.
// Implementations must be pure: identical input yields identical output.
type CandidateSource interface {
	EligibleActions(m *model.Message) []model.ActionCandidate
	Candidate(actionID string) (model.ActionCandidate, bool)
}

// OverrideStore is the persistence collaborator for explicit user action
// choices. The core treats it as synchronous and authoritative.
type OverrideStore interface {
	Get(ctx context.Context, accountEmail, messageID string) (string, bool, error)
	Set(ctx context.Context, accountEmail, messageID, actionID string) error
	Delete(ctx context.Context, accountEmail, messageID string) error
}

// ActionService resolves which action to present for a message
type ActionService interface {
	EligibleActions(ctx context.Context, msg *model.Message) []model.ActionCandidate
	EffectiveAction(ctx context.Context, accountEmail string, msg *model.Message) (model.ActionCandidate, error)
	SetOverride(ctx context.Context, accountEmail, messageID, actionID string) error
}

// ChangeOutcome is the result kind of an action-change request
type ChangeOutcome string

const (
	// ChangeProceed means the change was applied immediately
	ChangeProceed ChangeOutcome = "proceed"
	// ChangeConfirm means the change narrows a compound group and needs
	// explicit user confirmation before anything is written
	ChangeConfirm ChangeOutcome = "confirm"
)

// ChangeDecision is returned by GroupService.RequestChange. For a Confirm
// outcome the labels describe what capability the user would give up.
type ChangeDecision struct {
	Outcome            ChangeOutcome
	CurrentGroupLabels []string
	CandidateLabel     string
}

// GroupService tracks compound action groups and gates changes that would
// narrow one. Pending state lives in memory only.
type GroupService interface {
	GroupFor(actionID string) ([]string, bool)
	IsSameGroup(actionA, actionB string) bool
	RequestChange(ctx context.Context, accountEmail string, msg *model.Message, candidateID string) (*ChangeDecision, error)
	ConfirmChange(ctx context.Context) error
	CancelChange()
}

// ThreadFetcher is the external collaborator performing expensive thread
// fetches. Failures are surfaced to the caller, never swallowed.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, threadID string) (*model.ThreadData, error)
}

// ThreadCacheService caches fetched thread data with a fixed TTL
type ThreadCacheService interface {
	Get(threadID string) (*model.ThreadData, bool)
	Put(threadID string, data *model.ThreadData)
	Invalidate(threadID string)
	Sweep(now time.Time) int
	GetOrFetch(ctx context.Context, threadID string) (*model.ThreadData, error)
}

// SuggestService asks an LLM provider which eligible candidate should carry
// the primary flag. Advisory only; never bypasses resolution precedence.
type SuggestService interface {
	SuggestPrimary(ctx context.Context, msg *model.Message, candidates []model.ActionCandidate) (string, error)
}
