package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inboxkit/triage/internal/model"
	"github.com/inboxkit/triage/internal/rules"
)

func newGroupHarness() (*GroupServiceImpl, *fakeOverrideStore) {
	catalog := rules.NewCatalog()
	store := newFakeOverrideStore()
	actions := NewActionService(catalog, store)
	return NewGroupService(actions, catalog), store
}

func TestIsSameGroup(t *testing.T) {
	service, _ := newGroupHarness()

	tests := []struct {
		name     string
		actionA  string
		actionB  string
		expected bool
	}{
		{"identical_grouped", "sign_send", "sign_send", true},
		{"identical_ungrouped", "archive", "archive", true},
		{"within_group", "sign_send", "schedule", true},
		{"within_group_reversed", "schedule", "sign_send", true},
		{"across_groups", "sign_send", "read_later", false},
		{"grouped_vs_ungrouped", "sign_send", "archive", false},
		{"two_distinct_ungrouped", "archive", "acknowledge", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, service.IsSameGroup(tt.actionA, tt.actionB))
		})
	}
}

func TestRequestChange_WithinGroupProceeds(t *testing.T) {
	ctx := context.Background()
	service, store := newGroupHarness()
	msg := signatureMessage() // resolves to sign_send

	decision, err := service.RequestChange(ctx, "user@example.com", msg, "schedule")

	assert.NoError(t, err)
	assert.Equal(t, ChangeProceed, decision.Outcome)
	// sign_send -> schedule stays inside the group, applied immediately
	assert.Equal(t, "schedule", store.records[overrideKey("user@example.com", msg.ID)])
}

func TestRequestChange_SameActionProceedsWithoutWrite(t *testing.T) {
	ctx := context.Background()
	service, store := newGroupHarness()
	msg := signatureMessage()

	decision, err := service.RequestChange(ctx, "user@example.com", msg, "sign_send")

	assert.NoError(t, err)
	assert.Equal(t, ChangeProceed, decision.Outcome)
	assert.Equal(t, 0, store.setCalls)
}

func TestRequestChange_LeavingGroupAsksForConfirmation(t *testing.T) {
	ctx := context.Background()
	service, store := newGroupHarness()
	msg := signatureMessage()

	decision, err := service.RequestChange(ctx, "user@example.com", msg, "archive")

	assert.NoError(t, err)
	assert.Equal(t, ChangeConfirm, decision.Outcome)
	assert.Equal(t, []string{"Sign & Send", "Add to Calendar"}, decision.CurrentGroupLabels)
	assert.Equal(t, "Archive", decision.CandidateLabel)
	// Nothing is written until the user confirms
	assert.Equal(t, 0, store.setCalls)
	assert.Empty(t, store.records)
}

func TestConfirmChange_CommitsPendingChange(t *testing.T) {
	ctx := context.Background()
	service, store := newGroupHarness()
	msg := signatureMessage()

	decision, err := service.RequestChange(ctx, "user@example.com", msg, "archive")
	assert.NoError(t, err)
	assert.Equal(t, ChangeConfirm, decision.Outcome)

	assert.NoError(t, service.ConfirmChange(ctx))
	assert.Equal(t, "archive", store.records[overrideKey("user@example.com", msg.ID)])

	// The pending slot is consumed; a second confirm has nothing to commit
	assert.ErrorIs(t, service.ConfirmChange(ctx), ErrNoPendingChange)
}

func TestCancelChange_MutatesNothing(t *testing.T) {
	ctx := context.Background()
	service, store := newGroupHarness()
	msg := signatureMessage()

	_, err := service.RequestChange(ctx, "user@example.com", msg, "archive")
	assert.NoError(t, err)

	service.CancelChange()

	assert.Equal(t, 0, store.setCalls)
	assert.Empty(t, store.records)
	assert.ErrorIs(t, service.ConfirmChange(ctx), ErrNoPendingChange)

	// The resolved action is unchanged after cancellation
	actions := NewActionService(rules.NewCatalog(), store)
	cand, err := actions.EffectiveAction(ctx, "user@example.com", msg)
	assert.NoError(t, err)
	assert.Equal(t, "sign_send", cand.ID)
}

func TestCancelChange_IdleIsANoOp(t *testing.T) {
	service, _ := newGroupHarness()

	service.CancelChange()

	assert.ErrorIs(t, service.ConfirmChange(context.Background()), ErrNoPendingChange)
}

func TestRequestChange_SecondRequestWhilePending(t *testing.T) {
	ctx := context.Background()
	service, _ := newGroupHarness()
	msg := signatureMessage()

	_, err := service.RequestChange(ctx, "user@example.com", msg, "archive")
	assert.NoError(t, err)

	_, err = service.RequestChange(ctx, "user@example.com", msg, "save_later")
	assert.ErrorIs(t, err, ErrChangeAlreadyPending)
}

func TestRequestChange_FromUngroupedActionProceeds(t *testing.T) {
	ctx := context.Background()
	service, store := newGroupHarness()
	// A plain notice resolves to acknowledge, which belongs to no group
	msg := &model.Message{ID: "m3", Category: model.CategoryNotice, Title: "Picture day is coming"}

	decision, err := service.RequestChange(ctx, "user@example.com", msg, "archive")

	assert.NoError(t, err)
	assert.Equal(t, ChangeProceed, decision.Outcome)
	assert.Equal(t, "archive", store.records[overrideKey("user@example.com", msg.ID)])
}

func TestRequestChange_Validation(t *testing.T) {
	ctx := context.Background()
	service, _ := newGroupHarness()

	_, err := service.RequestChange(ctx, "user@example.com", nil, "archive")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.RequestChange(ctx, "user@example.com", signatureMessage(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGroupFor_DelegatesToRuleTables(t *testing.T) {
	service, _ := newGroupHarness()

	group, ok := service.GroupFor("summarize")
	assert.True(t, ok)
	assert.Equal(t, []string{"read_later", "summarize"}, group)

	_, ok = service.GroupFor("pay_fee")
	assert.False(t, ok)
}
