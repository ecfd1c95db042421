package rules

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inboxkit/triage/internal/model"
)

// Catalog maps a message to its ordered list of eligible action candidates.
// Evaluation is a pure function of message content and category: no I/O, no
// shared state. Candidate order is a UI contract — conditional candidates
// first in rule order, category-fixed candidates last.
type Catalog struct{}

// NewCatalog creates an action catalog backed by the compiled-in rule tables
func NewCatalog() *Catalog {
	return &Catalog{}
}

// predicate gates a conditional candidate. Predicates receive the message and
// its pre-computed lower-cased search text and must be independently
// evaluatable: same input, same result, regardless of order.
type predicate func(m *model.Message, text string) bool

type conditionalRule struct {
	candidate model.ActionCandidate
	matches   predicate
}

// Keyword lists for the content predicates. Matching is case-insensitive
// substring search over the concatenated text fields.
var (
	scheduleKeywords = []string{"meeting", "appointment", "rsvp", "event", "schedule", "calendar"}
	paymentKeywords  = []string{"$", "payment", "fee", "invoice", "amount due"}
)

// replyProbabilityThreshold gates the urgent-reply candidate on the upstream
// reply-probability score
const replyProbabilityThreshold = 0.7

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func requiresSignature(m *model.Message, _ string) bool {
	return m.RequiresSignature
}

func mentionsScheduling(_ *model.Message, text string) bool {
	return containsAny(text, scheduleKeywords)
}

func mentionsPayment(_ *model.Message, text string) bool {
	return containsAny(text, paymentKeywords)
}

func highReplyProbability(m *model.Message, _ string) bool {
	return m.ReplyProbability >= replyProbabilityThreshold
}

// Candidate definitions shared across the rule tables
var (
	candidateSignSend = model.ActionCandidate{
		ID:          "sign_send",
		Label:       "Sign & Send",
		Description: "Sign the attached form and send it back",
		Icon:        "signature",
		IsPrimary:   true,
	}
	candidateSchedule = model.ActionCandidate{
		ID:          "schedule",
		Label:       "Add to Calendar",
		Description: "Create a calendar entry for the mentioned event",
		Icon:        "calendar",
	}
	candidatePayFee = model.ActionCandidate{
		ID:          "pay_fee",
		Label:       "Pay",
		Description: "Start a payment for the requested amount",
		Icon:        "creditcard",
	}
	candidateReplyUrgent = model.ActionCandidate{
		ID:          "reply_urgent",
		Label:       "Reply Now",
		Description: "This message likely expects a prompt reply",
		Icon:        "exclamationmark.bubble",
		IsPrimary:   true,
	}
	candidateAcknowledge = model.ActionCandidate{
		ID:          "acknowledge",
		Label:       "Got It",
		Description: "Mark the notice as seen",
		Icon:        "checkmark.circle",
	}
	candidateSaveLater = model.ActionCandidate{
		ID:          "save_later",
		Label:       "Save for Later",
		Description: "Keep the message in the review queue",
		Icon:        "bookmark",
	}
	candidateArchive = model.ActionCandidate{
		ID:          "archive",
		Label:       "Archive",
		Description: "Move the message out of the inbox",
		Icon:        "archivebox",
	}
	candidateReply = model.ActionCandidate{
		ID:          "reply",
		Label:       "Reply",
		Description: "Write a reply",
		Icon:        "arrowshape.turn.up.left",
	}
	candidateReadLater = model.ActionCandidate{
		ID:          "read_later",
		Label:       "Read Later",
		Description: "Queue the issue for reading",
		Icon:        "book",
	}
	candidateSummarize = model.ActionCandidate{
		ID:          "summarize",
		Label:       "Summarize",
		Description: "Show a short summary instead of the full issue",
		Icon:        "text.alignleft",
	}
	candidateUnsubscribe = model.ActionCandidate{
		ID:          "unsubscribe",
		Label:       "Unsubscribe",
		Description: "Stop receiving this newsletter",
		Icon:        "bell.slash",
	}
)

// conditionalRules lists content-gated candidates per category. Order here is
// the order candidates appear in, so it must not be reshuffled.
var conditionalRules = map[model.Category][]conditionalRule{
	model.CategoryNotice: {
		{candidateSignSend, requiresSignature},
		{candidateSchedule, mentionsScheduling},
		{candidatePayFee, mentionsPayment},
	},
	model.CategoryPersonal: {
		{candidateSchedule, mentionsScheduling},
		{candidateReplyUrgent, highReplyProbability},
	},
	model.CategoryNewsletter: nil,
}

// fixedCandidates lists the always-eligible candidates per category,
// appended after any conditional matches
var fixedCandidates = map[model.Category][]model.ActionCandidate{
	model.CategoryNotice:     {candidateAcknowledge, candidateSaveLater, candidateArchive},
	model.CategoryPersonal:   {candidateReply, candidateArchive},
	model.CategoryNewsletter: {candidateReadLater, candidateSummarize, candidateUnsubscribe, candidateArchive},
}

// fallbackCandidate keeps the catalog contract (non-empty output) for
// messages whose category has no table entry
var fallbackCandidate = candidateArchive

// compoundGroups lists sets of mutually substitutable actions, keyed by
// stable action identifier rather than display label. A message exposing one
// member of a group is considered to expose all of them.
var compoundGroups = [][]string{
	{"sign_send", "schedule"},
	{"read_later", "summarize"},
}

// EligibleActions returns the ordered, non-empty candidate list for a message
func (c *Catalog) EligibleActions(m *model.Message) []model.ActionCandidate {
	text := m.SearchText()

	var out []model.ActionCandidate
	for _, rule := range conditionalRules[m.Category] {
		if rule.matches(m, text) {
			out = append(out, rule.candidate)
		}
	}
	out = append(out, fixedCandidates[m.Category]...)

	if len(out) == 0 {
		out = append(out, fallbackCandidate)
	}
	return out
}

// Candidate looks up a candidate definition by identifier
func (c *Catalog) Candidate(actionID string) (model.ActionCandidate, bool) {
	for _, rules := range conditionalRules {
		for _, rule := range rules {
			if rule.candidate.ID == actionID {
				return rule.candidate, true
			}
		}
	}
	for _, fixed := range fixedCandidates {
		for _, cand := range fixed {
			if cand.ID == actionID {
				return cand, true
			}
		}
	}
	return model.ActionCandidate{}, false
}

// GroupFor returns the compound group containing the given action, if any.
// The returned slice is a copy; callers may not mutate the tables through it.
func GroupFor(actionID string) ([]string, bool) {
	for _, group := range compoundGroups {
		for _, id := range group {
			if id == actionID {
				out := make([]string, len(group))
				copy(out, group)
				return out, true
			}
		}
	}
	return nil, false
}

// snapshot mirrors the compiled-in tables for diagnostics output
type snapshot struct {
	ScheduleKeywords []string                    `yaml:"schedule_keywords"`
	PaymentKeywords  []string                    `yaml:"payment_keywords"`
	ReplyThreshold   float64                     `yaml:"reply_probability_threshold"`
	Conditional      map[model.Category][]string `yaml:"conditional_candidates"`
	Fixed            map[model.Category][]string `yaml:"fixed_candidates"`
	CompoundGroups   [][]string                  `yaml:"compound_groups"`
}

// Snapshot renders the active rule tables as YAML so operators can inspect
// what a build ships without reading source
func (c *Catalog) Snapshot() (string, error) {
	s := snapshot{
		ScheduleKeywords: scheduleKeywords,
		PaymentKeywords:  paymentKeywords,
		ReplyThreshold:   replyProbabilityThreshold,
		Conditional:      map[model.Category][]string{},
		Fixed:            map[model.Category][]string{},
		CompoundGroups:   compoundGroups,
	}
	for cat, rules := range conditionalRules {
		for _, rule := range rules {
			s.Conditional[cat] = append(s.Conditional[cat], rule.candidate.ID)
		}
	}
	for cat, fixed := range fixedCandidates {
		for _, cand := range fixed {
			s.Fixed[cat] = append(s.Fixed[cat], cand.ID)
		}
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
