package guard

import "ai-taskpilot-be/pkg/store"

// Kind is the verdict category for one proposal.
type Kind string

const (
	Approved          Kind = "approved"
	Rejected          Kind = "rejected"
	NeedsConfirmation Kind = "needs_confirmation"
)

// Code places a non-approved verdict in the failure taxonomy so callers can
// route it without string matching.
type Code string

const (
	CodeValidationRejected          Code = "validation_rejected"
	CodeNeedsClarification          Code = "needs_clarification"
	CodeAmbiguousMatch              Code = "ambiguous_match"
	CodeUnconfirmedDestructiveBatch Code = "unconfirmed_destructive_batch"
)

// Verdict is the guard's answer for one proposal. The guard never mutates
// session memory itself; the memory-effect fields tell the task controller
// exactly what to write after a blocked proposal, and ResolvedArgs carries
// argument rewrites (candidate or confirmation resolution) for an approved
// one.
type Verdict struct {
	Kind    Kind
	Code    Code
	Reason  string   // rejected: why
	Prompt  string   // needs_confirmation: the question to surface
	Missing []string // needs_confirmation on missing fields: exactly which

	ResolvedArgs map[string]interface{}

	SetCandidates   []string
	SetPending      *store.PendingAction
	ClearPending    bool
	ClearCandidates bool
}

func approved() *Verdict {
	return &Verdict{Kind: Approved}
}

func rejected(code Code, reason string) *Verdict {
	return &Verdict{Kind: Rejected, Code: code, Reason: reason}
}

func needsConfirmation(code Code, prompt string) *Verdict {
	return &Verdict{Kind: NeedsConfirmation, Code: code, Prompt: prompt}
}
