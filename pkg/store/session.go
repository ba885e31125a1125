package store

import "time"

// SessionKey identifies one logical conversation. The transport supplies all
// three parts; resolution falls back through them in order so that follow-up
// turns land on the same record even when the client only forwards a trace id.
type SessionKey struct {
	GroupId     string `json:"group_id"`
	FromTraceId string `json:"from_trace_id"`
	TraceId     string `json:"trace_id"`
}

// String returns the cache key for this session.
func (k SessionKey) String() string {
	if k.GroupId != "" {
		return k.GroupId
	}
	if k.FromTraceId != "" {
		return k.FromTraceId
	}
	return k.TraceId
}

// IsZero reports whether no identifying part was supplied.
func (k SessionKey) IsZero() bool {
	return k.GroupId == "" && k.FromTraceId == "" && k.TraceId == ""
}

// PendingAction is a tool call held back by the guard until the user confirms
// it in a follow-up turn.
type PendingAction struct {
	ToolName string   `json:"tool_name"`
	Ids      []string `json:"ids"`
}

// MemoryRecord is the short-term state of one conversation.
//
// LastCandidates is the waiting room: ids shown to the user after an
// ambiguous title lookup, so "those ids" can be resolved on the next turn.
// Pending is a destructive batch parked until the user confirms it.
type MemoryRecord struct {
	LastCandidates []string       `json:"last_candidates"`
	Pending        *PendingAction `json:"pending_action,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewMemoryRecord returns an empty record stamped with the current time.
func NewMemoryRecord() *MemoryRecord {
	now := time.Now()
	return &MemoryRecord{CreatedAt: now, UpdatedAt: now}
}

// Touch resets the freshness clock. Callers must Touch before saving.
func (r *MemoryRecord) Touch() {
	r.UpdatedAt = time.Now()
}
