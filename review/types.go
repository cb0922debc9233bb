// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package review implements the human review queue for flagged AI output.
// Items enter pending and leave exactly once, approved or rejected; every
// transition is appended to an immutable history table.
package review

import "time"

// Status is the review lifecycle state. Pending is the only non-terminal
// state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Priority orders the reviewer worklist.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// rank maps priorities to sort order, most urgent first.
func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ContentType describes what kind of artifact is under review.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentDocument ContentType = "document"
	ContentTemplate ContentType = "template"
	ContentData     ContentType = "data"
)

// Item is one queued review.
type Item struct {
	ID           string                 `json:"id"`
	SessionID    string                 `json:"session_id,omitempty"`
	UserID       string                 `json:"user_id"`
	AgentID      string                 `json:"agent_id,omitempty"`
	Title        string                 `json:"title,omitempty"`
	ContentType  ContentType            `json:"content_type"`
	Input        string                 `json:"input,omitempty"`
	Output       string                 `json:"output"`
	EditedOutput string                 `json:"edited_output,omitempty"`
	SafetyScore  int                    `json:"safety_score"`
	SafetyFlags  []string               `json:"safety_flags,omitempty"`
	Priority     Priority               `json:"priority"`
	Status       Status                 `json:"status"`
	ReviewerID   string                 `json:"reviewer_id,omitempty"`
	ReviewNotes  string                 `json:"review_notes,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	ExpiresAt    time.Time              `json:"expires_at"`
}

// HistoryEntry is one immutable audit row for an item. Edited marks
// decisions that replaced the stored output.
type HistoryEntry struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Event     string    `json:"event"` // submitted, approved, rejected
	ActorID   string    `json:"actor_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Edited    bool      `json:"edited,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitParams describes a new review submission.
type SubmitParams struct {
	SessionID    string                 `json:"session_id,omitempty"`
	UserID       string                 `json:"user_id"`
	AgentID      string                 `json:"agent_id,omitempty"`
	Title        string                 `json:"title,omitempty"`
	ContentType  ContentType            `json:"content_type,omitempty"`
	Input        string                 `json:"input,omitempty"`
	Output       string                 `json:"output"`
	SafetyScore  int                    `json:"safety_score"`
	SafetyFlags  []string               `json:"safety_flags,omitempty"`
	SafetyUnsafe bool                   `json:"safety_unsafe"`
	Priority     Priority               `json:"priority,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// SubmitResult acknowledges a submission.
type SubmitResult struct {
	ItemID    string    `json:"item_id"`
	Status    Status    `json:"status"`
	Priority  Priority  `json:"priority"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Decision is the outcome of an approve or reject attempt. Invalid state
// transitions are reported in-band rather than as errors so callers can
// relay them to reviewers verbatim.
type Decision struct {
	Success bool   `json:"success"`
	ItemID  string `json:"item_id"`
	Status  Status `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// QueueFilter narrows a queue listing. Zero values match everything.
type QueueFilter struct {
	Status   Status
	Priority Priority
	UserID   string
	AgentID  string
	Limit    int
	Offset   int
}

// QueueStats summarizes the queue for dashboards. Expired counts pending
// items past their expiry; expiry is computed at read time, never enforced
// by a sweeper.
type QueueStats struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"by_status"`
	ByPriority map[Priority]int `json:"by_priority"`
	ByAgent    map[string]int   `json:"by_agent"`
	Expired    int              `json:"expired"`
}
