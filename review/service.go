// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"relaycrm/governance/audit"
	"relaycrm/governance/shared/logger"
)

// DefaultExpiry is how long a pending item stays actionable before it is
// reported as expired.
const DefaultExpiry = 72 * time.Hour

// Service coordinates review submissions and decisions on top of a
// Repository. Decisions are audited best-effort and asynchronously so the
// reviewer response never waits on the audit trail.
type Service struct {
	repo   Repository
	trail  *audit.Trail
	expiry time.Duration
	log    *logger.Logger

	// now is swappable in tests
	now func() time.Time
}

// NewService creates a review service. The audit trail is optional.
func NewService(repo Repository, trail *audit.Trail, log *logger.Logger) *Service {
	if log == nil {
		log = logger.New("review")
	}
	return &Service{
		repo:   repo,
		trail:  trail,
		expiry: DefaultExpiry,
		log:    log,
		now:    time.Now,
	}
}

// SetExpiry overrides the pending-item expiry window.
func (s *Service) SetExpiry(d time.Duration) {
	if d > 0 {
		s.expiry = d
	}
}

// SubmitForReview queues AI output for human review. Output flagged unsafe
// is escalated to critical priority regardless of what the caller asked for.
func (s *Service) SubmitForReview(ctx context.Context, p SubmitParams) (*SubmitResult, error) {
	if p.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if p.Output == "" {
		return nil, fmt.Errorf("%w: output is required", ErrInvalidInput)
	}

	priority := p.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, p.Priority)
	}
	if p.SafetyUnsafe {
		priority = PriorityCritical
	}

	contentType := p.ContentType
	if contentType == "" {
		contentType = ContentText
	}

	now := s.now().UTC()
	item := &Item{
		ID:          uuid.New().String(),
		SessionID:   p.SessionID,
		UserID:      p.UserID,
		AgentID:     p.AgentID,
		Title:       p.Title,
		ContentType: contentType,
		Input:       p.Input,
		Output:      p.Output,
		SafetyScore: p.SafetyScore,
		SafetyFlags: p.SafetyFlags,
		Priority:    priority,
		Status:      StatusPending,
		Metadata:    p.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.expiry),
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	history := &HistoryEntry{
		ID:        uuid.New().String(),
		ItemID:    item.ID,
		Event:     "submitted",
		ActorID:   p.UserID,
		CreatedAt: now,
	}
	if err := s.repo.AppendHistory(ctx, history); err != nil {
		s.log.ErrorWithErr(p.SessionID, p.UserID, "failed to record submission history", err,
			map[string]interface{}{"item_id": item.ID})
	}

	s.log.Info(p.SessionID, p.UserID, "review item submitted", map[string]interface{}{
		"item_id":  item.ID,
		"priority": string(priority),
		"unsafe":   p.SafetyUnsafe,
	})

	return &SubmitResult{
		ItemID:    item.ID,
		Status:    StatusPending,
		Priority:  priority,
		ExpiresAt: item.ExpiresAt,
	}, nil
}

// ApproveReview moves a pending item to approved. An optional edited output
// replaces the original on release.
func (s *Service) ApproveReview(ctx context.Context, itemID, reviewerID, notes string, editedOutput *string) (*Decision, error) {
	return s.decide(ctx, itemID, StatusApproved, reviewerID, notes, editedOutput)
}

// RejectReview moves a pending item to rejected. A reason is mandatory.
func (s *Service) RejectReview(ctx context.Context, itemID, reviewerID, reason string) (*Decision, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.decide(ctx, itemID, StatusRejected, reviewerID, reason, nil)
}

func (s *Service) decide(ctx context.Context, itemID string, status Status, reviewerID, notes string, editedOutput *string) (*Decision, error) {
	updated, err := s.repo.UpdateStatusIfPending(ctx, itemID, status, reviewerID, notes, editedOutput)
	if err != nil {
		return nil, err
	}

	verb := "approve"
	event := "approved"
	action := audit.ActionApproval
	if status == StatusRejected {
		verb = "reject"
		event = "rejected"
		action = audit.ActionRejection
	}

	if !updated {
		item, err := s.repo.Get(ctx, itemID)
		if err != nil {
			return nil, err
		}
		return &Decision{
			ItemID: itemID,
			Status: item.Status,
			Error:  fmt.Sprintf("Cannot %s item with status %q", verb, item.Status),
		}, nil
	}

	history := &HistoryEntry{
		ID:        uuid.New().String(),
		ItemID:    itemID,
		Event:     event,
		ActorID:   reviewerID,
		Notes:     notes,
		Edited:    editedOutput != nil,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.AppendHistory(ctx, history); err != nil {
		s.log.ErrorWithErr("", reviewerID, "failed to record decision history", err,
			map[string]interface{}{"item_id": itemID})
	}

	if s.trail != nil {
		go s.trail.LogInteraction(audit.Entry{
			UserID: reviewerID,
			Action: action,
			Input:  itemID,
			Output: notes,
			Metadata: map[string]interface{}{
				"item_id": itemID,
			},
		})
	}

	s.log.Info("", reviewerID, "review decision recorded", map[string]interface{}{
		"item_id": itemID,
		"status":  string(status),
	})

	return &Decision{Success: true, ItemID: itemID, Status: status}, nil
}

// GetItem returns a single review item.
func (s *Service) GetItem(ctx context.Context, itemID string) (*Item, error) {
	return s.repo.Get(ctx, itemID)
}

// ListQueue returns items matching the filter.
func (s *Service) ListQueue(ctx context.Context, filter QueueFilter) ([]*Item, error) {
	return s.repo.List(ctx, filter)
}

// GetHistory returns an item's lifecycle events.
func (s *Service) GetHistory(ctx context.Context, itemID string) ([]*HistoryEntry, error) {
	return s.repo.History(ctx, itemID)
}

// GetStats summarizes the queue.
func (s *Service) GetStats(ctx context.Context) (*QueueStats, error) {
	return s.repo.Stats(ctx)
}
