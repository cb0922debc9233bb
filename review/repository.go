// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package review

import "context"

// Repository persists review items and their history.
type Repository interface {
	// Create inserts a new pending item.
	Create(ctx context.Context, item *Item) error

	// Get returns an item by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Item, error)

	// List returns items matching the filter, most urgent first.
	List(ctx context.Context, filter QueueFilter) ([]*Item, error)

	// UpdateStatusIfPending atomically moves a pending item to a terminal
	// status. A non-nil editedOutput replaces the stored output. It returns
	// false with no error when the item exists but is no longer pending.
	UpdateStatusIfPending(ctx context.Context, id string, status Status, reviewerID, notes string, editedOutput *string) (bool, error)

	// AppendHistory records one immutable lifecycle event.
	AppendHistory(ctx context.Context, entry *HistoryEntry) error

	// History returns an item's lifecycle events oldest first.
	History(ctx context.Context, itemID string) ([]*HistoryEntry, error)

	// Stats summarizes the current queue.
	Stats(ctx context.Context) (*QueueStats, error)
}
