// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package review

import "errors"

var (
	// ErrNotFound is returned when a review item does not exist.
	ErrNotFound = errors.New("review item not found")

	// ErrReasonRequired is returned when a rejection carries no reason.
	ErrReasonRequired = errors.New("rejection reason is required")

	// ErrInvalidInput is returned for malformed submissions.
	ErrInvalidInput = errors.New("invalid input")
)
