// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package cost provides per-user and per-agent token accounting, daily
// budget checks, and usage reporting for AI requests. Budgets are advisory:
// an exhausted budget surfaces a warning to the caller rather than blocking
// the request.
package cost
