// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package guardrails provides input validation and output filtering for AI
// requests: prompt-injection detection, length limits, secret redaction, and
// content safety scoring.
//
// Detection is pattern-based. A single injection-family match is surfaced as
// a warning; two or more independent families matching is treated as a
// compound attack and rejected outright.
package guardrails
