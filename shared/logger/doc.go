// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package logger provides structured JSON logging for the governance
// pipeline. Entries are written to stdout where the container runtime
// captures them.
package logger
