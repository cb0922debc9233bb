// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package orchestrator

import "errors"

// ErrUnknownAgent is returned when a request names an agent id that is not
// in the registry.
var ErrUnknownAgent = errors.New("unknown agent")
