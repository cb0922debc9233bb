// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package guardrails

import "fmt"

// Machine-readable rejection codes surfaced to callers. The exact matched
// pattern is never included, so an attacker cannot iterate past the filter.
const (
	CodeInputRequired     = "AI_INPUT_REQUIRED"
	CodeInputTooLong      = "AI_INPUT_TOO_LONG"
	CodeInjectionDetected = "AI_PROMPT_INJECTION_DETECTED"
)

// InputError is returned when input validation rejects a request.
// It carries a machine-readable code and a generic, non-revealing message.
type InputError struct {
	Code    string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newInputError(code, message string) *InputError {
	return &InputError{Code: code, Message: message}
}

// IsInputError reports whether err is a guardrail rejection and returns its code.
func IsInputError(err error) (string, bool) {
	if ie, ok := err.(*InputError); ok {
		return ie.Code, true
	}
	return "", false
}
