// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package guardrails

import "regexp"

// secretPattern pairs a detection regex with the marker that replaces it.
type secretPattern struct {
	name   string
	regex  *regexp.Regexp
	marker string
}

// Precompiled redaction patterns. Each replacement consumes the whole match
// (key and value) so filtering is idempotent: markers contain nothing the
// patterns match.
var secretPatterns = []secretPattern{
	{
		name:   "pem_block",
		regex:  regexp.MustCompile(`(?s)-----BEGIN [A-Z0-9 ]+-----.*?-----END [A-Z0-9 ]+-----`),
		marker: "[REDACTED_KEY_MATERIAL]",
	},
	{
		name:   "pem_header",
		regex:  regexp.MustCompile(`-----BEGIN [A-Z0-9 ]+-----`),
		marker: "[REDACTED_KEY_MATERIAL]",
	},
	{
		name:   "password_assignment",
		regex:  regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[=:]\s*['"]?[^'"\s]+['"]?`),
		marker: "[REDACTED_PASSWORD]",
	},
	{
		name:   "key_assignment",
		regex:  regexp.MustCompile(`(?i)\b(api[_-]?key|apikey|secret[_-]?key|secret|access[_-]?token|auth[_-]?token)\s*[=:]\s*['"]?[^'"\s]+['"]?`),
		marker: "[REDACTED_KEY]",
	},
	{
		name:   "bearer_token",
		regex:  regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{8,}=*`),
		marker: "[REDACTED_TOKEN]",
	},
	{
		name:   "vendor_key_prefix",
		regex:  regexp.MustCompile(`\b[sprk]k_(live|test)_[A-Za-z0-9]{8,}\b|\bsk-[A-Za-z0-9]{20,}\b`),
		marker: "[REDACTED_KEY]",
	},
}

// FilterResult is the outcome of output filtering.
type FilterResult struct {
	Filtered   string `json:"filtered"`
	Redactions int    `json:"redactions"`
}

// FilterOutput scans model output for secret-like patterns and replaces each
// match with a redaction marker. The redaction count is returned for
// telemetry; a warning is logged whenever anything was redacted.
func (e *Engine) FilterOutput(text string) FilterResult {
	filtered := text
	redactions := 0

	for _, sp := range secretPatterns {
		matches := sp.regex.FindAllStringIndex(filtered, -1)
		if len(matches) == 0 {
			continue
		}
		redactions += len(matches)
		filtered = sp.regex.ReplaceAllString(filtered, sp.marker)
	}

	if redactions > 0 {
		e.log.Warn("", "", "secrets redacted from model output", map[string]interface{}{
			"redactions": redactions,
		})
	}
	return FilterResult{Filtered: filtered, Redactions: redactions}
}
