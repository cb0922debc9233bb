// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package guardrails

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// unsafeScoreThreshold marks content unsafe once the weighted rule score
// reaches it. PII-shaped findings alone are enough to cross it.
const unsafeScoreThreshold = 8

// SafetyEvaluation is the result of weighted content-safety scoring.
type SafetyEvaluation struct {
	Safe  bool     `json:"safe"`
	Score int      `json:"score"`
	Flags []string `json:"flags,omitempty"`
}

// safetyRule is a single weighted evaluation rule. The validate hook, when
// set, confirms a raw regex match before it contributes to the score.
type safetyRule struct {
	flag     string
	weight   int
	regex    *regexp.Regexp
	validate func(match string) bool
}

// Category weights are fixed; rules may be appended but never silently
// reordered, since flag order is part of the evaluation output.
var safetyRules = []safetyRule{
	{
		flag:   "pii:ssn",
		weight: 8,
		regex:  regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	},
	{
		flag:     "pii:credit_card",
		weight:   8,
		regex:    regexp.MustCompile(`\b(?:\d[ -]?){15,16}\b`),
		validate: isCardNumber,
	},
	{
		flag:     "pii:passport",
		weight:   8,
		regex:    regexp.MustCompile(`\b[A-Z]{1,2}[0-9]{6,9}\b`),
		validate: isPassportShaped,
	},
	{
		flag:   "fabricated_citation",
		weight: 3,
		regex:  regexp.MustCompile(`(?i)https?://(www\.)?example\.(com|org|net)\S*`),
	},
}

// EvaluateContentSafety runs the weighted rule table over text. Each rule
// contributes its weight at most once regardless of how often it matches.
func (e *Engine) EvaluateContentSafety(text string) SafetyEvaluation {
	eval := SafetyEvaluation{Safe: true}

	for _, rule := range safetyRules {
		matches := rule.regex.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		matched := false
		for _, m := range matches {
			if rule.validate == nil || rule.validate(m) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		eval.Score += rule.weight
		eval.Flags = append(eval.Flags, rule.flag)
	}

	eval.Safe = eval.Score < unsafeScoreThreshold
	return eval
}

// isCardNumber checks that a digit run is 16 digits and passes the Luhn
// checksum, cutting false positives from arbitrary numeric strings.
func isCardNumber(match string) bool {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, match)

	if len(clean) != 16 {
		return false
	}
	return luhnCheck(clean)
}

// luhnCheck performs the Luhn algorithm check.
func luhnCheck(number string) bool {
	sum := 0
	alternate := false

	for i := len(number) - 1; i >= 0; i-- {
		digit, _ := strconv.Atoi(string(number[i]))

		if alternate {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		alternate = !alternate
	}

	return sum%10 == 0
}

// isPassportShaped filters out all-letter or implausibly short matches.
func isPassportShaped(match string) bool {
	if len(match) < 7 || len(match) > 11 {
		return false
	}
	digits := 0
	for _, r := range match {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 6
}
