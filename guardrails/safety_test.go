// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package guardrails

import "testing"

func TestEvaluateContentSafetySSN(t *testing.T) {
	e := NewEngine(nil)

	eval := e.EvaluateContentSafety("The applicant's SSN is 123-45-6789.")
	if eval.Safe {
		t.Error("SSN-bearing content must be unsafe")
	}
	if eval.Score < unsafeScoreThreshold {
		t.Errorf("expected score >= %d, got %d", unsafeScoreThreshold, eval.Score)
	}
	if len(eval.Flags) != 1 || eval.Flags[0] != "pii:ssn" {
		t.Errorf("expected pii:ssn flag, got %v", eval.Flags)
	}
}

func TestEvaluateContentSafetyCreditCard(t *testing.T) {
	e := NewEngine(nil)

	// 4532015112830366 passes Luhn
	eval := e.EvaluateContentSafety("Card on file: 4532 0151 1283 0366")
	if eval.Safe {
		t.Error("valid card number must be unsafe")
	}
	if len(eval.Flags) == 0 || eval.Flags[0] != "pii:credit_card" {
		t.Errorf("expected pii:credit_card flag, got %v", eval.Flags)
	}

	// same shape, fails Luhn
	eval = e.EvaluateContentSafety("Order reference: 4532 0151 1283 0367")
	if !eval.Safe {
		t.Errorf("non-Luhn digit run misflagged: %+v", eval)
	}
}

func TestEvaluateContentSafetyPassport(t *testing.T) {
	e := NewEngine(nil)

	eval := e.EvaluateContentSafety("Passport AB1234567 was presented at the desk.")
	if eval.Safe {
		t.Errorf("passport number must be unsafe: %+v", eval)
	}

	// all-letter token with trailing digits too short to qualify
	eval = e.EvaluateContentSafety("Flight BA123 departs at noon.")
	if !eval.Safe {
		t.Errorf("flight number misflagged: %+v", eval)
	}
}

func TestEvaluateContentSafetyFabricatedCitation(t *testing.T) {
	e := NewEngine(nil)

	eval := e.EvaluateContentSafety("See https://example.com/report-2026 for details.")
	if !eval.Safe {
		t.Errorf("citation alone should stay under the threshold: %+v", eval)
	}
	if eval.Score != 3 {
		t.Errorf("expected score 3, got %d", eval.Score)
	}
	if len(eval.Flags) != 1 || eval.Flags[0] != "fabricated_citation" {
		t.Errorf("expected fabricated_citation flag, got %v", eval.Flags)
	}
}

func TestEvaluateContentSafetyWeightsOnce(t *testing.T) {
	e := NewEngine(nil)

	eval := e.EvaluateContentSafety("SSNs: 123-45-6789 and 987-65-4321 and 111-22-3333")
	if eval.Score != 8 {
		t.Errorf("repeated matches must count once, got score %d", eval.Score)
	}
}

func TestEvaluateContentSafetyAccumulates(t *testing.T) {
	e := NewEngine(nil)

	eval := e.EvaluateContentSafety(
		"SSN 123-45-6789, source https://example.org/data")
	if eval.Score != 11 {
		t.Errorf("expected combined score 11, got %d", eval.Score)
	}
	if len(eval.Flags) != 2 {
		t.Errorf("expected two flags, got %v", eval.Flags)
	}
}

func TestEvaluateContentSafetyClean(t *testing.T) {
	e := NewEngine(nil)

	eval := e.EvaluateContentSafety("Our Q3 revenue grew 12% over Q2.")
	if !eval.Safe || eval.Score != 0 || len(eval.Flags) != 0 {
		t.Errorf("clean content misflagged: %+v", eval)
	}
}

func TestLuhnCheck(t *testing.T) {
	valid := []string{"4532015112830366", "5425233430109903"}
	for _, n := range valid {
		if !luhnCheck(n) {
			t.Errorf("expected %s to pass Luhn", n)
		}
	}
	if luhnCheck("4532015112830367") {
		t.Error("expected altered checksum to fail Luhn")
	}
}
