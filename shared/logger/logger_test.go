// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	original := log.Writer()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer log.SetOutput(original)
	fn()
	return buf.String()
}

func TestNew(t *testing.T) {
	t.Setenv("INSTANCE_ID", "instance-123")
	l := New("guardrails")
	if l.Component != "guardrails" {
		t.Errorf("expected component guardrails, got %q", l.Component)
	}
	if l.InstanceID != "instance-123" {
		t.Errorf("expected instance-123, got %q", l.InstanceID)
	}

	t.Setenv("INSTANCE_ID", "")
	if l := New("cost"); l.InstanceID != "unknown" {
		t.Errorf("expected unknown instance id, got %q", l.InstanceID)
	}
}

func TestLogEmitsJSON(t *testing.T) {
	l := New("review")

	out := captureOutput(t, func() {
		l.Info("sess-1", "user-1", "item submitted", map[string]interface{}{
			"item_id": "abc",
		})
	})

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, out)
	}
	if entry.Level != INFO || entry.Component != "review" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.SessionID != "sess-1" || entry.UserID != "user-1" {
		t.Errorf("correlation fields missing: %+v", entry)
	}
	if entry.Fields["item_id"] != "abc" {
		t.Errorf("fields missing: %+v", entry.Fields)
	}
	if entry.Timestamp == "" {
		t.Error("expected timestamp")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &raw); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := raw["container"]; ok {
		t.Error("entries must not carry a container field")
	}
}

func TestErrorWithErr(t *testing.T) {
	l := New("audit")

	out := captureOutput(t, func() {
		l.ErrorWithErr("", "user-1", "write failed", errors.New("disk full"), nil)
	})

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry.Level != ERROR {
		t.Errorf("expected ERROR, got %s", entry.Level)
	}
	if entry.Fields["error"] != "disk full" {
		t.Errorf("expected error field, got %+v", entry.Fields)
	}
}

func TestInfoWithDuration(t *testing.T) {
	l := New("orchestrator")

	out := captureOutput(t, func() {
		l.InfoWithDuration("sess-1", "", "request planned", 12.5, nil)
	})

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry.Fields["duration_ms"] != 12.5 {
		t.Errorf("expected duration field, got %+v", entry.Fields)
	}
}
