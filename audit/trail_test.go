// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestTrail(t *testing.T, opts Options) *Trail {
	t.Helper()
	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "audit.log")
	}
	trail, err := NewTrail(opts, nil)
	if err != nil {
		t.Fatalf("NewTrail failed: %v", err)
	}
	t.Cleanup(func() { trail.Close() })
	return trail
}

func TestLogInteractionGeneratesID(t *testing.T) {
	trail := newTestTrail(t, Options{})

	id := trail.LogInteraction(Entry{
		UserID: "user-1",
		Action: ActionPrompt,
		Input:  "hello",
	})

	if !strings.HasPrefix(id, "ai_") {
		t.Errorf("expected id with ai_ prefix, got %q", id)
	}

	id2 := trail.LogInteraction(Entry{UserID: "user-1", Action: ActionPrompt})
	if id == id2 {
		t.Errorf("expected unique ids, got %q twice", id)
	}
}

func TestLogInteractionPersistsJSONLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	trail := newTestTrail(t, Options{Path: path})

	trail.LogInteraction(Entry{
		SessionID: "sess-1",
		UserID:    "user-1",
		AgentID:   "general",
		Action:    ActionResponse,
		Output:    "answer",
		Tokens:    TokenUsage{Prompt: 10, Completion: 5},
	})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("expected one log line")
	}

	var got Entry
	if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if got.SessionID != "sess-1" || got.UserID != "user-1" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Tokens.Total != 15 {
		t.Errorf("expected total tokens computed as 15, got %d", got.Tokens.Total)
	}
	if got.Timestamp == "" {
		t.Error("expected timestamp to be filled")
	}
}

func TestOutputTruncation(t *testing.T) {
	trail := newTestTrail(t, Options{OutputCap: 100})

	long := strings.Repeat("x", 250)
	trail.LogInteraction(Entry{Action: ActionResponse, Output: long})

	entries := trail.QueryRecent(Filter{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	out := entries[0].Output
	if !strings.Contains(out, "[truncated, 250 total]") {
		t.Errorf("expected truncation marker, got %q", out)
	}
	if !strings.HasPrefix(out, strings.Repeat("x", 100)) {
		t.Error("expected first 100 bytes preserved")
	}
	if strings.Count(out, "x") != 100 {
		t.Errorf("expected exactly 100 content bytes, got %d", strings.Count(out, "x"))
	}
}

func TestOutputTruncationKeepsRunesIntact(t *testing.T) {
	trail := newTestTrail(t, Options{OutputCap: 100})

	// 250 three-byte runes; byte 100 falls mid-rune.
	long := strings.Repeat("世", 250)
	trail.LogInteraction(Entry{Action: ActionResponse, Output: long})

	entries := trail.QueryRecent(Filter{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	out := entries[0].Output
	if !utf8.ValidString(out) {
		t.Errorf("truncated output is not valid UTF-8: %q", out)
	}
	if strings.ContainsRune(out, utf8.RuneError) {
		t.Errorf("truncation split a rune: %q", out)
	}
	if !strings.Contains(out, "[truncated, 750 total]") {
		t.Errorf("expected marker with original byte total, got %q", out)
	}
	if got := strings.Count(out, "世"); got != 33 {
		t.Errorf("expected 33 whole runes kept, got %d", got)
	}
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	trail := newTestTrail(t, Options{RingCapacity: 3})

	for i, user := range []string{"a", "b", "c", "d", "e"} {
		trail.LogInteraction(Entry{
			UserID:    user,
			Action:    ActionPrompt,
			Timestamp: time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC).Format(time.RFC3339Nano),
		})
	}

	entries := trail.QueryRecent(Filter{})
	if len(entries) != 3 {
		t.Fatalf("expected ring capacity 3, got %d entries", len(entries))
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.UserID] = true
	}
	for _, user := range []string{"c", "d", "e"} {
		if !seen[user] {
			t.Errorf("expected entry for user %q to survive", user)
		}
	}
	if seen["a"] || seen["b"] {
		t.Error("expected oldest entries to be overwritten")
	}
}

func TestQueryRecentFilters(t *testing.T) {
	trail := newTestTrail(t, Options{})

	trail.LogInteraction(Entry{SessionID: "s1", UserID: "u1", AgentID: "general", Action: ActionPrompt})
	trail.LogInteraction(Entry{SessionID: "s1", UserID: "u1", AgentID: "compliance", Action: ActionResponse})
	trail.LogInteraction(Entry{SessionID: "s2", UserID: "u2", AgentID: "general", Action: ActionPrompt})

	if got := trail.QueryRecent(Filter{SessionID: "s1"}); len(got) != 2 {
		t.Errorf("session filter: expected 2, got %d", len(got))
	}
	if got := trail.QueryRecent(Filter{UserID: "u2"}); len(got) != 1 {
		t.Errorf("user filter: expected 1, got %d", len(got))
	}
	if got := trail.QueryRecent(Filter{AgentID: "compliance", Action: ActionResponse}); len(got) != 1 {
		t.Errorf("combined filter: expected 1, got %d", len(got))
	}
	if got := trail.QueryRecent(Filter{SessionID: "missing"}); len(got) != 0 {
		t.Errorf("no-match filter: expected 0, got %d", len(got))
	}
}

func TestQueryRecentOrderAndLimit(t *testing.T) {
	trail := newTestTrail(t, Options{})

	for i := 0; i < 5; i++ {
		trail.LogInteraction(Entry{
			UserID:    "u1",
			Action:    ActionPrompt,
			Timestamp: time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC).Format(time.RFC3339Nano),
		})
	}

	got := trail.QueryRecent(Filter{Limit: 3})
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp < got[i].Timestamp {
			t.Errorf("expected newest-first order, got %q before %q",
				got[i-1].Timestamp, got[i].Timestamp)
		}
	}
}

func TestStats(t *testing.T) {
	trail := newTestTrail(t, Options{})

	trail.LogInteraction(Entry{
		AgentID: "general", Action: ActionResponse,
		Tokens: TokenUsage{Total: 100}, CostUSD: 0.01, LatencyMs: 100,
	})
	trail.LogInteraction(Entry{
		AgentID: "compliance", Action: ActionResponse,
		Tokens: TokenUsage{Total: 200}, CostUSD: 0.02, LatencyMs: 300,
	})
	trail.LogInteraction(Entry{
		AgentID: "general", Action: ActionPrompt,
		Tokens: TokenUsage{Total: 50},
	})

	stats := trail.Stats(StatsFilter{})
	if stats.TotalInteractions != 3 {
		t.Errorf("expected 3 interactions, got %d", stats.TotalInteractions)
	}
	if stats.TotalTokens != 350 {
		t.Errorf("expected 350 tokens, got %d", stats.TotalTokens)
	}
	if stats.ByAgent["general"] != 2 || stats.ByAgent["compliance"] != 1 {
		t.Errorf("unexpected by-agent counts: %v", stats.ByAgent)
	}
	if stats.ByAction[ActionResponse] != 2 {
		t.Errorf("unexpected by-action counts: %v", stats.ByAction)
	}

	filtered := trail.Stats(StatsFilter{AgentID: "compliance"})
	if filtered.TotalInteractions != 1 || filtered.TotalTokens != 200 {
		t.Errorf("agent-filtered stats wrong: %+v", filtered)
	}
	if filtered.AvgLatencyMs != 300 {
		t.Errorf("expected avg latency 300, got %f", filtered.AvgLatencyMs)
	}
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	trail := newTestTrail(t, Options{Path: path, MaxFileBytes: 200})

	for i := 0; i < 5; i++ {
		trail.LogInteraction(Entry{
			UserID: "u1",
			Action: ActionResponse,
			Output: strings.Repeat("y", 200),
		})
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	rotated := 0
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "audit.log.") {
			rotated++
		}
	}
	if rotated == 0 {
		t.Error("expected at least one rotated log file")
	}

	// current file must still be writable after rotation
	trail.LogInteraction(Entry{UserID: "u1", Action: ActionPrompt})
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected active log at %s: %v", path, err)
	}
}
