// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"relaycrm/governance/shared/logger"
)

const (
	// DefaultRingCapacity bounds the in-memory recent-entry cache.
	DefaultRingCapacity = 500

	// DefaultMaxFileBytes triggers log rotation (50 MB).
	DefaultMaxFileBytes = 50 * 1024 * 1024

	// DefaultOutputCap truncates stored output snapshots.
	DefaultOutputCap = 5000

	// DefaultQueryLimit caps QueryRecent results when no limit is given.
	DefaultQueryLimit = 50
)

var writesDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "audit_writes_dropped_total",
	Help: "Audit log appends that failed and were dropped.",
})

// Options configures a Trail.
type Options struct {
	Path         string // durable log path, required
	RingCapacity int    // 0 means DefaultRingCapacity
	MaxFileBytes int64  // 0 means DefaultMaxFileBytes
	OutputCap    int    // 0 means DefaultOutputCap
}

// Trail is the audit trail service. Writes go to the ring buffer and are
// appended to the durable log; persistence failures are logged and counted
// but never surfaced, so audit logging cannot break a request path.
type Trail struct {
	mu sync.Mutex

	ring     []Entry
	next     int // monotonically increasing write pointer
	capacity int

	path         string
	file         *os.File
	maxFileBytes int64
	outputCap    int

	log *logger.Logger
}

// NewTrail opens (or creates) the durable log at opts.Path.
func NewTrail(opts Options, log *logger.Logger) (*Trail, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("audit log path is required")
	}
	if opts.RingCapacity <= 0 {
		opts.RingCapacity = DefaultRingCapacity
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if opts.OutputCap <= 0 {
		opts.OutputCap = DefaultOutputCap
	}
	if log == nil {
		log = logger.New("audit")
	}

	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return &Trail{
		ring:         make([]Entry, opts.RingCapacity),
		capacity:     opts.RingCapacity,
		path:         opts.Path,
		file:         file,
		maxFileBytes: opts.MaxFileBytes,
		outputCap:    opts.OutputCap,
		log:          log,
	}, nil
}

// LogInteraction records an entry. It generates an id, fills defaults,
// truncates oversized output, writes the ring buffer, and appends a JSON
// line to the durable log. The generated id is returned; failures to persist
// are swallowed by design.
func (t *Trail) LogInteraction(entry Entry) string {
	if entry.ID == "" {
		entry.ID = newEntryID()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if entry.Action == "" {
		entry.Action = ActionPrompt
	}
	if entry.Tokens.Total == 0 {
		entry.Tokens.Total = entry.Tokens.Prompt + entry.Tokens.Completion
	}
	if len(entry.Output) > t.outputCap {
		total := len(entry.Output)
		// Back off to a rune boundary so the cut never splits a code point.
		cut := t.outputCap
		for cut > 0 && !utf8.RuneStart(entry.Output[cut]) {
			cut--
		}
		entry.Output = entry.Output[:cut] +
			fmt.Sprintf("... [truncated, %d total]", total)
	}

	t.mu.Lock()
	t.ring[t.next%t.capacity] = entry
	t.next++
	t.mu.Unlock()

	if err := t.append(entry); err != nil {
		writesDropped.Inc()
		t.log.ErrorWithErr(entry.SessionID, entry.UserID,
			"failed to append audit entry", err, map[string]interface{}{
				"entry_id": entry.ID,
			})
	}

	return entry.ID
}

// append writes one JSON line and rotates the file when it grows past the
// size threshold.
func (t *Trail) append(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := fmt.Fprintf(t.file, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	info, err := t.file.Stat()
	if err == nil && info.Size() > t.maxFileBytes {
		t.rotateLocked()
	}
	return nil
}

// rotateLocked renames the current log to a timestamped path and reopens a
// fresh file. Rotation failures are logged; the old handle stays usable so
// appends keep going. Callers must hold t.mu.
func (t *Trail) rotateLocked() {
	rotated := fmt.Sprintf("%s.%s", t.path, time.Now().UTC().Format("20060102T150405"))

	if err := t.file.Close(); err != nil {
		t.log.ErrorWithErr("", "", "failed to close audit log for rotation", err, nil)
	}
	if err := os.Rename(t.path, rotated); err != nil {
		t.log.ErrorWithErr("", "", "failed to rotate audit log", err, map[string]interface{}{
			"rotated_path": rotated,
		})
	}

	file, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.log.ErrorWithErr("", "", "failed to reopen audit log after rotation", err, nil)
		return
	}
	t.file = file
	t.log.Info("", "", "audit log rotated", map[string]interface{}{
		"rotated_path": rotated,
	})
}

// QueryRecent filters the ring buffer snapshot. This is a best-effort
// recent-window query; full history lives in the durable log.
func (t *Trail) QueryRecent(f Filter) []Entry {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	snapshot := t.snapshot()

	var matched []Entry
	for _, e := range snapshot {
		if f.SessionID != "" && e.SessionID != f.SessionID {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.AgentID != "" && e.AgentID != f.AgentID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		matched = append(matched, e)
	}

	// RFC3339 timestamps sort lexicographically
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp > matched[j].Timestamp
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Stats aggregates ring-buffer entries, optionally since a cutoff.
func (t *Trail) Stats(f StatsFilter) *Stats {
	stats := &Stats{
		ByAgent:  make(map[string]int),
		ByAction: make(map[Action]int),
	}

	var totalLatency int64
	for _, e := range t.snapshot() {
		if f.AgentID != "" && e.AgentID != f.AgentID {
			continue
		}
		if !f.Since.IsZero() {
			ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
			if err != nil || ts.Before(f.Since) {
				continue
			}
		}

		stats.TotalInteractions++
		stats.TotalTokens += e.Tokens.Total
		stats.TotalCostUSD += e.CostUSD
		totalLatency += e.LatencyMs
		if e.AgentID != "" {
			stats.ByAgent[e.AgentID]++
		}
		stats.ByAction[e.Action]++
	}

	if stats.TotalInteractions > 0 {
		stats.AvgLatencyMs = float64(totalLatency) / float64(stats.TotalInteractions)
	}
	return stats
}

// Close flushes and closes the durable log.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}

// snapshot copies live ring entries under the lock.
func (t *Trail) snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.next
	if n > t.capacity {
		n = t.capacity
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, t.ring[i])
	}
	return out
}

// newEntryID generates ids of the form ai_<timestamp36>_<random>.
func newEntryID() string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return "ai_" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "_" + hex.EncodeToString(buf[:])
}
