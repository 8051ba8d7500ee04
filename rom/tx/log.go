package tx

import (
	"fmt"
	"strings"
	"time"

	"github.com/joshuapare/romkit/rom/patch"
)

// Event names a step in a transaction's life.
type Event string

const (
	EventBegin       Event = "begin"
	EventWrite       Event = "write"
	EventWriteFailed Event = "write_failed"
	EventChecksum    Event = "checksum"
	EventCommit      Event = "commit"
	EventRollback    Event = "rollback"
)

// LogEntry is one audited step.
type LogEntry struct {
	Time    time.Time           `json:"time"`
	Event   Event               `json:"event"`
	Reports []patch.WriteReport `json:"reports,omitempty"`
	Detail  string              `json:"detail,omitempty"`
}

// Log is the audit trail of one transaction. Unlike the buffered reports,
// it survives rollback.
type Log struct {
	entries []LogEntry
}

func (l *Log) add(e LogEntry) {
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log entries in order.
func (l *Log) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Export renders the log for humans.
func (l *Log) Export() string {
	if len(l.entries) == 0 {
		return "Transaction log: empty"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Transaction log: %d entries\n", len(l.entries))
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	for i, e := range l.entries {
		fmt.Fprintf(&sb, "[%d] %s %s", i+1, e.Time.Format(time.RFC3339), strings.ToUpper(string(e.Event)))
		if e.Detail != "" {
			fmt.Fprintf(&sb, " - %s", e.Detail)
		}
		sb.WriteString("\n")

		// Show at most 16 reports per entry
		shown := e.Reports
		if len(shown) > 16 {
			shown = shown[:16]
		}
		for _, r := range shown {
			fmt.Fprintf(&sb, "    %s\n", r)
		}
		if len(e.Reports) > len(shown) {
			fmt.Fprintf(&sb, "    ... %d more\n", len(e.Reports)-len(shown))
		}
	}
	return sb.String()
}
