package httpapi

import (
	"sync"
	"time"
)

// auditEntry records one administrative status change.
type auditEntry struct {
	Time         time.Time `json:"time"`
	AdminID      int64     `json:"admin_id"`
	SubmissionID int64     `json:"submission_id"`
	Type         string    `json:"type,omitempty"`
	Status       string    `json:"status"`
}

// auditLog is a bounded in-memory trail of status transitions, newest last.
type auditLog struct {
	mu      sync.Mutex
	entries []auditEntry
	max     int
}

func newAuditLog(max int) *auditLog {
	if max <= 0 {
		max = 200
	}
	return &auditLog{max: max}
}

func (l *auditLog) add(entry auditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

func (l *auditLog) list() []auditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]auditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
