// Package submission defines the shared shape of program applications.
package submission

import (
	"strings"
	"time"
)

// Status is the review state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus normalizes raw into a recognized Status. The second return is
// false for any value outside the fixed set.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// RoleAdmin is the role allowed to see the global queue and move statuses.
const RoleAdmin = "admin"

// Identity is the authenticated caller asserted by the access guard.
type Identity struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the identity carries the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Ref identifies a freshly created submission and the table it landed in.
type Ref struct {
	ID     int64  `json:"id"`
	Table  string `json:"table"`
	Type   string `json:"type"`
	Status Status `json:"status"`
}

// HistoryEntry is one normalized row of the unified history projection.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	TypeLabel string    `json:"type"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Requester string    `json:"requester,omitempty"`
}

// Record is a single submission read back by id. Data carries the stored
// payload for generic-fallback rows only; dedicated schemas expose their
// attributes through the synthesized title.
type Record struct {
	ID        int64                  `json:"id"`
	UserID    int64                  `json:"user_id"`
	Type      string                 `json:"type"`
	Table     string                 `json:"table"`
	Status    Status                 `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	Title     string                 `json:"title"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
