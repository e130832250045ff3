package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/portal-umkm/submission-service/internal/app/domain/submission"
	"github.com/portal-umkm/submission-service/internal/app/schema"
)

// Memory is a thread-safe in-memory SubmissionStore. It mirrors the SQL
// implementation's semantics (per-table ids, pending defaults, title
// synthesis, descending history order) and is intended for tests and
// prototyping.
type Memory struct {
	mu     sync.RWMutex
	nextID map[string]int64
	tables map[string][]memRow
	users  map[int64]string
}

type memRow struct {
	id        int64
	userID    int64
	tag       string
	status    submission.Status
	createdAt time.Time
	title     string
	values    map[string]interface{}
	data      map[string]interface{}
}

var _ SubmissionStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID: make(map[string]int64),
		tables: make(map[string][]memRow),
		users:  make(map[int64]string),
	}
}

// SeedUser registers a display name for a user id, mirroring the users table.
func (m *Memory) SeedUser(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = name
}

// AddForumPost stores a community post so it participates in the history
// projection. Forum rows carry no status and aggregate as approved.
func (m *Memory) AddForumPost(userID int64, title string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextIDLocked(schema.ForumTable)
	m.tables[schema.ForumTable] = append(m.tables[schema.ForumTable], memRow{
		id:        id,
		userID:    userID,
		status:    submission.StatusApproved,
		createdAt: time.Now().UTC(),
		title:     schema.ForumLabel + " - " + title,
	})
	return id
}

func (m *Memory) nextIDLocked(table string) int64 {
	m.nextID[table]++
	return m.nextID[table]
}

func (m *Memory) InsertSubmission(_ context.Context, d schema.Descriptor, userID int64, values []interface{}) (submission.Ref, error) {
	if len(values) != len(d.Fields) {
		return submission.Ref{}, fmt.Errorf("table %s expects %d values, got %d", d.Table, len(d.Fields), len(values))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byColumn := make(map[string]interface{}, len(values))
	for i, f := range d.Fields {
		byColumn[f.Column] = values[i]
	}

	id := m.nextIDLocked(d.Table)
	m.tables[d.Table] = append(m.tables[d.Table], memRow{
		id:        id,
		userID:    userID,
		tag:       d.Tag,
		status:    submission.StatusPending,
		createdAt: time.Now().UTC(),
		title:     d.Label + " - " + stringValue(byColumn[d.Headline]),
		values:    byColumn,
	})
	return submission.Ref{ID: id, Table: d.Table, Type: d.Tag, Status: submission.StatusPending}, nil
}

func (m *Memory) InsertGeneric(_ context.Context, userID int64, typeTag string, payload []byte) (submission.Ref, error) {
	var data map[string]interface{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &data); err != nil {
			return submission.Ref{}, fmt.Errorf("decode payload: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextIDLocked(schema.GenericTable)
	m.tables[schema.GenericTable] = append(m.tables[schema.GenericTable], memRow{
		id:        id,
		userID:    userID,
		tag:       typeTag,
		status:    submission.StatusPending,
		createdAt: time.Now().UTC(),
		title:     schema.GenericLabel + " - " + typeTag,
		data:      data,
	})
	return submission.Ref{ID: id, Table: schema.GenericTable, Type: typeTag, Status: submission.StatusPending}, nil
}

func (m *Memory) History(_ context.Context, requesterID int64) ([]submission.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []submission.HistoryEntry
	appendRows := func(table, label string) {
		for _, row := range m.tables[table] {
			if requesterID != 0 && row.userID != requesterID {
				continue
			}
			typeLabel := label
			if typeLabel == "" {
				typeLabel = row.tag
			}
			entries = append(entries, submission.HistoryEntry{
				ID:        row.id,
				TypeLabel: typeLabel,
				Status:    row.status,
				CreatedAt: row.createdAt,
				Title:     row.title,
				Requester: m.users[row.userID],
			})
		}
	}

	for _, d := range schema.All() {
		appendRows(d.Table, d.Label)
	}
	appendRows(schema.GenericTable, "")
	appendRows(schema.ForumTable, "Forum")

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (m *Memory) GetSubmission(_ context.Context, typeTag string, id int64) (submission.Record, error) {
	table := schema.TableFor(typeTag)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.tables[table] {
		if row.id != id {
			continue
		}
		return submission.Record{
			ID:        row.id,
			UserID:    row.userID,
			Type:      row.tag,
			Table:     table,
			Status:    row.status,
			CreatedAt: row.createdAt,
			Title:     row.title,
			Data:      copyMap(row.data),
		}, nil
	}
	return submission.Record{}, sql.ErrNoRows
}

func (m *Memory) SetStatus(_ context.Context, typeTag string, id int64, status submission.Status) error {
	table := schema.TableFor(typeTag)

	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	for i := range rows {
		if rows[i].id == id {
			rows[i].status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func stringValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func copyMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
