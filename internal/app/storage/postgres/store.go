// Package postgres implements the submission store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/portal-umkm/submission-service/internal/app/domain/submission"
	"github.com/portal-umkm/submission-service/internal/app/schema"
	"github.com/portal-umkm/submission-service/internal/app/storage"
)

// Store implements storage.SubmissionStore backed by PostgreSQL. The history
// projection is a single UNION ALL statement across every registry table plus
// the generic fallback and the forum table; ordering is pushed to the server.
type Store struct {
	db           *sql.DB
	historyQuery string
}

var _ storage.SubmissionStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, historyQuery: buildHistoryQuery()}
}

func (s *Store) InsertSubmission(ctx context.Context, d schema.Descriptor, userID int64, values []interface{}) (submission.Ref, error) {
	if len(values) != len(d.Fields) {
		return submission.Ref{}, fmt.Errorf("table %s expects %d values, got %d", d.Table, len(d.Fields), len(values))
	}

	// Table and column names come from the static registry; only values are
	// bound parameters.
	cols := append([]string{"user_id"}, d.Columns()...)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id, status",
		d.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)

	args := make([]interface{}, 0, len(values)+1)
	args = append(args, userID)
	args = append(args, values...)

	var (
		id     int64
		status string
	)
	if err := s.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&id, &status)
	}); err != nil {
		return submission.Ref{}, err
	}
	return submission.Ref{ID: id, Table: d.Table, Type: d.Tag, Status: submission.Status(status)}, nil
}

func (s *Store) InsertGeneric(ctx context.Context, userID int64, typeTag string, payload []byte) (submission.Ref, error) {
	if !json.Valid(payload) {
		return submission.Ref{}, fmt.Errorf("payload is not valid JSON")
	}

	var id int64
	if err := s.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `
			INSERT INTO pengajuan_umum (user_id, type, data_json, status)
			VALUES ($1, $2, $3, 'pending')
			RETURNING id
		`, userID, typeTag, payload).Scan(&id)
	}); err != nil {
		return submission.Ref{}, err
	}
	return submission.Ref{ID: id, Table: schema.GenericTable, Type: typeTag, Status: submission.StatusPending}, nil
}

func (s *Store) History(ctx context.Context, requesterID int64) ([]submission.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.historyQuery, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []submission.HistoryEntry
	for rows.Next() {
		var (
			entry  submission.HistoryEntry
			status string
		)
		if err := rows.Scan(&entry.ID, &entry.TypeLabel, &status, &entry.CreatedAt, &entry.Title, &entry.Requester); err != nil {
			return nil, err
		}
		entry.Status = submission.Status(status)
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (s *Store) GetSubmission(ctx context.Context, typeTag string, id int64) (submission.Record, error) {
	if d, ok := schema.Resolve(typeTag); ok {
		query := fmt.Sprintf(`
			SELECT s.id, s.user_id, s.status, s.created_at,
			       '%s - ' || COALESCE(s.%s, '') AS title
			FROM %s s
			WHERE s.id = $1
		`, d.Label, d.Headline, d.Table)

		var (
			rec    submission.Record
			status string
		)
		if err := s.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.UserID, &status, &rec.CreatedAt, &rec.Title); err != nil {
			return submission.Record{}, err
		}
		rec.Type = d.Tag
		rec.Table = d.Table
		rec.Status = submission.Status(status)
		return rec, nil
	}

	var (
		rec     submission.Record
		status  string
		dataRaw []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, status, created_at, data_json
		FROM pengajuan_umum
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.UserID, &rec.Type, &status, &rec.CreatedAt, &dataRaw)
	if err != nil {
		return submission.Record{}, err
	}
	rec.Table = schema.GenericTable
	rec.Status = submission.Status(status)
	rec.Title = schema.GenericLabel + " - " + rec.Type
	if len(dataRaw) > 0 {
		_ = json.Unmarshal(dataRaw, &rec.Data)
	}
	return rec, nil
}

func (s *Store) SetStatus(ctx context.Context, typeTag string, id int64, status submission.Status) error {
	table := schema.TableFor(typeTag)

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET status = $2 WHERE id = $1", table),
		id, string(status))
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// buildHistoryQuery assembles the cross-table projection. Each branch
// normalizes its rows to (id, type_label, status, created_at, title,
// requester); the requester predicate binds a single parameter reused across
// branches, with 0 meaning the unscoped administrator view. UNION ALL is
// deliberate: rows from distinct tables cannot collide, so deduplication
// would be wasted work.
func buildHistoryQuery() string {
	var branches []string
	for _, d := range schema.All() {
		branches = append(branches, fmt.Sprintf(`SELECT s.id, '%s' AS type_label, s.status, s.created_at,
       '%s - ' || COALESCE(s.%s, '') AS title,
       COALESCE(u.name, '') AS requester
FROM %s s
LEFT JOIN users u ON u.id = s.user_id
WHERE $1::bigint = 0 OR s.user_id = $1`, d.Label, d.Label, d.Headline, d.Table))
	}

	branches = append(branches, fmt.Sprintf(`SELECT s.id, s.type AS type_label, s.status, s.created_at,
       '%s - ' || s.type AS title,
       COALESCE(u.name, '') AS requester
FROM %s s
LEFT JOIN users u ON u.id = s.user_id
WHERE $1::bigint = 0 OR s.user_id = $1`, schema.GenericLabel, schema.GenericTable))

	// Forum rows have no status column and aggregate as approved.
	branches = append(branches, fmt.Sprintf(`SELECT p.id, 'Forum' AS type_label, 'approved' AS status, p.created_at,
       '%s - ' || COALESCE(p.title, '') AS title,
       COALESCE(u.name, '') AS requester
FROM %s p
LEFT JOIN users u ON u.id = p.user_id
WHERE $1::bigint = 0 OR p.user_id = $1`, schema.ForumLabel, schema.ForumTable))

	return strings.Join(branches, "\nUNION ALL\n") + "\nORDER BY created_at DESC"
}
