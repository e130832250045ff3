// Package submissions orchestrates submission intake, the unified history
// view and the status lifecycle.
package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/portal-umkm/submission-service/internal/app/domain/submission"
	"github.com/portal-umkm/submission-service/internal/app/metrics"
	"github.com/portal-umkm/submission-service/internal/app/schema"
	"github.com/portal-umkm/submission-service/internal/app/storage"
	"github.com/portal-umkm/submission-service/internal/errors"
	"github.com/portal-umkm/submission-service/internal/logging"
)

// Service implements the submission intake and lifecycle rules on top of a
// SubmissionStore.
type Service struct {
	store storage.SubmissionStore
	log   *logging.Logger
}

// New constructs a submission service.
func New(store storage.SubmissionStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("submissions")
	}
	return &Service{store: store, log: log}
}

// Create routes the payload through the schema registry and performs exactly
// one insert. Recognized tags land in their dedicated table; anything else
// goes to the generic fallback with an explicit pending status.
func (s *Service) Create(ctx context.Context, userID int64, typeTag string, payload json.RawMessage) (submission.Ref, error) {
	if typeTag == "" {
		return submission.Ref{}, errors.MalformedPayload("type")
	}
	if len(payload) == 0 {
		return submission.Ref{}, errors.MalformedPayload("data")
	}

	d, ok := schema.Resolve(typeTag)
	if !ok {
		ref, err := s.store.InsertGeneric(ctx, userID, typeTag, payload)
		if err != nil {
			return submission.Ref{}, errors.Persistence(err)
		}
		s.log.WithContext(ctx).Infof("submission %d stored in %s (unrecognized type %q)", ref.ID, ref.Table, typeTag)
		metrics.RecordSubmissionCreated("generic")
		return ref, nil
	}

	values, err := d.Extract(payload)
	if err != nil {
		return submission.Ref{}, err
	}

	ref, err := s.store.InsertSubmission(ctx, d, userID, values)
	if err != nil {
		return submission.Ref{}, errors.Persistence(err)
	}
	s.log.WithContext(ctx).Infof("submission %d stored in %s", ref.ID, ref.Table)
	metrics.RecordSubmissionCreated(d.Tag)
	return ref, nil
}

// History returns the unified projection scoped by role: administrators see
// every requester, everyone else only their own rows.
func (s *Service) History(ctx context.Context, ident submission.Identity) ([]submission.HistoryEntry, error) {
	requesterID := ident.UserID
	if ident.IsAdmin() {
		requesterID = 0
	}
	entries, err := s.store.History(ctx, requesterID)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	return entries, nil
}

// OwnHistory returns the caller's own rows regardless of role.
func (s *Service) OwnHistory(ctx context.Context, ident submission.Identity) ([]submission.HistoryEntry, error) {
	entries, err := s.store.History(ctx, ident.UserID)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	return entries, nil
}

// Get fetches a single submission, gated by the ownership-or-admin rule.
func (s *Service) Get(ctx context.Context, ident submission.Identity, typeTag string, id int64) (submission.Record, error) {
	rec, err := s.store.GetSubmission(ctx, typeTag, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return submission.Record{}, errors.UnknownSubmission(id)
		}
		return submission.Record{}, errors.Persistence(err)
	}
	if !ident.IsAdmin() && rec.UserID != ident.UserID {
		return submission.Record{}, errors.Forbidden("not the owner of this submission")
	}
	return rec, nil
}

// SetStatus transitions a submission between pending, approved and rejected.
// Administrators only; the authorization check runs before any data access.
// Any recognized status may move to any other, there is no terminal state.
func (s *Service) SetStatus(ctx context.Context, ident submission.Identity, typeTag string, id int64, rawStatus string) error {
	if !ident.IsAdmin() {
		return errors.Forbidden("status changes require the administrator role")
	}

	status, ok := submission.ParseStatus(rawStatus)
	if !ok {
		return errors.InvalidStatus(rawStatus)
	}

	if err := s.store.SetStatus(ctx, typeTag, id, status); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.UnknownSubmission(id)
		}
		return errors.Persistence(err)
	}
	s.log.WithContext(ctx).Infof("submission %d in %s moved to %s", id, schema.TableFor(typeTag), status)
	metrics.RecordStatusTransition(string(status))
	return nil
}
