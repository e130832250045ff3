package submissions

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/portal-umkm/submission-service/internal/app/domain/submission"
	"github.com/portal-umkm/submission-service/internal/app/schema"
	"github.com/portal-umkm/submission-service/internal/app/storage"
	"github.com/portal-umkm/submission-service/internal/errors"
)

func newTestService() (*Service, *storage.Memory) {
	mem := storage.NewMemory()
	mem.SeedUser(1, "Admin Dinas")
	mem.SeedUser(7, "Siti")
	mem.SeedUser(8, "Budi")
	return New(mem, nil), mem
}

func user(id int64) submission.Identity {
	return submission.Identity{UserID: id, Role: "user"}
}

func admin() submission.Identity {
	return submission.Identity{UserID: 1, Role: submission.RoleAdmin}
}

var kurPayload = json.RawMessage(`{
	"ownerName": "Siti",
	"nik": "1234",
	"businessName": "Toko Siti",
	"businessSector": "perdagangan",
	"loanAmount": "5000000",
	"tenorMonths": "24"
}`)

func TestCreateRecognizedTypeRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ref, err := svc.Create(ctx, 7, "kur", kurPayload)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ref.Table != "kur_submissions" {
		t.Fatalf("expected kur_submissions, got %s", ref.Table)
	}
	if ref.Status != submission.StatusPending {
		t.Fatalf("expected pending, got %s", ref.Status)
	}

	rec, err := svc.Get(ctx, user(7), "kur", ref.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.UserID != 7 {
		t.Fatalf("expected user_id 7, got %d", rec.UserID)
	}
	if rec.Title != "Pengajuan KUR - Toko Siti" {
		t.Fatalf("unexpected title %q", rec.Title)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestCreateUnrecognizedTypeFallsBack(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ref, err := svc.Create(ctx, 7, "beasiswa", json.RawMessage(`{"school": "SMK 1"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ref.Table != schema.GenericTable {
		t.Fatalf("expected generic table, got %s", ref.Table)
	}
	if ref.Status != submission.StatusPending {
		t.Fatalf("generic rows must be pending, got %s", ref.Status)
	}

	rec, err := svc.Get(ctx, user(7), "beasiswa", ref.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Type != "beasiswa" {
		t.Fatalf("expected raw tag preserved, got %q", rec.Type)
	}
	if rec.Data["school"] != "SMK 1" {
		t.Fatalf("expected payload stored, got %v", rec.Data)
	}
}

func TestCreateMissingStructuralFieldFails(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, "nib", json.RawMessage(`{"business": {"name": "CV Budi"}}`))
	if err == nil {
		t.Fatal("expected error for missing owner sub-object")
	}
	svcErr := errors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != errors.CodeMalformedPayload {
		t.Fatalf("expected MALFORMED_PAYLOAD, got %v", err)
	}

	// nothing must reach the store
	entries, err := svc.History(ctx, admin())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no rows persisted, got %d", len(entries))
	}
}

func TestHistoryScopedToOwner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, "kur", kurPayload); err != nil {
		t.Fatalf("create kur: %v", err)
	}
	if _, err := svc.Create(ctx, 8, "merek", json.RawMessage(`{"brandName": "Kopi Budi", "ownerName": "Budi"}`)); err != nil {
		t.Fatalf("create merek: %v", err)
	}

	own, err := svc.History(ctx, user(7))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("expected 1 row for user 7, got %d", len(own))
	}
	if own[0].Title != "Pengajuan KUR - Toko Siti" {
		t.Fatalf("unexpected title %q", own[0].Title)
	}

	other, err := svc.History(ctx, user(8))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, e := range other {
		if e.Title == "Pengajuan KUR - Toko Siti" {
			t.Fatal("user 8 must not see user 7's submission")
		}
	}
}

func TestAdminHistoryIsSuperset(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, "kur", kurPayload); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, 8, "halal", json.RawMessage(`{"businessName": "Warung Budi", "ownerName": "Budi"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}
	mem.AddForumPost(8, "Tips ekspor")

	all, err := svc.History(ctx, admin())
	if err != nil {
		t.Fatalf("admin history: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows in admin view, got %d", len(all))
	}

	for _, ident := range []submission.Identity{user(7), user(8)} {
		own, err := svc.History(ctx, ident)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		for _, e := range own {
			found := false
			for _, a := range all {
				if a.ID == e.ID && a.Title == e.Title {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("admin view missing row %+v", e)
			}
		}
	}

	// admin view carries the requester display name
	for _, e := range all {
		if e.Requester == "" {
			t.Fatalf("expected requester name on %+v", e)
		}
	}
}

func TestHistoryOrderedByCreatedAtDescending(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, "kur", kurPayload); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, 7, "laporan", json.RawMessage(`{"businessName": "Toko Siti", "period": "2026-Q1"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}
	mem.AddForumPost(7, "Halo semua")
	if _, err := svc.Create(ctx, 7, "tipe-baru", json.RawMessage(`{"x": 1}`)); err != nil {
		t.Fatalf("create: %v", err)
	}

	entries, err := svc.History(ctx, user(7))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatalf("rows out of order at %d: %v after %v", i, entries[i].CreatedAt, entries[i-1].CreatedAt)
		}
	}
	// forum rows aggregate as approved
	for _, e := range entries {
		if strings.HasPrefix(e.Title, schema.ForumLabel) && e.Status != submission.StatusApproved {
			t.Fatalf("forum row must read approved, got %s", e.Status)
		}
	}
}

func TestOwnHistoryForcesSelfScopeForAdmin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, "kur", kurPayload); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, 1, "laporan", json.RawMessage(`{"businessName": "Dinas", "period": "2026-Q1"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}

	own, err := svc.OwnHistory(ctx, admin())
	if err != nil {
		t.Fatalf("own history: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("expected only admin's own row, got %d", len(own))
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ref, err := svc.Create(ctx, 7, "kur", kurPayload)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, user(8), "kur", ref.ID); errors.GetServiceError(err) == nil ||
		errors.GetServiceError(err).Code != errors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for non-owner, got %v", err)
	}

	if _, err := svc.Get(ctx, admin(), "kur", ref.ID); err != nil {
		t.Fatalf("admin must read any row: %v", err)
	}

	if _, err := svc.Get(ctx, user(7), "kur", 9999); errors.GetServiceError(err) == nil ||
		errors.GetServiceError(err).Code != errors.CodeUnknownSubmission {
		t.Fatalf("expected UNKNOWN_SUBMISSION, got %v", err)
	}
}

func TestSetStatusRules(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ref, err := svc.Create(ctx, 7, "kur", kurPayload)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// non-admin is rejected before any data access
	err = svc.SetStatus(ctx, user(7), "kur", ref.ID, "approved")
	if errors.GetServiceError(err) == nil || errors.GetServiceError(err).Code != errors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	rec, _ := svc.Get(ctx, admin(), "kur", ref.ID)
	if rec.Status != submission.StatusPending {
		t.Fatalf("row must be unchanged, got %s", rec.Status)
	}

	// unrecognized value is rejected
	err = svc.SetStatus(ctx, admin(), "kur", ref.ID, "archived")
	if errors.GetServiceError(err) == nil || errors.GetServiceError(err).Code != errors.CodeInvalidStatus {
		t.Fatalf("expected INVALID_STATUS, got %v", err)
	}
	rec, _ = svc.Get(ctx, admin(), "kur", ref.ID)
	if rec.Status != submission.StatusPending {
		t.Fatalf("row must be unchanged, got %s", rec.Status)
	}

	// admin with a recognized value succeeds; no terminal state lock
	for _, status := range []string{"approved", "rejected", "PENDING"} {
		if err := svc.SetStatus(ctx, admin(), "kur", ref.ID, status); err != nil {
			t.Fatalf("set %s: %v", status, err)
		}
	}
	rec, _ = svc.Get(ctx, admin(), "kur", ref.ID)
	if rec.Status != submission.StatusPending {
		t.Fatalf("expected pending after final transition, got %s", rec.Status)
	}

	// unmatched id
	err = svc.SetStatus(ctx, admin(), "kur", 9999, "approved")
	if errors.GetServiceError(err) == nil || errors.GetServiceError(err).Code != errors.CodeUnknownSubmission {
		t.Fatalf("expected UNKNOWN_SUBMISSION, got %v", err)
	}
}

func TestSetStatusRoutesToGenericWithoutType(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ref, err := svc.Create(ctx, 7, "tipe-baru", json.RawMessage(`{"x": 1}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// absent type tag defaults to the generic fallback table
	if err := svc.SetStatus(ctx, admin(), "", ref.ID, "approved"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	rec, err := svc.Get(ctx, admin(), "tipe-baru", ref.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != submission.StatusApproved {
		t.Fatalf("expected approved, got %s", rec.Status)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, "", kurPayload); errors.GetServiceError(err) == nil {
		t.Fatalf("expected validation error for empty type, got %v", err)
	}
	if _, err := svc.Create(ctx, 7, "kur", nil); errors.GetServiceError(err) == nil {
		t.Fatalf("expected validation error for empty payload, got %v", err)
	}
}
