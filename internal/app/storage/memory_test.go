package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/portal-umkm/submission-service/internal/app/domain/submission"
	"github.com/portal-umkm/submission-service/internal/app/schema"
)

func TestMemoryIDsAreTableLocal(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	kur, _ := schema.Resolve("kur")
	umi, _ := schema.Resolve("umi")

	ref1, err := mem.InsertSubmission(ctx, kur, 7, make([]interface{}, len(kur.Fields)))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	ref2, err := mem.InsertSubmission(ctx, umi, 7, make([]interface{}, len(umi.Fields)))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// each table counts from 1 on its own
	if ref1.ID != 1 || ref2.ID != 1 {
		t.Fatalf("expected table-local ids, got %d and %d", ref1.ID, ref2.ID)
	}
}

func TestMemoryGetGenericCopiesData(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	ref, err := mem.InsertGeneric(ctx, 7, "beasiswa", []byte(`{"school": "SMK 1"}`))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	rec, err := mem.GetSubmission(ctx, "beasiswa", ref.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rec.Data["school"] = "mutated"

	again, _ := mem.GetSubmission(ctx, "beasiswa", ref.ID)
	if again.Data["school"] != "SMK 1" {
		t.Fatal("stored payload must not alias returned maps")
	}
}

func TestMemorySetStatusUnknownID(t *testing.T) {
	mem := NewMemory()

	err := mem.SetStatus(context.Background(), "kur", 99, submission.StatusApproved)
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestMemoryForumPostsReadApproved(t *testing.T) {
	mem := NewMemory()
	mem.SeedUser(7, "Siti")
	mem.AddForumPost(7, "Halo")

	entries, err := mem.History(context.Background(), 7)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 row, got %d", len(entries))
	}
	if entries[0].Status != submission.StatusApproved {
		t.Fatalf("expected approved, got %s", entries[0].Status)
	}
	if entries[0].Requester != "Siti" {
		t.Fatalf("expected requester name, got %q", entries[0].Requester)
	}
}
