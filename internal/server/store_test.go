package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SubjectStore {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "classroom.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestListSubjectsEmpty(t *testing.T) {
	store := newTestStore(t)

	records, err := store.ListSubjects(context.Background())
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no subjects, got %d", len(records))
	}
}

func TestAppendExchangeCreatesSubject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.AppendExchange(ctx, "Algebra", "Q1", "A1", "")
	if err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated exchange id")
	}

	records, err := store.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 subject, got %d", len(records))
	}
	record := records[0]
	if record.Subject != "Algebra" {
		t.Errorf("Subject = %q, want Algebra", record.Subject)
	}
	if record.Category != "Uncategorized" {
		t.Errorf("Category = %q, want Uncategorized", record.Category)
	}
	if !record.Visible {
		t.Error("expected new subject to be visible")
	}
	if len(record.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(record.Entries))
	}
	if record.Entries[0].Question != "Q1" || record.Entries[0].Answer != "A1" {
		t.Errorf("entry = %+v, want Q1/A1", record.Entries[0])
	}
	if record.Entries[0].File != "" {
		t.Errorf("File = %q, want empty", record.Entries[0].File)
	}
}

func TestAppendExchangePreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"Q1", "Q2", "Q3"} {
		if _, err := store.AppendExchange(ctx, "Algebra", q, "A-"+q, ""); err != nil {
			t.Fatalf("AppendExchange %s: %v", q, err)
		}
	}

	records, err := store.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	entries := records[0].Entries
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"Q1", "Q2", "Q3"} {
		if entries[i].Question != want {
			t.Errorf("entries[%d].Question = %q, want %q", i, entries[i].Question, want)
		}
	}
}

func TestAppendExchangeStoresFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendExchange(ctx, "Algebra", "see attached", "noted", "uploads/sheet.png"); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	records, err := store.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	if got := records[0].Entries[0].File; got != "uploads/sheet.png" {
		t.Errorf("File = %q, want uploads/sheet.png", got)
	}
}

func TestAppendExchangeRequiresSubject(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AppendExchange(context.Background(), "  ", "Q", "A", ""); err == nil {
		t.Fatal("expected error for blank subject")
	}
}

func TestDeleteSubjectCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendExchange(ctx, "Algebra", "Q1", "A1", ""); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}
	if _, err := store.AppendExchange(ctx, "History", "Q1", "A1", ""); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	if err := store.DeleteSubject(ctx, "Algebra"); err != nil {
		t.Fatalf("DeleteSubject: %v", err)
	}

	records, err := store.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	if len(records) != 1 || records[0].Subject != "History" {
		t.Errorf("expected only History to remain, got %+v", records)
	}
}

func TestDeleteSubjectMissing(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteSubject(context.Background(), "Nope")
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("expected ErrSubjectNotFound, got %v", err)
	}
}
