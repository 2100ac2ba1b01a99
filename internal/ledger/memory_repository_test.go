package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryRepository_CRUDEvents(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "_posts/a.md"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	events, err := repo.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	record := Record{
		Path:      "_posts/a.md",
		Checksum:  "abc",
		Errors:    1,
		Issues:    1,
		RunID:     uuid.New(),
		CheckedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := repo.Upsert(ctx, record); err != nil {
		t.Fatalf("Upsert() create error = %v", err)
	}
	assertEvent(t, events, ChangeCreated)

	if _, err := repo.Upsert(ctx, record); err != nil {
		t.Fatalf("Upsert() same record error = %v", err)
	}
	assertNoEvent(t, events)

	record.Errors, record.Issues = 0, 0
	if _, err := repo.Upsert(ctx, record); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	assertEvent(t, events, ChangeUpdated)

	fetched, err := repo.Get(ctx, " _posts/a.md ")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if *fetched != record || !fetched.Clean() {
		t.Fatalf("Get() returned %+v, want %+v", fetched, record)
	}

	if err := repo.Delete(ctx, "_posts/a.md"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	assertEvent(t, events, ChangeDeleted)
}

func TestMemoryRepository_ListOrdered(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	for _, path := range []string{"b.md", "a.md", "c.md"} {
		if _, err := repo.Upsert(ctx, Record{Path: path}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", path, err)
		}
	}
	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 || records[0].Path != "a.md" || records[2].Path != "c.md" {
		t.Fatalf("unexpected order: %+v", records)
	}
}

func TestMemoryRepository_Errors(t *testing.T) {
	repo := NewMemoryRepository()
	if err := repo.Delete(context.Background(), "missing.md"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := repo.Upsert(context.Background(), Record{Path: "  "}); !errors.Is(err, ErrPathRequired) {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	events, err := repo.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription not closed after cancel")
	}
}

func assertEvent(t *testing.T, events <-chan ChangeEvent, want ChangeType) {
	t.Helper()
	select {
	case evt := <-events:
		if evt.Type != want {
			t.Fatalf("expected event %s, got %s", want, evt.Type)
		}
	default:
		t.Fatalf("expected event %s, got none", want)
	}
}

func assertNoEvent(t *testing.T, events <-chan ChangeEvent) {
	t.Helper()
	select {
	case evt := <-events:
		t.Fatalf("expected no event, got %s", evt.Type)
	default:
	}
}
