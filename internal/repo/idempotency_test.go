package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIdempotencyCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec, err := CreateIdempotency(ctx, db, "u1", "t1", "key-1", "m1", 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.MessageID != "m1" || rec.Status != 201 {
		t.Fatalf("unexpected record: %#v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "t1", "key-1", now)
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.MessageID != "m1" {
		t.Fatalf("unexpected lookup: %#v", got)
	}

	// Same tuple again is a duplicate.
	if _, err := CreateIdempotency(ctx, db, "u1", "t1", "key-1", "m2", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Different thread, same key: distinct tuple.
	if _, err := CreateIdempotency(ctx, db, "u1", "t2", "key-1", "m3", 201, time.Hour); err != nil {
		t.Fatalf("distinct tuple should insert: %v", err)
	}
}

func TestIdempotencyExpiryAndMissing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "t1", "key-x", "m1", 201, time.Minute); err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}

	// Past the TTL the record no longer resolves.
	future := time.Now().UTC().Add(2 * time.Minute)
	if _, err := GetIdempotency(ctx, db, "u1", "t1", "key-x", future); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should be ErrNotFound, got %v", err)
	}

	// Blank thread id short-circuits.
	if _, err := GetIdempotency(ctx, db, "u1", "  ", "key-x", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank thread id should be ErrNotFound, got %v", err)
	}
}
