package todo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreUpdateIsSingleGuardedStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`update todos set completed=\$3, updated_at=now\(\) where id=\$1 and owner_id=\$2 returning`).
		WithArgs("t1", "alice", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "description", "completed", "created_at", "updated_at"}).
			AddRow("t1", "alice", "T", nil, true, now, now))

	store := NewPGStore(db)
	completed := true
	item, err := store.Update(context.Background(), "alice", "t1", UpdateInput{Completed: &completed})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !item.Completed {
		t.Fatalf("unexpected item: %+v", item)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreUpdateForeignOwnerIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`update todos set`).
		WithArgs("t1", "bob", "new title").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "description", "completed", "created_at", "updated_at"}))

	store := NewPGStore(db)
	title := "new title"
	_, err = store.Update(context.Background(), "bob", "t1", UpdateInput{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreDeleteGuardedByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`delete from todos where id=\$1 and owner_id=\$2`).
		WithArgs("t1", "bob").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.Delete(context.Background(), "bob", "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreListOrdersNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`select .* from todos where owner_id=\$1 order by created_at desc, id desc`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "description", "completed", "created_at", "updated_at"}).
			AddRow("t2", "alice", "newer", nil, false, now, now).
			AddRow("t1", "alice", "older", "d", false, now.Add(-time.Hour), now.Add(-time.Hour)))

	store := NewPGStore(db)
	items, err := store.ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(items) != 2 || items[0].ID != "t2" {
		t.Fatalf("unexpected listing: %+v", items)
	}
	if items[1].Description == nil || *items[1].Description != "d" {
		t.Fatalf("description not scanned: %+v", items[1])
	}
}
