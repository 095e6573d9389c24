package store

import (
	"database/sql"
	"testing"

	"github.com/mich022001/sds-webapp/internal/database"
	"github.com/mich022001/sds-webapp/internal/model"
)

func setupLedgerTestDB(t *testing.T) (*LedgerStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLedgerStore(db), db
}

func mustInsertOnce(t *testing.T, ls *LedgerStore, db *sql.DB, e *model.BonusLedgerEntry) bool {
	t.Helper()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	inserted, err := ls.InsertOnce(tx, e)
	if err != nil {
		t.Fatalf("insert once: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return inserted
}

func TestInsertOnceIdempotent(t *testing.T) {
	ls, db := setupLedgerTestDB(t)

	amount := 200.0
	entry := &model.BonusLedgerEntry{
		EarnerName:       "Alice",
		SourceMemberName: "Dave",
		RelativeLevel:    3,
		BonusType:        model.BonusCash,
		AmountNum:        &amount,
		RuleApplied:      "Developer Bonus",
		Reason:           "Member Registration",
	}

	if !mustInsertOnce(t, ls, db, entry) {
		t.Fatal("first insert should write a row")
	}
	if mustInsertOnce(t, ls, db, entry) {
		t.Error("second insert of the same event should be ignored")
	}

	// A different relative level is a different event
	other := *entry
	other.RelativeLevel = 4
	if !mustInsertOnce(t, ls, db, &other) {
		t.Error("different level should insert")
	}

	entries, err := ls.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestInsertOnceNullAmount(t *testing.T) {
	ls, db := setupLedgerTestDB(t)

	mustInsertOnce(t, ls, db, &model.BonusLedgerEntry{
		EarnerName:       "Bob",
		SourceMemberName: "Carol",
		RelativeLevel:    1,
		BonusType:        model.BonusCash,
		AmountText:       "Outright",
		RuleApplied:      "Direct Bonus",
		Reason:           "Member Registration",
	})

	entries, err := ls.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].AmountNum != nil {
		t.Errorf("amount_num = %v, want nil", *entries[0].AmountNum)
	}
	if entries[0].AmountText != "Outright" {
		t.Errorf("amount_text = %q, want %q", entries[0].AmountText, "Outright")
	}
}

func TestLedgerListNewestFirst(t *testing.T) {
	ls, db := setupLedgerTestDB(t)

	for i := 1; i <= 3; i++ {
		amount := float64(i)
		mustInsertOnce(t, ls, db, &model.BonusLedgerEntry{
			EarnerName:       "Alice",
			SourceMemberName: "Dave",
			RelativeLevel:    i,
			BonusType:        model.BonusCash,
			AmountNum:        &amount,
			Reason:           "Member Registration",
		})
	}

	entries, err := ls.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].RelativeLevel != 3 {
		t.Errorf("entries[0].RelativeLevel = %d, want 3", entries[0].RelativeLevel)
	}

	limited, err := ls.List(1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 entry with limit, got %d", len(limited))
	}
	if limited[0].RelativeLevel != 3 {
		t.Errorf("limited[0].RelativeLevel = %d, want 3", limited[0].RelativeLevel)
	}
}
