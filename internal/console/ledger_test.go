package console

import "testing"

func ids(records []CommandResult) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(got []CommandResult, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].ID != want[i] {
			return false
		}
	}
	return true
}

func TestLedgerPrependIsNewestFirst(t *testing.T) {
	ledger := NewLedger(0)
	ledger.Prepend(CommandResult{ID: "a"})
	ledger.Prepend(CommandResult{ID: "b"})
	ledger.Prepend(CommandResult{ID: "c"})

	if snap := ledger.Snapshot(); !equalIDs(snap, "c", "b", "a") {
		t.Fatalf("unexpected order: %v", ids(snap))
	}
}

func TestLedgerRemoveByIDKeepsOrder(t *testing.T) {
	ledger := NewLedger(0)
	for _, id := range []string{"a", "b", "c", "d"} {
		ledger.Prepend(CommandResult{ID: id})
	}

	if !ledger.RemoveByID("b") {
		t.Fatalf("expected b to be removed")
	}
	if ledger.RemoveByID("missing") {
		t.Fatalf("unknown id must be a no-op")
	}
	if ledger.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", ledger.Len())
	}
	if snap := ledger.Snapshot(); !equalIDs(snap, "d", "c", "a") {
		t.Fatalf("unexpected order after removal: %v", ids(snap))
	}
}

func TestLedgerSnapshotIsACopy(t *testing.T) {
	ledger := NewLedger(0)
	ledger.Prepend(CommandResult{ID: "a", SourceCommand: "list"})
	snap := ledger.Snapshot()
	snap[0].SourceCommand = "changed"

	record, ok := ledger.Get("a")
	if !ok || record.SourceCommand != "list" {
		t.Fatalf("snapshot mutation leaked into the ledger: %+v", record)
	}
}

func TestLedgerLimitEvictsOldest(t *testing.T) {
	ledger := NewLedger(2)
	ledger.Prepend(CommandResult{ID: "a"})
	ledger.Prepend(CommandResult{ID: "b"})
	if evicted := ledger.Prepend(CommandResult{ID: "c"}); evicted != 1 {
		t.Fatalf("expected one eviction, got %d", evicted)
	}
	if snap := ledger.Snapshot(); !equalIDs(snap, "c", "b") {
		t.Fatalf("unexpected records: %v", ids(snap))
	}
	if _, ok := ledger.Get("a"); ok {
		t.Fatalf("oldest record should be gone")
	}
}
