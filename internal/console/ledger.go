package console

import "slices"

// Ledger is the ordered history of settled commands, newest first. It is not
// safe for concurrent use; the Console serializes access to it.
type Ledger struct {
	// records is stored oldest first so that prepending is an append.
	records []CommandResult
	limit   int
}

// NewLedger creates a Ledger keeping at most limit records. A limit of zero
// keeps everything.
func NewLedger(limit int) *Ledger {
	if limit < 0 {
		limit = 0
	}
	return &Ledger{limit: limit}
}

// Prepend inserts r at the head and returns how many of the oldest records
// were evicted to honor the limit.
func (l *Ledger) Prepend(r CommandResult) int {
	l.records = append(l.records, r)
	if l.limit == 0 || len(l.records) <= l.limit {
		return 0
	}
	evicted := len(l.records) - l.limit
	clear(l.records[:evicted])
	l.records = l.records[evicted:]
	return evicted
}

// RemoveByID drops the record with the given id. It reports whether a record
// was removed; an unknown id is not an error.
func (l *Ledger) RemoveByID(id string) bool {
	idx := l.indexOf(id)
	if idx < 0 {
		return false
	}
	l.records = slices.Delete(l.records, idx, idx+1)
	return true
}

// Get looks a record up by id.
func (l *Ledger) Get(id string) (CommandResult, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return CommandResult{}, false
	}
	return l.records[idx], true
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Snapshot returns a copy of the history, newest first.
func (l *Ledger) Snapshot() []CommandResult {
	out := make([]CommandResult, len(l.records))
	for i, r := range l.records {
		out[len(l.records)-1-i] = r
	}
	return out
}

func (l *Ledger) indexOf(id string) int {
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].ID == id {
			return i
		}
	}
	return -1
}
