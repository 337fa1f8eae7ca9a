package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Table is a backoff schedule indexed by retry number. Indexes past the end
// reuse the last entry, so waits plateau.
type Table struct {
	waits []time.Duration
}

// NewTable creates a schedule from waits. An empty schedule waits zero.
func NewTable(waits []time.Duration) *Table {
	t := &Table{waits: make([]time.Duration, len(waits))}
	copy(t.waits, waits)
	return t
}

// Wait returns the wait before retry number attempt (zero-based).
func (t *Table) Wait(attempt int) time.Duration {
	if len(t.waits) == 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(t.waits) {
		attempt = len(t.waits) - 1
	}
	return t.waits[attempt]
}

// BackOff returns a fresh backoff.BackOff stepping through the table.
func (t *Table) BackOff() backoff.BackOff {
	return &tableBackOff{table: t}
}

// Policy returns the backoff used for one part: the table, capped so that at
// most maxAttempts calls are made in total, and stopped when ctx is done.
func (t *Table) Policy(maxAttempts int) backoff.BackOff {
	retries := maxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(t.BackOff(), uint64(retries))
}

type tableBackOff struct {
	table *Table
	next  int
}

func (b *tableBackOff) NextBackOff() time.Duration {
	d := b.table.Wait(b.next)
	b.next++
	return d
}

func (b *tableBackOff) Reset() {
	b.next = 0
}
