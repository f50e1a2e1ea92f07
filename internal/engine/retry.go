package engine

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/aegoroff/bstore/internal/metrics"
)

// WithBusyRetry re-runs action for as long as it reports SQLite writer
// contention (SQLITE_BUSY / SQLITE_LOCKED). Any other error is returned
// unchanged. There is no bounded retry count and no backoff: the database's
// own WAL locking provides liveness for the expected request volume.
func WithBusyRetry(action func() error) error {
	for {
		err := action()
		if err == nil {
			return nil
		}
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
				metrics.EngineBusyRetriesTotal.Inc()
				continue
			}
		}
		return err
	}
}
