package store

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Sync operation names carried on SyncError.
const (
	OpSnapshot  = "snapshot"
	OpSeed      = "seed"
	OpPut       = "put"
	OpDelete    = "delete"
	OpReconcile = "reconcile"
)

// ErrSnapshotConflict marks a confirmed remote write whose value the next
// snapshot disagreed with. The snapshot wins; the conflict is only reported.
var ErrSnapshotConflict = errors.New("snapshot disagrees with confirmed write")

// SyncError describes an asynchronous sync failure. Failures never propagate
// to the caller that requested the write; they are delivered to the store's
// notifier so the UI layer can surface them.
type SyncError struct {
	Collection string
	Op         string
	ID         string
	Err        error
}

func (e *SyncError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("sync %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("sync %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Notifier receives asynchronous sync failures and reconciliation conflicts.
type Notifier func(*SyncError)

// Store hands out collection handles over one shared backend. Its lifetime is
// the application session: create it at startup, Close it on shutdown.
type Store struct {
	backend Backend
	notify  Notifier
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(backend Backend, notify Notifier) *Store {
	if notify == nil {
		notify = func(e *SyncError) {
			log.Printf(`{"event":"sync_error","collection":%q,"op":%q,"id":%q,"error":%q}`,
				e.Collection, e.Op, e.ID, e.Err.Error())
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{backend: backend, notify: notify, ctx: ctx, cancel: cancel}
}

func (s *Store) Close() {
	s.cancel()
}

func (s *Store) report(e *SyncError) {
	s.notify(e)
}
