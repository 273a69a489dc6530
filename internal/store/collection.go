package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Entity is any record with a stable unique string identifier. The store owns
// no business semantics beyond that id.
type Entity interface {
	EntityID() string
}

type pendingWrite struct {
	// want is the canonical serialized form the next snapshot should show;
	// empty string means the document is expected to be gone.
	want string
	// done flips true once the remote write returned.
	done bool
}

// Collection is one named set of entities mirrored against the backend.
// Local state is eventually consistent with the remote store and never
// authoritative on its own: every backend change notification replaces the
// full local slice with a fresh snapshot.
type Collection[T Entity] struct {
	name string
	st   *Store
	seed []T

	mu          sync.Mutex
	items       []T
	known       map[string]string // id -> canonical serialized form last applied
	loading     bool
	initialized bool
	seeded      bool
	pending     map[string]pendingWrite
	subs        map[int]func([]T)
	nextSub     int
	cancelWatch func()
	closed      bool
}

// Open subscribes to the named collection and returns its handle. The first
// snapshot is fetched before Open returns; if it arrives empty and seed is
// non-empty, the seed records are written once through a single batch
// (confirm empty, then fill — the narrow race window is a known limitation).
func Open[T Entity](st *Store, name string, seed []T) (*Collection[T], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("open collection: name is required")
	}

	c := &Collection[T]{
		name:    name,
		st:      st,
		seed:    seed,
		known:   map[string]string{},
		loading: true,
		pending: map[string]pendingWrite{},
		subs:    map[int]func([]T){},
	}

	cancel, err := st.backend.Watch(st.ctx, name, c.refresh)
	if err != nil {
		return nil, fmt.Errorf("watch collection %s: %w", name, err)
	}
	c.cancelWatch = cancel

	c.refresh()
	return c, nil
}

// Items returns a copy of the current local state.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Loading reports whether the first snapshot has not yet been applied.
func (c *Collection[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Subscribe registers fn to run with the full item slice after every local
// state change (snapshot or optimistic write). Returns an unsubscribe func.
func (c *Collection[T]) Subscribe(fn func([]T)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close tears the subscription down. In-flight writes still complete.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	closed := c.closed
	c.closed = true
	cancel := c.cancelWatch
	c.mu.Unlock()
	if !closed && cancel != nil {
		cancel()
	}
}

// Set replaces the desired collection state with next.
func (c *Collection[T]) Set(next []T) {
	c.apply(func([]T) []T { return next })
}

// Update computes the desired state from a copy of the previous one.
func (c *Collection[T]) Update(fn func(prev []T) []T) {
	c.apply(fn)
}

// apply diffs the desired state against the last known state, applies the
// result locally first (optimistic, no rollback on failure), then fires one
// concurrent remote write per changed record and one delete per removed
// record. Remote failures go to the store notifier, never to the caller.
func (c *Collection[T]) apply(fn func(prev []T) []T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	next := fn(append([]T(nil), c.items...))

	nextDocs := make(map[string]Document, len(next))
	canon := make(map[string]string, len(next))
	var puts []Document
	for _, e := range next {
		doc, cn, err := encodeEntity(e)
		if err != nil {
			c.mu.Unlock()
			c.st.report(&SyncError{Collection: c.name, Op: OpPut, ID: e.EntityID(), Err: err})
			return
		}
		if _, dup := nextDocs[doc.ID]; dup {
			c.mu.Unlock()
			c.st.report(&SyncError{Collection: c.name, Op: OpPut, ID: doc.ID, Err: ErrDuplicateID})
			return
		}
		nextDocs[doc.ID] = doc
		canon[doc.ID] = cn
		if c.known[doc.ID] != cn {
			puts = append(puts, doc)
		}
	}

	var dels []string
	for id := range c.known {
		if _, ok := nextDocs[id]; !ok {
			dels = append(dels, id)
		}
	}

	c.items = append([]T(nil), next...)
	c.known = canon
	for _, doc := range puts {
		c.pending[doc.ID] = pendingWrite{want: canon[doc.ID]}
	}
	for _, id := range dels {
		c.pending[id] = pendingWrite{want: ""}
	}

	subs := c.snapshotSubs()
	itemsCopy := append([]T(nil), next...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(itemsCopy)
	}

	ctx := c.st.ctx
	for _, doc := range puts {
		go func(doc Document) {
			err := c.st.backend.Put(ctx, c.name, doc)
			c.writeDone(doc.ID, err)
			if err != nil {
				c.st.report(&SyncError{Collection: c.name, Op: OpPut, ID: doc.ID, Err: err})
			}
		}(doc)
	}
	for _, id := range dels {
		go func(id string) {
			err := c.st.backend.Delete(ctx, c.name, id)
			c.writeDone(id, err)
			if err != nil {
				c.st.report(&SyncError{Collection: c.name, Op: OpDelete, ID: id, Err: err})
			}
		}(id)
	}
}

func (c *Collection[T]) writeDone(id string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Failed writes stay un-rolled-back locally; the live subscription
		// re-corrects local state once the true remote state re-syncs.
		delete(c.pending, id)
		return
	}
	if p, ok := c.pending[id]; ok {
		p.done = true
		c.pending[id] = p
	}
}

// refresh pulls a fresh snapshot and replaces local state with it. Runs on
// open and on every backend change notification.
func (c *Collection[T]) refresh() {
	ctx := c.st.ctx
	docs, err := c.st.backend.List(ctx, c.name)
	if err != nil {
		c.st.report(&SyncError{Collection: c.name, Op: OpSnapshot, Err: err})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	needSeed := !c.initialized && !c.seeded && len(docs) == 0 && len(c.seed) > 0
	if needSeed {
		c.seeded = true
	}
	c.mu.Unlock()

	if needSeed {
		if c.seedOnce(ctx) {
			docs, err = c.st.backend.List(ctx, c.name)
			if err != nil {
				c.st.report(&SyncError{Collection: c.name, Op: OpSnapshot, Err: err})
				return
			}
		}
	}

	c.applySnapshot(docs)
}

// seedOnce re-checks that the remote collection is actually empty immediately
// before writing, then fills it with the seed records in one atomic batch.
func (c *Collection[T]) seedOnce(ctx context.Context) bool {
	docs, err := c.st.backend.List(ctx, c.name)
	if err != nil {
		c.st.report(&SyncError{Collection: c.name, Op: OpSeed, Err: err})
		return false
	}
	if len(docs) > 0 {
		return false
	}

	batch := make([]Document, 0, len(c.seed))
	for _, e := range c.seed {
		doc, _, err := encodeEntity(e)
		if err != nil {
			c.st.report(&SyncError{Collection: c.name, Op: OpSeed, ID: e.EntityID(), Err: err})
			return false
		}
		batch = append(batch, doc)
	}
	if err := c.st.backend.PutBatch(ctx, c.name, batch); err != nil {
		c.st.report(&SyncError{Collection: c.name, Op: OpSeed, Err: err})
		return false
	}
	return true
}

func (c *Collection[T]) applySnapshot(docs []Document) {
	items := make([]T, 0, len(docs))
	known := make(map[string]string, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc.Data, &v); err != nil {
			c.st.report(&SyncError{Collection: c.name, Op: OpSnapshot, ID: doc.ID, Err: err})
			continue
		}
		cn, err := canonicalJSON(doc.Data)
		if err != nil {
			c.st.report(&SyncError{Collection: c.name, Op: OpSnapshot, ID: doc.ID, Err: err})
			continue
		}
		items = append(items, v)
		known[doc.ID] = cn
	}

	var conflicts []*SyncError
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	for id, p := range c.pending {
		got := known[id]
		if got == p.want {
			delete(c.pending, id)
			continue
		}
		if p.done {
			// The write landed but the snapshot shows something else: another
			// writer won, or the write was lost. Flag it instead of silently
			// trusting the optimistic state.
			delete(c.pending, id)
			conflicts = append(conflicts, &SyncError{Collection: c.name, Op: OpReconcile, ID: id, Err: ErrSnapshotConflict})
		}
	}
	c.items = items
	c.known = known
	c.loading = false
	c.initialized = true
	subs := c.snapshotSubs()
	itemsCopy := append([]T(nil), items...)
	c.mu.Unlock()

	for _, e := range conflicts {
		c.st.report(e)
	}
	for _, fn := range subs {
		fn(itemsCopy)
	}
}

func (c *Collection[T]) snapshotSubs() []func([]T) {
	out := make([]func([]T), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

func encodeEntity[T Entity](e T) (Document, string, error) {
	id := strings.TrimSpace(e.EntityID())
	if id == "" {
		return Document{}, "", ErrMissingID
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return Document{}, "", fmt.Errorf("encode document: %w", err)
	}
	cn, err := canonicalJSON(raw)
	if err != nil {
		return Document{}, "", fmt.Errorf("canonicalize document: %w", err)
	}
	return Document{ID: id, Data: []byte(cn)}, cn, nil
}

// canonicalJSON re-encodes a JSON value with sorted object keys so that two
// field-equal documents always serialize identically, whatever their source.
func canonicalJSON(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	out, err := json.Marshal(Normalize(v))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
