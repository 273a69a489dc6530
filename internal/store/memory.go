package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps collections in process memory and notifies watchers
// synchronously after every change. It backs tests and local development.
type MemoryBackend struct {
	mu       sync.Mutex
	data     map[string]map[string]Document
	watchers map[string]map[int]func()
	nextID   int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data:     map[string]map[string]Document{},
		watchers: map[string]map[int]func(){},
	}
}

func (b *MemoryBackend) List(_ context.Context, collection string) ([]Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll := b.data[collection]
	out := make([]Document, 0, len(coll))
	for _, doc := range coll {
		out = append(out, Document{ID: doc.ID, Data: append([]byte(nil), doc.Data...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *MemoryBackend) Put(_ context.Context, collection string, doc Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}
	b.mu.Lock()
	coll := b.data[collection]
	if coll == nil {
		coll = map[string]Document{}
		b.data[collection] = coll
	}
	coll[doc.ID] = Document{ID: doc.ID, Data: append([]byte(nil), doc.Data...)}
	fns := b.watcherFns(collection)
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, collection, id string) error {
	b.mu.Lock()
	coll := b.data[collection]
	_, existed := coll[id]
	delete(coll, id)
	var fns []func()
	if existed {
		fns = b.watcherFns(collection)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (b *MemoryBackend) PutBatch(_ context.Context, collection string, docs []Document) error {
	b.mu.Lock()
	coll := b.data[collection]
	if coll == nil {
		coll = map[string]Document{}
		b.data[collection] = coll
	}
	for _, doc := range docs {
		if doc.ID == "" {
			b.mu.Unlock()
			return ErrMissingID
		}
		coll[doc.ID] = Document{ID: doc.ID, Data: append([]byte(nil), doc.Data...)}
	}
	fns := b.watcherFns(collection)
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (b *MemoryBackend) Watch(_ context.Context, collection string, fn func()) (func(), error) {
	b.mu.Lock()
	ws := b.watchers[collection]
	if ws == nil {
		ws = map[int]func(){}
		b.watchers[collection] = ws
	}
	id := b.nextID
	b.nextID++
	ws[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.watchers[collection], id)
		b.mu.Unlock()
	}, nil
}

// watcherFns must be called with the lock held; the returned funcs are
// invoked after release so watchers can re-enter List.
func (b *MemoryBackend) watcherFns(collection string) []func() {
	ws := b.watchers[collection]
	out := make([]func(), 0, len(ws))
	for _, fn := range ws {
		out = append(out, fn)
	}
	return out
}
