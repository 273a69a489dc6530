package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notifyChannel = "eduhub_documents"

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection text NOT NULL,
	id text NOT NULL,
	doc jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

// PostgresBackend stores each document as a jsonb row and fans change
// notifications out through LISTEN/NOTIFY, so every connected process sees a
// fresh snapshot push after any write, local or remote.
type PostgresBackend struct {
	pool *pgxpool.Pool
	dsn  string

	mu       sync.Mutex
	watchers map[string]map[int]func()
	nextID   int

	cancel context.CancelFunc
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := pool.Exec(ctx, documentsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure documents table: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	b := &PostgresBackend{
		pool:     pool,
		dsn:      dsn,
		watchers: map[string]map[int]func(){},
		cancel:   cancel,
	}
	go b.listenLoop(listenCtx)
	return b, nil
}

func (b *PostgresBackend) Close() {
	b.cancel()
	b.pool.Close()
}

// Pool exposes the underlying connection pool for metrics reporting.
func (b *PostgresBackend) Pool() *pgxpool.Pool { return b.pool }

func (b *PostgresBackend) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id, doc
		FROM documents
		WHERE collection = $1
		ORDER BY updated_at, id
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (b *PostgresBackend) Put(ctx context.Context, collection string, doc Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}
	if _, err := b.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, id)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, collection, doc.ID, doc.Data); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, doc.ID, err)
	}
	return b.notifyChanged(ctx, collection)
}

func (b *PostgresBackend) Delete(ctx context.Context, collection, id string) error {
	tag, err := b.pool.Exec(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	return b.notifyChanged(ctx, collection)
}

func (b *PostgresBackend) PutBatch(ctx context.Context, collection string, docs []Document) error {
	batch := &pgx.Batch{}
	for _, doc := range docs {
		if doc.ID == "" {
			return ErrMissingID
		}
		batch.Queue(`
			INSERT INTO documents (collection, id, doc, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (collection, id)
			DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
		`, collection, doc.ID, doc.Data)
	}
	batch.Queue(`SELECT pg_notify($1, $2)`, notifyChannel, collection)

	br := b.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch put %s: %w", collection, err)
		}
	}
	return nil
}

func (b *PostgresBackend) Watch(_ context.Context, collection string, fn func()) (func(), error) {
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

func (b *PostgresBackend) notifyChanged(ctx context.Context, collection string) error {
	if _, err := b.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		return fmt.Errorf("notify %s: %w", collection, err)
	}
	return nil
}

// listenLoop holds one dedicated connection on the notify channel and
// dispatches each notification to the watchers of the named collection.
// Reconnects with a short backoff on any connection error.
func (b *PostgresBackend) listenLoop(ctx context.Context) {
	for ctx.Err() == nil {
		conn, err := pgx.Connect(ctx, b.dsn)
		if err != nil {
			log.Printf(`{"event":"listen_connect_failed","error":%q}`, err.Error())
			sleepCtx(ctx, 2*time.Second)
			continue
		}
		if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
			log.Printf(`{"event":"listen_failed","error":%q}`, err.Error())
			_ = conn.Close(context.Background())
			sleepCtx(ctx, 2*time.Second)
			continue
		}

		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				break
			}
			b.dispatch(n.Payload)
		}
		_ = conn.Close(context.Background())
		sleepCtx(ctx, time.Second)
	}
}

func (b *PostgresBackend) dispatch(collection string) {
	b.mu.Lock()
	ws := b.watchers[collection]
	fns := make([]func(), 0, len(ws))
	for _, fn := range ws {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
