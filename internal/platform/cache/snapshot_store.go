// Package cache provides the Redis-backed snapshot store for fetched
// market data.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	aentity "trendsignal/internal/feature/analysis/domain/entity"
	"trendsignal/internal/feature/marketdata/domain/entity"
)

// envelope is the persisted cache value. Staleness is judged at read time
// from StoredAt, so entries written without a Redis TTL stay available to
// the degraded stale-tier lookup after the fresh tier has expired.
type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Candles  []entity.Candle `json:"candles"`
	Analysis aentity.Result  `json:"analysis"`
}

// SnapshotStore maps a symbol to its latest OHLCV snapshot and score
// bundle. Entries are overwritten by every successful fetch and never
// deleted; the store doubles as an append-latest audit trail.
type SnapshotStore struct {
	rdb       *redis.Client
	namespace string
	now       func() time.Time
}

// NewSnapshotStore creates a SnapshotStore. If namespace is empty it uses
// "snapshots". rdb may be nil, in which case every lookup misses and every
// write is a no-op.
func NewSnapshotStore(rdb *redis.Client, namespace string) *SnapshotStore {
	if namespace == "" {
		namespace = "snapshots"
	}
	return &SnapshotStore{rdb: rdb, namespace: namespace, now: time.Now}
}

// Get returns the cached table for symbol when its stored_at timestamp is
// within maxAge of now. Expired or undecodable entries report a miss;
// decoding failures are never fatal to the request.
func (s *SnapshotStore) Get(ctx context.Context, symbol string, maxAge time.Duration) ([]entity.Candle, bool) {
	if s.rdb == nil {
		return nil, false
	}

	b, err := s.rdb.Get(ctx, s.key(symbol)).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}

	var e envelope
	if err := json.Unmarshal(b, &e); err != nil {
		slog.Warn("discarding undecodable cache entry", "symbol", symbol, "error", err)
		return nil, false
	}
	if s.now().Sub(e.StoredAt) > maxAge {
		return nil, false
	}
	return e.Candles, true
}

// Put unconditionally overwrites the entry for symbol. The analysis value
// is a zero placeholder on fetch-path writes and the real score bundle
// when analysis re-publishes the entry.
func (s *SnapshotStore) Put(ctx context.Context, symbol string, candles []entity.Candle, analysis aentity.Result) error {
	if s.rdb == nil {
		return nil
	}

	b, err := json.Marshal(envelope{
		StoredAt: s.now().UTC(),
		Candles:  candles,
		Analysis: analysis,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	// Expiration 0: entries outlive the fresh TTL for stale-tier reads.
	return s.rdb.Set(ctx, s.key(symbol), b, 0).Err()
}

func (s *SnapshotStore) key(symbol string) string {
	return fmt.Sprintf("%s:%s", s.namespace, safe(symbol))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
