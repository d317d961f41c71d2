// Package catalog resolves service-operation and package definitions, optionally through a
// redis read-through cache.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "catalog:item:"

// Lookup returns catalog items by id. Ids with no catalog row are absent from the result.
type Lookup interface {
	Items(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.CatalogItem, error)
}

// Source is the authoritative store behind the cache.
type Source interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.CatalogItem, error)
}

type CachedLookup struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewLookup wraps source with a redis cache. A nil client disables caching.
func NewLookup(source Source, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedLookup {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedLookup{source: source, rdb: rdb, ttl: ttl, log: log.Named("catalog")}
}

func (l *CachedLookup) Items(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.CatalogItem, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return map[uuid.UUID]models.CatalogItem{}, nil
	}
	if l.rdb == nil {
		return l.source.GetByIDs(ctx, ids)
	}

	out := make(map[uuid.UUID]models.CatalogItem, len(ids))
	missing := l.fromCache(ctx, ids, out)
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := l.source.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, item := range loaded {
		out[id] = item
	}
	l.store(ctx, loaded)
	return out, nil
}

// Invalidate drops cached entries for ids.
func (l *CachedLookup) Invalidate(ctx context.Context, ids ...uuid.UUID) error {
	if l.rdb == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, keyPrefix+id.String())
	}
	return l.rdb.Del(ctx, keys...).Err()
}

func (l *CachedLookup) fromCache(ctx context.Context, ids []uuid.UUID, out map[uuid.UUID]models.CatalogItem) []uuid.UUID {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id.String()
	}

	values, err := l.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.log.Warn("catalog cache read failed", zap.Error(err))
		}
		return ids
	}

	var missing []uuid.UUID
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var item models.CatalogItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			l.log.Warn("catalog cache entry corrupt", zap.String("key", keys[i]), zap.Error(err))
			missing = append(missing, ids[i])
			continue
		}
		out[ids[i]] = item
	}
	return missing
}

func (l *CachedLookup) store(ctx context.Context, items map[uuid.UUID]models.CatalogItem) {
	if len(items) == 0 {
		return
	}
	pipe := l.rdb.Pipeline()
	for id, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		pipe.Set(ctx, keyPrefix+id.String(), raw, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn("catalog cache write failed", zap.Error(err))
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
