package reference

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"vetra/internal/domain"
)

// CachedStore is a redis read-through tier in front of a reference Store.
// Sanctions token scans and country lookups dominate check latency, so those
// are cached; registry rows are cached by LEI. Cache failures degrade to the
// backing store rather than surfacing as unavailable evidence.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps next with a redis cache. A nil client returns next
// unchanged so wiring stays unconditional in main.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) Store {
	if client == nil {
		return next
	}
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedStore) SearchSanctions(ctx context.Context, token string) ([]domain.SanctionsEntry, error) {
	key := "ref:sanctions:" + token
	var cached []domain.SanctionsEntry
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	entries, err := c.next.SearchSanctions(ctx, token)
	if err != nil {
		return nil, err
	}
	// Empty result sets are cached too; misses repeat just as often as hits.
	c.set(ctx, key, entries)
	return entries, nil
}

func (c *CachedStore) RegistryByLEI(ctx context.Context, lei string) (*domain.RegistryEntry, error) {
	key := "ref:registry:lei:" + lei
	var cached domain.RegistryEntry
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	entry, err := c.next.RegistryByLEI(ctx, lei)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, entry)
	return entry, nil
}

func (c *CachedStore) RegistryByNameToken(ctx context.Context, token string) (*domain.RegistryEntry, error) {
	// Name-token fallbacks are rare (LEI misses only); not worth a cache tier.
	return c.next.RegistryByNameToken(ctx, token)
}

func (c *CachedStore) CountryRisk(ctx context.Context, country string) (*domain.CountryRisk, error) {
	key := "ref:country:" + country
	var cached domain.CountryRisk
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	entry, err := c.next.CountryRisk(ctx, country)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, entry)
	return entry, nil
}

func (c *CachedStore) get(ctx context.Context, key string, out any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "reference cache read failed", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (c *CachedStore) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "reference cache write failed", "key", key, "error", err)
	}
}
