package repository

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/pkg/logger"
)

const (
	// Cache key prefixes
	eventDetailKeyPrefix = "event:detail:"
	eventListKey         = "event:list:all"

	// DefaultEventCacheTTL is used when NewCachedEventRepository gets a zero TTL
	DefaultEventCacheTTL = 5 * time.Minute
)

// KeyValueCache is the subset of the Redis client the decorator needs.
// *redis.Client from pkg/redis satisfies it.
type KeyValueCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CachedEventRepository wraps EventRepository with a shared read cache.
// Reads go to the cache first, writes invalidate the detail and list keys.
// Cache failures are logged and fall through to the wrapped repository.
type CachedEventRepository struct {
	repo  EventRepository
	cache KeyValueCache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedEventRepository creates a new CachedEventRepository
func NewCachedEventRepository(repo EventRepository, cache KeyValueCache, ttl time.Duration, log *logger.Logger) *CachedEventRepository {
	if ttl <= 0 {
		ttl = DefaultEventCacheTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedEventRepository{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Create creates a new event and invalidates the list cache
func (r *CachedEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if err := r.repo.Create(ctx, event); err != nil {
		return err
	}
	r.invalidate(ctx, eventListKey)
	return nil
}

// GetByID retrieves an event by ID with caching
func (r *CachedEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	cacheKey := eventDetailKeyPrefix + id
	var cached domain.Event
	if r.lookup(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	event, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, cacheKey, event)
	return event, nil
}

// List lists all events with caching
func (r *CachedEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	var cached []*domain.Event
	if r.lookup(ctx, eventListKey, &cached) {
		return cached, nil
	}

	events, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, eventListKey, events)
	return events, nil
}

// Patch patches an event and invalidates its caches
func (r *CachedEventRepository) Patch(ctx context.Context, id string, patch *domain.EventPatch, updatedAt time.Time) (*domain.Event, *domain.Event, error) {
	before, after, err := r.repo.Patch(ctx, id, patch, updatedAt)
	if err != nil {
		return nil, nil, err
	}
	r.invalidate(ctx, eventDetailKeyPrefix+id, eventListKey)
	return before, after, nil
}

// SetContractDocument updates the contract and invalidates the event caches
func (r *CachedEventRepository) SetContractDocument(ctx context.Context, id string, doc domain.ContractDocument) error {
	if err := r.repo.SetContractDocument(ctx, id, doc); err != nil {
		return err
	}
	r.invalidate(ctx, eventDetailKeyPrefix+id, eventListKey)
	return nil
}

// Delete deletes an event and invalidates its caches
func (r *CachedEventRepository) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, eventDetailKeyPrefix+id, eventListKey)
	return nil
}

// --- Helper functions ---

func (r *CachedEventRepository) lookup(ctx context.Context, key string, dst any) bool {
	data, ok, err := r.cache.GetBytes(ctx, key)
	if err != nil {
		r.log.Warn("event cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		r.log.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		r.invalidate(ctx, key)
		return false
	}
	return true
}

func (r *CachedEventRepository) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		r.log.Warn("event cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedEventRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Del(ctx, keys...); err != nil {
		r.log.Warn("event cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
