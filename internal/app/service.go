package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hbnb_api/internal/domain"
)

// Service is the only writer of the store. Checks, mutations and the Save
// that commits them run under the write lock; cache fills hold the read lock
// so a concurrent write cannot be overtaken by a stale fill.
type Service struct {
	store    domain.Storage
	cache    domain.Cache // nil disables caching
	cacheTTL time.Duration

	mu sync.RWMutex
}

func NewService(s domain.Storage, c domain.Cache, ttl time.Duration) *Service {
	return &Service{store: s, cache: c, cacheTTL: ttl}
}

func cacheKey(kind domain.Kind, id string) string { return string(kind) + ":" + id }

// List returns every entity of kind, oldest first.
func (s *Service) List(ctx context.Context, kind domain.Kind) ([]domain.Entity, error) {
	all, err := s.store.All(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Plural(), err)
	}
	out := make([]domain.Entity, 0, len(all))
	for _, e := range all {
		out = append(out, domain.Public(e))
	}
	domain.SortByCreated(out)
	return out, nil
}

// View returns one entity, read through the cache.
func (s *Service) View(ctx context.Context, kind domain.Kind, id string) (domain.Entity, error) {
	key := cacheKey(kind, id)
	if s.cache != nil {
		dst, err := domain.NewEntity(kind)
		if err != nil {
			return nil, err
		}
		ok, err := s.cache.Get(ctx, key, dst)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		if ok {
			return dst, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	e = domain.Public(e)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, e, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return e, nil
}

// Children lists the entities of child.Kind attached to a parent. The parent
// must exist.
func (s *Service) Children(ctx context.Context, parent domain.Kind, parentID string, child domain.Child) ([]domain.Entity, error) {
	if _, err := s.store.Get(ctx, parent, parentID); err != nil {
		return nil, err
	}
	es, err := s.store.Where(ctx, child.Kind, child.Field, parentID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", child.Kind.Plural(), err)
	}
	out := make([]domain.Entity, 0, len(es))
	for _, e := range es {
		out = append(out, domain.Public(e))
	}
	domain.SortByCreated(out)
	return out, nil
}

func (s *Service) evict(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, k := range keys {
		if err := s.cache.Del(ctx, k); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("cache evict failed")
		}
	}
}

// object parses a request body that must be a JSON object.
func object(body []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil || m == nil {
		return nil, domain.ErrNotJSON
	}
	return m, nil
}

// fill decodes fields into a fresh entity of kind.
func fill(kind domain.Kind, fields map[string]json.RawMessage) (domain.Entity, error) {
	e, err := domain.NewEntity(kind)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, e); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return nil, &domain.InvalidError{Msg: "Invalid " + te.Field}
		}
		return nil, &domain.InvalidError{Msg: err.Error()}
	}
	return e, nil
}

func (s *Service) exists(ctx context.Context, kind domain.Kind, id string) error {
	if id == "" {
		return domain.ErrNotFound
	}
	_, err := s.store.Get(ctx, kind, id)
	return err
}
