package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"hbnb_api/internal/domain"
)

// Create builds an entity of kind from a JSON object body and stores it.
// parent, when given, is the entity named in the URL; its id overrides the
// body's value for parent.Field.
func (s *Service) Create(ctx context.Context, kind domain.Kind, body []byte, parent *domain.Ref) (domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parent != nil {
		if err := s.exists(ctx, parent.Kind, parent.ID); err != nil {
			return nil, err
		}
	}
	fields, err := object(body)
	if err != nil {
		return nil, err
	}
	for _, k := range []string{"id", "created_at", "updated_at", "__class__"} {
		delete(fields, k)
	}
	if parent != nil {
		fields[parent.Field], _ = json.Marshal(parent.ID)
	}

	e, err := fill(kind, fields)
	if err != nil {
		return nil, err
	}
	if err := domain.Validate(e); err != nil {
		return nil, err
	}
	for _, ref := range domain.References(e) {
		if err := s.exists(ctx, ref.Kind, ref.ID); err != nil {
			return nil, err
		}
	}
	if u, ok := e.(*domain.User); ok {
		if err := u.SetPassword(u.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	domain.Stamp(e)

	if err := s.store.New(ctx, e); err != nil {
		return nil, fmt.Errorf("stage %s: %w", kind, err)
	}
	if err := s.store.Save(ctx); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	log.Debug().Str("kind", string(kind)).Str("id", e.Meta().ID).Msg("created")
	return domain.Public(e), nil
}

// Update merges the body's fields into an existing entity. Identity,
// timestamps and foreign keys are never taken from the body; unknown keys are
// ignored.
func (s *Service) Update(ctx context.Context, kind domain.Kind, id string, body []byte) (domain.Entity, error) {
	patch, err := object(body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(cur)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for k, v := range patch {
		if !domain.Protected(kind, k) {
			fields[k] = v
		}
	}

	e, err := fill(kind, fields)
	if err != nil {
		return nil, err
	}
	*e.Meta() = *cur.Meta()
	if err := domain.Validate(e); err != nil {
		return nil, err
	}
	if _, ok := patch["password"]; ok {
		if u, ok := e.(*domain.User); ok {
			if err := u.SetPassword(u.Password); err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
		}
	}
	e.Meta().UpdatedAt = domain.Now()

	if err := s.store.New(ctx, e); err != nil {
		return nil, fmt.Errorf("stage %s: %w", kind, err)
	}
	if err := s.store.Save(ctx); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	s.evict(ctx, cacheKey(kind, id))
	return domain.Public(e), nil
}

// Delete removes an entity and everything that depends on it: a State takes
// its Cities, a City its Places, a Place its Reviews and amenity links, a User
// its Places and Reviews.
func (s *Service) Delete(ctx context.Context, kind domain.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	var doomed []domain.Entity
	seen := map[string]bool{}
	if err := s.collect(ctx, root, seen, &doomed); err != nil {
		return err
	}

	keys := make([]string, 0, len(doomed))
	for _, e := range doomed {
		if err := s.store.Delete(ctx, e); err != nil {
			return fmt.Errorf("stage delete %s: %w", e.Kind(), err)
		}
		keys = append(keys, cacheKey(e.Kind(), e.Meta().ID))
	}
	if err := s.store.Save(ctx); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	s.evict(ctx, keys...)
	log.Debug().Str("kind", string(kind)).Str("id", id).Int("removed", len(doomed)).Msg("deleted")
	return nil
}

// collect appends e's dependents before e itself.
func (s *Service) collect(ctx context.Context, e domain.Entity, seen map[string]bool, out *[]domain.Entity) error {
	key := domain.Key(e)
	if seen[key] {
		return nil
	}
	seen[key] = true
	for _, c := range domain.Children(e.Kind()) {
		deps, err := s.store.Where(ctx, c.Kind, c.Field, e.Meta().ID)
		if err != nil {
			return fmt.Errorf("load %s of %s: %w", c.Kind.Plural(), key, err)
		}
		for _, d := range deps {
			if err := s.collect(ctx, d, seen, out); err != nil {
				return err
			}
		}
	}
	*out = append(*out, e)
	return nil
}

// LinkAmenity attaches an amenity to a place. created is false when the link
// already existed.
func (s *Service) LinkAmenity(ctx context.Context, placeID, amenityID string) (amenity domain.Entity, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amenity, linked, err := s.amenityLink(ctx, placeID, amenityID)
	if err != nil {
		return nil, false, err
	}
	if linked {
		return amenity, false, nil
	}
	if err := s.store.Link(ctx, placeID, amenityID); err != nil {
		return nil, false, fmt.Errorf("stage link: %w", err)
	}
	if err := s.store.Save(ctx); err != nil {
		return nil, false, fmt.Errorf("save: %w", err)
	}
	return amenity, true, nil
}

// UnlinkAmenity detaches an amenity from a place. A missing link is ErrNotFound.
func (s *Service) UnlinkAmenity(ctx context.Context, placeID, amenityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, linked, err := s.amenityLink(ctx, placeID, amenityID)
	if err != nil {
		return err
	}
	if !linked {
		return domain.ErrNotFound
	}
	if err := s.store.Unlink(ctx, placeID, amenityID); err != nil {
		return fmt.Errorf("stage unlink: %w", err)
	}
	if err := s.store.Save(ctx); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (s *Service) amenityLink(ctx context.Context, placeID, amenityID string) (domain.Entity, bool, error) {
	if err := s.exists(ctx, domain.KindPlace, placeID); err != nil {
		return nil, false, err
	}
	a, err := s.store.Get(ctx, domain.KindAmenity, amenityID)
	if err != nil {
		return nil, false, err
	}
	ids, err := s.store.AmenityIDs(ctx, placeID)
	if err != nil {
		return nil, false, err
	}
	for _, id := range ids {
		if id == amenityID {
			return a, true, nil
		}
	}
	return a, false, nil
}
