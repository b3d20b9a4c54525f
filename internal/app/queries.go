package app

import (
	"context"
	"errors"
	"fmt"

	"hbnb_api/internal/domain"
)

// PlaceAmenities lists the amenities linked to a place.
func (s *Service) PlaceAmenities(ctx context.Context, placeID string) ([]domain.Entity, error) {
	if err := s.exists(ctx, domain.KindPlace, placeID); err != nil {
		return nil, err
	}
	ids, err := s.store.AmenityIDs(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("amenities of %s: %w", placeID, err)
	}
	out := make([]domain.Entity, 0, len(ids))
	for _, id := range ids {
		a, err := s.store.Get(ctx, domain.KindAmenity, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	domain.SortByCreated(out)
	return out, nil
}

// Search returns the places matching q. States expand to their cities and
// join the explicit cities; with neither, every place is a candidate.
// Candidates must then carry every requested amenity that exists.
func (s *Service) Search(ctx context.Context, q domain.PlaceSearch) ([]*domain.Place, error) {
	var places []*domain.Place
	if len(q.States) == 0 && len(q.Cities) == 0 {
		all, err := domain.List[*domain.Place](ctx, s.store)
		if err != nil {
			return nil, fmt.Errorf("list places: %w", err)
		}
		places = all
	} else {
		cities := map[string]bool{}
		var order []string
		addCity := func(id string) {
			if !cities[id] {
				cities[id] = true
				order = append(order, id)
			}
		}
		for _, stateID := range q.States {
			cs, err := domain.Related[*domain.City](ctx, s.store, "state_id", stateID)
			if err != nil {
				return nil, fmt.Errorf("cities of %s: %w", stateID, err)
			}
			for _, c := range cs {
				addCity(c.ID)
			}
		}
		for _, id := range q.Cities {
			addCity(id)
		}
		for _, cityID := range order {
			ps, err := domain.Related[*domain.Place](ctx, s.store, "city_id", cityID)
			if err != nil {
				return nil, fmt.Errorf("places of %s: %w", cityID, err)
			}
			places = append(places, ps...)
		}
	}

	want, err := s.knownAmenities(ctx, q.Amenities)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Place, 0, len(places))
	for _, p := range places {
		ok, err := s.hasAll(ctx, p.ID, want)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	domain.SortByCreated(out)
	return out, nil
}

func (s *Service) knownAmenities(ctx context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		_, err := s.store.Get(ctx, domain.KindAmenity, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *Service) hasAll(ctx context.Context, placeID string, want []string) (bool, error) {
	if len(want) == 0 {
		return true, nil
	}
	ids, err := s.store.AmenityIDs(ctx, placeID)
	if err != nil {
		return false, fmt.Errorf("amenities of %s: %w", placeID, err)
	}
	have := make(map[string]bool, len(ids))
	for _, id := range ids {
		have[id] = true
	}
	for _, id := range want {
		if !have[id] {
			return false, nil
		}
	}
	return true, nil
}

// Stats counts the stored entities per collection name.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(domain.Kinds))
	for _, k := range domain.Kinds {
		n, err := s.store.Count(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", k.Plural(), err)
		}
		out[k.Plural()] = n
	}
	return out, nil
}
