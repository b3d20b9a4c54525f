package domain

import (
	"context"
	"fmt"
)

// Storage is the persistence contract every backend implements.
// New and Delete stage mutations; Save commits them.
type Storage interface {
	Get(ctx context.Context, kind Kind, id string) (Entity, error)
	All(ctx context.Context, kind Kind) (map[string]Entity, error)
	Count(ctx context.Context, kind Kind) (int, error)
	New(ctx context.Context, e Entity) error
	Delete(ctx context.Context, e Entity) error
	Save(ctx context.Context) error
	Close() error

	// Where returns the entities of kind whose foreign key field equals id.
	Where(ctx context.Context, kind Kind, field, id string) ([]Entity, error)

	// Place <-> Amenity links.
	AmenityIDs(ctx context.Context, placeID string) ([]string, error)
	Link(ctx context.Context, placeID, amenityID string) error
	Unlink(ctx context.Context, placeID, amenityID string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Get loads one entity with its concrete type.
func Get[T Entity](ctx context.Context, s Storage, id string) (T, error) {
	var zero T
	e, err := s.Get(ctx, zero.Kind(), id)
	if err != nil {
		return zero, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("storage returned %T for %s", e, zero.Kind())
	}
	return t, nil
}

// List returns every entity of T's kind ordered by creation time.
func List[T Entity](ctx context.Context, s Storage) ([]T, error) {
	var zero T
	all, err := s.All(ctx, zero.Kind())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, e := range all {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	SortByCreated(out)
	return out, nil
}

// Related returns the entities of T's kind whose field references id.
func Related[T Entity](ctx context.Context, s Storage, field, id string) ([]T, error) {
	var zero T
	es, err := s.Where(ctx, zero.Kind(), field, id)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(es))
	for _, e := range es {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	SortByCreated(out)
	return out, nil
}
