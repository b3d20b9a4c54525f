// Package seed loads a TOML fixture file into the store through app.Service,
// so fixtures get the same validation and password hashing as API requests.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"

	"hbnb_api/internal/domain"
)

// Fixtures mirrors the file layout: one array of tables per kind. Every
// record has a key; references name the keys of other records.
type Fixtures struct {
	States    []State   `toml:"state"`
	Cities    []City    `toml:"city"`
	Amenities []Amenity `toml:"amenity"`
	Users     []User    `toml:"user"`
	Places    []Place   `toml:"place"`
	Reviews   []Review  `toml:"review"`
}

type State struct {
	Key  string `toml:"key" json:"-"`
	Name string `toml:"name" json:"name"`
}

type City struct {
	Key   string `toml:"key" json:"-"`
	State string `toml:"state" json:"-"`
	Name  string `toml:"name" json:"name"`
}

type Amenity struct {
	Key  string `toml:"key" json:"-"`
	Name string `toml:"name" json:"name"`
}

type User struct {
	Key       string `toml:"key" json:"-"`
	Email     string `toml:"email" json:"email"`
	Password  string `toml:"password" json:"password"`
	FirstName string `toml:"first_name" json:"first_name,omitempty"`
	LastName  string `toml:"last_name" json:"last_name,omitempty"`
}

type Place struct {
	Key             string   `toml:"key" json:"-"`
	City            string   `toml:"city" json:"-"`
	User            string   `toml:"user" json:"-"`
	Amenities       []string `toml:"amenities" json:"-"`
	UserID          string   `toml:"-" json:"user_id"`
	Name            string   `toml:"name" json:"name"`
	Description     string   `toml:"description" json:"description,omitempty"`
	NumberRooms     int      `toml:"number_rooms" json:"number_rooms"`
	NumberBathrooms int      `toml:"number_bathrooms" json:"number_bathrooms"`
	MaxGuest        int      `toml:"max_guest" json:"max_guest"`
	PriceByNight    int      `toml:"price_by_night" json:"price_by_night"`
	Latitude        float64  `toml:"latitude" json:"latitude"`
	Longitude       float64  `toml:"longitude" json:"longitude"`
}

type Review struct {
	Key    string `toml:"key" json:"-"`
	Place  string `toml:"place" json:"-"`
	User   string `toml:"user" json:"-"`
	UserID string `toml:"-" json:"user_id"`
	Text   string `toml:"text" json:"text"`
}

// Parse decodes fixtures. Unknown keys are an error so typos do not silently
// drop data.
func Parse(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Fixtures{}, fmt.Errorf("fixtures line %d column %d: %s", row, col, derr.Error())
		}
		return Fixtures{}, fmt.Errorf("fixtures: %w", err)
	}
	if err := f.checkKeys(); err != nil {
		return Fixtures{}, err
	}
	return f, nil
}

// checkKeys rejects a key used twice within one kind.
func (f Fixtures) checkKeys() error {
	keys := map[domain.Kind][]string{}
	for _, r := range f.States {
		keys[domain.KindState] = append(keys[domain.KindState], r.Key)
	}
	for _, r := range f.Cities {
		keys[domain.KindCity] = append(keys[domain.KindCity], r.Key)
	}
	for _, r := range f.Amenities {
		keys[domain.KindAmenity] = append(keys[domain.KindAmenity], r.Key)
	}
	for _, r := range f.Users {
		keys[domain.KindUser] = append(keys[domain.KindUser], r.Key)
	}
	for _, r := range f.Places {
		keys[domain.KindPlace] = append(keys[domain.KindPlace], r.Key)
	}
	for _, r := range f.Reviews {
		keys[domain.KindReview] = append(keys[domain.KindReview], r.Key)
	}
	for _, k := range domain.Kinds {
		seen := map[string]bool{}
		for _, key := range keys[k] {
			if key == "" {
				continue
			}
			if seen[key] {
				return fmt.Errorf("duplicate %s key %q", k, key)
			}
			seen[key] = true
		}
	}
	return nil
}

// Creator is the part of app.Service the loader needs.
type Creator interface {
	Create(ctx context.Context, kind domain.Kind, body []byte, parent *domain.Ref) (domain.Entity, error)
	LinkAmenity(ctx context.Context, placeID, amenityID string) (domain.Entity, bool, error)
}

// Result maps fixture keys to the ids they were stored under, per kind.
type Result map[domain.Kind]map[string]string

type loader struct {
	svc Creator

	mu  sync.Mutex
	ids Result
}

func (l *loader) id(kind domain.Kind, key string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.ids[kind][key]
	if !ok {
		return "", fmt.Errorf("unknown %s key %q", kind, key)
	}
	return id, nil
}

func (l *loader) create(ctx context.Context, kind domain.Kind, key string, rec any, parent *domain.Ref) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	e, err := l.svc.Create(ctx, kind, body, parent)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", kind, key, err)
	}
	id := e.Meta().ID
	if key != "" {
		l.mu.Lock()
		l.ids[kind][key] = id
		l.mu.Unlock()
	}
	return id, nil
}

// Apply stores f parents first. f is expected to come from Parse, which
// rejects duplicate keys. Records of one tier are created concurrently,
// at most workers at a time.
func Apply(ctx context.Context, svc Creator, f Fixtures, workers int) (Result, error) {
	if workers < 1 {
		workers = 1
	}
	l := &loader{svc: svc, ids: Result{}}
	for _, k := range domain.Kinds {
		l.ids[k] = map[string]string{}
	}

	tiers := []func(g *errgroup.Group, ctx context.Context){
		func(g *errgroup.Group, ctx context.Context) {
			for _, s := range f.States {
				g.Go(func() error {
					_, err := l.create(ctx, domain.KindState, s.Key, s, nil)
					return err
				})
			}
			for _, a := range f.Amenities {
				g.Go(func() error {
					_, err := l.create(ctx, domain.KindAmenity, a.Key, a, nil)
					return err
				})
			}
			for _, u := range f.Users {
				g.Go(func() error {
					_, err := l.create(ctx, domain.KindUser, u.Key, u, nil)
					return err
				})
			}
		},
		func(g *errgroup.Group, ctx context.Context) {
			for _, c := range f.Cities {
				g.Go(func() error {
					stateID, err := l.id(domain.KindState, c.State)
					if err != nil {
						return fmt.Errorf("city %q: %w", c.Key, err)
					}
					_, err = l.create(ctx, domain.KindCity, c.Key, c,
						&domain.Ref{Field: "state_id", Kind: domain.KindState, ID: stateID})
					return err
				})
			}
		},
		func(g *errgroup.Group, ctx context.Context) {
			for _, p := range f.Places {
				g.Go(func() error { return l.place(ctx, p) })
			}
		},
		func(g *errgroup.Group, ctx context.Context) {
			for _, r := range f.Reviews {
				g.Go(func() error {
					placeID, err := l.id(domain.KindPlace, r.Place)
					if err != nil {
						return fmt.Errorf("review %q: %w", r.Key, err)
					}
					if r.UserID, err = l.id(domain.KindUser, r.User); err != nil {
						return fmt.Errorf("review %q: %w", r.Key, err)
					}
					_, err = l.create(ctx, domain.KindReview, r.Key, r,
						&domain.Ref{Field: "place_id", Kind: domain.KindPlace, ID: placeID})
					return err
				})
			}
		},
	}

	for _, tier := range tiers {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		tier(g, gctx)
		if err := g.Wait(); err != nil {
			return l.ids, err
		}
	}
	return l.ids, nil
}

func (l *loader) place(ctx context.Context, p Place) error {
	cityID, err := l.id(domain.KindCity, p.City)
	if err != nil {
		return fmt.Errorf("place %q: %w", p.Key, err)
	}
	if p.UserID, err = l.id(domain.KindUser, p.User); err != nil {
		return fmt.Errorf("place %q: %w", p.Key, err)
	}
	placeID, err := l.create(ctx, domain.KindPlace, p.Key, p,
		&domain.Ref{Field: "city_id", Kind: domain.KindCity, ID: cityID})
	if err != nil {
		return err
	}
	for _, key := range p.Amenities {
		amenityID, err := l.id(domain.KindAmenity, key)
		if err != nil {
			return fmt.Errorf("place %q: %w", p.Key, err)
		}
		if _, _, err := l.svc.LinkAmenity(ctx, placeID, amenityID); err != nil {
			return fmt.Errorf("place %q amenity %q: %w", p.Key, key, err)
		}
	}
	return nil
}
