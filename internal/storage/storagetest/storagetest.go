// Package storagetest holds the behaviour every domain.Storage backend must share.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"hbnb_api/internal/domain"
)

// Open returns a fresh, empty store for one subtest.
type Open func(t *testing.T) domain.Storage

// Run exercises the storage contract against backends produced by open.
func Run(t *testing.T, open Open) {
	t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, open(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("UpdateKeepsCreatedAt", func(t *testing.T) { testUpdate(t, open(t)) })
	t.Run("AllCountWhere", func(t *testing.T) { testAllCountWhere(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("AmenityLinks", func(t *testing.T) { testLinks(t, open(t)) })
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func put(t *testing.T, s domain.Storage, es ...domain.Entity) {
	t.Helper()
	ctx := context.Background()
	for _, e := range es {
		if e.Meta().ID == "" {
			domain.Stamp(e)
		}
		if err := s.New(ctx, e); err != nil {
			t.Fatalf("New %s: %v", e.Kind(), err)
		}
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// Graph is a small connected fixture: one state, city, user, place, review and two amenities.
type Graph struct {
	State   *domain.State
	City    *domain.City
	User    *domain.User
	Place   *domain.Place
	Review  *domain.Review
	Wifi    *domain.Amenity
	Parking *domain.Amenity
}

// Seed stores a Graph in s, parents first.
func Seed(t *testing.T, s domain.Storage) Graph {
	t.Helper()
	g := Graph{
		State:   &domain.State{Name: "California"},
		User:    &domain.User{Email: "bob@hbnb.io", Password: "hash", FirstName: "Bob"},
		Wifi:    &domain.Amenity{Name: "Wifi"},
		Parking: &domain.Amenity{Name: "Parking"},
	}
	put(t, s, g.State, g.User, g.Wifi, g.Parking)
	g.City = &domain.City{StateID: g.State.ID, Name: "San Francisco"}
	put(t, s, g.City)
	g.Place = &domain.Place{
		CityID: g.City.ID, UserID: g.User.ID, Name: "Loft", Description: "Sunny",
		NumberRooms: 2, NumberBathrooms: 1, MaxGuest: 4, PriceByNight: 120,
		Latitude: 37.77, Longitude: -122.41,
	}
	put(t, s, g.Place)
	g.Review = &domain.Review{PlaceID: g.Place.ID, UserID: g.User.ID, Text: "Great"}
	put(t, s, g.Review)
	return g
}

func testCreateGet(t *testing.T, s domain.Storage) {
	g := Seed(t, s)
	ctx := context.Background()

	for _, want := range []domain.Entity{g.State, g.City, g.User, g.Place, g.Review, g.Wifi} {
		got, err := s.Get(ctx, want.Kind(), want.Meta().ID)
		if err != nil {
			t.Fatalf("Get %s: %v", want.Kind(), err)
		}
		if mustJSON(t, got) != mustJSON(t, want) {
			t.Fatalf("round trip %s:\n got %s\nwant %s", want.Kind(), mustJSON(t, got), mustJSON(t, want))
		}
	}

	p, err := domain.Get[*domain.Place](ctx, s, g.Place.ID)
	if err != nil || p.PriceByNight != 120 {
		t.Fatalf("typed Get: %+v %v", p, err)
	}
}

func testGetMissing(t *testing.T, s domain.Storage) {
	_, err := s.Get(context.Background(), domain.KindState, "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testUpdate(t *testing.T, s domain.Storage) {
	st := &domain.State{Name: "Nevada"}
	put(t, s, st)
	created := st.CreatedAt

	upd := *st
	upd.Name = "Oregon"
	upd.UpdatedAt = domain.Now()
	put(t, s, &upd)

	got, err := domain.Get[*domain.State](context.Background(), s, st.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Oregon" {
		t.Fatalf("name = %s", got.Name)
	}
	if !got.CreatedAt.Equal(created.Time) {
		t.Fatalf("created_at changed: %v -> %v", created, got.CreatedAt)
	}
}

func testAllCountWhere(t *testing.T, s domain.Storage) {
	g := Seed(t, s)
	other := &domain.City{StateID: g.State.ID, Name: "Fresno"}
	put(t, s, other)
	ctx := context.Background()

	all, err := s.All(ctx, domain.KindCity)
	if err != nil || len(all) != 2 {
		t.Fatalf("All cities: %d %v", len(all), err)
	}
	if _, ok := all[other.ID]; !ok {
		t.Fatalf("All is keyed by id")
	}
	if n, err := s.Count(ctx, domain.KindAmenity); err != nil || n != 2 {
		t.Fatalf("Count amenities: %d %v", n, err)
	}

	cities, err := domain.Related[*domain.City](ctx, s, "state_id", g.State.ID)
	if err != nil || len(cities) != 2 {
		t.Fatalf("cities of state: %d %v", len(cities), err)
	}
	reviews, err := domain.Related[*domain.Review](ctx, s, "user_id", g.User.ID)
	if err != nil || len(reviews) != 1 || reviews[0].ID != g.Review.ID {
		t.Fatalf("reviews of user: %+v %v", reviews, err)
	}
	none, err := s.Where(ctx, domain.KindPlace, "city_id", other.ID)
	if err != nil || len(none) != 0 {
		t.Fatalf("places of empty city: %d %v", len(none), err)
	}
	if _, err := s.Where(ctx, domain.KindPlace, "name", "x"); err == nil {
		t.Fatalf("expected error for non foreign key field")
	}
}

func testDelete(t *testing.T, s domain.Storage) {
	g := Seed(t, s)
	ctx := context.Background()

	if err := s.Delete(ctx, g.Review); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Get(ctx, domain.KindReview, g.Review.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if n, _ := s.Count(ctx, domain.KindReview); n != 0 {
		t.Fatalf("Count reviews = %d", n)
	}
}

func testLinks(t *testing.T, s domain.Storage) {
	g := Seed(t, s)
	ctx := context.Background()

	for _, id := range []string{g.Wifi.ID, g.Parking.ID, g.Wifi.ID} {
		if err := s.Link(ctx, g.Place.ID, id); err != nil {
			t.Fatalf("Link: %v", err)
		}
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, err := s.AmenityIDs(ctx, g.Place.ID)
	if err != nil || len(ids) != 2 {
		t.Fatalf("AmenityIDs: %v %v", ids, err)
	}

	if err := s.Unlink(ctx, g.Place.ID, g.Wifi.ID); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, _ = s.AmenityIDs(ctx, g.Place.ID)
	if len(ids) != 1 || ids[0] != g.Parking.ID {
		t.Fatalf("after unlink: %v", ids)
	}

	// removing the amenity drops its links
	if err := s.Delete(ctx, g.Parking); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, _ = s.AmenityIDs(ctx, g.Place.ID)
	if len(ids) != 0 {
		t.Fatalf("links survived amenity delete: %v", ids)
	}
}
