package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hbnb_api/internal/app"
	"hbnb_api/internal/domain"
	"hbnb_api/internal/seed"
	"hbnb_api/internal/storage/file"
)

func newService(t *testing.T) (*app.Service, *file.Store) {
	t.Helper()
	st, err := file.Open(filepath.Join(t.TempDir(), "file.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return app.NewService(st, nil, time.Minute), st
}

func TestApply_SampleFixtures(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "fixtures", "sample.toml"))
	if err != nil {
		t.Fatalf("open fixtures: %v", err)
	}
	defer f.Close()
	fx, err := seed.Parse(f)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	svc, st := newService(t)
	ctx := context.Background()
	ids, err := seed.Apply(ctx, svc, fx, 4)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	stats, _ := svc.Stats(ctx)
	want := map[string]int{"states": 2, "cities": 2, "amenities": 2, "users": 1, "places": 2, "reviews": 1}
	for k, v := range want {
		if stats[k] != v {
			t.Fatalf("%s = %d, want %d", k, stats[k], v)
		}
	}

	loft, err := domain.Get[*domain.Place](ctx, st, ids[domain.KindPlace]["loft"])
	if err != nil {
		t.Fatalf("loft: %v", err)
	}
	if loft.CityID != ids[domain.KindCity]["sf"] || loft.UserID != ids[domain.KindUser]["bob"] || loft.PriceByNight != 120 {
		t.Fatalf("loft: %+v", loft)
	}
	links, _ := st.AmenityIDs(ctx, loft.ID)
	if len(links) != 2 {
		t.Fatalf("loft amenities: %v", links)
	}

	bob, _ := domain.Get[*domain.User](ctx, st, ids[domain.KindUser]["bob"])
	if !bob.CheckPassword("changeme") {
		t.Fatalf("fixture password not hashed")
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := seed.Parse(strings.NewReader("[[state]]\nkey = \"x\"\nnmae = \"typo\"\n"))
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestApply_UnknownReference(t *testing.T) {
	fx, err := seed.Parse(strings.NewReader(`
[[city]]
key = "sf"
state = "nowhere"
name = "San Francisco"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	svc, _ := newService(t)
	_, err = seed.Apply(context.Background(), svc, fx, 1)
	if err == nil || !strings.Contains(err.Error(), `unknown State key "nowhere"`) {
		t.Fatalf("want unknown key error, got %v", err)
	}
}

func TestApply_InvalidRecord(t *testing.T) {
	fx, err := seed.Parse(strings.NewReader(`
[[user]]
key = "nopw"
email = "a@b.c"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	svc, _ := newService(t)
	_, err = seed.Apply(context.Background(), svc, fx, 1)
	if err == nil || !strings.Contains(err.Error(), "Missing password") {
		t.Fatalf("want Missing password, got %v", err)
	}
}

func TestParse_RejectsDuplicateKeys(t *testing.T) {
	_, err := seed.Parse(strings.NewReader(`
[[amenity]]
key = "wifi"
name = "Wifi"

[[amenity]]
key = "wifi"
name = "Fiber"
`))
	if err == nil || !strings.Contains(err.Error(), `duplicate Amenity key "wifi"`) {
		t.Fatalf("want duplicate key error, got %v", err)
	}
}

func TestParse_SameKeyAcrossKinds(t *testing.T) {
	_, err := seed.Parse(strings.NewReader(`
[[state]]
key = "x"
name = "A"

[[amenity]]
key = "x"
name = "B"
`))
	if err != nil {
		t.Fatalf("keys are scoped per kind: %v", err)
	}
}
