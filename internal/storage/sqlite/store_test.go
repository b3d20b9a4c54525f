package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"hbnb_api/internal/domain"
	"hbnb_api/internal/storage/sqlite"
	"hbnb_api/internal/storage/storagetest"
)

func open(t *testing.T) domain.Storage {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "hbnb.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, open)
}

func TestStore_DeletePlaceDropsLinks(t *testing.T) {
	s := open(t)
	g := storagetest.Seed(t, s)
	ctx := context.Background()

	if err := s.Link(ctx, g.Place.ID, g.Wifi.ID); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, g.Place); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ids, err := s.AmenityIDs(ctx, g.Place.ID)
	if err != nil || len(ids) != 0 {
		t.Fatalf("links survived place delete: %v %v", ids, err)
	}
}

func TestStore_SaveWithoutPendingIsNoop(t *testing.T) {
	s := open(t)
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
}
