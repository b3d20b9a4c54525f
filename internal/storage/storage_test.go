package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"hbnb_api/internal/adapters/observability"
	"hbnb_api/internal/domain"
	"hbnb_api/internal/shared"
	"hbnb_api/internal/storage"
)

func TestOpen_FileIsInstrumented(t *testing.T) {
	dir := t.TempDir()
	cfg := shared.Config{StorageType: shared.StorageFile, FilePath: filepath.Join(dir, "file.json")}
	s, err := storage.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	saves := observability.StorageOps.WithLabelValues("file", "save", "ok")
	misses := observability.StorageOps.WithLabelValues("file", "get", "not_found")
	beforeSave, beforeMiss := testutil.ToFloat64(saves), testutil.ToFloat64(misses)

	st := &domain.State{Name: "Utah"}
	domain.Stamp(st)
	if err := s.New(ctx, st); err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Get(ctx, domain.KindState, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get: %v", err)
	}

	if got := testutil.ToFloat64(saves) - beforeSave; got != 1 {
		t.Fatalf("save count delta = %v", got)
	}
	if got := testutil.ToFloat64(misses) - beforeMiss; got != 1 {
		t.Fatalf("not_found count delta = %v", got)
	}
}

func TestOpen_SQLite(t *testing.T) {
	cfg := shared.Config{StorageType: shared.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "hbnb.db")}
	s, err := storage.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if n, err := s.Count(context.Background(), domain.KindUser); err != nil || n != 0 {
		t.Fatalf("Count: %d %v", n, err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := storage.Open(context.Background(), shared.Config{StorageType: "csv"}); err == nil {
		t.Fatalf("expected error")
	}
}
