package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hbnb_api/internal/domain"
	"hbnb_api/internal/storage/file"
	"hbnb_api/internal/storage/storagetest"
)

func open(t *testing.T) domain.Storage {
	t.Helper()
	s, err := file.Open(filepath.Join(t.TempDir(), "file.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, open)
}

func TestStore_ReopenKeepsGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.json")
	s, err := file.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	g := storagetest.Seed(t, s)
	ctx := context.Background()
	if err := s.Link(ctx, g.Place.ID, g.Wifi.ID); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"State.`+g.State.ID+`"`) || !strings.Contains(string(raw), `"__class__":"Place"`) {
		t.Fatalf("unexpected document: %s", raw)
	}

	again, err := file.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	u, err := domain.Get[*domain.User](ctx, again, g.User.ID)
	if err != nil || u.Password != "hash" || u.Email != "bob@hbnb.io" {
		t.Fatalf("user after reopen: %+v %v", u, err)
	}
	ids, _ := again.AmenityIDs(ctx, g.Place.ID)
	if len(ids) != 1 || ids[0] != g.Wifi.ID {
		t.Fatalf("links after reopen: %v", ids)
	}
}

func TestStore_ReloadDropsUnsaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.json")
	s, err := file.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	st := &domain.State{Name: "Draft"}
	domain.Stamp(st)
	if err := s.New(ctx, st); err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if n, _ := s.Count(ctx, domain.KindState); n != 0 {
		t.Fatalf("unsaved state survived reload")
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := file.Open(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestStore_FailedSaveDropsChanges(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	s, err := file.Open(filepath.Join(dir, "file.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	st := &domain.State{Name: "Lost"}
	domain.Stamp(st)
	if err := s.New(ctx, st); err != nil {
		t.Fatalf("New: %v", err)
	}

	// the directory is gone, so the temp file cannot be created
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Save(ctx); err == nil {
		t.Fatalf("expected Save to fail")
	}
	if _, err := s.Get(ctx, domain.KindState, st.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unsaved state still visible: %v", err)
	}

	// a later successful Save does not resurrect it
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := file.Open(filepath.Join(dir, "file.json"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if n, _ := again.Count(ctx, domain.KindState); n != 0 {
		t.Fatalf("failed change persisted: %d states", n)
	}
}
