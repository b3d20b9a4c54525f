// Package file keeps the object graph in memory and persists it as one JSON document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"hbnb_api/internal/domain"
)

// document is the on-disk layout.
type document struct {
	Objects        map[string]json.RawMessage `json:"objects"`
	PlaceAmenities map[string][]string        `json:"place_amenities,omitempty"`
}

type Store struct {
	path string

	mu      sync.RWMutex
	objects map[string]json.RawMessage     // "<Kind>.<id>" -> serialized entity
	links   map[string]map[string]struct{} // place id -> amenity ids
}

// Open loads path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload discards unsaved changes and re-reads the file.
func (s *Store) Reload() error {
	objects := map[string]json.RawMessage{}
	links := map[string]map[string]struct{}{}

	b, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read %s: %w", s.path, err)
	case len(b) > 0:
		var doc document
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", s.path, err)
		}
		for k, v := range doc.Objects {
			objects[k] = v
		}
		for placeID, ids := range doc.PlaceAmenities {
			set := make(map[string]struct{}, len(ids))
			for _, id := range ids {
				set[id] = struct{}{}
			}
			links[placeID] = set
		}
	}

	s.mu.Lock()
	s.objects, s.links = objects, links
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(_ context.Context, kind domain.Kind, id string) (domain.Entity, error) {
	s.mu.RLock()
	raw, ok := s.objects[string(kind)+"."+id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return domain.Decode(raw)
}

func (s *Store) All(_ context.Context, kind domain.Kind) (map[string]domain.Entity, error) {
	prefix := string(kind) + "."
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]domain.Entity{}
	for key, raw := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		e, err := domain.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[e.Meta().ID] = e
	}
	return out, nil
}

func (s *Store) Count(_ context.Context, kind domain.Kind) (int, error) {
	prefix := string(kind) + "."
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n, nil
}

func (s *Store) New(_ context.Context, e domain.Entity) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[domain.Key(e)] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, e domain.Entity) error {
	id := e.Meta().ID
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, domain.Key(e))
	switch e.Kind() {
	case domain.KindPlace:
		delete(s.links, id)
	case domain.KindAmenity:
		for _, set := range s.links {
			delete(set, id)
		}
	}
	return nil
}

func (s *Store) Where(ctx context.Context, kind domain.Kind, field, id string) ([]domain.Entity, error) {
	if !domain.IsForeignKey(kind, field) {
		return nil, fmt.Errorf("%s has no foreign key %q", kind, field)
	}
	all, err := s.All(ctx, kind)
	if err != nil {
		return nil, err
	}
	var out []domain.Entity
	for _, e := range all {
		if v, _ := domain.ForeignKey(e, field); v == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) AmenityIDs(_ context.Context, placeID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.links[placeID]), nil
}

func (s *Store) Link(_ context.Context, placeID, amenityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.links[placeID]
	if !ok {
		set = map[string]struct{}{}
		s.links[placeID] = set
	}
	set[amenityID] = struct{}{}
	return nil
}

func (s *Store) Unlink(_ context.Context, placeID, amenityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links[placeID], amenityID)
	if len(s.links[placeID]) == 0 {
		delete(s.links, placeID)
	}
	return nil
}

// Save writes the whole graph to a temp file and renames it over path. When
// the write fails, the in-memory graph is reset to what is on disk so the
// failed changes are neither visible nor persisted by a later Save.
func (s *Store) Save(_ context.Context) error {
	s.mu.RLock()
	doc := document{
		Objects:        make(map[string]json.RawMessage, len(s.objects)),
		PlaceAmenities: make(map[string][]string, len(s.links)),
	}
	for k, v := range s.objects {
		doc.Objects[k] = v
	}
	for placeID, set := range s.links {
		if len(set) > 0 {
			doc.PlaceAmenities[placeID] = sortedIDs(set)
		}
	}
	s.mu.RUnlock()

	if err := s.write(doc); err != nil {
		if rerr := s.Reload(); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func (s *Store) write(doc document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".hbnb-*.json")
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
