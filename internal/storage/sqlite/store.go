// Package sqlite is the gorm-backed relational store.
package sqlite

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"hbnb_api/internal/domain"
)

func errUnknown(e domain.Entity) error { return fmt.Errorf("unsupported entity %T", e) }

type row interface {
	entity() domain.Entity
}

type Store struct {
	db *gorm.DB

	mu      sync.Mutex
	pending []func(tx *gorm.DB) error
}

// Open connects to the database file at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one writer at a time; also keeps ":memory:" to a single database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&stateRow{}, &cityRow{}, &amenityRow{}, &userRow{},
		&placeRow{}, &reviewRow{}, &placeAmenityRow{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &Store{db: db}, nil
}

func findAll[R row](db *gorm.DB, query string, args ...any) ([]domain.Entity, error) {
	var rs []R
	q := db
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Find(&rs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Entity, len(rs))
	for i := range rs {
		out[i] = rs[i].entity()
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, kind domain.Kind, query string, args ...any) ([]domain.Entity, error) {
	db := s.db.WithContext(ctx)
	switch kind {
	case domain.KindState:
		return findAll[stateRow](db, query, args...)
	case domain.KindCity:
		return findAll[cityRow](db, query, args...)
	case domain.KindAmenity:
		return findAll[amenityRow](db, query, args...)
	case domain.KindUser:
		return findAll[userRow](db, query, args...)
	case domain.KindPlace:
		return findAll[placeRow](db, query, args...)
	case domain.KindReview:
		return findAll[reviewRow](db, query, args...)
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

func (s *Store) Get(ctx context.Context, kind domain.Kind, id string) (domain.Entity, error) {
	es, err := s.find(ctx, kind, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(es) == 0 {
		return nil, domain.ErrNotFound
	}
	return es[0], nil
}

func (s *Store) All(ctx context.Context, kind domain.Kind) (map[string]domain.Entity, error) {
	es, err := s.find(ctx, kind, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Entity, len(es))
	for _, e := range es {
		out[e.Meta().ID] = e
	}
	return out, nil
}

func (s *Store) Where(ctx context.Context, kind domain.Kind, field, id string) ([]domain.Entity, error) {
	if !domain.IsForeignKey(kind, field) {
		return nil, fmt.Errorf("%s has no foreign key %q", kind, field)
	}
	return s.find(ctx, kind, field+" = ?", id)
}

func (s *Store) Count(ctx context.Context, kind domain.Kind) (int, error) {
	table := kind.Plural()
	if table == "" {
		return 0, fmt.Errorf("unknown kind %q", kind)
	}
	var n int64
	if err := s.db.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) AmenityIDs(ctx context.Context, placeID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&placeAmenityRow{}).
		Where("place_id = ?", placeID).Order("amenity_id").Pluck("amenity_id", &ids).Error
	return ids, err
}

func (s *Store) stage(fn func(tx *gorm.DB) error) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

func (s *Store) New(_ context.Context, e domain.Entity) error {
	r, err := rowOf(e)
	if err != nil {
		return err
	}
	s.stage(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(r).Error
	})
	return nil
}

func (s *Store) Delete(_ context.Context, e domain.Entity) error {
	r, err := rowOf(e)
	if err != nil {
		return err
	}
	id := e.Meta().ID
	kind := e.Kind()
	s.stage(func(tx *gorm.DB) error {
		switch kind {
		case domain.KindPlace:
			if err := tx.Where("place_id = ?", id).Delete(&placeAmenityRow{}).Error; err != nil {
				return err
			}
		case domain.KindAmenity:
			if err := tx.Where("amenity_id = ?", id).Delete(&placeAmenityRow{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(r).Error
	})
	return nil
}

func (s *Store) Link(_ context.Context, placeID, amenityID string) error {
	s.stage(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&placeAmenityRow{PlaceID: placeID, AmenityID: amenityID}).Error
	})
	return nil
}

func (s *Store) Unlink(_ context.Context, placeID, amenityID string) error {
	s.stage(func(tx *gorm.DB) error {
		return tx.Delete(&placeAmenityRow{PlaceID: placeID, AmenityID: amenityID}).Error
	})
	return nil
}

// Save runs the staged operations in one transaction and clears them either way.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	ops := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(ops) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range ops {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ domain.Storage = (*Store)(nil)
