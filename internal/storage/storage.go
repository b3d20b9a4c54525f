// Package storage selects a backend from configuration and instruments it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hbnb_api/internal/adapters/observability"
	"hbnb_api/internal/domain"
	"hbnb_api/internal/shared"
	"hbnb_api/internal/storage/file"
	mysqlrepo "hbnb_api/internal/storage/mysql"
	"hbnb_api/internal/storage/sqlite"
)

// Open builds the backend named by cfg.StorageType.
func Open(ctx context.Context, cfg shared.Config) (domain.Storage, error) {
	var (
		s   domain.Storage
		err error
	)
	switch cfg.StorageType {
	case shared.StorageFile:
		s, err = file.Open(cfg.FilePath)
	case shared.StorageSQLite:
		s, err = sqlite.Open(cfg.SQLitePath)
	case shared.StorageDB:
		s, err = openMySQL(ctx, cfg)
	default:
		err = fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("backend", cfg.StorageType).Msg("storage ready")
	return Instrument(cfg.StorageType, s), nil
}

func openMySQL(ctx context.Context, cfg shared.Config) (domain.Storage, error) {
	if err := mysqlrepo.Migrate(cfg.MySQLDSN, cfg.IsTest()); err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return mysqlrepo.New(db), nil
}

// Instrument wraps s so every call is counted and timed under backend.
func Instrument(backend string, s domain.Storage) domain.Storage {
	return &instrumented{next: s, backend: backend}
}

type instrumented struct {
	next    domain.Storage
	backend string
}

func (i *instrumented) observe(op string, start time.Time, err *error) {
	observability.ObserveStorage(i.backend, op, *err, time.Since(start))
}

func (i *instrumented) Get(ctx context.Context, kind domain.Kind, id string) (e domain.Entity, err error) {
	defer i.observe("get", time.Now(), &err)
	return i.next.Get(ctx, kind, id)
}

func (i *instrumented) All(ctx context.Context, kind domain.Kind) (m map[string]domain.Entity, err error) {
	defer i.observe("all", time.Now(), &err)
	return i.next.All(ctx, kind)
}

func (i *instrumented) Count(ctx context.Context, kind domain.Kind) (n int, err error) {
	defer i.observe("count", time.Now(), &err)
	return i.next.Count(ctx, kind)
}

func (i *instrumented) New(ctx context.Context, e domain.Entity) (err error) {
	defer i.observe("new", time.Now(), &err)
	return i.next.New(ctx, e)
}

func (i *instrumented) Delete(ctx context.Context, e domain.Entity) (err error) {
	defer i.observe("delete", time.Now(), &err)
	return i.next.Delete(ctx, e)
}

func (i *instrumented) Save(ctx context.Context) (err error) {
	defer i.observe("save", time.Now(), &err)
	return i.next.Save(ctx)
}

func (i *instrumented) Close() error { return i.next.Close() }

func (i *instrumented) Where(ctx context.Context, kind domain.Kind, field, id string) (es []domain.Entity, err error) {
	defer i.observe("where", time.Now(), &err)
	return i.next.Where(ctx, kind, field, id)
}

func (i *instrumented) AmenityIDs(ctx context.Context, placeID string) (ids []string, err error) {
	defer i.observe("amenity_ids", time.Now(), &err)
	return i.next.AmenityIDs(ctx, placeID)
}

func (i *instrumented) Link(ctx context.Context, placeID, amenityID string) (err error) {
	defer i.observe("link", time.Now(), &err)
	return i.next.Link(ctx, placeID, amenityID)
}

func (i *instrumented) Unlink(ctx context.Context, placeID, amenityID string) (err error) {
	defer i.observe("unlink", time.Now(), &err)
	return i.next.Unlink(ctx, placeID, amenityID)
}
