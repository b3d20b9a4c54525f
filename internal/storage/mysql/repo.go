package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"hbnb_api/internal/domain"
)

// NULL for empty optional columns.
func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valF64(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

var selects = map[domain.Kind]string{
	domain.KindState:   selectStatesSQL,
	domain.KindCity:    selectCitiesSQL,
	domain.KindAmenity: selectAmenitiesSQL,
	domain.KindUser:    selectUsersSQL,
	domain.KindPlace:   selectPlacesSQL,
	domain.KindReview:  selectReviewsSQL,
}

type opKind int

const (
	opUpsert opKind = iota
	opDelete
	opLink
	opUnlink
)

type op struct {
	kind      opKind
	e         domain.Entity
	placeID   string
	amenityID string
}

// Repo stages New/Delete/Link/Unlink and applies them in one transaction on Save.
// Reads always go to the database.
type Repo struct {
	db *sql.DB

	mu      sync.Mutex
	pending []op
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(kind domain.Kind, sc rowScanner) (domain.Entity, error) {
	e, err := domain.NewEntity(kind)
	if err != nil {
		return nil, err
	}
	m := e.Meta()
	var created, updated time.Time
	var first, last, desc sql.NullString
	var lat, lon sql.NullFloat64

	dest := []any{&m.ID, &created, &updated}
	switch v := e.(type) {
	case *domain.State:
		dest = append(dest, &v.Name)
	case *domain.City:
		dest = append(dest, &v.StateID, &v.Name)
	case *domain.Amenity:
		dest = append(dest, &v.Name)
	case *domain.User:
		dest = append(dest, &v.Email, &v.Password, &first, &last)
	case *domain.Place:
		dest = append(dest, &v.CityID, &v.UserID, &v.Name, &desc,
			&v.NumberRooms, &v.NumberBathrooms, &v.MaxGuest, &v.PriceByNight, &lat, &lon)
	case *domain.Review:
		dest = append(dest, &v.PlaceID, &v.UserID, &v.Text)
	}
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	m.CreatedAt = domain.NewTime(created)
	m.UpdatedAt = domain.NewTime(updated)
	switch v := e.(type) {
	case *domain.User:
		v.FirstName = first.String
		v.LastName = last.String
	case *domain.Place:
		v.Description = desc.String
		v.Latitude = lat.Float64
		v.Longitude = lon.Float64
	}
	return e, nil
}

func (r *Repo) Get(ctx context.Context, kind domain.Kind, id string) (domain.Entity, error) {
	q, ok := selects[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	e, err := scanEntity(kind, r.db.QueryRowContext(ctx, q+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *Repo) query(ctx context.Context, kind domain.Kind, where string, args ...any) ([]domain.Entity, error) {
	q, ok := selects[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	rows, err := r.db.QueryContext(ctx, q+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		e, err := scanEntity(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) All(ctx context.Context, kind domain.Kind) (map[string]domain.Entity, error) {
	es, err := r.query(ctx, kind, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Entity, len(es))
	for _, e := range es {
		out[e.Meta().ID] = e
	}
	return out, nil
}

func (r *Repo) Where(ctx context.Context, kind domain.Kind, field, id string) ([]domain.Entity, error) {
	// field is interpolated; only known foreign key columns get through
	if !domain.IsForeignKey(kind, field) {
		return nil, fmt.Errorf("%s has no foreign key %q", kind, field)
	}
	return r.query(ctx, kind, " WHERE "+field+" = ?", id)
}

func (r *Repo) Count(ctx context.Context, kind domain.Kind) (int, error) {
	table := kind.Plural()
	if table == "" {
		return 0, fmt.Errorf("unknown kind %q", kind)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repo) AmenityIDs(ctx context.Context, placeID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, selectAmenityIDsSQL, placeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) stage(o op) {
	r.mu.Lock()
	r.pending = append(r.pending, o)
	r.mu.Unlock()
}

func (r *Repo) New(_ context.Context, e domain.Entity) error {
	r.stage(op{kind: opUpsert, e: e})
	return nil
}

func (r *Repo) Delete(_ context.Context, e domain.Entity) error {
	r.stage(op{kind: opDelete, e: e})
	return nil
}

func (r *Repo) Link(_ context.Context, placeID, amenityID string) error {
	r.stage(op{kind: opLink, placeID: placeID, amenityID: amenityID})
	return nil
}

func (r *Repo) Unlink(_ context.Context, placeID, amenityID string) error {
	r.stage(op{kind: opUnlink, placeID: placeID, amenityID: amenityID})
	return nil
}

// Save applies every staged operation in order. On failure the whole batch is
// rolled back and dropped.
func (r *Repo) Save(ctx context.Context) error {
	r.mu.Lock()
	ops := r.pending
	r.pending = nil
	r.mu.Unlock()
	if len(ops) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, o := range ops {
		if err := apply(ctx, tx, o); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func apply(ctx context.Context, tx *sql.Tx, o op) error {
	var err error
	switch o.kind {
	case opUpsert:
		err = upsert(ctx, tx, o.e)
	case opDelete:
		_, err = tx.ExecContext(ctx, "DELETE FROM "+o.e.Kind().Plural()+" WHERE id = ?", o.e.Meta().ID)
	case opLink:
		_, err = tx.ExecContext(ctx, linkAmenitySQL, o.placeID, o.amenityID)
	case opUnlink:
		_, err = tx.ExecContext(ctx, unlinkAmenitySQL, o.placeID, o.amenityID)
	}
	return err
}

func upsert(ctx context.Context, tx *sql.Tx, e domain.Entity) error {
	m := e.Meta()
	created, updated := m.CreatedAt.Time, m.UpdatedAt.Time
	var err error
	switch v := e.(type) {
	case *domain.State:
		_, err = tx.ExecContext(ctx, upsertStateSQL, v.ID, created, updated, v.Name)
	case *domain.City:
		_, err = tx.ExecContext(ctx, upsertCitySQL, v.ID, created, updated, v.StateID, v.Name)
	case *domain.Amenity:
		_, err = tx.ExecContext(ctx, upsertAmenitySQL, v.ID, created, updated, v.Name)
	case *domain.User:
		_, err = tx.ExecContext(ctx, upsertUserSQL, v.ID, created, updated,
			v.Email, v.Password, valStr(v.FirstName), valStr(v.LastName))
	case *domain.Place:
		_, err = tx.ExecContext(ctx, upsertPlaceSQL, v.ID, created, updated,
			v.CityID, v.UserID, v.Name, valStr(v.Description),
			v.NumberRooms, v.NumberBathrooms, v.MaxGuest, v.PriceByNight,
			valF64(v.Latitude), valF64(v.Longitude))
	case *domain.Review:
		_, err = tx.ExecContext(ctx, upsertReviewSQL, v.ID, created, updated, v.PlaceID, v.UserID, v.Text)
	default:
		err = fmt.Errorf("unsupported entity %T", e)
	}
	return err
}

func (r *Repo) Close() error { return r.db.Close() }
