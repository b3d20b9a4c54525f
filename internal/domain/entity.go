package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind names an entity type. Its string form is the value of "__class__".
type Kind string

const (
	KindAmenity Kind = "Amenity"
	KindCity    Kind = "City"
	KindPlace   Kind = "Place"
	KindReview  Kind = "Review"
	KindState   Kind = "State"
	KindUser    Kind = "User"
)

// Kinds lists every entity kind in stable order.
var Kinds = []Kind{KindAmenity, KindCity, KindPlace, KindReview, KindState, KindUser}

// Plural is the collection name used by /stats and table names.
func (k Kind) Plural() string {
	switch k {
	case KindAmenity:
		return "amenities"
	case KindCity:
		return "cities"
	case KindPlace:
		return "places"
	case KindReview:
		return "reviews"
	case KindState:
		return "states"
	case KindUser:
		return "users"
	}
	return ""
}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// TimeFormat is the wire format of created_at/updated_at.
const TimeFormat = "2006-01-02T15:04:05.000000"

type Time struct{ time.Time }

// Now returns the current UTC time truncated to microseconds, the precision
// every backend can round-trip.
func Now() Time { return Time{time.Now().UTC().Truncate(time.Microsecond)} }

func NewTime(t time.Time) Time { return Time{t.UTC().Truncate(time.Microsecond)} }

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.UTC().Format(TimeFormat))), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("time: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{TimeFormat, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("time: cannot parse %q", s)
}

// Base carries the fields every entity shares.
type Base struct {
	ID        string `json:"id"`
	CreatedAt Time   `json:"created_at"`
	UpdatedAt Time   `json:"updated_at"`
}

func (b *Base) Meta() *Base { return b }

// Entity is implemented by pointers to State, City, Amenity, User, Place and Review.
type Entity interface {
	Kind() Kind
	Meta() *Base
}

// NewEntity returns an empty entity of kind k.
func NewEntity(k Kind) (Entity, error) {
	switch k {
	case KindAmenity:
		return &Amenity{}, nil
	case KindCity:
		return &City{}, nil
	case KindPlace:
		return &Place{}, nil
	case KindReview:
		return &Review{}, nil
	case KindState:
		return &State{}, nil
	case KindUser:
		return &User{}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", k)
}

// Stamp assigns a fresh id and timestamps.
func Stamp(e Entity) {
	now := Now()
	m := e.Meta()
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Key is the "<Kind>.<id>" identifier used by the file store.
func Key(e Entity) string { return string(e.Kind()) + "." + e.Meta().ID }

// Decode reads a serialized entity, using "__class__" to pick the type.
func Decode(raw []byte) (Entity, error) {
	var probe struct {
		Class string `json:"__class__"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	k, ok := ParseKind(probe.Class)
	if !ok {
		return nil, fmt.Errorf("unknown __class__ %q", probe.Class)
	}
	e, _ := NewEntity(k)
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", k, err)
	}
	return e, nil
}

// withClass marshals v (a JSON object) with a leading "__class__" member.
func withClass(k Kind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(k)+16)
	out = append(out, `{"__class__":`...)
	out = strconv.AppendQuote(out, string(k))
	if len(body) > 2 {
		out = append(out, ',')
	}
	return append(out, body[1:]...), nil
}

// SortByCreated orders entities by creation time, then id.
func SortByCreated[T Entity](xs []T) {
	sort.SliceStable(xs, func(i, j int) bool {
		a, b := xs[i].Meta(), xs[j].Meta()
		if !a.CreatedAt.Equal(b.CreatedAt.Time) {
			return a.CreatedAt.Before(b.CreatedAt.Time)
		}
		return a.ID < b.ID
	})
}
