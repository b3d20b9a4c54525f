package domain

// Ref is a foreign key held by an entity.
type Ref struct {
	Field string
	Kind  Kind
	ID    string
}

// References lists the foreign keys of e that must resolve before it is stored.
func References(e Entity) []Ref {
	switch v := e.(type) {
	case *City:
		return []Ref{{"state_id", KindState, v.StateID}}
	case *Place:
		return []Ref{{"city_id", KindCity, v.CityID}, {"user_id", KindUser, v.UserID}}
	case *Review:
		return []Ref{{"place_id", KindPlace, v.PlaceID}, {"user_id", KindUser, v.UserID}}
	}
	return nil
}

// Child describes a dependent collection: entities of Kind whose Field points at the parent.
type Child struct {
	Kind  Kind
	Field string
}

var children = map[Kind][]Child{
	KindState: {{KindCity, "state_id"}},
	KindCity:  {{KindPlace, "city_id"}},
	KindUser:  {{KindPlace, "user_id"}, {KindReview, "user_id"}},
	KindPlace: {{KindReview, "place_id"}},
}

// Children returns the collections removed together with an entity of kind k.
func Children(k Kind) []Child { return children[k] }

// ForeignKeys lists the foreign key fields of kind k.
func ForeignKeys(k Kind) []string {
	switch k {
	case KindCity:
		return []string{"state_id"}
	case KindPlace:
		return []string{"city_id", "user_id"}
	case KindReview:
		return []string{"place_id", "user_id"}
	}
	return nil
}

// IsForeignKey reports whether field is a foreign key of kind k.
func IsForeignKey(k Kind, field string) bool {
	for _, f := range ForeignKeys(k) {
		if f == field {
			return true
		}
	}
	return false
}

// ForeignKey reads the value of a foreign key field.
func ForeignKey(e Entity, field string) (string, bool) {
	for _, r := range References(e) {
		if r.Field == field {
			return r.ID, true
		}
	}
	return "", false
}

var immutable = map[Kind][]string{
	KindCity:   {"state_id"},
	KindUser:   {"email"},
	KindPlace:  {"city_id", "user_id"},
	KindReview: {"place_id", "user_id"},
}

// Protected reports whether an update may not change field on kind k.
func Protected(k Kind, field string) bool {
	switch field {
	case "id", "created_at", "updated_at", "__class__":
		return true
	}
	for _, f := range immutable[k] {
		if f == field {
			return true
		}
	}
	return false
}
