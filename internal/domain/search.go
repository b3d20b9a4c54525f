package domain

// PlaceSearch is the body of POST /places_search.
type PlaceSearch struct {
	States    []string `json:"states"`
	Cities    []string `json:"cities"`
	Amenities []string `json:"amenities"`
}

func (q PlaceSearch) Empty() bool {
	return len(q.States) == 0 && len(q.Cities) == 0 && len(q.Amenities) == 0
}
