package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hbnb_api/internal/domain"
)

// APIPrefix is where the versioned API is mounted.
const APIPrefix = "/api/v1"

type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

func (h *Handlers) routes() []route {
	stateCitiesList, stateCitiesCreate := h.children(domain.KindState, domain.Child{Kind: domain.KindCity, Field: "state_id"})
	cityPlacesList, cityPlacesCreate := h.children(domain.KindCity, domain.Child{Kind: domain.KindPlace, Field: "city_id"})
	placeReviewsList, placeReviewsCreate := h.children(domain.KindPlace, domain.Child{Kind: domain.KindReview, Field: "place_id"})

	return []route{
		{http.MethodGet, "/status", h.status},
		{http.MethodGet, "/stats", h.stats},

		{http.MethodGet, "/states", h.list(domain.KindState)},
		{http.MethodPost, "/states", h.create(domain.KindState)},
		{http.MethodGet, "/states/{id}", h.get(domain.KindState)},
		{http.MethodPut, "/states/{id}", h.update(domain.KindState)},
		{http.MethodDelete, "/states/{id}", h.remove(domain.KindState)},

		{http.MethodGet, "/states/{id}/cities", stateCitiesList},
		{http.MethodPost, "/states/{id}/cities", stateCitiesCreate},
		{http.MethodGet, "/cities/{id}", h.get(domain.KindCity)},
		{http.MethodPut, "/cities/{id}", h.update(domain.KindCity)},
		{http.MethodDelete, "/cities/{id}", h.remove(domain.KindCity)},

		{http.MethodGet, "/amenities", h.list(domain.KindAmenity)},
		{http.MethodPost, "/amenities", h.create(domain.KindAmenity)},
		{http.MethodGet, "/amenities/{id}", h.get(domain.KindAmenity)},
		{http.MethodPut, "/amenities/{id}", h.update(domain.KindAmenity)},
		{http.MethodDelete, "/amenities/{id}", h.remove(domain.KindAmenity)},

		{http.MethodGet, "/users", h.list(domain.KindUser)},
		{http.MethodPost, "/users", h.create(domain.KindUser)},
		{http.MethodGet, "/users/{id}", h.get(domain.KindUser)},
		{http.MethodPut, "/users/{id}", h.update(domain.KindUser)},
		{http.MethodDelete, "/users/{id}", h.remove(domain.KindUser)},

		{http.MethodGet, "/cities/{id}/places", cityPlacesList},
		{http.MethodPost, "/cities/{id}/places", cityPlacesCreate},
		{http.MethodGet, "/places/{id}", h.get(domain.KindPlace)},
		{http.MethodPut, "/places/{id}", h.update(domain.KindPlace)},
		{http.MethodDelete, "/places/{id}", h.remove(domain.KindPlace)},
		{http.MethodPost, "/places_search", h.placesSearch},

		{http.MethodGet, "/places/{id}/reviews", placeReviewsList},
		{http.MethodPost, "/places/{id}/reviews", placeReviewsCreate},
		{http.MethodGet, "/reviews/{id}", h.get(domain.KindReview)},
		{http.MethodPut, "/reviews/{id}", h.update(domain.KindReview)},
		{http.MethodDelete, "/reviews/{id}", h.remove(domain.KindReview)},

		{http.MethodGet, "/places/{id}/amenities", h.placeAmenities},
		{http.MethodPost, "/places/{id}/amenities/{amenity_id}", h.linkAmenity},
		{http.MethodDelete, "/places/{id}/amenities/{amenity_id}", h.unlinkAmenity},
	}
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route(APIPrefix, func(r chi.Router) {
		for _, rt := range h.routes() {
			r.Method(rt.method, rt.pattern, rt.handler)
		}
	})
}
