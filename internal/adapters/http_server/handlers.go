package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hbnb_api/internal/app"
	"hbnb_api/internal/domain"
)

// maxBody bounds request bodies read by create, update and search.
const maxBody = 1 << 20

type Handlers struct{ Svc *app.Service }

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError maps service errors onto status codes. Anything unknown is a 500
// and is logged; its text never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing *domain.MissingFieldError
		invalid *domain.InvalidError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	case errors.Is(err, domain.ErrNotJSON):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: domain.ErrNotJSON.Error()})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: missing.Error()})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: invalid.Error()})
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeTagged answers a GET with an ETag, or 304 when the client already has it.
func writeTagged(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, &domain.InvalidError{Msg: "Request body too large"}
		}
		return nil, err
	}
	return b, nil
}

func (h *Handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) list(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.Svc.List(r.Context(), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeTagged(w, r, out)
	}
}

func (h *Handlers) get(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := h.Svc.View(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeTagged(w, r, e)
	}
}

// create handles top-level collections (POST /states, /amenities, /users).
func (h *Handlers) create(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		e, err := h.Svc.Create(r.Context(), kind, body, nil)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// children serves GET and POST on /<parent>/{id}/<children>.
func (h *Handlers) children(parent domain.Kind, child domain.Child) (list, create http.HandlerFunc) {
	list = func(w http.ResponseWriter, r *http.Request) {
		out, err := h.Svc.Children(r.Context(), parent, chi.URLParam(r, "id"), child)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeTagged(w, r, out)
	}
	create = func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ref := &domain.Ref{Field: child.Field, Kind: parent, ID: chi.URLParam(r, "id")}
		e, err := h.Svc.Create(r.Context(), child.Kind, body, ref)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
	return list, create
}

func (h *Handlers) update(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		e, err := h.Svc.Update(r.Context(), kind, chi.URLParam(r, "id"), body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func (h *Handlers) remove(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.Svc.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct{}{})
	}
}

func (h *Handlers) placeAmenities(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.PlaceAmenities(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTagged(w, r, out)
}

func (h *Handlers) linkAmenity(w http.ResponseWriter, r *http.Request) {
	a, created, err := h.Svc.LinkAmenity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "amenity_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, a)
}

func (h *Handlers) unlinkAmenity(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.UnlinkAmenity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "amenity_id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *Handlers) placesSearch(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		writeError(w, r, domain.ErrNotJSON)
		return
	}
	var q domain.PlaceSearch
	if err := json.Unmarshal(body, &q); err != nil {
		writeError(w, r, &domain.InvalidError{Msg: "Invalid search"})
		return
	}
	out, err := h.Svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
