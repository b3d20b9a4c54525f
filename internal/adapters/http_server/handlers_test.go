package httpserver_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	httpserver "hbnb_api/internal/adapters/http_server"
	"hbnb_api/internal/app"
	"hbnb_api/internal/storage/file"
)

func newAPI(t *testing.T, opts httpserver.Options) *httptest.Server {
	t.Helper()
	st, err := file.Open(filepath.Join(t.TempDir(), "file.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	srv := httpserver.New(opts)
	srv.MountHandlers(&httpserver.Handlers{Svc: app.NewService(st, nil, time.Minute)})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

type resp struct {
	status int
	header http.Header
	body   string
}

func do(t *testing.T, ts *httptest.Server, method, path, body string, hdr ...string) resp {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return resp{status: res.StatusCode, header: res.Header, body: string(b)}
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return m
}

func decodeList(t *testing.T, s string) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("decode list %q: %v", s, err)
	}
	return out
}

func expect(t *testing.T, r resp, status int) {
	t.Helper()
	if r.status != status {
		t.Fatalf("status = %d, want %d (body %s)", r.status, status, r.body)
	}
}

// create POSTs body and returns the new id.
func create(t *testing.T, ts *httptest.Server, path, body string) string {
	t.Helper()
	r := do(t, ts, http.MethodPost, "/api/v1"+path, body)
	expect(t, r, http.StatusCreated)
	id, _ := decode(t, r.body)["id"].(string)
	if id == "" {
		t.Fatalf("no id in %s", r.body)
	}
	return id
}

func TestStatusAndStats(t *testing.T) {
	ts := newAPI(t, httpserver.Options{})

	r := do(t, ts, http.MethodGet, "/api/v1/status", "")
	expect(t, r, http.StatusOK)
	if decode(t, r.body)["status"] != "OK" {
		t.Fatalf("status body: %s", r.body)
	}

	create(t, ts, "/states", `{"name":"California"}`)
	r = do(t, ts, http.MethodGet, "/api/v1/stats/", "")
	expect(t, r, http.StatusOK)
	m := decode(t, r.body)
	if m["states"] != float64(1) || m["cities"] != float64(0) {
		t.Fatalf("stats: %s", r.body)
	}
}

func TestStates_CRUD(t *testing.T) {
	ts := newAPI(t, httpserver.Options{})

	r := do(t, ts, http.MethodPost, "/api/v1/states", `{"name":"California"}`)
	expect(t, r, http.StatusCreated)
	st := decode(t, r.body)
	id := st["id"].(string)
	if st["name"] != "California" || st["__class__"] != "State" || st["created_at"] == nil {
		t.Fatalf("create body: %s", r.body)
	}

	r = do(t, ts, http.MethodGet, "/api/v1/states/"+id, "")
	expect(t, r, http.StatusOK)
	if decode(t, r.body)["name"] != "California" {
		t.Fatalf("get body: %s", r.body)
	}

	r = do(t, ts, http.MethodGet, "/api/v1/states", "")
	expect(t, r, http.StatusOK)
	if l := decodeList(t, r.body); len(l) != 1 || l[0]["id"] != id {
		t.Fatalf("list body: %s", r.body)
	}

	r = do(t, ts, http.MethodPut, "/api/v1/states/"+id, `{"name":"Nevada","id":"x","created_at":"2001-01-01T00:00:00.000000"}`)
	expect(t, r, http.StatusOK)
	up := decode(t, r.body)
	if up["name"] != "Nevada" || up["id"] != id || up["created_at"] != st["created_at"] {
		t.Fatalf("update body: %s", r.body)
	}

	r = do(t, ts, http.MethodDelete, "/api/v1/states/"+id, "")
	expect(t, r, http.StatusOK)
	if strings.TrimSpace(r.body) != "{}" {
		t.Fatalf("delete body: %q", r.body)
	}
	expect(t, do(t, ts, http.MethodGet, "/api/v1/states/"+id, ""), http.StatusNotFound)
	expect(t, do(t, ts, http.MethodDelete, "/api/v1/states/"+id, ""), http.StatusNotFound)
}

func TestErrors(t *testing.T) {
	ts := newAPI(t, httpserver.Options{})
	stateID := create(t, ts, "/states", `{"name":"California"}`)

	cases := []struct {
		name, method, path, body string
		status                   int
		msg                      string
	}{
		{"not json", http.MethodPost, "/states", `nope`, 400, "Not a JSON"},
		{"missing name", http.MethodPost, "/states", `{}`, 400, "Missing name"},
		{"missing email", http.MethodPost, "/users", `{"password":"x"}`, 400, "Missing email"},
		{"missing password", http.MethodPost, "/users", `{"email":"x"}`, 400, "Missing password"},
		{"unknown state", http.MethodPost, "/states/nope/cities", `{"name":"x"}`, 404, "Not found"},
		{"city missing name", http.MethodPost, "/states/" + stateID + "/cities", `{}`, 400, "Missing name"},
		{"put not json", http.MethodPut, "/states/" + stateID, `[]`, 400, "Not a JSON"},
		{"put unknown", http.MethodPut, "/states/nope", `{}`, 404, "Not found"},
		{"unknown route", http.MethodGet, "/nowhere", ``, 404, "Not found"},
		{"search not json", http.MethodPost, "/places_search", `1`, 400, "Not a JSON"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := do(t, ts, tc.method, "/api/v1"+tc.path, tc.body)
			expect(t, r, tc.status)
			if got := decode(t, r.body)["error"]; got != tc.msg {
				t.Fatalf("error = %v, want %q", got, tc.msg)
			}
		})
	}
}

func TestPlaces_Flow(t *testing.T) {
	ts := newAPI(t, httpserver.Options{})
	stateID := create(t, ts, "/states", `{"name":"California"}`)
	cityID := create(t, ts, "/states/"+stateID+"/cities", `{"name":"San Francisco"}`)
	userID := create(t, ts, "/users", `{"email":"bob@hbnb.io","password":"pw","first_name":"Bob"}`)

	r := do(t, ts, http.MethodGet, "/api/v1/users/"+userID, "")
	expect(t, r, http.StatusOK)
	if strings.Contains(r.body, "password") {
		t.Fatalf("password exposed: %s", r.body)
	}

	expect(t, do(t, ts, http.MethodPost, "/api/v1/cities/"+cityID+"/places", `{"name":"Loft"}`), http.StatusBadRequest)
	expect(t, do(t, ts, http.MethodPost, "/api/v1/cities/"+cityID+"/places", `{"name":"Loft","user_id":"ghost"}`), http.StatusNotFound)
	placeID := create(t, ts, "/cities/"+cityID+"/places", `{"name":"Loft","user_id":"`+userID+`","price_by_night":120}`)
	create(t, ts, "/places/"+placeID+"/reviews", `{"text":"Great","user_id":"`+userID+`"}`)

	r = do(t, ts, http.MethodGet, "/api/v1/places/"+placeID+"/reviews", "")
	expect(t, r, http.StatusOK)
	if l := decodeList(t, r.body); len(l) != 1 || l[0]["text"] != "Great" {
		t.Fatalf("reviews: %s", r.body)
	}

	r = do(t, ts, http.MethodPut, "/api/v1/places/"+placeID, `{"price_by_night":150,"city_id":"other"}`)
	expect(t, r, http.StatusOK)
	p := decode(t, r.body)
	if p["price_by_night"] != float64(150) || p["city_id"] != cityID {
		t.Fatalf("place update: %s", r.body)
	}
	expect(t, do(t, ts, http.MethodPut, "/api/v1/places/"+placeID, `{"max_guest":"lots"}`), http.StatusBadRequest)

	// state delete cascades
	expect(t, do(t, ts, http.MethodDelete, "/api/v1/states/"+stateID, ""), http.StatusOK)
	expect(t, do(t, ts, http.MethodGet, "/api/v1/places/"+placeID, ""), http.StatusNotFound)
	expect(t, do(t, ts, http.MethodGet, "/api/v1/cities/"+cityID+"/places", ""), http.StatusNotFound)
}

func TestPlaceAmenitiesAndSearch(t *testing.T) {
	ts := newAPI(t, httpserver.Options{})
	stateID := create(t, ts, "/states", `{"name":"California"}`)
	cityID := create(t, ts, "/states/"+stateID+"/cities", `{"name":"San Francisco"}`)
	userID := create(t, ts, "/users", `{"email":"bob@hbnb.io","password":"pw"}`)
	loft := create(t, ts, "/cities/"+cityID+"/places", `{"name":"Loft","user_id":"`+userID+`"}`)
	create(t, ts, "/cities/"+cityID+"/places", `{"name":"Cabin","user_id":"`+userID+`"}`)
	wifi := create(t, ts, "/amenities", `{"name":"Wifi"}`)

	link := "/api/v1/places/" + loft + "/amenities/" + wifi
	expect(t, do(t, ts, http.MethodPost, link, ""), http.StatusCreated)
	expect(t, do(t, ts, http.MethodPost, link, ""), http.StatusOK)
	expect(t, do(t, ts, http.MethodPost, "/api/v1/places/"+loft+"/amenities/ghost", ""), http.StatusNotFound)

	r := do(t, ts, http.MethodGet, "/api/v1/places/"+loft+"/amenities", "")
	expect(t, r, http.StatusOK)
	if l := decodeList(t, r.body); len(l) != 1 || l[0]["name"] != "Wifi" {
		t.Fatalf("amenities: %s", r.body)
	}

	r = do(t, ts, http.MethodPost, "/api/v1/places_search", `{}`)
	expect(t, r, http.StatusOK)
	if l := decodeList(t, r.body); len(l) != 2 {
		t.Fatalf("empty search: %s", r.body)
	}
	r = do(t, ts, http.MethodPost, "/api/v1/places_search", `{"amenities":["`+wifi+`"]}`)
	expect(t, r, http.StatusOK)
	if l := decodeList(t, r.body); len(l) != 1 || l[0]["name"] != "Loft" {
		t.Fatalf("amenity search: %s", r.body)
	}
	r = do(t, ts, http.MethodPost, "/api/v1/places_search", `{"states":["`+stateID+`"],"amenities":["`+wifi+`"]}`)
	if l := decodeList(t, r.body); len(l) != 1 {
		t.Fatalf("state+amenity search: %s", r.body)
	}

	expect(t, do(t, ts, http.MethodDelete, link, ""), http.StatusOK)
	expect(t, do(t, ts, http.MethodDelete, link, ""), http.StatusNotFound)
}

func TestETag(t *testing.T) {
	ts := newAPI(t, httpserver.Options{})
	id := create(t, ts, "/amenities", `{"name":"Wifi"}`)

	r := do(t, ts, http.MethodGet, "/api/v1/amenities/"+id, "")
	expect(t, r, http.StatusOK)
	etag := r.header.Get("ETag")
	if etag == "" {
		t.Fatalf("no ETag")
	}
	r = do(t, ts, http.MethodGet, "/api/v1/amenities/"+id, "", "If-None-Match", etag)
	expect(t, r, http.StatusNotModified)

	do(t, ts, http.MethodPut, "/api/v1/amenities/"+id, `{"name":"Fiber"}`)
	r = do(t, ts, http.MethodGet, "/api/v1/amenities/"+id, "", "If-None-Match", etag)
	expect(t, r, http.StatusOK)
}

func TestCORSPreflight(t *testing.T) {
	ts := newAPI(t, httpserver.Options{})
	r := do(t, ts, http.MethodOptions, "/api/v1/states", "")
	expect(t, r, http.StatusNoContent)
	if r.header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func TestRateLimit(t *testing.T) {
	ts := newAPI(t, httpserver.Options{RateLimitRPS: 1})
	expect(t, do(t, ts, http.MethodGet, "/api/v1/status", ""), http.StatusOK)
	r := do(t, ts, http.MethodGet, "/api/v1/status", "")
	expect(t, r, http.StatusTooManyRequests)
	if decode(t, r.body)["error"] != "Too many requests" {
		t.Fatalf("body: %s", r.body)
	}
}
