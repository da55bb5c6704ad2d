package drivers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/core/registry"
)

var now = time.Unix(1700000000, 0)

func newRouter(store registry.Store) *mux.Router {
	h := NewHandler(store, nil)
	h.now = func() time.Time { return now }
	r := mux.NewRouter()
	h.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateDriver(t *testing.T) {
	store := registry.NewMemoryStore()
	r := newRouter(store)

	rr := do(t, r, http.MethodPost, "/driver", `{"id":"d1","location":[12.97,77.59],"category":"ev","ev_range_km":120}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	d, err := store.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryEV, d.Category)
	assert.Equal(t, model.StateAvailable, d.State, "state defaults to available")
	assert.Equal(t, model.Coordinate{Lat: 12.97, Lng: 77.59}, d.Location)
	assert.Equal(t, 120.0, d.EVRangeKm)
	assert.Equal(t, now, d.LastPing)

	rr = do(t, r, http.MethodPost, "/drivers", `{"id":"d1","location":[12.97,77.59],"category":"ev","state":"busy","last_ping":1699999000}`)
	require.Equal(t, http.StatusOK, rr.Code)
	d, _ = store.Get("d1")
	assert.Equal(t, model.StateBusy, d.State, "registration upserts")
	assert.Equal(t, time.Unix(1699999000, 0), d.LastPing)
	assert.Len(t, store.Snapshot(), 1)
}

func TestCreateDriverRejects(t *testing.T) {
	r := newRouter(registry.NewMemoryStore())
	bodies := map[string]string{
		"bad json":        `{`,
		"unknown field":   `{"id":"d1","location":[0,0],"category":"mini","colour":"red"}`,
		"no id":           `{"location":[0,0],"category":"mini"}`,
		"bad category":    `{"id":"d1","location":[0,0],"category":"tuk"}`,
		"timed out state": `{"id":"d1","location":[0,0],"category":"mini","state":"timed_out"}`,
		"short location":  `{"id":"d1","location":[0],"category":"mini"}`,
		"latitude range":  `{"id":"d1","location":[91,0],"category":"mini"}`,
		"negative range":  `{"id":"d1","location":[0,0],"category":"ev","ev_range_km":-1}`,
	}
	for name, body := range bodies {
		rr := do(t, r, http.MethodPost, "/driver", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
	}
}

func TestListDrivers(t *testing.T) {
	store := registry.NewMemoryStore()
	store.Register(model.Driver{ID: "b", Location: model.Coordinate{Lat: 12.9716, Lng: 77.5946}, Category: model.CategorySedan, State: model.StateAvailable, LastPing: now})
	store.Register(model.Driver{ID: "a", Location: model.Coordinate{Lat: 28.61, Lng: 77.21}, Category: model.CategoryBike, State: model.StateBusy, LastPing: now})
	r := newRouter(store)

	var out []Driver
	rr := do(t, r, http.MethodGet, "/drivers", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.InDelta(t, 1700000000, float64(out[0].LastPing), 1e-3)

	rr = do(t, r, http.MethodGet, "/drivers?state=BUSY", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)

	rr = do(t, r, http.MethodGet, "/drivers?category=sedan&cell=tdr1", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/drivers?state=asleep", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/drivers?category=van", "").Code)
}

func TestGetAndDeleteDriver(t *testing.T) {
	store := registry.NewMemoryStore()
	store.Register(model.Driver{ID: "d1", Category: model.CategoryMini, State: model.StateAvailable, LastPing: now})
	r := newRouter(store)

	rr := do(t, r, http.MethodGet, "/drivers/d1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var d Driver
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, model.StateAvailable, d.State)

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/drivers/d1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/drivers/d1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/drivers/d1", "").Code)
}

func TestHeartbeat(t *testing.T) {
	store := registry.NewMemoryStore()
	store.Register(model.Driver{ID: "d1", Category: model.CategoryMini, State: model.StateTimedOut, LastPing: now.Add(-time.Hour)})
	r := newRouter(store)

	rr := do(t, r, http.MethodPost, "/drivers/d1/heartbeat", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	d, _ := store.Get("d1")
	assert.Equal(t, now, d.LastPing)
	assert.Equal(t, model.StateAvailable, d.State, "a timed out driver comes back")

	rr = do(t, r, http.MethodPost, "/drivers/d1/heartbeat", `{"state":"offline","timestamp":1700000060}`)
	require.Equal(t, http.StatusOK, rr.Code)
	d, _ = store.Get("d1")
	assert.Equal(t, model.StateOffline, d.State)
	assert.Equal(t, time.Unix(1700000060, 0), d.LastPing)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/drivers/d1/heartbeat", `{"state":"timed_out"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/drivers/nobody/heartbeat", "").Code)
}
