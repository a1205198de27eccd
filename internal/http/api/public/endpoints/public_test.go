package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/realtime"
	"github.com/aau-transit/bustrack/internal/redis"
	"github.com/aau-transit/bustrack/internal/schedule"
	"github.com/aau-transit/bustrack/internal/tracking"
)

type downStore struct{ db.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func setupPublic(store db.Store, sessions redis.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var tracker *tracking.Tracker
	if mem, ok := store.(*db.MemoryStore); ok {
		tracker = tracking.NewTracker(mem, sessions, realtime.NopPublisher{})
	}
	api.MountGroup(r, api.GroupConfig{Prefix: "/api"},
		ScheduleModule(schedule.Default()),
		RoutesModule(store),
		LiveModule(tracker),
		HealthModule(store, sessions),
	)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

const fourEntries = `{"entries":[
	{"location":"Abdoun","time":"7:30am-8:30am"},
	{"location":"Abdoun","time":"8:00am-9:00am"},
	{"location":"Abdoun","time":"9:00am-10:00am"},
	{"location":"Abdoun","time":"10:00am-11:00am"}
]}`

func TestSchedule_AlwaysFourEntries(t *testing.T) {
	r := setupPublic(db.NewMemoryStore(), redis.NewMemoryStore())

	for _, path := range []string{
		"/api/schedule",
		"/api/schedule?location=Khalda",
		"/api/schedule?time=Evening+(3:15+PM)&location=Seventh+Circle",
	} {
		w := get(r, path)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, fourEntries, w.Body.String(), path)
	}
}

func TestScheduleOptions(t *testing.T) {
	r := setupPublic(db.NewMemoryStore(), redis.NewMemoryStore())
	w := get(r, "/api/schedule/options")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"time":["Morning (8:00 AM)","Noon (12:10 PM)","Evening (3:15 PM)"],
		"location":["Abdoun","Khalda","Seventh Circle","University Campus"]
	}`, w.Body.String())
}

func TestPublicRoutes_OnlyActive(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	active := &model.Route{Name: "Abdoun", Status: model.StatusActive}
	require.NoError(t, store.CreateRoute(ctx, active))
	require.NoError(t, store.CreateRoute(ctx, &model.Route{Name: "Old Line", Status: model.StatusDisabled}))
	require.NoError(t, store.CreateStop(ctx, &model.Stop{RouteID: active.ID, Name: "Campus", Status: model.StatusActive}))

	w := get(setupPublic(store, redis.NewMemoryStore()), "/api/routes")
	require.Equal(t, http.StatusOK, w.Code)
	var routes []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &routes))
	require.Len(t, routes, 1)
	assert.Equal(t, "Abdoun", routes[0]["name"])
	assert.Len(t, routes[0]["stops"], 1)
}

func TestLiveBus(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	sessions := redis.NewMemoryStore()
	r := setupPublic(store, sessions)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/live/buses/7").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/live/buses/seven").Code)

	phone := "0790000000"
	bus := 7
	driver := &model.Account{Kind: model.KindDriver, Name: "Omar", Email: "omar@aau.edu.jo", HashedPassword: "x", BusNumber: &bus, Phone: &phone}
	require.NoError(t, store.CreateAccount(ctx, driver))
	route := &model.Route{Name: "Abdoun", Status: model.StatusActive}
	require.NoError(t, store.CreateRoute(ctx, route))
	b := &model.Bus{BusNumber: 7, Status: model.StatusActive}
	require.NoError(t, store.CreateBus(ctx, b))
	trip := &model.Trip{ID: uuid.New(), RouteID: route.ID, DriverID: driver.ID, BusID: b.ID, Status: model.StatusActive}
	require.NoError(t, store.CreateTrip(ctx, trip))

	tracker := tracking.NewTracker(store, sessions, realtime.NopPublisher{})
	_, err := tracker.ReportPosition(ctx, driver.ID, trip.ID, tracking.Report{Latitude: 31.9, Longitude: 35.9, Status: model.StatusInProgress})
	require.NoError(t, err)

	w := get(r, "/api/live/buses/7")
	require.Equal(t, http.StatusOK, w.Code)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, trip.ID.String(), snap["trip_id"])
	assert.Equal(t, "in_progress", snap["status"])
}

func TestHealth(t *testing.T) {
	w := get(setupPublic(db.NewMemoryStore(), redis.NewMemoryStore()), "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Bus here","database":true,"sessions":true}`, w.Body.String())

	w = get(setupPublic(downStore{db.NewMemoryStore()}, redis.NewMemoryStore()), "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"message":"Bus here","database":false,"sessions":true}`, w.Body.String())
}
