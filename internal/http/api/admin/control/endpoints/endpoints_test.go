package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aau-transit/bustrack/internal/accounts"
	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/redis"
	"github.com/aau-transit/bustrack/internal/storage"
)

type adminServer struct {
	router    *gin.Engine
	store     *db.MemoryStore
	svc       *accounts.Service
	issuer    *middleware.TokenIssuer
	uploadDir string
}

func setupAdmin(t *testing.T) *adminServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &adminServer{store: db.NewMemoryStore(), uploadDir: t.TempDir()}
	s.svc = accounts.NewService(s.store)
	s.issuer = middleware.NewTokenIssuer(middleware.TokenConfig{
		AccessSecret: "a", RefreshSecret: "r", Issuer: "bus-tracking-api",
		AccessTTL: time.Minute, RefreshTTL: time.Hour,
	})
	authz := middleware.NewAuthorizer(s.store)

	s.router = gin.New()
	api.MountGroup(s.router, api.GroupConfig{
		Prefix:        "/api/admin",
		Auth:          true,
		Authenticator: middleware.JWTMiddleware(s.issuer, redis.NewMemoryStore(), s.store),
		Guards:        []gin.HandlerFunc{middleware.RequireKind(model.KindAdmin)},
	},
		AccountsModule(s.svc, authz),
		RolesModule(s.store, authz),
		FleetModule(s.store, storage.NewLocalStorage(s.uploadDir), authz),
		TripsModule(s.store, authz),
	)
	return s
}

// adminToken creates an admin holding the given role (model.DefaultRoles index, -1 for none).
func (s *adminServer) adminToken(t *testing.T, email string, role int) (string, *model.Account) {
	t.Helper()
	a, err := s.svc.Create(context.Background(), accounts.CreateInput{Kind: model.KindAdmin, Name: "Admin", Email: email, Password: "password1"})
	require.NoError(t, err)
	if role >= 0 {
		require.NoError(t, s.store.AssignRole(context.Background(), a.ID, model.DefaultRoles[role].ID))
	}
	pair, err := s.issuer.IssuePair(a)
	require.NoError(t, err)
	return pair.AccessToken, a
}

func (s *adminServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAccounts_DriverLifecycle(t *testing.T) {
	s := setupAdmin(t)
	token, admin := s.adminToken(t, "root@aau.edu.jo", 0)

	w := s.do(http.MethodPost, "/api/admin/drivers", token, map[string]any{
		"name": "Omar", "email": "omar@aau.edu.jo", "password": "drive2024", "bus_number": 7, "phone": "0791234567",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	driver := decode(t, w)
	assert.Equal(t, "driver", driver["kind"])
	assert.Equal(t, admin.ID.String(), driver["admin_id"])
	id := driver["id"].(string)

	w = s.do(http.MethodPost, "/api/admin/drivers", token, map[string]any{
		"name": "Omar 2", "email": "OMAR@aau.edu.jo", "password": "drive2024", "bus_number": 8, "phone": "0791234568",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/admin/drivers", token, map[string]any{"name": "No Bus", "email": "nb@aau.edu.jo", "password": "drive2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/admin/drivers/"+id, token, map[string]any{"bus_number": 9})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 9, decode(t, w)["bus_number"])

	// a driver id is not a student id
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/admin/students/"+id, token, nil).Code)

	w = s.do(http.MethodGet, "/api/admin/drivers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/admin/drivers/"+id, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/admin/drivers/"+id, token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/admin/drivers/not-a-uuid", token, nil).Code)
}

func TestAccounts_Permissions(t *testing.T) {
	s := setupAdmin(t)
	viewer, _ := s.adminToken(t, "viewer@aau.edu.jo", 2)
	manager, _ := s.adminToken(t, "fleet@aau.edu.jo", 1)
	_, self := s.adminToken(t, "self@aau.edu.jo", -1)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/admin/students", viewer, nil).Code)
	w := s.do(http.MethodPost, "/api/admin/students", viewer, map[string]any{"name": "S", "email": "s@aau.edu.jo", "password": "password1", "student_number": "1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"access denied"}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/admins", manager, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/admin/admins/"+self.ID.String(), manager, nil).Code)

	// non-admin accounts never reach admin endpoints
	student, err := s.svc.Create(context.Background(), accounts.CreateInput{Kind: model.KindStudent, Name: "S", Email: "st@aau.edu.jo", Password: "password1", StudentNumber: ptr("99")})
	require.NoError(t, err)
	pair, err := s.issuer.IssuePair(student)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/routes", pair.AccessToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/routes", "", nil).Code)
}

func ptr[T any](v T) *T { return &v }

func TestAccounts_CannotDeleteSelf(t *testing.T) {
	s := setupAdmin(t)
	token, admin := s.adminToken(t, "root@aau.edu.jo", 0)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/admin/admins/"+admin.ID.String(), token, nil).Code)
}

func TestRoles(t *testing.T) {
	s := setupAdmin(t)
	root, _ := s.adminToken(t, "root@aau.edu.jo", 0)
	_, target := s.adminToken(t, "new@aau.edu.jo", -1)

	w := s.do(http.MethodGet, "/api/admin/roles", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roles []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roles))
	assert.Len(t, roles, len(model.DefaultRoles))

	viewerID := model.DefaultRoles[2].ID.String()
	w = s.do(http.MethodGet, "/api/admin/roles/"+viewerID, root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "viewer", decode(t, w)["name"])

	path := "/api/admin/admins/" + target.ID.String() + "/roles"
	w = s.do(http.MethodPost, path, root, map[string]any{"role_id": viewerID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"permissions":["students:read"]}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path+"/"+viewerID, root, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path+"/"+viewerID, root, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, path, root, map[string]any{"role_id": "nope"}).Code)
}

func TestFleet_RoutesStopsAndBuses(t *testing.T) {
	s := setupAdmin(t)
	token, _ := s.adminToken(t, "fleet@aau.edu.jo", 1)

	w := s.do(http.MethodPost, "/api/admin/routes", token, map[string]any{"name": "Abdoun", "description": "Abdoun to campus"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	route := decode(t, w)
	assert.Equal(t, "active", route["status"])
	routeID := route["id"].(string)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/admin/routes", token, map[string]any{"name": "X", "status": "flying"}).Code)

	for i, name := range []string{"Abdoun Circle", "University Campus"} {
		w = s.do(http.MethodPost, "/api/admin/routes/"+routeID+"/stops", token, map[string]any{
			"name": name, "latitude": 31.95, "longitude": 35.88, "sequence": i,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/admin/routes/"+routeID+"/stops", token, map[string]any{"name": "Nowhere", "latitude": 120, "longitude": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/admin/routes/"+routeID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stops := decode(t, w)["stops"].([]any)
	require.Len(t, stops, 2)
	assert.Equal(t, "Abdoun Circle", stops[0].(map[string]any)["name"])

	w = s.do(http.MethodPut, "/api/admin/routes/"+routeID, token, map[string]any{"status": "delayed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delayed", decode(t, w)["status"])

	w = s.do(http.MethodPost, "/api/admin/buses", token, map[string]any{
		"bus_number": 7, "start_time": "2025-02-01T07:30:00Z", "end_time": "2025-02-01T11:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	busID := decode(t, w)["id"].(string)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/admin/buses", token, map[string]any{"bus_number": 7}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/admin/buses", token, map[string]any{"bus_number": 0}).Code)
	w = s.do(http.MethodPut, "/api/admin/buses/"+busID, token, map[string]any{"end_time": "2025-02-01T07:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"end_time must be after start_time"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/admin/buses/"+busID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/admin/buses/"+busID, token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/admin/routes/"+routeID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/admin/routes/"+routeID, token, nil).Code)
}

func multipartMap(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("map", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestFleet_UploadRouteMap(t *testing.T) {
	s := setupAdmin(t)
	token, _ := s.adminToken(t, "fleet@aau.edu.jo", 1)

	w := s.do(http.MethodPost, "/api/admin/routes", token, map[string]any{"name": "Khalda"})
	require.Equal(t, http.StatusCreated, w.Code)
	routeID := decode(t, w)["id"].(string)

	const png = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	upload := func(filename, content string) *httptest.ResponseRecorder {
		body, contentType := multipartMap(t, filename, content)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/routes/"+routeID+"/map", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	w = upload("khalda map.png", png)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	url := decode(t, w)["map_url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/khalda_map_"), url)

	data, err := os.ReadFile(filepath.Join(s.uploadDir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, png, string(data))

	assert.Equal(t, http.StatusBadRequest, upload("notes.txt", "notes").Code)
	assert.Equal(t, http.StatusBadRequest, upload("map.svg", "<svg/>").Code)
	assert.Equal(t, http.StatusBadRequest, upload("map.png", "<svg/>").Code)
}

func TestTrips(t *testing.T) {
	s := setupAdmin(t)
	token, _ := s.adminToken(t, "fleet@aau.edu.jo", 1)
	ctx := context.Background()

	driver, err := s.svc.Create(ctx, accounts.CreateInput{Kind: model.KindDriver, Name: "Omar", Email: "omar@aau.edu.jo", Password: "drive2024", BusNumber: ptr(7), Phone: ptr("0791")})
	require.NoError(t, err)
	route := &model.Route{Name: "Abdoun", Status: model.StatusActive}
	require.NoError(t, s.store.CreateRoute(ctx, route))
	bus := &model.Bus{BusNumber: 7, Status: model.StatusActive}
	require.NoError(t, s.store.CreateBus(ctx, bus))

	body := map[string]any{"route_id": route.ID.String(), "driver_id": driver.ID.String(), "bus_id": bus.ID.String()}
	w := s.do(http.MethodPost, "/api/admin/trips", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	trip := decode(t, w)
	assert.Equal(t, "active", trip["status"])

	w = s.do(http.MethodGet, "/api/admin/trips/"+trip["id"].(string), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// the driver slot must hold a driver
	body["driver_id"] = route.ID.String()
	w = s.do(http.MethodPost, "/api/admin/trips", token, body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"driver not found"}`, w.Body.String())

	viewer, _ := s.adminToken(t, "viewer@aau.edu.jo", 2)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/admin/trips", viewer, body).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/admin/trips", viewer, nil).Code)
}
