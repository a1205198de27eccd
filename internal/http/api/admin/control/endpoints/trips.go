package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/http/api/admin/control/packets"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/model"
)

type TripController struct {
	store db.Store
}

// TripsModule mounts /trips.
func TripsModule(store db.Store, authz *middleware.Authorizer) api.Module {
	ctl := &TripController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/trips", ctl.listTrips)
		c.POST("/trips", ctl.createTrip, authz.RequirePermission(model.PermTripsWrite))
		c.GET("/trips/:id", ctl.getTrip)
	})
}

// GET /api/admin/trips
func (t *TripController) listTrips(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	trips, err := t.store.ListTrips(ctx.Request.Context(), uuid.Nil)
	if err != nil {
		return nil, api.FromStoreError(err, "trip")
	}
	out := make([]packets.TripResponse, 0, len(trips))
	for _, trip := range trips {
		out = append(out, packets.NewTripResponse(trip))
	}
	return out, nil
}

// POST /api/admin/trips
func (t *TripController) createTrip(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	var request packets.CreateTripRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	status, apiErr := parseStatus(request.Status, model.StatusActive)
	if apiErr != nil {
		return nil, apiErr
	}

	c := ctx.Request.Context()
	trip := &model.Trip{
		RouteID:  uuid.MustParse(request.RouteID),
		DriverID: uuid.MustParse(request.DriverID),
		BusID:    uuid.MustParse(request.BusID),
		Status:   status,
	}
	driver, err := t.store.GetAccountByID(c, trip.DriverID)
	if err != nil || driver.Kind != model.KindDriver {
		return nil, api.FromStoreError(db.ErrNotFound, "driver")
	}
	if _, err := t.store.GetRoute(c, trip.RouteID); err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	if _, err := t.store.GetBus(c, trip.BusID); err != nil {
		return nil, api.FromStoreError(err, "bus")
	}

	if err := t.store.CreateTrip(c, trip); err != nil {
		return nil, api.FromStoreError(err, "trip")
	}
	return api.Created(packets.NewTripResponse(*trip)), nil
}

// GET /api/admin/trips/:id
func (t *TripController) getTrip(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	trip, err := t.store.GetTrip(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStoreError(err, "trip")
	}
	return packets.NewTripResponse(*trip), nil
}
