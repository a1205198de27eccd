package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/api"
	controlpackets "github.com/aau-transit/bustrack/internal/http/api/admin/control/packets"
	"github.com/aau-transit/bustrack/internal/http/api/driver/packets"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/tracking"
)

type DriverController struct {
	store   db.Store
	tracker *tracking.Tracker
}

// DriverModule mounts the endpoints a signed-in driver uses while running a trip.
func DriverModule(store db.Store, tracker *tracking.Tracker) api.Module {
	ctl := &DriverController{store: store, tracker: tracker}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/driver/trips", ctl.listTrips)
		c.PUT("/driver/trips/:id/position", ctl.reportPosition)
	})
}

// GET /api/driver/trips
func (d *DriverController) listTrips(ctx *gin.Context, driver *model.Account) (any, *api.APIError) {
	trips, err := d.store.ListTrips(ctx.Request.Context(), driver.ID)
	if err != nil {
		return nil, api.FromStoreError(err, "trip")
	}
	out := make([]controlpackets.TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, controlpackets.NewTripResponse(t))
	}
	return out, nil
}

// PUT /api/driver/trips/:id/position
func (d *DriverController) reportPosition(ctx *gin.Context, driver *model.Account) (any, *api.APIError) {
	tripID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return nil, api.BadRequest("invalid id")
	}
	var request packets.PositionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	snapshot, err := d.tracker.ReportPosition(ctx.Request.Context(), driver.ID, tripID, tracking.Report{
		Latitude:  *request.Latitude,
		Longitude: *request.Longitude,
		Status:    model.Status(request.Status),
		Capacity:  request.Capacity,
	})
	switch {
	case err == nil:
		return snapshot, nil
	case errors.Is(err, tracking.ErrNotAssigned):
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "access denied"}
	case errors.Is(err, tracking.ErrInvalidReport):
		return nil, api.BadRequest(err.Error())
	}
	return nil, api.FromStoreError(err, "trip")
}
