package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/http/api/admin/control/packets"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/storage"
)

// route map uploads are capped at 10 MiB
const maxMapSize = 10 << 20

type FleetController struct {
	store   db.Store
	storage storage.Storage
}

func newFleetController(store db.Store, storage storage.Storage) *FleetController {
	return &FleetController{store: store, storage: storage}
}

// FleetModule mounts /routes, /stops and /buses.
func FleetModule(store db.Store, storage storage.Storage, authz *middleware.Authorizer) api.Module {
	ctl := newFleetController(store, storage)
	return api.ModuleFunc(func(c *api.Controller) {
		routesWrite := authz.RequirePermission(model.PermRoutesWrite)
		busesWrite := authz.RequirePermission(model.PermBusesWrite)

		// routes
		c.GET("/routes", ctl.listRoutes)
		c.POST("/routes", ctl.createRoute, routesWrite)
		c.GET("/routes/:id", ctl.getRoute)
		c.PUT("/routes/:id", ctl.updateRoute, routesWrite)
		c.DELETE("/routes/:id", ctl.deleteRoute, routesWrite)
		c.POST("/routes/:id/map", ctl.uploadRouteMap, routesWrite)

		// stops
		c.POST("/routes/:id/stops", ctl.createStop, routesWrite)
		c.DELETE("/stops/:id", ctl.deleteStop, routesWrite)

		// buses
		c.GET("/buses", ctl.listBuses)
		c.POST("/buses", ctl.createBus, busesWrite)
		c.GET("/buses/:id", ctl.getBus)
		c.PUT("/buses/:id", ctl.updateBus, busesWrite)
		c.DELETE("/buses/:id", ctl.deleteBus, busesWrite)
	})
}

// GET /api/admin/routes
func (f *FleetController) listRoutes(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	routes, err := f.store.ListRoutes(ctx.Request.Context(), false)
	if err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	out := make([]packets.RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, packets.NewRouteResponse(r, nil))
	}
	return out, nil
}

// POST /api/admin/routes
func (f *FleetController) createRoute(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	var request packets.CreateRouteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	status, apiErr := parseStatus(request.Status, model.StatusActive)
	if apiErr != nil {
		return nil, apiErr
	}

	route := &model.Route{Name: request.Name, Description: request.Description, Status: status}
	if err := f.store.CreateRoute(ctx.Request.Context(), route); err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	return api.Created(packets.NewRouteResponse(*route, nil)), nil
}

// GET /api/admin/routes/:id
func (f *FleetController) getRoute(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	route, err := f.store.GetRoute(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	stops, err := f.store.ListStops(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStoreError(err, "stop")
	}
	return packets.NewRouteResponse(*route, stops), nil
}

// PUT /api/admin/routes/:id
func (f *FleetController) updateRoute(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.UpdateRouteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	route, err := f.store.GetRoute(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	if request.Name != nil {
		if *request.Name == "" {
			return nil, api.BadRequest("name cannot be empty")
		}
		route.Name = *request.Name
	}
	if request.Description != nil {
		route.Description = request.Description
	}
	if request.Status != nil {
		if route.Status, apiErr = parseStatus(*request.Status, route.Status); apiErr != nil {
			return nil, apiErr
		}
	}

	if err := f.store.UpdateRoute(ctx.Request.Context(), route); err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	return packets.NewRouteResponse(*route, nil), nil
}

// DELETE /api/admin/routes/:id
func (f *FleetController) deleteRoute(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := f.store.DeleteRoute(ctx.Request.Context(), id); err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	return api.NoContent(), nil
}

// POST /api/admin/routes/:id/map (multipart field "map")
func (f *FleetController) uploadRouteMap(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	route, err := f.store.GetRoute(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStoreError(err, "route")
	}

	fileHeader, err := ctx.FormFile("map")
	if err != nil {
		return nil, api.BadRequest("map file is required")
	}
	if fileHeader.Size > maxMapSize {
		return nil, &api.APIError{Code: http.StatusRequestEntityTooLarge, Message: "map file is too large"}
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, api.BadRequest("could not read map file")
	}
	defer src.Close()

	url, err := f.storage.SaveFile(ctx.Request.Context(), fileHeader.Filename, src)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return nil, api.BadRequest("map must be an image")
	}
	if err != nil {
		log.Error().Err(err).Str("route", id.String()).Msg("could not store route map")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store map"}
	}

	route.MapURL = &url
	if err := f.store.UpdateRoute(ctx.Request.Context(), route); err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	return packets.NewRouteResponse(*route, nil), nil
}

// POST /api/admin/routes/:id/stops
func (f *FleetController) createStop(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	routeID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.CreateStopRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	status, apiErr := parseStatus(request.Status, model.StatusActive)
	if apiErr != nil {
		return nil, apiErr
	}

	stop := &model.Stop{
		RouteID:   routeID,
		Name:      request.Name,
		Latitude:  *request.Latitude,
		Longitude: *request.Longitude,
		Sequence:  request.Sequence,
		Status:    status,
	}
	if err := f.store.CreateStop(ctx.Request.Context(), stop); err != nil {
		return nil, api.FromStoreError(err, "route")
	}
	return api.Created(packets.NewStopResponse(*stop)), nil
}

// DELETE /api/admin/stops/:id
func (f *FleetController) deleteStop(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := f.store.DeleteStop(ctx.Request.Context(), id); err != nil {
		return nil, api.FromStoreError(err, "stop")
	}
	return api.NoContent(), nil
}

// GET /api/admin/buses
func (f *FleetController) listBuses(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	buses, err := f.store.ListBuses(ctx.Request.Context())
	if err != nil {
		return nil, api.FromStoreError(err, "bus")
	}
	out := make([]packets.BusResponse, 0, len(buses))
	for _, b := range buses {
		out = append(out, packets.NewBusResponse(b))
	}
	return out, nil
}

func validateBusHours(b *model.Bus) *api.APIError {
	if b.StartTime != nil && b.EndTime != nil && !b.EndTime.After(*b.StartTime) {
		return api.BadRequest("end_time must be after start_time")
	}
	return nil
}

// POST /api/admin/buses
func (f *FleetController) createBus(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	var request packets.CreateBusRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	status, apiErr := parseStatus(request.Status, model.StatusActive)
	if apiErr != nil {
		return nil, apiErr
	}

	bus := &model.Bus{BusNumber: request.BusNumber, StartTime: request.StartTime, EndTime: request.EndTime, Status: status}
	if apiErr := validateBusHours(bus); apiErr != nil {
		return nil, apiErr
	}
	if err := f.store.CreateBus(ctx.Request.Context(), bus); err != nil {
		return nil, api.FromStoreError(err, "bus")
	}
	return api.Created(packets.NewBusResponse(*bus)), nil
}

// GET /api/admin/buses/:id
func (f *FleetController) getBus(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	bus, err := f.store.GetBus(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStoreError(err, "bus")
	}
	return packets.NewBusResponse(*bus), nil
}

// PUT /api/admin/buses/:id
func (f *FleetController) updateBus(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.UpdateBusRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	bus, err := f.store.GetBus(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStoreError(err, "bus")
	}
	if request.BusNumber != nil {
		bus.BusNumber = *request.BusNumber
	}
	if request.StartTime != nil {
		bus.StartTime = request.StartTime
	}
	if request.EndTime != nil {
		bus.EndTime = request.EndTime
	}
	if request.Status != nil {
		if bus.Status, apiErr = parseStatus(*request.Status, bus.Status); apiErr != nil {
			return nil, apiErr
		}
	}
	if apiErr := validateBusHours(bus); apiErr != nil {
		return nil, apiErr
	}

	if err := f.store.UpdateBus(ctx.Request.Context(), bus); err != nil {
		return nil, api.FromStoreError(err, "bus")
	}
	return packets.NewBusResponse(*bus), nil
}

// DELETE /api/admin/buses/:id
func (f *FleetController) deleteBus(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := f.store.DeleteBus(ctx.Request.Context(), id); err != nil {
		return nil, api.FromStoreError(err, "bus")
	}
	return api.NoContent(), nil
}
