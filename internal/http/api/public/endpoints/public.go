package endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/api"
	controlpackets "github.com/aau-transit/bustrack/internal/http/api/admin/control/packets"
	"github.com/aau-transit/bustrack/internal/http/api/public/packets"
	"github.com/aau-transit/bustrack/internal/redis"
	"github.com/aau-transit/bustrack/internal/schedule"
	"github.com/aau-transit/bustrack/internal/tracking"
)

const healthTimeout = 2 * time.Second

// ScheduleModule serves the static schedule. Query parameters are ignored; there is no filtering.
func ScheduleModule(catalog *schedule.Catalog) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/schedule", func(*gin.Context) (any, *api.APIError) {
			return packets.ScheduleResponse{Entries: catalog.Entries()}, nil
		})
		c.PUBLIC_GET("/schedule/options", func(*gin.Context) (any, *api.APIError) {
			return packets.ScheduleOptionsResponse{
				Time:     catalog.TimeOptions(),
				Location: catalog.LocationOptions(),
			}, nil
		})
	})
}

// RoutesModule lists active routes with their stops for riders.
func RoutesModule(store db.Store) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/routes", func(ctx *gin.Context) (any, *api.APIError) {
			routes, err := store.ListRoutes(ctx.Request.Context(), true)
			if err != nil {
				return nil, api.FromStoreError(err, "route")
			}
			out := make([]controlpackets.RouteResponse, 0, len(routes))
			for _, r := range routes {
				stops, err := store.ListStops(ctx.Request.Context(), r.ID)
				if err != nil {
					return nil, api.FromStoreError(err, "stop")
				}
				out = append(out, controlpackets.NewRouteResponse(r, stops))
			}
			return out, nil
		})
	})
}

// LiveModule exposes the latest known position of each bus.
func LiveModule(tracker *tracking.Tracker) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/live/buses/:bus_number", func(ctx *gin.Context) (any, *api.APIError) {
			number, err := strconv.Atoi(ctx.Param("bus_number"))
			if err != nil || number <= 0 {
				return nil, api.BadRequest("invalid bus_number")
			}
			snapshot, err := tracker.Latest(ctx.Request.Context(), number)
			if errors.Is(err, tracking.ErrNoSnapshot) {
				return nil, &api.APIError{Code: http.StatusNotFound, Message: "no live position for bus"}
			}
			if err != nil {
				log.Error().Err(err).Int("bus_number", number).Msg("could not read live snapshot")
				return nil, api.Internal()
			}
			return snapshot, nil
		})
	})
}

// HealthModule reports whether the database and session store answer.
func HealthModule(store db.Store, sessions redis.Store) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/health", func(ctx *gin.Context) (any, *api.APIError) {
			pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthTimeout)
			defer cancel()

			resp := packets.HealthResponse{Message: "Bus here", Database: true, Sessions: true}
			if err := store.Ping(pingCtx); err != nil {
				log.Warn().Err(err).Msg("database ping failed")
				resp.Database = false
			}
			if err := sessions.Ping(pingCtx); err != nil {
				log.Warn().Err(err).Msg("session store ping failed")
				resp.Sessions = false
			}
			if !resp.Database || !resp.Sessions {
				return api.Response{Code: http.StatusServiceUnavailable, Body: resp}, nil
			}
			return resp, nil
		})
	})
}
