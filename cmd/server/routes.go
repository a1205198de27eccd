package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aau-transit/bustrack/internal/accounts"
	"github.com/aau-transit/bustrack/internal/http/api"
	adminapi "github.com/aau-transit/bustrack/internal/http/api/admin/control/endpoints"
	authapi "github.com/aau-transit/bustrack/internal/http/api/auth/endpoints"
	driverapi "github.com/aau-transit/bustrack/internal/http/api/driver/endpoints"
	publicapi "github.com/aau-transit/bustrack/internal/http/api/public/endpoints"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/logging"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/storage"
	"github.com/aau-transit/bustrack/internal/tracking"
	"github.com/aau-transit/bustrack/internal/views"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, app *App) {
	cfg := app.Config

	r.Use(logging.RequestLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	issuer := middleware.NewTokenIssuer(middleware.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		Issuer:        cfg.JWTIssuer,
		AccessTTL:     cfg.AccessTokenTTL(),
		RefreshTTL:    cfg.RefreshTokenTTL(),
	})
	authenticate := middleware.JWTMiddleware(issuer, app.Sessions, app.Store)
	authz := middleware.NewAuthorizer(app.Store)
	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute)
	svc := accounts.NewService(app.Store)
	tracker := tracking.NewTracker(app.Store, app.Sessions, app.Publisher)

	api.MountGroup(r, api.GroupConfig{Prefix: "/api"},
		authapi.AuthPublicModule(svc, issuer, app.Sessions, limiter),
		publicapi.ScheduleModule(app.Catalog),
		publicapi.RoutesModule(app.Store),
		publicapi.LiveModule(tracker),
		publicapi.LiveStreamModule(tracker),
		publicapi.HealthModule(app.Store, app.Sessions),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:        "/api",
		Auth:          true,
		Authenticator: authenticate,
	},
		authapi.AuthSessionModule(svc, issuer, app.Sessions),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:        "/api/admin",
		Auth:          true,
		Authenticator: authenticate,
		Guards:        []gin.HandlerFunc{middleware.RequireKind(model.KindAdmin)},
	},
		adminapi.AccountsModule(svc, authz),
		adminapi.RolesModule(app.Store, authz),
		adminapi.FleetModule(app.Store, app.Storage, authz),
		adminapi.TripsModule(app.Store, authz),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:        "/api",
		Auth:          true,
		Authenticator: authenticate,
		Guards:        []gin.HandlerFunc{middleware.RequireKind(model.KindDriver)},
	},
		driverapi.DriverModule(app.Store, tracker),
	)

	// Static content
	if _, local := app.Storage.(*storage.LocalStorage); local {
		r.Static("/uploads", cfg.UploadDir)
	}

	views.Register(r, app.Catalog)
}
