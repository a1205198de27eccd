package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Module is a pluggable feature that attaches its endpoints to a Controller (a gin group).
type Module interface {
	Mount(c *Controller)
}

// ModuleFunc lets you define a Module with a simple function.
type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// GroupConfig tells the api package how to mount a group.
type GroupConfig struct {
	Prefix        string
	Auth          bool
	Authenticator gin.HandlerFunc   // required if Auth == true
	Middleware    []gin.HandlerFunc // optional, runs before Authenticator
	Guards        []gin.HandlerFunc // optional, runs after Authenticator
}

// MountGroup mounts one or more Modules under a prefix with optional auth.
func MountGroup(parent gin.IRouter, cfg GroupConfig, modules ...Module) {
	grp := parent.Group(cfg.Prefix)

	for _, mw := range cfg.Middleware {
		grp.Use(mw)
	}
	if cfg.Auth {
		if cfg.Authenticator == nil {
			log.Fatal().Str("prefix", cfg.Prefix).Msg("api.MountGroup: Auth enabled but no Authenticator")
		}
		grp.Use(cfg.Authenticator)
	}
	for _, g := range cfg.Guards {
		grp.Use(g)
	}

	controller := &Controller{Group: grp}
	for _, m := range modules {
		m.Mount(controller)
	}
}

// Controller registers endpoints on a group. GET, POST, PUT and DELETE hand the signed-in
// account to the handler; the PUBLIC_ variants do not. Guards run before the handler.
type Controller struct {
	Group *gin.RouterGroup
}

func withGuards(guards []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(append([]gin.HandlerFunc{}, guards...), h)
}

func (c *Controller) GET(path string, h HandlerFuncWithAuth, guards ...gin.HandlerFunc) {
	c.Group.GET(path, withGuards(guards, ResolveEndpointWithAuth(h))...)
}

func (c *Controller) POST(path string, h HandlerFuncWithAuth, guards ...gin.HandlerFunc) {
	c.Group.POST(path, withGuards(guards, ResolveEndpointWithAuth(h))...)
}

func (c *Controller) PUT(path string, h HandlerFuncWithAuth, guards ...gin.HandlerFunc) {
	c.Group.PUT(path, withGuards(guards, ResolveEndpointWithAuth(h))...)
}

func (c *Controller) DELETE(path string, h HandlerFuncWithAuth, guards ...gin.HandlerFunc) {
	c.Group.DELETE(path, withGuards(guards, ResolveEndpointWithAuth(h))...)
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc, guards ...gin.HandlerFunc) {
	c.Group.GET(path, withGuards(guards, ResolveEndpoint(h))...)
}

func (c *Controller) PUBLIC_POST(path string, h HandlerFunc, guards ...gin.HandlerFunc) {
	c.Group.POST(path, withGuards(guards, ResolveEndpoint(h))...)
}
