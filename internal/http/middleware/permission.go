package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/model"
)

func deny(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
}

// RequireKind lets through accounts of the listed kinds only. Must run after JWTMiddleware.
func RequireKind(kinds ...model.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := GetCurrentAccount(c)
		if !ok || !slices.Contains(kinds, account.Kind) {
			deny(c)
			return
		}
		c.Next()
	}
}

type Authorizer struct {
	store db.Store
}

func NewAuthorizer(store db.Store) *Authorizer {
	return &Authorizer{store: store}
}

// RequirePermission passes admins holding any of the slugs through one of their roles.
func (a *Authorizer) RequirePermission(slugs ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := GetCurrentAccount(c)
		if !ok || account.Kind != model.KindAdmin {
			deny(c)
			return
		}
		granted, err := a.store.ListAccountPermissions(c.Request.Context(), account.ID)
		if err != nil {
			log.Error().Err(err).Str("account", account.ID.String()).Msg("could not load permissions")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		for _, slug := range slugs {
			if slices.Contains(granted, slug) {
				c.Next()
				return
			}
		}
		deny(c)
	}
}
