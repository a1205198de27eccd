package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/aau-transit/bustrack/internal/model"
)

const (
	currentAccountKey = "currentAccount"
	currentClaimsKey  = "currentClaims"
)

// retrieves *model.Account from Gin context (after JWTMiddleware has run).
func GetCurrentAccount(c *gin.Context) (*model.Account, bool) {
	a, exists := c.Get(currentAccountKey)
	if !exists {
		return nil, false
	}
	account, ok := a.(*model.Account)
	return account, ok
}

// retrieves the verified access token claims of the current request.
func GetCurrentClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(currentClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
