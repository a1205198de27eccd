package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/accounts"
	"github.com/aau-transit/bustrack/internal/auth"
	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/http/api/auth/packets"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/redis"
)

// AuthPublicModule mounts public auth endpoints (/auth/register, /auth/login, /auth/refresh)
func AuthPublicModule(svc *accounts.Service, issuer *middleware.TokenIssuer, sessions redis.Store, limiter *middleware.RateLimiter) api.Module {
	ctl := newAccountManager(svc, issuer, sessions)
	return api.ModuleFunc(func(c *api.Controller) {
		limit := limiter.Middleware()
		c.PUBLIC_POST("/auth/register", ctl.register, limit)
		c.PUBLIC_POST("/auth/login", ctl.login, limit)
		c.PUBLIC_POST("/auth/refresh", ctl.refresh, limit)
	})
}

// AuthSessionModule mounts private session/profile endpoints (JWT required)
func AuthSessionModule(svc *accounts.Service, issuer *middleware.TokenIssuer, sessions redis.Store) api.Module {
	ctl := newAccountManager(svc, issuer, sessions)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/auth/logout", ctl.logout)
		c.GET("/auth/current_profile", ctl.getCurrentProfile)
		c.PUT("/auth/current_profile", ctl.updateCurrentProfile)
	})
}

type AccountManager struct {
	accounts *accounts.Service
	issuer   *middleware.TokenIssuer
	sessions redis.Store
}

func newAccountManager(svc *accounts.Service, issuer *middleware.TokenIssuer, sessions redis.Store) *AccountManager {
	return &AccountManager{accounts: svc, issuer: issuer, sessions: sessions}
}

func (a *AccountManager) tokens(account *model.Account) (*packets.TokenResponse, *api.APIError) {
	pair, err := a.issuer.IssuePair(account)
	if err != nil {
		log.Error().Err(err).Str("account", account.ID.String()).Msg("could not sign tokens")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}
	profile := packets.NewAccountResponse(account)
	return &packets.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		Account:      &profile,
	}, nil
}

// POST /api/auth/register
func (a *AccountManager) register(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	account, err := a.accounts.Create(ctx.Request.Context(), accounts.CreateInput{
		Kind:          model.KindStudent,
		Name:          request.Name,
		Email:         request.Email,
		Password:      request.Password,
		StudentNumber: &request.StudentNumber,
		Major:         request.Major,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidInput) {
			log.Warn().Str("email", request.Email).Err(err).Msg("registration rejected")
		}
		return nil, api.FromAccountError(err)
	}

	resp, apiErr := a.tokens(account)
	if apiErr != nil {
		return nil, apiErr
	}
	return api.Created(resp), nil
}

// POST /api/auth/login
func (a *AccountManager) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	account, err := a.accounts.Authenticate(ctx.Request.Context(), request.Email, request.Password, model.AccountKind(request.Kind))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	if err != nil {
		log.Error().Err(err).Str("email", request.Email).Msg("login lookup failed")
		return nil, api.Internal()
	}

	resp, apiErr := a.tokens(account)
	if apiErr != nil {
		return nil, apiErr
	}
	return resp, nil
}

// POST /api/auth/refresh
func (a *AccountManager) refresh(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RefreshRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	unauthorized := &api.APIError{Code: http.StatusUnauthorized, Message: "invalid refresh token"}
	claims, err := a.issuer.ParseRefresh(request.RefreshToken)
	if err != nil {
		return nil, unauthorized
	}
	revoked, err := a.sessions.IsRevoked(ctx.Request.Context(), claims.Session)
	if err != nil {
		log.Error().Err(err).Msg("session lookup failed")
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "session store unavailable"}
	}
	if revoked {
		return nil, unauthorized
	}

	accountID, _ := claims.AccountID()
	account, err := a.accounts.Get(ctx.Request.Context(), accountID, claims.Kind)
	if err != nil || !account.CanSignIn() {
		return nil, unauthorized
	}

	access, err := a.issuer.IssueAccess(account, claims.Session)
	if err != nil {
		log.Error().Err(err).Str("account", account.ID.String()).Msg("could not sign access token")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}
	return packets.TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(a.issuer.AccessTTL() / time.Second),
	}, nil
}

// POST /api/auth/logout
func (a *AccountManager) logout(ctx *gin.Context, account *model.Account) (any, *api.APIError) {
	claims, ok := middleware.GetCurrentClaims(ctx)
	if !ok {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	}
	if err := a.sessions.Revoke(ctx.Request.Context(), claims.Session, a.issuer.RefreshTTL()); err != nil {
		log.Error().Err(err).Str("account", account.ID.String()).Msg("could not revoke session")
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "session store unavailable"}
	}
	log.Info().Str("account", account.ID.String()).Msg("session ended")
	return api.NoContent(), nil
}

// GET /api/auth/current_profile
func (a *AccountManager) getCurrentProfile(ctx *gin.Context, account *model.Account) (any, *api.APIError) {
	return packets.NewAccountResponse(account), nil
}

// PUT /api/auth/current_profile
func (a *AccountManager) updateCurrentProfile(ctx *gin.Context, account *model.Account) (any, *api.APIError) {
	var request packets.UpdateCurrentProfileRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	updated, err := a.accounts.Update(ctx.Request.Context(), account.ID, account.Kind, accounts.UpdateInput{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
		Phone:    request.Phone,
		Major:    request.Major,
	})
	if err != nil {
		return nil, api.FromAccountError(err)
	}
	return packets.NewAccountResponse(updated), nil
}
