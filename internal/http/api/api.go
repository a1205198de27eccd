package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/accounts"
	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/model"
)

type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Response lets a handler pick a status other than 200.
type Response struct {
	Code int
	Body any
}

func Created(body any) Response { return Response{Code: http.StatusCreated, Body: body} }

func NoContent() Response { return Response{Code: http.StatusNoContent} }

func BadRequest(message string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: message}
}

func Internal() *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: "internal server error"}
}

// FromStoreError maps store sentinels to 404 and 409; anything else is logged and hidden
// behind a 500.
func FromStoreError(err error, what string) *APIError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &APIError{Code: http.StatusNotFound, Message: fmt.Sprintf("%s not found", what)}
	case errors.Is(err, db.ErrConflict):
		return &APIError{Code: http.StatusConflict, Message: fmt.Sprintf("%s already exists", what)}
	}
	log.Error().Err(err).Str("entity", what).Msg("store error")
	return Internal()
}

// FromAccountError is FromStoreError plus validation failures from the accounts service.
func FromAccountError(err error) *APIError {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput):
		return BadRequest(err.Error())
	case errors.Is(err, accounts.ErrStudentNumberTaken):
		return &APIError{Code: http.StatusConflict, Message: accounts.ErrStudentNumberTaken.Error()}
	case errors.Is(err, db.ErrConflict):
		return &APIError{Code: http.StatusConflict, Message: accounts.ErrEmailTaken.Error()}
	}
	return FromStoreError(err, "account")
}

type HandlerFuncWithAuth func(ctx *gin.Context, account *model.Account) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func render(ctx *gin.Context, result any, apiErr *APIError) {
	if apiErr != nil {
		ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}
	switch r := result.(type) {
	case Response:
		if r.Code == http.StatusNoContent {
			ctx.Status(http.StatusNoContent)
			return
		}
		ctx.JSON(r.Code, r.Body)
	default:
		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		account, ok := middleware.GetCurrentAccount(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		result, apiErr := h(ctx, account)
		render(ctx, result, apiErr)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		render(ctx, result, apiErr)
	}
}
