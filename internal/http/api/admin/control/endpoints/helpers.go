package endpoints

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/model"
)

func pathID(ctx *gin.Context, name string) (uuid.UUID, *api.APIError) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, api.BadRequest(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// parseStatus falls back to def when raw is empty.
func parseStatus(raw string, def model.Status) (model.Status, *api.APIError) {
	if raw == "" {
		return def, nil
	}
	s := model.Status(raw)
	if !s.Valid() {
		return "", api.BadRequest(fmt.Sprintf("unknown status %q", raw))
	}
	return s, nil
}
