package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/http/api/admin/control/packets"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/model"
)

type RoleController struct {
	store db.Store
}

// RolesModule mounts role listing and role assignment for admins.
func RolesModule(store db.Store, authz *middleware.Authorizer) api.Module {
	ctl := &RoleController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		rolesWrite := authz.RequirePermission(model.PermRolesWrite)

		c.GET("/roles", ctl.listRoles)
		c.GET("/roles/:id", ctl.getRole)
		c.POST("/admins/:id/roles", ctl.assignRole, rolesWrite)
		c.DELETE("/admins/:id/roles/:role_id", ctl.unassignRole, rolesWrite)
	})
}

// GET /api/admin/roles
func (r *RoleController) listRoles(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	roles, err := r.store.ListRoles(ctx.Request.Context())
	if err != nil {
		return nil, api.FromStoreError(err, "role")
	}
	out := make([]packets.RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, packets.NewRoleResponse(role))
	}
	return out, nil
}

// GET /api/admin/roles/:id
func (r *RoleController) getRole(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	role, err := r.store.GetRole(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromStoreError(err, "role")
	}
	return packets.NewRoleResponse(*role), nil
}

func (r *RoleController) targetAdmin(ctx *gin.Context) (uuid.UUID, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return uuid.Nil, apiErr
	}
	target, err := r.store.GetAccountByID(ctx.Request.Context(), id)
	if err != nil {
		return uuid.Nil, api.FromStoreError(err, "admin")
	}
	if target.Kind != model.KindAdmin {
		return uuid.Nil, api.FromStoreError(db.ErrNotFound, "admin")
	}
	return id, nil
}

// POST /api/admin/admins/:id/roles
func (r *RoleController) assignRole(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	adminID, apiErr := r.targetAdmin(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.AssignRoleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	roleID := uuid.MustParse(request.RoleID)

	if err := r.store.AssignRole(ctx.Request.Context(), adminID, roleID); err != nil {
		return nil, api.FromStoreError(err, "role")
	}
	perms, err := r.store.ListAccountPermissions(ctx.Request.Context(), adminID)
	if err != nil {
		return nil, api.FromStoreError(err, "role")
	}
	return gin.H{"permissions": perms}, nil
}

// DELETE /api/admin/admins/:id/roles/:role_id
func (r *RoleController) unassignRole(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
	adminID, apiErr := r.targetAdmin(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	roleID, apiErr := pathID(ctx, "role_id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := r.store.UnassignRole(ctx.Request.Context(), adminID, roleID); err != nil {
		return nil, api.FromStoreError(err, "role assignment")
	}
	return api.NoContent(), nil
}
