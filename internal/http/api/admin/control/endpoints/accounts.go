package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/aau-transit/bustrack/internal/accounts"
	"github.com/aau-transit/bustrack/internal/http/api"
	authpackets "github.com/aau-transit/bustrack/internal/http/api/auth/packets"
	"github.com/aau-transit/bustrack/internal/http/api/admin/control/packets"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/model"
)

type AccountController struct {
	accounts *accounts.Service
}

func newAccountController(svc *accounts.Service) *AccountController {
	return &AccountController{accounts: svc}
}

// AccountsModule mounts CRUD for /admins, /drivers and /students.
func AccountsModule(svc *accounts.Service, authz *middleware.Authorizer) api.Module {
	ctl := newAccountController(svc)
	return api.ModuleFunc(func(c *api.Controller) {
		adminsWrite := authz.RequirePermission(model.PermAdminsWrite)
		driversWrite := authz.RequirePermission(model.PermDriversWrite)
		studentsRead := authz.RequirePermission(model.PermStudentsRead, model.PermStudentsWrite)
		studentsWrite := authz.RequirePermission(model.PermStudentsWrite)

		ctl.mount(c, "/admins", model.KindAdmin, adminsWrite, adminsWrite)
		ctl.mount(c, "/drivers", model.KindDriver, driversWrite, driversWrite)
		ctl.mount(c, "/students", model.KindStudent, studentsRead, studentsWrite)
	})
}

func (a *AccountController) mount(c *api.Controller, path string, kind model.AccountKind, read, write gin.HandlerFunc) {
	c.GET(path, a.list(kind), read)
	c.POST(path, a.create(kind), write)
	c.GET(path+"/:id", a.get(kind), read)
	c.PUT(path+"/:id", a.update(kind), write)
	c.DELETE(path+"/:id", a.remove(kind), write)
}

// GET /api/admin/{admins,drivers,students}
func (a *AccountController) list(kind model.AccountKind) api.HandlerFuncWithAuth {
	return func(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
		all, err := a.accounts.List(ctx.Request.Context(), kind)
		if err != nil {
			return nil, api.FromStoreError(err, string(kind))
		}
		out := make([]authpackets.AccountResponse, 0, len(all))
		for i := range all {
			out = append(out, authpackets.NewAccountResponse(&all[i]))
		}
		return out, nil
	}
}

// POST /api/admin/{admins,drivers,students}
func (a *AccountController) create(kind model.AccountKind) api.HandlerFuncWithAuth {
	return func(ctx *gin.Context, admin *model.Account) (any, *api.APIError) {
		var request packets.CreateAccountRequest
		if err := ctx.ShouldBindJSON(&request); err != nil {
			return nil, api.BadRequest(err.Error())
		}

		in := accounts.CreateInput{
			Kind:          kind,
			Name:          request.Name,
			Email:         request.Email,
			Password:      request.Password,
			BusNumber:     request.BusNumber,
			Phone:         request.Phone,
			StudentNumber: request.StudentNumber,
			Major:         request.Major,
		}
		if kind == model.KindDriver {
			in.AdminID = &admin.ID
		}
		created, err := a.accounts.Create(ctx.Request.Context(), in)
		if err != nil {
			return nil, api.FromAccountError(err)
		}
		return api.Created(authpackets.NewAccountResponse(created)), nil
	}
}

// GET /api/admin/{admins,drivers,students}/:id
func (a *AccountController) get(kind model.AccountKind) api.HandlerFuncWithAuth {
	return func(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
		id, apiErr := pathID(ctx, "id")
		if apiErr != nil {
			return nil, apiErr
		}
		found, err := a.accounts.Get(ctx.Request.Context(), id, kind)
		if err != nil {
			return nil, api.FromStoreError(err, string(kind))
		}
		return authpackets.NewAccountResponse(found), nil
	}
}

// PUT /api/admin/{admins,drivers,students}/:id
func (a *AccountController) update(kind model.AccountKind) api.HandlerFuncWithAuth {
	return func(ctx *gin.Context, _ *model.Account) (any, *api.APIError) {
		id, apiErr := pathID(ctx, "id")
		if apiErr != nil {
			return nil, apiErr
		}
		var request packets.UpdateAccountRequest
		if err := ctx.ShouldBindJSON(&request); err != nil {
			return nil, api.BadRequest(err.Error())
		}

		updated, err := a.accounts.Update(ctx.Request.Context(), id, kind, accounts.UpdateInput{
			Name:          request.Name,
			Email:         request.Email,
			Password:      request.Password,
			IsActive:      request.IsActive,
			BusNumber:     request.BusNumber,
			Phone:         request.Phone,
			StudentNumber: request.StudentNumber,
			Major:         request.Major,
		})
		if err != nil {
			return nil, api.FromAccountError(err)
		}
		return authpackets.NewAccountResponse(updated), nil
	}
}

// DELETE /api/admin/{admins,drivers,students}/:id
func (a *AccountController) remove(kind model.AccountKind) api.HandlerFuncWithAuth {
	return func(ctx *gin.Context, admin *model.Account) (any, *api.APIError) {
		id, apiErr := pathID(ctx, "id")
		if apiErr != nil {
			return nil, apiErr
		}
		if id == admin.ID {
			return nil, api.BadRequest("cannot delete your own account")
		}
		if err := a.accounts.Delete(ctx.Request.Context(), id, kind); err != nil {
			return nil, api.FromStoreError(err, string(kind))
		}
		return api.NoContent(), nil
	}
}
