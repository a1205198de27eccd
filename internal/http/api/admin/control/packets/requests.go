package packets

import "time"

// body for creating an admin, driver or student; fields for other kinds are ignored
type CreateAccountRequest struct {
	Name          string  `json:"name" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	Password      string  `json:"password" binding:"required"`
	BusNumber     *int    `json:"bus_number"`
	Phone         *string `json:"phone"`
	StudentNumber *string `json:"student_number"`
	Major         *string `json:"major"`
}

type UpdateAccountRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Password      *string `json:"password"`
	IsActive      *bool   `json:"is_active"`
	BusNumber     *int    `json:"bus_number"`
	Phone         *string `json:"phone"`
	StudentNumber *string `json:"student_number"`
	Major         *string `json:"major"`
}

type AssignRoleRequest struct {
	RoleID string `json:"role_id" binding:"required,uuid"`
}

type CreateRouteRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

type UpdateRouteRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type CreateStopRequest struct {
	Name      string   `json:"name" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Sequence  int      `json:"sequence" binding:"gte=0"`
	Status    string   `json:"status"`
}

type CreateBusRequest struct {
	BusNumber int        `json:"bus_number" binding:"required,gt=0"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    string     `json:"status"`
}

type UpdateBusRequest struct {
	BusNumber *int       `json:"bus_number" binding:"omitempty,gt=0"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    *string    `json:"status"`
}

type CreateTripRequest struct {
	RouteID  string `json:"route_id" binding:"required,uuid"`
	DriverID string `json:"driver_id" binding:"required,uuid"`
	BusID    string `json:"bus_id" binding:"required,uuid"`
	Status   string `json:"status"`
}
