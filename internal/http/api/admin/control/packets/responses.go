package packets

import (
	"time"

	"github.com/aau-transit/bustrack/internal/model"
)

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

type RoleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Alias       string   `json:"alias"`
	Permissions []string `json:"permissions"`
}

func NewRoleResponse(r model.Role) RoleResponse {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return RoleResponse{ID: r.ID.String(), Name: r.Name, Alias: r.Alias, Permissions: perms}
}

type StopResponse struct {
	ID        string  `json:"id"`
	RouteID   string  `json:"route_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Sequence  int     `json:"sequence"`
	Status    string  `json:"status"`
}

func NewStopResponse(s model.Stop) StopResponse {
	return StopResponse{
		ID:        s.ID.String(),
		RouteID:   s.RouteID.String(),
		Name:      s.Name,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Sequence:  s.Sequence,
		Status:    string(s.Status),
	}
}

type RouteResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Status      string         `json:"status"`
	MapURL      *string        `json:"map_url"`
	Stops       []StopResponse `json:"stops,omitempty"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

func NewRouteResponse(r model.Route, stops []model.Stop) RouteResponse {
	out := RouteResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		Status:      string(r.Status),
		MapURL:      r.MapURL,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}
	for _, s := range stops {
		out.Stops = append(out.Stops, NewStopResponse(s))
	}
	return out
}

type BusResponse struct {
	ID        string  `json:"id"`
	BusNumber int     `json:"bus_number"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func NewBusResponse(b model.Bus) BusResponse {
	return BusResponse{
		ID:        b.ID.String(),
		BusNumber: b.BusNumber,
		StartTime: formatOptional(b.StartTime),
		EndTime:   formatOptional(b.EndTime),
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}

type TripResponse struct {
	ID         string  `json:"id"`
	RouteID    string  `json:"route_id"`
	DriverID   string  `json:"driver_id"`
	BusID      string  `json:"bus_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Status     string  `json:"status"`
	ReportedAt string  `json:"current_time"`
	CreatedAt  string  `json:"created_at"`
}

func NewTripResponse(t model.Trip) TripResponse {
	return TripResponse{
		ID:         t.ID.String(),
		RouteID:    t.RouteID.String(),
		DriverID:   t.DriverID.String(),
		BusID:      t.BusID.String(),
		Latitude:   t.Latitude,
		Longitude:  t.Longitude,
		Status:     string(t.Status),
		ReportedAt: t.ReportedAt.Format(time.RFC3339),
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
}
