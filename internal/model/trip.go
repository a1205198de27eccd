package model

import (
	"time"

	"github.com/google/uuid"
)

type Trip struct {
	ID         uuid.UUID  `db:"id"`
	RouteID    uuid.UUID  `db:"route_id"`
	DriverID   uuid.UUID  `db:"driver_id"`
	BusID      uuid.UUID  `db:"bus_id"`
	Latitude   float64    `db:"latitude"`
	Longitude  float64    `db:"longitude"`
	Status     Status     `db:"status"`
	ReportedAt time.Time  `db:"reported_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

// BusLocation is one occupancy/status report attached to a running trip.
type BusLocation struct {
	ID        uuid.UUID `db:"id"`
	BusID     uuid.UUID `db:"bus_id"`
	TripID    uuid.UUID `db:"trip_id"`
	Capacity  string    `db:"capacity"`
	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// LiveSnapshot is the latest known position of a bus, cached and broadcast on every report.
type LiveSnapshot struct {
	BusNumber  int       `json:"bus_number"`
	TripID     uuid.UUID `json:"trip_id"`
	RouteID    uuid.UUID `json:"route_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Status     Status    `json:"status"`
	Capacity   string    `json:"capacity,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
}
