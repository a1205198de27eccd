package model

import (
	"time"

	"github.com/google/uuid"
)

// Status is shared by routes, stops, buses, trips and bus locations.
type Status string

const (
	StatusActive           Status = "active"
	StatusDisabled         Status = "disabled"
	StatusInProgress       Status = "in_progress"
	StatusArrived          Status = "arrived"
	StatusUnderMaintenance Status = "under_maintenance"
	StatusDelayed          Status = "delayed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDisabled, StatusInProgress, StatusArrived, StatusUnderMaintenance, StatusDelayed:
		return true
	}
	return false
}

type Route struct {
	ID          uuid.UUID  `db:"id"`
	Name        string     `db:"name"`
	Description *string    `db:"description"`
	Status      Status     `db:"status"`
	MapURL      *string    `db:"map_url"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type Stop struct {
	ID        uuid.UUID  `db:"id"`
	RouteID   uuid.UUID  `db:"route_id"`
	Name      string     `db:"name"`
	Latitude  float64    `db:"latitude"`
	Longitude float64    `db:"longitude"`
	Sequence  int        `db:"sequence"`
	Status    Status     `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type Bus struct {
	ID        uuid.UUID  `db:"id"`
	BusNumber int        `db:"bus_number"`
	StartTime *time.Time `db:"start_time"`
	EndTime   *time.Time `db:"end_time"`
	Status    Status     `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}
