package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/model"
)

const tripColumns = `id, route_id, driver_id, bus_id, latitude, longitude, status, reported_at,
	created_at, updated_at, deleted_at`

func (s *pgStore) CreateTrip(ctx context.Context, t *model.Trip) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	q := `
	INSERT INTO trips (id, route_id, driver_id, bus_id, latitude, longitude, status, reported_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now(), now())
	RETURNING ` + tripColumns
	err := s.db.GetContext(ctx, t, q, t.ID, t.RouteID, t.DriverID, t.BusID, t.Latitude, t.Longitude, t.Status)
	if err != nil {
		log.Error().Err(err).Str("route_id", t.RouteID.String()).Msg("failed to create trip")
		return mapError(err)
	}
	return nil
}

func (s *pgStore) GetTrip(ctx context.Context, id uuid.UUID) (*model.Trip, error) {
	var t model.Trip
	err := s.db.GetContext(ctx, &t, `SELECT `+tripColumns+` FROM trips WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (s *pgStore) ListTrips(ctx context.Context, driverID uuid.UUID) ([]model.Trip, error) {
	trips := []model.Trip{}
	err := s.db.SelectContext(ctx, &trips, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE deleted_at IS NULL AND ($1 = '00000000-0000-0000-0000-000000000000'::uuid OR driver_id = $1)
		ORDER BY created_at DESC, id
		`, driverID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list trips")
		return nil, err
	}
	return trips, nil
}

// stores the reported position and status; reported_at is taken from t.
func (s *pgStore) UpdateTripPosition(ctx context.Context, t *model.Trip) error {
	err := s.db.GetContext(ctx, t, `
		UPDATE trips
		SET latitude = $2,
		longitude = $3,
		status = $4,
		reported_at = $5,
		updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+tripColumns, t.ID, t.Latitude, t.Longitude, t.Status, t.ReportedAt)
	if err != nil {
		log.Error().Err(err).Str("trip_id", t.ID.String()).Msg("failed to update trip position")
	}
	return mapError(err)
}

func (s *pgStore) RecordBusLocation(ctx context.Context, l *model.BusLocation) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	err := s.db.GetContext(ctx, &l.CreatedAt, `
		INSERT INTO bus_locations (id, bus_id, trip_id, capacity, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING created_at
		`, l.ID, l.BusID, l.TripID, l.Capacity, l.Status)
	if err != nil {
		log.Error().Err(err).Str("trip_id", l.TripID.String()).Msg("failed to record bus location")
	}
	return mapError(err)
}
