package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/model"
)

const (
	routeColumns = `id, name, description, status, map_url, created_at, updated_at, deleted_at`
	stopColumns  = `id, route_id, name, latitude, longitude, sequence, status, created_at, updated_at, deleted_at`
	busColumns   = `id, bus_number, start_time, end_time, status, created_at, updated_at, deleted_at`
)

func (s *pgStore) CreateRoute(ctx context.Context, r *model.Route) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	q := `
	INSERT INTO routes (id, name, description, status, map_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, now(), now())
	RETURNING ` + routeColumns
	if err := s.db.GetContext(ctx, r, q, r.ID, r.Name, r.Description, r.Status, r.MapURL); err != nil {
		log.Error().Err(err).Str("name", r.Name).Msg("failed to create route")
		return mapError(err)
	}
	return nil
}

func (s *pgStore) GetRoute(ctx context.Context, id uuid.UUID) (*model.Route, error) {
	var r model.Route
	err := s.db.GetContext(ctx, &r, `SELECT `+routeColumns+` FROM routes WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

func (s *pgStore) ListRoutes(ctx context.Context, onlyActive bool) ([]model.Route, error) {
	routes := []model.Route{}
	err := s.db.SelectContext(ctx, &routes, `
		SELECT `+routeColumns+`
		FROM routes
		WHERE deleted_at IS NULL AND (NOT $1 OR status = 'active')
		ORDER BY name, id
		`, onlyActive)
	if err != nil {
		log.Error().Err(err).Msg("failed to list routes")
		return nil, err
	}
	return routes, nil
}

func (s *pgStore) UpdateRoute(ctx context.Context, r *model.Route) error {
	err := s.db.GetContext(ctx, r, `
		UPDATE routes
		SET name = $2,
		description = $3,
		status = $4,
		map_url = $5,
		updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+routeColumns, r.ID, r.Name, r.Description, r.Status, r.MapURL)
	if err != nil {
		log.Error().Err(err).Str("route_id", r.ID.String()).Msg("failed to update route")
	}
	return mapError(err)
}

func (s *pgStore) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE routes SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		`, id)
	return expectOne(res, err)
}

func (s *pgStore) CreateStop(ctx context.Context, st *model.Stop) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	q := `
	INSERT INTO stops (id, route_id, name, latitude, longitude, sequence, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	RETURNING ` + stopColumns
	err := s.db.GetContext(ctx, st, q, st.ID, st.RouteID, st.Name, st.Latitude, st.Longitude, st.Sequence, st.Status)
	if err != nil {
		log.Error().Err(err).Str("route_id", st.RouteID.String()).Msg("failed to create stop")
		return mapError(err)
	}
	return nil
}

// stops of a route in travel order.
func (s *pgStore) ListStops(ctx context.Context, routeID uuid.UUID) ([]model.Stop, error) {
	stops := []model.Stop{}
	err := s.db.SelectContext(ctx, &stops, `
		SELECT `+stopColumns+`
		FROM stops
		WHERE route_id = $1 AND deleted_at IS NULL
		ORDER BY sequence, name
		`, routeID)
	if err != nil {
		log.Error().Err(err).Str("route_id", routeID.String()).Msg("failed to list stops")
		return nil, err
	}
	return stops, nil
}

func (s *pgStore) DeleteStop(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stops SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		`, id)
	return expectOne(res, err)
}

func (s *pgStore) CreateBus(ctx context.Context, b *model.Bus) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	q := `
	INSERT INTO buses (id, bus_number, start_time, end_time, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, now(), now())
	RETURNING ` + busColumns
	if err := s.db.GetContext(ctx, b, q, b.ID, b.BusNumber, b.StartTime, b.EndTime, b.Status); err != nil {
		log.Error().Err(err).Int("bus_number", b.BusNumber).Msg("failed to create bus")
		return mapError(err)
	}
	return nil
}

func (s *pgStore) GetBus(ctx context.Context, id uuid.UUID) (*model.Bus, error) {
	var b model.Bus
	err := s.db.GetContext(ctx, &b, `SELECT `+busColumns+` FROM buses WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (s *pgStore) GetBusByNumber(ctx context.Context, number int) (*model.Bus, error) {
	var b model.Bus
	err := s.db.GetContext(ctx, &b, `SELECT `+busColumns+` FROM buses WHERE bus_number = $1 AND deleted_at IS NULL`, number)
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (s *pgStore) ListBuses(ctx context.Context) ([]model.Bus, error) {
	buses := []model.Bus{}
	err := s.db.SelectContext(ctx, &buses, `SELECT `+busColumns+` FROM buses WHERE deleted_at IS NULL ORDER BY bus_number`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list buses")
		return nil, err
	}
	return buses, nil
}

func (s *pgStore) UpdateBus(ctx context.Context, b *model.Bus) error {
	err := s.db.GetContext(ctx, b, `
		UPDATE buses
		SET bus_number = $2,
		start_time = $3,
		end_time = $4,
		status = $5,
		updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+busColumns, b.ID, b.BusNumber, b.StartTime, b.EndTime, b.Status)
	if err != nil {
		log.Error().Err(err).Str("bus_id", b.ID.String()).Msg("failed to update bus")
	}
	return mapError(err)
}

func (s *pgStore) DeleteBus(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE buses SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		`, id)
	return expectOne(res, err)
}
