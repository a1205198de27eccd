// Package tracking records driver position reports and keeps the latest snapshot of every
// bus available to riders.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/realtime"
	"github.com/aau-transit/bustrack/internal/redis"
)

// snapshots older than this are treated as stale and dropped from the cache
const SnapshotTTL = 15 * time.Minute

var (
	ErrNotAssigned   = errors.New("trip is assigned to another driver")
	ErrInvalidReport = errors.New("invalid position report")
	ErrNoSnapshot    = errors.New("no live position for bus")
)

type Report struct {
	Latitude  float64
	Longitude float64
	Status    model.Status
	Capacity  string
}

func (r Report) validate() error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidReport, r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidReport, r.Longitude)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidReport, r.Status)
	}
	return nil
}

func snapshotKey(busNumber int) string {
	return fmt.Sprintf("live:bus:%d", busNumber)
}

type Tracker struct {
	store     db.Store
	cache     redis.Store
	publisher realtime.Publisher
	hub       *hub
	now       func() time.Time
}

func NewTracker(store db.Store, cache redis.Store, publisher realtime.Publisher) *Tracker {
	return &Tracker{
		store:     store,
		cache:     cache,
		publisher: publisher,
		hub:       newHub(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ReportPosition stores a driver's report for their trip, caches the resulting snapshot and
// broadcasts it. Cache and broker failures are logged and never fail the report.
func (t *Tracker) ReportPosition(ctx context.Context, driverID, tripID uuid.UUID, report Report) (*model.LiveSnapshot, error) {
	if err := report.validate(); err != nil {
		return nil, err
	}

	trip, err := t.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, ErrNotAssigned
	}
	bus, err := t.store.GetBus(ctx, trip.BusID)
	if err != nil {
		return nil, err
	}

	trip.Latitude = report.Latitude
	trip.Longitude = report.Longitude
	trip.Status = report.Status
	trip.ReportedAt = t.now()
	if err := t.store.UpdateTripPosition(ctx, trip); err != nil {
		return nil, err
	}
	if err := t.store.RecordBusLocation(ctx, &model.BusLocation{
		BusID:    bus.ID,
		TripID:   trip.ID,
		Capacity: report.Capacity,
		Status:   report.Status,
	}); err != nil {
		return nil, err
	}

	snapshot := model.LiveSnapshot{
		BusNumber:  bus.BusNumber,
		TripID:     trip.ID,
		RouteID:    trip.RouteID,
		Latitude:   trip.Latitude,
		Longitude:  trip.Longitude,
		Status:     trip.Status,
		Capacity:   report.Capacity,
		ReportedAt: trip.ReportedAt,
	}

	if payload, err := json.Marshal(snapshot); err != nil {
		log.Error().Err(err).Int("bus_number", bus.BusNumber).Msg("could not encode live snapshot")
	} else if err := t.cache.Put(ctx, snapshotKey(bus.BusNumber), payload, SnapshotTTL); err != nil {
		log.Warn().Err(err).Int("bus_number", bus.BusNumber).Msg("could not cache live snapshot")
	}
	if err := t.publisher.PublishLocation(ctx, snapshot); err != nil {
		log.Warn().Err(err).Int("bus_number", bus.BusNumber).Msg("could not publish live snapshot")
	}
	t.hub.broadcast(snapshot)

	return &snapshot, nil
}

// Subscribe streams every snapshot reported for a bus from now on. The returned cancel
// func closes the channel and must be called once the caller stops reading.
func (t *Tracker) Subscribe(busNumber int) (<-chan model.LiveSnapshot, func()) {
	return t.hub.subscribe(busNumber)
}

// Latest returns the cached snapshot for a bus or ErrNoSnapshot.
func (t *Tracker) Latest(ctx context.Context, busNumber int) (*model.LiveSnapshot, error) {
	payload, err := t.cache.Get(ctx, snapshotKey(busNumber))
	if errors.Is(err, redis.ErrMiss) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	var snapshot model.LiveSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode live snapshot: %w", err)
	}
	return &snapshot, nil
}
