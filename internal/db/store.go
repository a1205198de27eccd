// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/aau-transit/bustrack/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Store interface {
	Ping(ctx context.Context) error

	// account functions
	CreateAccount(ctx context.Context, a *model.Account) error
	GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// kind "" searches every account kind
	GetAccountByEmail(ctx context.Context, email string, kind model.AccountKind) (*model.Account, error)
	ListAccounts(ctx context.Context, kind model.AccountKind) ([]model.Account, error)
	UpdateAccount(ctx context.Context, a *model.Account) error
	SoftDeleteAccount(ctx context.Context, id uuid.UUID) error

	// role functions
	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error)
	AssignRole(ctx context.Context, accountID, roleID uuid.UUID) error
	UnassignRole(ctx context.Context, accountID, roleID uuid.UUID) error
	ListAccountPermissions(ctx context.Context, accountID uuid.UUID) ([]string, error)

	// route functions
	CreateRoute(ctx context.Context, r *model.Route) error
	GetRoute(ctx context.Context, id uuid.UUID) (*model.Route, error)
	ListRoutes(ctx context.Context, onlyActive bool) ([]model.Route, error)
	UpdateRoute(ctx context.Context, r *model.Route) error
	DeleteRoute(ctx context.Context, id uuid.UUID) error

	// stop functions
	CreateStop(ctx context.Context, s *model.Stop) error
	ListStops(ctx context.Context, routeID uuid.UUID) ([]model.Stop, error)
	DeleteStop(ctx context.Context, id uuid.UUID) error

	// bus functions
	CreateBus(ctx context.Context, b *model.Bus) error
	GetBus(ctx context.Context, id uuid.UUID) (*model.Bus, error)
	GetBusByNumber(ctx context.Context, number int) (*model.Bus, error)
	ListBuses(ctx context.Context) ([]model.Bus, error)
	UpdateBus(ctx context.Context, b *model.Bus) error
	DeleteBus(ctx context.Context, id uuid.UUID) error

	// trip functions
	CreateTrip(ctx context.Context, t *model.Trip) error
	GetTrip(ctx context.Context, id uuid.UUID) (*model.Trip, error)
	// driverID uuid.Nil lists every trip
	ListTrips(ctx context.Context, driverID uuid.UUID) ([]model.Trip, error)
	UpdateTripPosition(ctx context.Context, t *model.Trip) error
	RecordBusLocation(ctx context.Context, l *model.BusLocation) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
// required so linter doesn't complain
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapError folds driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrConflict
		case "23503": // foreign_key_violation
			return ErrNotFound
		}
	}
	return err
}

// expectOne turns a zero-row UPDATE into ErrNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
