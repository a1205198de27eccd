package db

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/model"
)

const accountColumns = `id, kind, name, email, hashed_password, bus_number, phone, admin_id,
	student_number, major, is_active, is_deleted, created_at, updated_at, deleted_at`

// inserts a new account; ID and timestamps are filled in on a.
func (s *pgStore) CreateAccount(ctx context.Context, a *model.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Email = strings.ToLower(a.Email)
	query := `
	INSERT INTO accounts (id, kind, name, email, hashed_password, bus_number, phone, admin_id,
		student_number, major, is_active, is_deleted, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, FALSE, now(), now())
	RETURNING ` + accountColumns
	err := s.db.GetContext(ctx, a, query,
		a.ID, a.Kind, a.Name, a.Email, a.HashedPassword, a.BusNumber, a.Phone, a.AdminID,
		a.StudentNumber, a.Major)
	if err != nil {
		log.Error().Err(err).Str("email", a.Email).Msg("failed to create account")
		return mapError(err)
	}
	return nil
}

// fetches a live account by ID. Soft-deleted rows are reported as ErrNotFound.
func (s *pgStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := s.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (s *pgStore) GetAccountByEmail(ctx context.Context, email string, kind model.AccountKind) (*model.Account, error) {
	var a model.Account
	query := `SELECT ` + accountColumns + ` FROM accounts
	WHERE email = $1 AND NOT is_deleted AND ($2 = '' OR kind = $2)`
	err := s.db.GetContext(ctx, &a, query, strings.ToLower(email), string(kind))
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (s *pgStore) ListAccounts(ctx context.Context, kind model.AccountKind) ([]model.Account, error) {
	accounts := []model.Account{}
	query := `SELECT ` + accountColumns + ` FROM accounts
	WHERE NOT is_deleted AND ($1 = '' OR kind = $1)
	ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &accounts, query, string(kind)); err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

// writes every mutable column of a back and bumps updated_at.
func (s *pgStore) UpdateAccount(ctx context.Context, a *model.Account) error {
	a.Email = strings.ToLower(a.Email)
	query := `
	UPDATE accounts
	SET name = $2,
	email = $3,
	hashed_password = $4,
	bus_number = $5,
	phone = $6,
	student_number = $7,
	major = $8,
	is_active = $9,
	updated_at = now()
	WHERE id = $1 AND NOT is_deleted
	RETURNING updated_at;
	`
	var updated time.Time
	err := s.db.GetContext(ctx, &updated, query,
		a.ID, a.Name, a.Email, a.HashedPassword, a.BusNumber, a.Phone, a.StudentNumber, a.Major, a.IsActive)
	if err != nil {
		log.Error().Err(err).Str("account_id", a.ID.String()).Msg("failed to update account")
		return mapError(err)
	}
	a.UpdatedAt = updated
	return nil
}

func (s *pgStore) SoftDeleteAccount(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET is_deleted = TRUE,
		is_active = FALSE,
		deleted_at = now(),
		updated_at = now()
		WHERE id = $1 AND NOT is_deleted
		`, id)
	if err != nil {
		log.Error().Err(err).Str("account_id", id.String()).Msg("failed to soft delete account")
	}
	return expectOne(res, err)
}
