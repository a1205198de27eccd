// Package accounts holds the rules shared by every account kind: creation, sign-in,
// profile edits and soft deletion.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/auth"
	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/model"
)

var ErrInvalidInput = errors.New("invalid input")

// Both wrap db.ErrConflict.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrStudentNumberTaken = errors.New("student number already registered")
)

type CreateInput struct {
	Kind     model.AccountKind
	Name     string
	Email    string
	Password string

	BusNumber *int
	Phone     *string
	AdminID   *uuid.UUID

	StudentNumber *string
	Major         *string
}

// UpdateInput is a partial update; nil fields are left alone.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	IsActive *bool

	BusNumber *int
	Phone     *string

	StudentNumber *string
	Major         *string
}

type Service struct {
	store db.Store
}

func NewService(store db.Store) *Service {
	return &Service{store: store}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email %q is not valid", email)
	}
	return email, nil
}

func hashValidPassword(plain string) (string, error) {
	if err := auth.ValidatePassword(plain); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return auth.HashPassword(plain)
}

func validateKindFields(a *model.Account) error {
	switch a.Kind {
	case model.KindDriver:
		if a.BusNumber == nil || *a.BusNumber <= 0 {
			return invalid("drivers need a positive bus_number")
		}
		if a.Phone == nil || strings.TrimSpace(*a.Phone) == "" {
			return invalid("drivers need a phone number")
		}
	case model.KindStudent:
		if a.StudentNumber == nil || strings.TrimSpace(*a.StudentNumber) == "" {
			return invalid("students need a student_number")
		}
	}
	return nil
}

// Create validates and stores a new account. db.ErrConflict is returned when the email
// (or student number) is already registered.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Account, error) {
	if !in.Kind.Valid() {
		return nil, invalid("unknown account kind %q", in.Kind)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	hashed, err := hashValidPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Kind:           in.Kind,
		Name:           name,
		Email:          email,
		HashedPassword: hashed,
	}
	switch in.Kind {
	case model.KindDriver:
		account.BusNumber, account.Phone, account.AdminID = in.BusNumber, in.Phone, in.AdminID
	case model.KindStudent:
		account.StudentNumber, account.Major = in.StudentNumber, in.Major
	}
	if err := validateKindFields(account); err != nil {
		return nil, err
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, s.conflict(ctx, account)
		}
		log.Error().Err(err).Str("email", email).Str("kind", string(in.Kind)).Msg("could not create account")
		return nil, err
	}
	return account, nil
}

// conflict tells an email clash from a student number clash after the store refused a write.
func (s *Service) conflict(ctx context.Context, account *model.Account) error {
	existing, err := s.store.GetAccountByEmail(ctx, account.Email, "")
	if err == nil && existing.ID != account.ID {
		return fmt.Errorf("%w: %w", ErrEmailTaken, db.ErrConflict)
	}
	if account.StudentNumber != nil {
		return fmt.Errorf("%w: %w", ErrStudentNumberTaken, db.ErrConflict)
	}
	return fmt.Errorf("%w: %w", ErrEmailTaken, db.ErrConflict)
}

// Authenticate returns auth.ErrInvalidCredentials for an unknown email, a wrong password
// and a deactivated account alike. kind "" searches every kind.
func (s *Service) Authenticate(ctx context.Context, email, password string, kind model.AccountKind) (*model.Account, error) {
	account, err := s.store.GetAccountByEmail(ctx, strings.TrimSpace(email), kind)
	if errors.Is(err, db.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !account.CanSignIn() || !auth.CheckPassword(account.HashedPassword, password) {
		return nil, auth.ErrInvalidCredentials
	}
	return account, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, kind model.AccountKind) (*model.Account, error) {
	account, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != "" && account.Kind != kind {
		return nil, db.ErrNotFound
	}
	return account, nil
}

func (s *Service) List(ctx context.Context, kind model.AccountKind) ([]model.Account, error) {
	return s.store.ListAccounts(ctx, kind)
}

// Update applies the non-nil fields of in. kind "" skips the kind check.
func (s *Service) Update(ctx context.Context, id uuid.UUID, kind model.AccountKind, in UpdateInput) (*model.Account, error) {
	account, err := s.Get(ctx, id, kind)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name cannot be empty")
		}
		account.Name = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		account.Email = email
	}
	if in.Password != nil {
		hashed, err := hashValidPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		account.HashedPassword = hashed
	}
	if in.IsActive != nil {
		account.IsActive = *in.IsActive
	}
	switch account.Kind {
	case model.KindDriver:
		if in.BusNumber != nil {
			account.BusNumber = in.BusNumber
		}
		if in.Phone != nil {
			account.Phone = in.Phone
		}
	case model.KindStudent:
		if in.StudentNumber != nil {
			account.StudentNumber = in.StudentNumber
		}
		if in.Major != nil {
			account.Major = in.Major
		}
	}
	if err := validateKindFields(account); err != nil {
		return nil, err
	}

	if err := s.store.UpdateAccount(ctx, account); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, s.conflict(ctx, account)
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, kind model.AccountKind) error {
	if _, err := s.Get(ctx, id, kind); err != nil {
		return err
	}
	return s.store.SoftDeleteAccount(ctx, id)
}
