package model

import (
	"time"

	"github.com/google/uuid"
)

type AccountKind string

const (
	KindAdmin   AccountKind = "admin"
	KindDriver  AccountKind = "driver"
	KindStudent AccountKind = "student"
)

func (k AccountKind) Valid() bool {
	switch k {
	case KindAdmin, KindDriver, KindStudent:
		return true
	}
	return false
}

// Account is anyone who can sign in: admins, bus drivers and students share one table.
// Driver and student specific columns are nil for the other kinds.
type Account struct {
	ID             uuid.UUID   `db:"id"`
	Kind           AccountKind `db:"kind"`
	Name           string      `db:"name"`
	Email          string      `db:"email"`
	HashedPassword string      `db:"hashed_password"`

	// drivers
	BusNumber *int       `db:"bus_number"`
	Phone     *string    `db:"phone"`
	AdminID   *uuid.UUID `db:"admin_id"`

	// students
	StudentNumber *string `db:"student_number"`
	Major         *string `db:"major"`

	IsActive  bool       `db:"is_active"`
	IsDeleted bool       `db:"is_deleted"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// CanSignIn reports whether the account may authenticate.
func (a *Account) CanSignIn() bool {
	return a.IsActive && !a.IsDeleted
}
