package model

import "github.com/google/uuid"

type Role struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Alias       string    `db:"alias"`
	Permissions []string  `db:"-"`
}

// permission slugs checked by the admin API
const (
	PermRoutesWrite   = "routes:write"
	PermBusesWrite    = "buses:write"
	PermTripsWrite    = "trips:write"
	PermDriversWrite  = "drivers:write"
	PermStudentsRead  = "students:read"
	PermStudentsWrite = "students:write"
	PermAdminsWrite   = "admins:write"
	PermRolesWrite    = "roles:write"
)

// DefaultRoles mirrors the rows seeded by migrations/002_roles.up.sql.
var DefaultRoles = []Role{
	{
		ID:    uuid.MustParse("8a1d6a4e-3f0b-4c36-9a55-2f3c1c0b7e01"),
		Name:  "super_admin",
		Alias: "Super Admin",
		Permissions: []string{
			PermRoutesWrite, PermBusesWrite, PermTripsWrite, PermDriversWrite,
			PermStudentsRead, PermStudentsWrite, PermAdminsWrite, PermRolesWrite,
		},
	},
	{
		ID:    uuid.MustParse("8a1d6a4e-3f0b-4c36-9a55-2f3c1c0b7e02"),
		Name:  "fleet_manager",
		Alias: "Fleet Manager",
		Permissions: []string{
			PermRoutesWrite, PermBusesWrite, PermTripsWrite, PermDriversWrite, PermStudentsRead,
		},
	},
	{
		ID:          uuid.MustParse("8a1d6a4e-3f0b-4c36-9a55-2f3c1c0b7e03"),
		Name:        "viewer",
		Alias:       "Viewer",
		Permissions: []string{PermStudentsRead},
	},
}
