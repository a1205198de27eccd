package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/model"
)

type roleRow struct {
	ID          uuid.UUID      `db:"id"`
	Name        string         `db:"name"`
	Alias       string         `db:"alias"`
	Permissions pq.StringArray `db:"permissions"`
}

func (r roleRow) toModel() model.Role {
	perms := []string(r.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return model.Role{ID: r.ID, Name: r.Name, Alias: r.Alias, Permissions: perms}
}

const roleSelect = `
	SELECT r.id, r.name, r.alias,
		COALESCE(array_agg(rp.permission_slug ORDER BY rp.permission_slug)
			FILTER (WHERE rp.permission_slug IS NOT NULL), '{}') AS permissions
	FROM roles r
	LEFT JOIN role_permissions rp ON rp.role_id = r.id
`

func (s *pgStore) ListRoles(ctx context.Context) ([]model.Role, error) {
	var rows []roleRow
	if err := s.db.SelectContext(ctx, &rows, roleSelect+` GROUP BY r.id ORDER BY r.name`); err != nil {
		log.Error().Err(err).Msg("failed to list roles")
		return nil, err
	}
	roles := make([]model.Role, 0, len(rows))
	for _, r := range rows {
		roles = append(roles, r.toModel())
	}
	return roles, nil
}

func (s *pgStore) GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var row roleRow
	if err := s.db.GetContext(ctx, &row, roleSelect+` WHERE r.id = $1 GROUP BY r.id`, id); err != nil {
		return nil, mapError(err)
	}
	role := row.toModel()
	return &role, nil
}

func (s *pgStore) AssignRole(ctx context.Context, accountID, roleID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_roles (account_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		`, accountID, roleID)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID.String()).Str("role_id", roleID.String()).
			Msg("failed to assign role")
	}
	return mapError(err)
}

func (s *pgStore) UnassignRole(ctx context.Context, accountID, roleID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM account_roles WHERE account_id = $1 AND role_id = $2`, accountID, roleID)
	return expectOne(res, err)
}

// every distinct permission slug granted to the account through its roles.
func (s *pgStore) ListAccountPermissions(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	perms := []string{}
	err := s.db.SelectContext(ctx, &perms, `
		SELECT DISTINCT rp.permission_slug
		FROM account_roles ar
		JOIN role_permissions rp ON rp.role_id = ar.role_id
		WHERE ar.account_id = $1
		ORDER BY rp.permission_slug
		`, accountID)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID.String()).Msg("failed to list permissions")
		return nil, err
	}
	return perms, nil
}
