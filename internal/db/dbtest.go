package db

import (
	"context"
	"errors"
	"os"
)

// InitTestDB connects to TEST_DATABASE_URL and applies migrations.
func InitTestDB(ctx context.Context, migrationsPath string) (Store, error) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("TEST_DATABASE_URL environment variable is not set")
	}

	conn, err := Init(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, conn, migrationsPath); err != nil {
		return nil, err
	}

	return NewStore(conn), nil
}
