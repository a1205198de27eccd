package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/config"
	"github.com/aau-transit/bustrack/internal/storage"
)

// InitStorage selects the route map storage backend.
func InitStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.UseSpaces {
		spaces, err := storage.NewSpacesStorage(
			cfg.SpacesEndpoint,
			cfg.SpacesRegion,
			cfg.SpacesBucket,
			cfg.SpacesCDNURL,
			cfg.SpacesAccessKey,
			cfg.SpacesSecretKey,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Spaces storage: %w", err)
		}
		log.Info().Str("cdn", cfg.SpacesCDNURL).Msg("using DigitalOcean Spaces storage")
		return spaces, nil
	}

	log.Info().Str("dir", cfg.UploadDir).Msg("using local file storage")
	return storage.NewLocalStorage(cfg.UploadDir), nil
}
