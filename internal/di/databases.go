package di

import (
	"fmt"

	"github.com/aristath/rfqdesk/internal/config"
	"github.com/aristath/rfqdesk/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens procurement.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	// The allocation audit trail lives here, so it gets the ledger profile
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "procurement",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize procurement database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate procurement database: %w", err)
	}

	log.Info().
		Str("path", db.Path()).
		Str("profile", string(db.Profile())).
		Msg("Database initialized")

	return &Container{DB: db}, nil
}
