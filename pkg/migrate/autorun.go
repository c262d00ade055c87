package migrate

import (
	"context"
	"fmt"

	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/db"
	"github.com/zycart/zycart-backend/pkg/logger"
)

// MaybeRunDev prepares the schema automatically when the app is running in dev
// mode and the feature flag is enabled. Sqlite connections always receive the
// bundled schema since goose migrations target postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client.IsSQLite() {
		logg.Info(ctx, "applying sqlite schema")
		if err := db.ApplySQLiteSchema(ctx, client.DB()); err != nil {
			return fmt.Errorf("applying sqlite schema: %w", err)
		}
		return nil
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	migrator, err := NewMigrator(sqlDB, Migrations(), logg)
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "running dev migrations")
	if err := migrator.Up(ctx); err != nil {
		return err
	}
	logg.Info(ctx, "dev migrations completed")
	return nil
}
