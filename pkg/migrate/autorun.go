package migrate

import (
	"context"
	"fmt"

	"github.com/gosbiromania/storefront-backend/pkg/config"
	"github.com/gosbiromania/storefront-backend/pkg/db"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
)

// AutoApplyEnabled reports whether the api should migrate on boot: always for
// the embedded sqlite backend, otherwise only in dev with the flag set.
func AutoApplyEnabled(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}
	if cfg.FeatureFlags.UseSQLite {
		return true
	}
	return cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// AutoApply runs the bundled migrations on boot when AutoApplyEnabled allows.
func AutoApply(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !AutoApplyEnabled(cfg) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "driver", client.Driver())
	applied, err := Up(ctx, sqlDB, client.Driver())
	if err != nil {
		logg.Error(ctx, "migrate.auto_apply_failed", err)
		return err
	}

	ctx = logg.WithField(ctx, "applied", applied)
	if len(applied) == 0 {
		logg.Debug(ctx, "migrate.schema_current")
		return nil
	}
	logg.Info(ctx, "migrate.auto_applied")
	return nil
}
