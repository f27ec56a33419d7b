package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	billdomain "github.com/pesantrenhub/sppbill/internal/bill/domain"
	"github.com/pesantrenhub/sppbill/internal/config"
	feesettingsdomain "github.com/pesantrenhub/sppbill/internal/feesettings/domain"
	generationdomain "github.com/pesantrenhub/sppbill/internal/generation/domain"
	studentdomain "github.com/pesantrenhub/sppbill/internal/student/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Module applies the schema on startup so a fresh install is usable
// without any manual database setup.
var Module = fx.Module("migration",
	fx.Invoke(Run),
)

func Run(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
	if !cfg.RunMigrations {
		return nil
	}

	if cfg.DBType == "postgres" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	}

	// Non-postgres targets (sqlite for local runs, mysql) fall back to
	// gorm's schema sync.
	if err := AutoMigrate(gdb); err != nil {
		return err
	}
	log.Info("schema synced", zap.String("dialect", cfg.DBType))
	return nil
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate syncs every persisted model. Tests use it directly.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&studentdomain.Student{},
		&feesettingsdomain.FeeSettings{},
		&billdomain.Bill{},
		&generationdomain.GenerationRecord{},
	)
}
