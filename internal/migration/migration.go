// Package migration applies the database schema. Postgres runs the
// embedded SQL migrations; the other dialects fall back to AutoMigrate,
// which keeps the sqlite test setup and the dev loop schema-free.
package migration

import (
	"embed"
	"errors"

	auditdomain "github.com/billfold/billfold/internal/audit/domain"
	authdomain "github.com/billfold/billfold/internal/auth/domain"
	authordomain "github.com/billfold/billfold/internal/author/domain"
	carddomain "github.com/billfold/billfold/internal/card/domain"
	categorydomain "github.com/billfold/billfold/internal/category/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	subscriptiondomain "github.com/billfold/billfold/internal/subscription/domain"
	"github.com/billfold/billfold/pkg/db"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var migrationFS embed.FS

func Run(gormDB *gorm.DB, cfg db.Config, log *zap.Logger) error {
	log = log.Named("migration")

	if cfg.Type != "postgres" {
		log.Info("auto-migrating schema", zap.String("dialect", cfg.Type))
		return gormDB.AutoMigrate(models()...)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationFS, "sql")
	if err != nil {
		return err
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Info("schema up to date", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func models() []any {
	return []any{
		&authdomain.User{},
		&authdomain.Session{},
		&authordomain.Author{},
		&categorydomain.Category{},
		&carddomain.Card{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.ItemAssignment{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.SubscriptionAssignment{},
		&auditdomain.AuditLog{},
	}
}
