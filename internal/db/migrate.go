package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/platewise/platewise-backend/internal/models"
	internalsettings "github.com/platewise/platewise-backend/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ddl defines an index or DDL statement to apply.
type ddl struct {
	name string // Human-readable name for error reporting.
	sql  string // SQL to execute.
}

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migratePostgres applies PostgreSQL schema and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := autoMigrate(conn); errAutoMigrate != nil {
		return errAutoMigrate
	}
	if errSeed := ensureDefaultPlans(conn); errSeed != nil {
		return errSeed
	}
	return applyDDL(conn, append(commonIndexes(),
		ddl{
			name: "idx_meals_user_id_favorite",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_meals_user_id_favorite
				ON meals (user_id, ((attributes->>'isFavorite')))
			`,
		},
		ddl{
			name: "idx_meals_ingredients_gin",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_meals_ingredients_gin
				ON meals USING GIN (ingredients)
			`,
		},
	))
}

// migrateSQLite applies SQLite schema and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := autoMigrate(conn); errAutoMigrate != nil {
		return errAutoMigrate
	}
	if errSeed := ensureDefaultPlans(conn); errSeed != nil {
		return errSeed
	}
	return applyDDL(conn, commonIndexes())
}

func autoMigrate(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.Plan{},
		&models.User{},
		&models.Meal{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}

func commonIndexes() []ddl {
	return []ddl{
		{
			name: "idx_meals_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_meals_user_id_created_at
				ON meals (user_id, created_at)
			`,
		},
		{
			name: "idx_meals_user_id_upload_time",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_meals_user_id_upload_time
				ON meals (user_id, upload_time DESC)
			`,
		},
		{
			name: "idx_plans_is_enabled_sort_order",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_plans_is_enabled_sort_order
				ON plans (is_enabled, sort_order)
			`,
		},
	}
}

func applyDDL(conn *gorm.DB, ddls []ddl) error {
	for _, stmt := range ddls {
		if errExec := conn.Exec(stmt.sql).Error; errExec != nil {
			return fmt.Errorf("db: create %s: %w", stmt.name, errExec)
		}
	}
	return nil
}

// DefaultPlans returns the built-in tier table seeded on first migration.
func DefaultPlans() []models.Plan {
	return []models.Plan{
		{
			Tier:            internalsettings.PlanTierFree,
			Name:            "Free",
			Description:     "Log meals and try photo analysis.",
			Features:        datatypes.NewJSONSlice([]string{"Meal logging", "Weekly statistics"}),
			DailyAIRequests: internalsettings.FreeDailyAIRequests,
			RateLimit:       1,
			SortOrder:       0,
			IsEnabled:       true,
		},
		{
			Tier:            internalsettings.PlanTierBasic,
			Name:            "Basic",
			Description:     "Daily photo analysis for regular tracking.",
			Features:        datatypes.NewJSONSlice([]string{"Meal logging", "Monthly statistics", "Photo storage"}),
			DailyAIRequests: internalsettings.BasicDailyAIRequests,
			RateLimit:       2,
			SortOrder:       1,
			IsEnabled:       true,
		},
		{
			Tier:            internalsettings.PlanTierPremium,
			Name:            "Premium",
			Description:     "High volume analysis with corrections.",
			Features:        datatypes.NewJSONSlice([]string{"Meal logging", "Custom range statistics", "Photo storage", "Priority analysis"}),
			DailyAIRequests: internalsettings.PremiumDailyAIRequests,
			RateLimit:       5,
			SortOrder:       2,
			IsEnabled:       true,
		},
	}
}

// ensureDefaultPlans inserts missing tier rows without touching edited ones.
func ensureDefaultPlans(conn *gorm.DB) error {
	for _, plan := range DefaultPlans() {
		var existing models.Plan
		errFind := conn.Where("tier = ?", plan.Tier).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: query %s plan: %w", plan.Tier, errFind)
		}
		now := time.Now().UTC()
		plan.CreatedAt = now
		plan.UpdatedAt = now
		if errCreate := conn.Create(&plan).Error; errCreate != nil {
			return fmt.Errorf("db: seed %s plan: %w", plan.Tier, errCreate)
		}
	}
	return nil
}
