package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/orcamentox/orcamentox/internal/repository"
	"gorm.io/gorm"
)

func createProvidersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_providers",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ProviderModel{}); err != nil {
				return err
			}
			// Matches the matcher predicate exactly.
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_providers_match ON providers (category_slug, state, city) WHERE active = TRUE`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ProviderModel{})
		},
	}
}
