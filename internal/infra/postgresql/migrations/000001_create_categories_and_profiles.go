package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/orcamentox/orcamentox/internal/repository"
	"gorm.io/gorm"
)

func createCategoriesAndProfilesTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_categories_and_profiles",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.CategoryModel{}, &repository.ProfileModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ProfileModel{}, &repository.CategoryModel{})
		},
	}
}
