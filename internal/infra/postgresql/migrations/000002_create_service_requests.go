package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/orcamentox/orcamentox/internal/repository"
	"gorm.io/gorm"
)

func createServiceRequestsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_service_requests",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ServiceRequestModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_service_requests_client_id ON service_requests (client_id, created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_service_requests_client_email ON service_requests (client_email, created_at)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ServiceRequestModel{})
		},
	}
}
