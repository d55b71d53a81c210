package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/orcamentox/orcamentox/internal/repository"
	"gorm.io/gorm"
)

func createProposalsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_proposals",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ProposalModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_proposals_request_created ON proposals (request_id, created_at)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return execAll(tx, []string{
				`DROP INDEX IF EXISTS idx_proposals_request_created`,
				`DROP TABLE IF EXISTS proposals`,
			})
		},
	}
}
