package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createSubmissionsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_submissions_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS submissions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					reference_id VARCHAR(64) NOT NULL UNIQUE,
					first_name VARCHAR(100) NOT NULL,
					last_name VARCHAR(100) NOT NULL,
					phone_number VARCHAR(20) NOT NULL,
					email VARCHAR(255) NOT NULL UNIQUE,
					referred_by VARCHAR(100),
					receipt_image TEXT NOT NULL,
					receipt_mime_type VARCHAR(100) NOT NULL,
					receipt_original_name VARCHAR(255) NOT NULL,
					receipt_size BIGINT NOT NULL,
					amount BIGINT NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					reviewed_at TIMESTAMP WITH TIME ZONE,
					reviewed_by VARCHAR(255),
					rejection_reason TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
				CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP TABLE IF EXISTS submissions;`).Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createSubmissionsTableMigration())
}
