package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createAuditLogsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_audit_logs_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS audit_logs (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					admin_email VARCHAR(255) NOT NULL,
					action VARCHAR(50) NOT NULL,
					submission_id UUID,
					reference_id VARCHAR(64),
					details TEXT,
					ip_address VARCHAR(64),
					user_agent TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_audit_logs_admin_email ON audit_logs(admin_email);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_submission_id ON audit_logs(submission_id);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP TABLE IF EXISTS audit_logs;`).Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createAuditLogsTableMigration())
}
