package models

import (
	"github.com/socioadmin/tesoreria_backend/config"
)

func MigrateDatabase() error {

	db := config.GetDB()
	err := db.AutoMigrate(
		&Member{},
		&Category{},
		&Retention{},
		&Payment{},
		&Collection{},
		&Due{},
		&LedgerEntry{},
		&AuditRecord{},
		&NotificationConfig{},
	)
	if err != nil {
		return err
	}
	logger := config.GetLogger()
	logger.Info("Database migration completed")
	return nil
}
