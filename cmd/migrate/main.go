package main

import (
	"fmt"
	"os"

	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/models"
)

// Runs AutoMigrate as a standalone job, for deployments that start the
// server with SKIP_MIGRATIONS=true.
func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	if err := models.MigrateDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("migration completed")
}
