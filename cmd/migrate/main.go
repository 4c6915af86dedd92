// Command migrate manages the database schema from the command line:
//
//	migrate up       apply all pending migrations
//	migrate down     roll back the most recent migration
//	migrate version  print the current schema version
//
// It uses the same DB_DSN and db/migrations/ directory as the service, for
// development and emergency rollback; the service applies migrations itself
// at boot.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/onnwee/chatstock/db"
)

func main() {
	_ = godotenv.Load(".env")

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate up|down|version")
		os.Exit(2)
	}

	database, err := db.Connect()
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer database.Close() //nolint:errcheck

	switch os.Args[1] {
	case "up":
		if err := db.RunMigrations(database); err != nil {
			slog.Error("migrate up failed", slog.Any("err", err))
			os.Exit(1)
		}
	case "down":
		if err := db.MigrateDown(database); err != nil {
			slog.Error("migrate down failed", slog.Any("err", err))
			os.Exit(1)
		}
	case "version":
		version, dirty, err := db.GetMigrationVersion(database)
		if err != nil {
			slog.Error("could not read migration version", slog.Any("err", err))
			os.Exit(1)
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
	default:
		fmt.Fprintln(os.Stderr, "usage: migrate up|down|version")
		os.Exit(2)
	}
}
