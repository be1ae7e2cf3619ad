// Database migration CLI tool
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/ajitpratap0/clinicalnlp/internal/db"
)

func main() {
	// Parse command line flags
	command := flag.String("command", "migrate", "Command to run: migrate or status")
	dbURL := flag.String("db", os.Getenv("CLINICALNLP_DATABASE_URL"), "Database connection URL")
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")
	flag.Parse()

	if *dbURL == "" {
		fmt.Fprintln(os.Stderr, "Database URL is required: pass -db or set CLINICALNLP_DATABASE_URL")
		os.Exit(1)
	}

	// Connect to database
	database, err := sql.Open("postgres", *dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close database connection: %v\n", err)
		}
	}()

	ctx := context.Background()

	// Test connection
	if err := database.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ping database: %v\n", err)
		os.Exit(1)
	}

	migrator := db.NewMigrator(database, os.DirFS(*migrationsDir))

	// Execute command
	switch *command {
	case "migrate":
		if err := migrator.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status check failed: %v\n", err)
			os.Exit(1)
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%03d  %-8s  %s\n", s.Version, state, s.Description)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		fmt.Fprintf(os.Stderr, "Usage: migrate -command=[migrate|status]\n")
		os.Exit(1)
	}
}
