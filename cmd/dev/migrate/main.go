package main

import (
	"context"
	"fmt"
	"os"

	"tourvisto/pkg/config"
	"tourvisto/pkg/db"
)

func main() {
	cfg := config.Load()
	if !cfg.HasDatabase() {
		fmt.Fprintln(os.Stderr, "migrate: set DATABASE_URL or DB_HOST")
		os.Exit(1)
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "file://migrations"
	}

	// Uses DIRECT_URL when set, bypassing the pooler.
	if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	pool, err := db.Open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime db open failed: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var n int
	if err := pool.QueryRow(context.Background(), `SELECT count(*) FROM trip_attempts`).Scan(&n); err != nil {
		fmt.Fprintf(os.Stderr, "trip_attempts check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("migrations applied (%d trip attempts)\n", n)
}
