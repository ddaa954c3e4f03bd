package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"turfbook/internal/config"
	"turfbook/internal/database/migrations"
	"turfbook/internal/logger"
)

// Migration CLI for environments where the service runs with AutoMigrate
// disabled. Commands: up, down, to <version>, schema (schema-only, no seed
// data).
func main() {
	var (
		dir     = flag.String("dir", "./migrations", "directory containing migration files")
		version = flag.Uint("version", 0, "target version for the 'to' command")
	)
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	command := flag.Arg(0)
	if command == "" {
		fmt.Fprintln(os.Stderr, "usage: migrate [-dir path] [-version n] up|down|to|schema")
		os.Exit(2)
	}

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	opts := migrations.DefaultOptions()
	opts.MigrationsDir = *dir

	switch command {
	case "schema":
		opts.SeedData = false
	}

	runner := migrations.NewRunner(bunDB, opts, log)
	if err := runner.Initialize(); err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to initialize migrator: %v", err))
	}

	switch command {
	case "up", "schema":
		err = runner.RunMigrations()
	case "down":
		err = runner.MigrateDown()
	case "to":
		err = runner.MigrateTo(*version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Migration failed: %v", err))
	}
	log.Info("MIGRATE", fmt.Sprintf("Command %q completed successfully", command))
}
