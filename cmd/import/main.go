// Command import loads a device XLSX export into the PostgreSQL punch tables.
//
//	import -file punches.xlsx
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/config"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-ledger-go/internal/service/attendance"
)

func main() {
	path := flag.String("file", "", "XLSX device export to import")
	flag.Parse()
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Error loading timezone: ", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	rows, err := spreadsheet.NewFileSource(*path).FetchRows(ctx)
	if err != nil {
		log.Fatal("Error reading punches: ", err)
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolSize{MaxConns: 2})
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	withTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return postgresql.WithTransaction(ctx, db, fn)
	}
	importer := attendanceService.NewImporter(postgresql.NewPunchRepository(db), withTx, loc)

	result, err := importer.Import(ctx, rows)
	if err != nil {
		log.Fatal("Import failed: ", err)
	}
	slog.Info("Import finished", "employees", result.Employees, "punches", result.Punches, "skipped_bad_dates", result.SkippedBadDates)
}
