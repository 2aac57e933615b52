package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/config"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/attendance-ledger-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/airtable"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-ledger-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-ledger-go/internal/service/attendance"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	level := parseLogLevel(cfg.App.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Error loading timezone: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := newPunchSource(ctx, cfg)
	if err != nil {
		log.Fatal("Error initializing punch source: ", err)
	}
	defer closeSource()

	hub := sse.NewHub()
	ledgerService := attendanceService.NewLedgerService(source, hub, loc)

	// Warm the cache; a failing source is reported per request afterwards
	if _, err := ledgerService.Refresh(ctx); err != nil {
		slog.Error("Initial punch refresh failed", "error", err)
	}

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(ledgerService, cfg.Punch.RefreshInterval).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(ledgerService)
	eventsHandler := appHTTP.NewEventsHandler(hub)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		Env:            cfg.App.Env,
		Version:        version,
		LogLevel:       level,
	}, attendanceHandler, eventsHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.App.Port, "source", cfg.Punch.Source, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

// newPunchSource builds the configured PunchSource and a func releasing its resources.
func newPunchSource(ctx context.Context, cfg *config.Config) (attendance.PunchSource, func(), error) {
	switch cfg.Punch.Source {
	case config.SourceAirtable:
		client := airtable.NewClient(cfg.Airtable.BaseID, cfg.Airtable.Token)
		client.BaseURL = cfg.Airtable.BaseURL
		return airtable.NewSource(client, cfg.Airtable.EmployeesTable, cfg.Airtable.AttendanceTable), func() {}, nil

	case config.SourcePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolSize{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return postgresql.NewPunchRepository(db), db.Close, nil

	case config.SourceXLSX:
		return spreadsheet.NewFileSource(cfg.Punch.XLSXPath), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported punch source %q", cfg.Punch.Source)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
