/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the fiscal calendar server. Handles configuration,
  row source selection, the first calendar load, periodic refresh and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store (sources, rows, load runs)
  3. Pick the row backend (sqlite, s3 or postgres)
  4. Seed a sample calendar if requested
  5. Load the calendar once (a failure is logged, the server still starts)
  6. Start the refresh scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port        HTTP server port (default: 8080)
  -db          SQLite database path (default: fiscal.db)
               Use ":memory:" for in-memory database
  -rows        Row backend: sqlite, s3 or postgres (default: sqlite)
  -source      Pin a source id and skip discovery
  -refresh     Reload interval, 0 disables (default: 1h)
  -from-year   First fiscal year to build (default: all)
  -to-year     Last fiscal year to build (default: all)
  -seed        Load a sample calendar at startup (sqlite backend only)
  -session-idle  Drop selection sessions unused this long, 0 keeps them (default: 2h)

  S3 backend:
  -s3-bucket, -s3-prefix, -aws-profile, -aws-region

  Postgres backend:
  -pg-dsn      Connection string, or IAM auth with
  -pg-host, -pg-port, -pg-user, -pg-db, -aws-profile, -aws-region

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the refresh scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connections

EXAMPLES:
  # Demo with a generated retail calendar
  ./server -db=":memory:" -seed=retail-445

  # Calendar files in S3, refreshed every 15 minutes
  ./server -rows=s3 -s3-bucket=finance-data -s3-prefix=calendars/ -refresh=15m

  # Warehouse table over RDS IAM auth
  ./server -rows=postgres -pg-host=db.internal -pg-user=reporting -pg-db=finance -aws-region=us-east-1

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Periodic refresh
  - source/discovery.go: Source discovery
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/fiscal-calendar/api"
	"github.com/warp/fiscal-calendar/source"
	"github.com/warp/fiscal-calendar/store/postgres"
	"github.com/warp/fiscal-calendar/store/s3source"
	"github.com/warp/fiscal-calendar/store/sqlite"
)

type options struct {
	rows       string
	s3Bucket   string
	s3Prefix   string
	awsProfile string
	awsRegion  string
	pgDSN      string
	pgIAM      postgres.IAMConfig
}

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "fiscal.db", "SQLite database path")
	override := flag.String("source", "", "Source id to load (skips discovery)")
	refresh := flag.Duration("refresh", time.Hour, "Calendar reload interval, 0 disables")
	fromYear := flag.Int("from-year", 0, "First fiscal year to build")
	toYear := flag.Int("to-year", 0, "Last fiscal year to build")
	seed := flag.String("seed", "", "Sample calendar to load at startup (e.g. retail-445)")
	sessionIdle := flag.Duration("session-idle", api.DefaultSessionIdle, "Drop selection sessions unused this long, 0 keeps them")

	var opts options
	flag.StringVar(&opts.rows, "rows", "sqlite", "Row backend: sqlite, s3 or postgres")
	flag.StringVar(&opts.s3Bucket, "s3-bucket", "", "S3 bucket holding calendar files")
	flag.StringVar(&opts.s3Prefix, "s3-prefix", "", "Key prefix of calendar files")
	flag.StringVar(&opts.awsProfile, "aws-profile", "", "AWS shared config profile")
	flag.StringVar(&opts.awsRegion, "aws-region", "", "AWS region")
	flag.StringVar(&opts.pgDSN, "pg-dsn", "", "Postgres connection string")
	flag.StringVar(&opts.pgIAM.Endpoint, "pg-host", "", "Postgres host for IAM auth")
	flag.IntVar(&opts.pgIAM.Port, "pg-port", 5432, "Postgres port for IAM auth")
	flag.StringVar(&opts.pgIAM.User, "pg-user", "", "Postgres user for IAM auth")
	flag.StringVar(&opts.pgIAM.DBName, "pg-db", "", "Postgres database for IAM auth")
	flag.Parse()

	ctx := context.Background()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Row backend
	rows, closeRows, err := openRows(ctx, opts, store)
	if err != nil {
		log.Fatalf("Failed to open %s row source: %v", opts.rows, err)
	}
	defer closeRows.Close()

	discovery := source.NewDiscovery(rows, source.Config{Override: *override})
	loader := source.NewLoader(discovery, rows)
	loader.FromYear, loader.ToYear = *fromYear, *toYear

	// Initialize handler
	handler := api.NewHandler(store, loader)
	handler.Sessions.IdleTimeout = *sessionIdle

	// First load
	if *seed != "" {
		if opts.rows != "sqlite" {
			log.Fatalf("-seed needs the sqlite row backend, got %s", opts.rows)
		}
		if _, err := handler.Seed(ctx, *seed); err != nil {
			log.Fatalf("Failed to seed %s: %v", *seed, err)
		}
	} else if _, err := handler.Reload(ctx, false); err != nil {
		log.Printf("Warning: Failed to load fiscal calendar: %v", err)
	}

	// Periodic refresh
	scheduler := api.NewRefreshScheduler(handler)
	scheduler.Interval = *refresh
	scheduler.Start()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// openRows returns the catalog and row source calendars are loaded from.
func openRows(ctx context.Context, opts options, store *sqlite.Store) (source.Backend, io.Closer, error) {
	switch opts.rows {
	case "sqlite":
		return store, io.NopCloser(nil), nil

	case "s3":
		src, err := s3source.NewFromConfig(ctx, s3source.Config{
			Profile: opts.awsProfile,
			Region:  opts.awsRegion,
			Bucket:  opts.s3Bucket,
			Prefix:  opts.s3Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, io.NopCloser(nil), nil

	case "postgres":
		dsn := opts.pgDSN
		if dsn == "" {
			iam := opts.pgIAM
			iam.Profile, iam.Region = opts.awsProfile, opts.awsRegion
			var err error
			if dsn, err = iam.DSN(ctx); err != nil {
				return nil, nil, err
			}
		}
		db, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(db), db, nil
	}
	return nil, nil, fmt.Errorf("unknown row backend %q", opts.rows)
}
