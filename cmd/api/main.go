package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"oceanos.org/internal/auth"
	"oceanos.org/internal/catalog"
	"oceanos.org/internal/httpapi"
	"oceanos.org/internal/obs"
	"oceanos.org/internal/observations"
	"oceanos.org/internal/stream"
	"oceanos.org/internal/submissions"
	"oceanos.org/internal/telemetry"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	addr := envOr("OCEANOS_ADDR", ":8080")
	grpcAddr := envOr("OCEANOS_GRPC_ADDR", ":9091")

	accessSecret := os.Getenv("OCEANOS_ACCESS_SECRET")
	refreshSecret := os.Getenv("OCEANOS_REFRESH_SECRET")
	if accessSecret == "" || refreshSecret == "" {
		obs.Warnf("using insecure development token secrets; set OCEANOS_ACCESS_SECRET and OCEANOS_REFRESH_SECRET")
		accessSecret = "dev-access-secret"
		refreshSecret = "dev-refresh-secret"
	}
	tokens, err := auth.NewTokenService(accessSecret, refreshSecret)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	// Database connection, only so /readyz can ping it when configured.
	var db *sql.DB
	if dsn := os.Getenv("OCEANOS_PG_DSN"); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	dir := auth.NewDirectory()
	if err := auth.SeedDemo(dir); err != nil {
		log.Fatalf("seed accounts: %v", err)
	}
	authSvc := auth.NewService(tokens, dir)

	subStore := submissions.NewStore()
	seedSubmissions(subStore, dir)
	subSvc := submissions.NewService(subStore)

	species := catalog.NewRegistry()
	if gov, err := dir.FindByEmail("government@example.com"); err == nil {
		species.SeedDemo(gov.ID)
	}
	obsStore := observations.NewStore()
	obsStore.SeedDemo(time.Now().UTC())
	sensors := telemetry.NewRegistry()
	sensors.SeedDemo()

	liveStream := stream.New()
	stopDemo := liveStream.StartDemo(5 * time.Second)
	defer stopDemo()

	readyProbe := httpapi.ReadyProbe{DB: db}
	api := httpapi.New(httpapi.Config{
		Auth:         authSvc,
		Directory:    dir,
		Submissions:  subSvc,
		Species:      species,
		Observations: obsStore,
		Sensors:      sensors,
		Stream:       liveStream,
		ReadyProbe:   readyProbe,
		Version:      version,
		CORSOrigins:  splitOrigins(os.Getenv("OCEANOS_CORS_ORIGINS")),
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcSrv, stopHealth := httpapi.NewGRPCServer(readyProbe)
	defer stopHealth()

	log.Printf("Starting oceanos-api %s on %s (grpc %s)", version, addr, grpcAddr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	go func() {
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		if err := grpcSrv.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	grpcSrv.GracefulStop()
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

// seedSubmissions preloads a small review queue so the demo accounts
// have something to look at.
func seedSubmissions(store *submissions.Store, dir *auth.Directory) {
	researcher, err := dir.FindByEmail("researcher@university.edu")
	if err != nil {
		return
	}
	gov, err := dir.FindByEmail("government@example.com")
	if err != nil {
		return
	}

	now := time.Now().UTC()
	reviewedAt := now.Add(-20 * time.Hour)
	store.Load(submissions.Submission{
		ID:          "sub_demo_1",
		Title:       "Arabian Sea tuna aggregation survey",
		Description: "Vessel transect counts, March window",
		DataType:    submissions.DataTypeObservation,
		SubmittedBy: researcher.ID,
		SubmittedAt: now.Add(-48 * time.Hour),
		Status:      submissions.StatusApproved,
		ReviewedBy:  gov.ID,
		ReviewedAt:  &reviewedAt,
		ReviewNotes: "validated against vessel logs",
		Data:        map[string]any{"transects": 22, "region": "arabian_sea"},
	})
	store.Load(submissions.Submission{
		ID:          "sub_demo_2",
		Title:       "Kochi buoy temperature series",
		DataType:    submissions.DataTypeSensor,
		SubmittedBy: researcher.ID,
		SubmittedAt: now.Add(-3 * time.Hour),
		Status:      submissions.StatusPending,
		Data:        map[string]any{"sensorId": "s_2"},
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
