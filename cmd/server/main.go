package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"idhub/internal/alert"
	alerthandler "idhub/internal/alert/handler"
	alertmetrics "idhub/internal/alert/metrics"
	"idhub/internal/consolidation"
	conshandler "idhub/internal/consolidation/handler"
	consmetrics "idhub/internal/consolidation/metrics"
	"idhub/internal/consolidation/providers"
	"idhub/internal/jwtauth"
	"idhub/internal/platform/config"
	"idhub/internal/platform/httpserver"
	"idhub/internal/platform/logger"
	"idhub/internal/platform/metrics"
	platformredis "idhub/internal/platform/redis"
	httptransport "idhub/internal/transport/http"
	"idhub/internal/watchlist"
	wlhandler "idhub/internal/watchlist/handler"
	wlmetrics "idhub/internal/watchlist/metrics"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Alert store: Redis when configured, in-memory otherwise.
	var alertStore alert.Store = alert.NewMemoryStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		alertStore = alert.NewRedisStore(redisClient.Client)
		defer redisClient.Close()
	}

	// Alert mirror sink: only when brokers are configured.
	var sinks []alert.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := alert.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka sink unavailable", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	bus := alert.NewBus(alertStore, log, alertmetrics.New(), sinks...)

	// Watchlist store: Postgres when configured, in-memory otherwise.
	var watchlistStore watchlist.Store = watchlist.NewMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		watchlistStore = watchlist.NewPostgresStore(db)
	}
	watchlistService := watchlist.NewService(watchlistStore, bus, log, wlmetrics.New())

	consolidationService := consolidation.NewService(
		demoProviders(),
		consolidation.NewMemoryDecisionLog(),
		log,
		consmetrics.New(),
		consolidation.WithProviderTimeout(cfg.ProviderTimeout),
	)

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "idhub", "idhub-agencies")

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   metrics.New(),
		Validator: jwtService,
		Handlers: []httptransport.Registrant{
			conshandler.New(consolidationService, log),
			wlhandler.New(watchlistService, log),
			alerthandler.New(bus, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting idhub", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// demoProviders registers a fixture provider per registry. Deployments
// replace these with protocol adapters for the real registries.
func demoProviders() *providers.Set {
	set := providers.NewSet()
	fixtures := []struct {
		id       string
		registry providers.RegistryType
		records  []*providers.Record
	}{
		{"national-demo", providers.RegistryNational, []*providers.Record{{
			SubjectID: "NID-31337",
			Fields: map[string]string{
				providers.FieldFullName:    "John Doe",
				providers.FieldDateOfBirth: "1990-05-15",
				providers.FieldGender:      "male",
				providers.FieldNationalID:  "NID-31337",
			},
			Verified: true,
		}}},
		{"civil-demo", providers.RegistryCivil, []*providers.Record{{
			SubjectID: "CR-1001",
			Fields: map[string]string{
				providers.FieldFullName:       "John Doe",
				providers.FieldDateOfBirth:    "1990-05-15",
				providers.FieldGender:         "male",
				providers.FieldPlaceOfBirth:   "Capital City",
				providers.FieldDocumentNumber: "BC-778-21",
			},
			Verified: true,
		}}},
		{"immigration-demo", providers.RegistryImmigration, []*providers.Record{{
			SubjectID: "IM-2001",
			Fields: map[string]string{
				providers.FieldFullName:       "John Doe",
				providers.FieldDateOfBirth:    "1990-05-15",
				providers.FieldGender:         "male",
				providers.FieldDocumentNumber: "P-4491-X",
			},
			Verified: true,
		}}},
		{"vehicle-demo", providers.RegistryVehicle, []*providers.Record{{
			SubjectID: "DL-8813",
			Fields: map[string]string{
				providers.FieldFullName:       "John Doe",
				providers.FieldDateOfBirth:    "1990-05-15",
				providers.FieldDocumentNumber: "DL-8813",
			},
			Verified: true,
		}}},
		{"elections-demo", providers.RegistryElections, []*providers.Record{{
			SubjectID: "VC-5520",
			Fields: map[string]string{
				providers.FieldFullName:       "John Doe",
				providers.FieldDateOfBirth:    "1990-05-15",
				providers.FieldDocumentNumber: "VC-5520",
			},
			Verified: true,
		}}},
		{"police-demo", providers.RegistryPolice, nil},
	}
	for _, f := range fixtures {
		// Register only fails on duplicate registries; the list above is unique.
		_ = set.Register(providers.NewStaticProvider(f.id, f.registry, f.records))
	}
	return set
}
