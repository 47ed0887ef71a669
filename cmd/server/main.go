// credentry is the credential-lifecycle and authorization engine behind the
// qualification, hospital-privilege, and insurance-panel registries. main
// wires stores, services, and the HTTP surface; all business logic lives in
// the internal services.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	adminhandler "credentry/internal/admin/handler"
	adminservice "credentry/internal/admin/service"
	adminstore "credentry/internal/admin/store"
	authorityhandler "credentry/internal/authority/handler"
	authorityservice "credentry/internal/authority/service"
	authoritystore "credentry/internal/authority/store"
	"credentry/internal/ledger"
	"credentry/internal/platform/config"
	"credentry/internal/platform/httpserver"
	"credentry/internal/platform/logger"
	"credentry/internal/platform/metrics"
	platformredis "credentry/internal/platform/redis"
	registryhandler "credentry/internal/registry/handler"
	"credentry/internal/registry/models"
	registryservice "credentry/internal/registry/service"
	registrystore "credentry/internal/registry/store"
	"credentry/internal/storage"
	httptransport "credentry/internal/transport/http"
	"credentry/pkg/domain"
	"credentry/pkg/platform/audit"
	auditkafka "credentry/pkg/platform/audit/kafka"
	authmw "credentry/pkg/platform/middleware/auth"
)

const recordCacheTTL = 5 * time.Minute

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.DevMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	owner, err := domain.ParseAccountID(cfg.OwnerID)
	if err != nil {
		log.Error("invalid owner identity", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	clock := ledger.NewCounter(0)

	// Store selection: Postgres when configured, in-memory otherwise.
	var (
		adminStore     adminservice.AdminStore
		authorityStore authorityservice.AuthorityStore
		recordStores   = map[models.Kind]registryservice.RecordStore{}
	)
	if cfg.PostgresURL != "" {
		pool, err := storage.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := storage.Migrate(ctx, pool); err != nil {
			log.Error("postgres migrate failed", "error", err)
			os.Exit(1)
		}
		seed, err := storage.MaxHeight(ctx, pool)
		if err != nil {
			log.Error("ledger height seed failed", "error", err)
			os.Exit(1)
		}
		clock.Advance(seed)

		adminStore = adminstore.NewPostgres(pool)
		authorityStore = authoritystore.NewPostgres(pool)
		for _, kind := range models.Kinds() {
			recordStores[kind] = registrystore.NewPostgres(pool, kind)
		}
		log.Info("using postgres stores", "height", seed)
	} else {
		adminStore = adminstore.NewInMemory()
		authorityStore = authoritystore.NewInMemory()
		for _, kind := range models.Kinds() {
			recordStores[kind] = registrystore.NewInMemory()
		}
		log.Info("using in-memory stores")
	}

	// Optional read-through cache for record lookups.
	if cfg.RedisURL != "" {
		rdb, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis connect failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		for _, kind := range models.Kinds() {
			recordStores[kind] = registrystore.NewCached(recordStores[kind], rdb.Client, kind, recordCacheTTL, log)
		}
		log.Info("record cache enabled")
	}

	// Audit sink: Kafka when brokers are configured, in-memory otherwise.
	var auditor audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := auditkafka.New(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kp.Close(shutdownCtx)
		}()
		auditor = kp
		log.Info("kafka audit publisher enabled", "topic", cfg.AuditTopic)
	} else {
		auditor = audit.NewInMemoryLog()
	}

	admins := adminservice.New(owner, adminStore,
		adminservice.WithLogger(log),
		adminservice.WithAuditPublisher(auditor),
		adminservice.WithMetrics(m),
	)
	authorities := authorityservice.New(authorityStore, admins, clock,
		authorityservice.WithLogger(log),
		authorityservice.WithAuditPublisher(auditor),
		authorityservice.WithMetrics(m),
	)

	registries := map[models.Kind]*registryservice.Service{}
	for _, kind := range models.Kinds() {
		registries[kind] = registryservice.New(kind, recordStores[kind], authorityStore, clock,
			registryservice.WithLogger(log),
			registryservice.WithAuditPublisher(auditor),
			registryservice.WithMetrics(m),
		)
	}

	verifier := authmw.NewVerifier(cfg.JWTSigningKey)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Verifier:       verifier,
		Admins:         adminhandler.New(admins),
		Authorities:    authorityhandler.New(authorities),
		Qualifications: registryhandler.New(registries[models.KindQualification]),
		Privileges:     registryhandler.New(registries[models.KindPrivilege]),
		Panels:         registryhandler.New(registries[models.KindPanel]),
		DevMode:        cfg.DevMode,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting credentry", "addr", cfg.Addr, "owner_id", owner, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
