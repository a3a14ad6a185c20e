package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"compatibility-workers/internal/common/aws"
	"compatibility-workers/internal/common/camunda"
	"compatibility-workers/internal/common/config"
	"compatibility-workers/internal/common/database"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/common/observability"
	"compatibility-workers/internal/common/validation"
	"compatibility-workers/internal/matching/cache"
	"compatibility-workers/internal/matching/candidates"
	"compatibility-workers/internal/matching/ranking"
	"compatibility-workers/internal/matching/scoring"
	"compatibility-workers/internal/store/postgres"
	"compatibility-workers/internal/store/search"
	"compatibility-workers/pkg/registry"

	gm "compatibility-workers/internal/workers/matching/generate-matches"
	pm "compatibility-workers/internal/workers/matching/precompute-matches"
	pu "compatibility-workers/internal/workers/matching/profile-updated"
	sc "compatibility-workers/internal/workers/matching/score-compatibility"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting compatibility workers...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("candidateSource", cfg.Matching.CandidateSource),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.Observability.ServiceName)
	if err != nil {
		zapLog.Warn("metrics exporter unavailable", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	tracer, err := observability.NewTracerProvider(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, cfg.Observability.SampleRatio)
	if err != nil {
		zapLog.Warn("tracing exporter unavailable", zap.Error(err))
	} else {
		defer tracer.Shutdown(context.Background())
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		zapLog.Warn("postgres pool metrics unavailable", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	checks := []readinessCheck{{name: "postgres", ping: pg.Ping}}

	// --- Redis is optional; without it the engine runs uncached ---
	var rdb *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		rdb = database.NewRedis(cfg.Database.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable at startup, cache reads will miss", zap.Error(err))
		} else {
			zapLog.Info("Redis connected successfully")
		}
		checks = append(checks, readinessCheck{name: "redis", ping: rdb.Ping, optional: true})
	}

	// --- Elasticsearch serves candidate lookups when configured ---
	var esClient *database.ElasticsearchClient
	if cfg.Matching.CandidateSource == config.CandidateSourceElasticsearch {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		checks = append(checks,
			readinessCheck{name: "elasticsearch", ping: esClient.Ping},
			readinessCheck{name: "profile-index", ping: esClient.CheckProfileIndex},
		)
		zapLog.Info("Elasticsearch connected successfully")
	}

	service, err := buildService(ctx, cfg, pg, rdb, esClient, log)
	if err != nil {
		zapLog.Fatal("ranking service setup failed", zap.Error(err))
	}
	if err := service.Start(ctx); err != nil {
		zapLog.Fatal("ranking service start failed", zap.Error(err))
	}
	defer service.Stop()

	// --- Init Zeebe client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	checks = append(checks, readinessCheck{name: "zeebe", ping: zeebe.HealthCheck})
	zapLog.Info("Zeebe client connected successfully")

	reg, err := registry.Default()
	if err != nil {
		zapLog.Fatal("activity registry failed to load", zap.Error(err))
	}
	validator, err := validation.NewValidator(reg)
	if err != nil {
		zapLog.Fatal("input schemas failed to compile", zap.Error(err))
	}

	runner := func(taskType string, timeout time.Duration) *camunda.JobRunner {
		return camunda.NewJobRunner(taskType, timeout, obs, validator, log)
	}

	var workers []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("Worker disabled", map[string]interface{}{"taskType": taskType})
			return
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), taskType, wcfg, handler, log))
	}

	{
		wc := gm.LoadConfig()
		wc.DefaultLimit = cfg.Matching.DefaultLimit
		start(gm.TaskType, gm.NewHandler(wc, service, runner(gm.TaskType, wc.Timeout), log).Handle)
	}
	{
		wc := sc.LoadConfig()
		start(sc.TaskType, sc.NewHandler(wc, service, runner(sc.TaskType, wc.Timeout), log).Handle)
	}
	{
		wc := pm.LoadConfig()
		start(pm.TaskType, pm.NewHandler(wc, service, runner(pm.TaskType, wc.Timeout), log).Handle)
	}
	{
		wc := pu.LoadConfig()
		start(pu.TaskType, pu.NewHandler(wc, service, runner(pu.TaskType, wc.Timeout), log).Handle)
	}

	// --- Health & metrics ---
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newRouter(checks, func() interface{} { return service.GetMetrics() }),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("health server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("health server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

// buildService wires stores, cache, queue and publisher into the ranking
// service.
func buildService(
	ctx context.Context,
	cfg *config.Config,
	pg *database.PostgresClient,
	rdb *database.RedisClient,
	esClient *database.ElasticsearchClient,
	log logger.Logger,
) (*ranking.Service, error) {
	profiles := postgres.NewProfileRepository(pg.DB)
	values := postgres.NewValuesRepository(pg.DB)

	var store interface {
		candidates.Store
		ranking.ProfileStore
	} = profiles
	if esClient != nil {
		store = search.NewHybrid(profiles, search.NewCandidateIndex(esClient.Client, cfg.Database.Elasticsearch.ProfileIndex))
	}

	cacheStore := cache.Store(cache.NopStore{})
	var queue ranking.RecomputeQueue = ranking.NewMemoryQueue()
	if rdb != nil {
		cacheStore = cache.NewRedisStore(rdb.Client)
		queue = ranking.NewRedisQueue(rdb.Client, cfg.Matching.RecomputeQueueKey)
	}

	cc := cfg.Cache
	matchCache := cache.New(cacheStore, cache.Config{
		ScoreTTL:         config.GetSeconds(cc.ScoreTTL),
		ListTTL:          config.GetSeconds(cc.ListTTL),
		DailyTTL:         config.GetSeconds(cc.DailyTTL),
		OperationTimeout: config.GetDuration(cc.OperationTimeout),
		BreakerFailures:  uint32(cc.BreakerFailures),
		BreakerCooldown:  config.GetDuration(cc.BreakerCooldown),
	}, log)

	var publisher ranking.EventPublisher = ranking.NopPublisher{}
	if cfg.Events.SNS.Enabled {
		sns, err := aws.NewSNSPublisher(ctx, cfg.Events.SNS.Region, cfg.Events.SNS.TopicARN, log)
		if err != nil {
			return nil, fmt.Errorf("sns publisher: %w", err)
		}
		publisher = sns
	}

	m := cfg.Matching
	return ranking.NewService(ranking.Config{
		MaxCandidateCap:       m.MaxCandidateCap,
		CandidateMultiplier:   m.CandidateMultiplier,
		DefaultLimit:          m.DefaultLimit,
		DailyListLimit:        m.DailyListLimit,
		ScoringConcurrency:    m.ScoringConcurrency,
		PrecomputeBatchSize:   m.PrecomputeBatchSize,
		PrecomputeBatchDelay:  config.GetDuration(m.PrecomputeBatchDelay),
		PrecomputeInterval:    time.Duration(m.PrecomputeInterval) * time.Minute,
		RecomputePollInterval: config.GetDuration(m.RecomputePollInterval),
		RecomputeBatchSize:    m.RecomputeBatchSize,
	}, ranking.Deps{
		Profiles:   store,
		Values:     values,
		Candidates: candidates.NewFilter(store, log),
		Scorer:     scoring.NewScorer(scoring.WithValuesThreshold(m.ValuesCompletionThreshold)),
		Cache:      matchCache,
		Keys:       cache.NewKeys(cc.KeyPrefix),
		Queue:      queue,
		Publisher:  publisher,
		Logger:     log,
	}), nil
}
