// cmd/worker-manager/main.go
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
	"go.uber.org/zap"

	awsclient "github.com/mstoerum/wisdom-ground-work-sub002/internal/common/aws"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/camunda"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/database"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/genai"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/observability"

	// Input boundary
	lsb "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/data-access/load-survey-batch"

	// Engine stages
	ags "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/aggregate-signals"
	asv "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/analyze-survey"
	evc "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/evaluate-confidence"
	pim "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/predict-impact"
	rki "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/rank-interventions"
	sth "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/score-theme-health"
	src "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/synthesize-root-causes"

	// Output boundary
	nct "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/reporting/notify-critical-themes"
	phr "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/reporting/publish-health-report"
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

// newExtractor returns a nil Extractor when none is configured, so the
// pipeline degrades every theme instead of the process refusing to start.
func newExtractor(cfg *config.Config, log logger.Logger) (genai.Extractor, error) {
	guarded, err := genai.NewFromConfig(cfg, log)
	if errors.Is(err, genai.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return guarded, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	var sns awsclient.SNSPublisher
	if cfg.Notifications.SNS.Enabled {
		client, err := awsclient.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		sns = client
	}

	var sesSender awsclient.SESSender
	if cfg.Notifications.SES.Enabled {
		client, err := awsclient.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		sesSender = client
	}

	extractor, err := newExtractor(cfg, log)
	if err != nil {
		zapLog.Fatal("signal extractor setup failed", zap.Error(err))
	}
	if extractor == nil {
		zapLog.Warn("No signal extractor configured, themes will get fallback insights")
	}

	var cache database.ResultCache
	if cfg.Analysis.CacheTTL > 0 {
		cache = database.NewResultCache(rdb.Client, time.Duration(cfg.Analysis.CacheTTL)*time.Second)
	}

	zapLog.Info("All external service clients initialized",
		zap.String("extractor", cfg.Analysis.Extractor),
		zap.Bool("extractorEnabled", extractor != nil),
		zap.Bool("resultCache", cache != nil),
		zap.Bool("snsAlerts", sns != nil),
		zap.Bool("emailAlerts", sesSender != nil),
	)

	// --- Register Workers ---
	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.JobHandlerFunc) {
		if jw := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log); jw != nil {
			workers = append(workers, jw)
		}
	}
	timeout := func(taskType string, fallback time.Duration) time.Duration {
		if ms := config.GetWorkerConfig(cfg, taskType).Timeout; ms > 0 {
			return config.GetDuration(ms)
		}
		return fallback
	}

	// 1. Input boundary
	{
		c := lsb.LoadConfig()
		c.Timeout = timeout(lsb.TaskType, c.Timeout)
		start(lsb.TaskType, lsb.NewHandler(c, pg.DB, log).Handle)
	}

	// 2. Engine stages, usable one by one from a BPMN model
	{
		c := sth.LoadConfig()
		c.Timeout = timeout(sth.TaskType, c.Timeout)
		start(sth.TaskType, sth.NewHandler(c, log).Handle)
	}
	{
		c := evc.LoadConfig()
		c.Timeout = timeout(evc.TaskType, c.Timeout)
		start(evc.TaskType, evc.NewHandler(c, log).Handle)
	}
	{
		c := ags.LoadConfig()
		c.Timeout = timeout(ags.TaskType, c.Timeout)
		start(ags.TaskType, ags.NewHandler(c, log).Handle)
	}

	pipelineCfg, err := asv.ConfigFromAnalysis(cfg.Analysis, config.GetWorkerConfig(cfg, asv.TaskType).Timeout)
	if err != nil {
		zapLog.Fatal("invalid analysis configuration", zap.Error(err))
	}
	{
		c := src.LoadConfig()
		c.Timeout = timeout(src.TaskType, c.Timeout)
		c.Weights = pipelineCfg.Weights
		start(src.TaskType, src.NewHandler(c, log).Handle)
	}
	{
		c := rki.LoadConfig()
		c.Timeout = timeout(rki.TaskType, c.Timeout)
		c.Options = pipelineCfg.Ranking
		c.Playbook = pipelineCfg.Playbook
		start(rki.TaskType, rki.NewHandler(c, log).Handle)
	}
	{
		c := pim.LoadConfig()
		c.Timeout = timeout(pim.TaskType, c.Timeout)
		c.Decay = pipelineCfg.Decay
		start(pim.TaskType, pim.NewHandler(c, log).Handle)
	}

	// 3. Whole pipeline in one job
	analyzer, err := asv.NewHandler(asv.HandlerOptions{
		Config:        pipelineCfg,
		Extractor:     extractor,
		Loader:        lsb.NewRepository(pg.DB),
		Cache:         cache,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create analyze-survey handler", zap.Error(err))
	}
	start(asv.TaskType, analyzer.Handle)

	// 4. Output boundary
	start(phr.TaskType, phr.NewHandler(phr.LoadConfig(cfg), esClient, log).Handle)
	start(nct.TaskType, nct.NewHandler(nct.LoadConfig(cfg), sns, log).WithEmail(sesSender).Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- HTTP: health, readiness, metrics, on-demand analysis ---
	srv := &server{
		analyzer: analyzer,
		timeout:  pipelineCfg.Timeout,
		logger:   log,
		checks: []readinessCheck{
			{name: "zeebe", check: zeebe.HealthCheck},
			{name: "postgres", check: pg.Ping},
			{name: "redis", check: rdb.Ping},
			{name: "elasticsearch", check: func(context.Context) error { return esClient.Ping() }},
		},
	}

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}
