// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"maintenance-dispatch/internal/audit"
	"maintenance-dispatch/internal/classify"
	awsclient "maintenance-dispatch/internal/common/aws"
	"maintenance-dispatch/internal/common/camunda"
	"maintenance-dispatch/internal/common/config"
	"maintenance-dispatch/internal/common/database"
	httpx "maintenance-dispatch/internal/common/http"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/common/observability"
	"maintenance-dispatch/internal/directory"
	"maintenance-dispatch/internal/notify"
	"maintenance-dispatch/internal/routing"
	"maintenance-dispatch/internal/rules"
	"maintenance-dispatch/internal/scoring"
	"maintenance-dispatch/internal/store"

	dn "maintenance-dispatch/internal/workers/notifications/dispatch-notification"
	br "maintenance-dispatch/internal/workers/routing/batch-route"
	ri "maintenance-dispatch/internal/workers/routing/route-issue"
	er "maintenance-dispatch/internal/workers/rules/evaluate-rules"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
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
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Stores ---
	issueStore := store.NewIssueStore(pg.GetDB(), log)
	contractorStore := store.NewContractorStore(pg.GetDB(), log)
	ruleStore := store.NewRuleStore(pg.GetDB(), log)
	userStore := store.NewUserStore(pg.GetDB(), log)
	notificationLog := store.NewNotificationLog(pg.GetDB(), log)
	snapshots := store.NewSnapshotBuilder(issueStore, userStore, contractorStore, log)

	// --- Contractor directory with Redis stats cache ---
	contractorDir := directory.New(
		contractorStore,
		redis.GetClient(),
		time.Duration(cfg.Routing.StatsCacheTTL)*time.Second,
		log,
	)

	// --- Classifier: AI primary with keyword fallback ---
	primary := classify.NewAnthropicClassifier(cfg.Classifier.APIKey, cfg.Classifier.Model, log)
	classifier := classify.NewResilient(primary, config.GetDuration(cfg.Classifier.Timeout), log)

	// --- Notification channels ---
	var emailSender notify.EmailSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := awsclient.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		emailSender = notify.NewSESSender(sesClient, cfg.Notifications.Email.FromEmail)
	}

	var smsSender notify.SMSSender
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := awsclient.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		smsSender = notify.NewSNSSender(snsClient)
	}

	var contentGen notify.ContentGenerator
	if cfg.Classifier.APIKey != "" {
		contentGen = notify.NewAnthropicContentGenerator(cfg.Classifier.APIKey, cfg.Classifier.Model, log)
	}

	dispatcher := notify.NewDispatcher(notify.Deps{
		Rules:        ruleStore,
		Users:        userStore,
		Log:          notificationLog,
		Throttle:     notify.NewRedisThrottle(redis.GetClient()),
		Email:        emailSender,
		SMS:          smsSender,
		Realtime:     notify.NewRedisRealtime(redis.GetClient(), cfg.Notifications.RealtimeChannelPrefix),
		Content:      contentGen,
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		SMSThreshold: notify.ParsePriority(cfg.Notifications.SMS.PriorityThreshold),
		Logger:       log,
	})

	scheduler := notify.NewScheduler(
		dispatcher,
		time.Duration(cfg.Notifications.SchedulerInterval)*time.Second,
		log,
	)
	scheduler.Start(ctx)

	// --- Rule engine ---
	ruleEngine := rules.NewEngine(ruleStore, issueStore, contractorStore, dispatcher, log)

	// --- Routing engine ---
	var proximity routing.ProximityRanker
	if cfg.Proximity.BaseURL != "" {
		proximity = directory.NewProximityClient(
			httpx.NewClient(config.GetDuration(cfg.Proximity.Timeout)),
			cfg.Proximity.BaseURL,
			log,
		)
	}

	auditTrail := audit.NewTrail(esClient.Client, cfg.Database.Elasticsearch.AuditIndex, log)

	router := routing.NewEngine(routing.Deps{
		Issues:     issueStore,
		Directory:  contractorDir,
		Classifier: classifier,
		Scorer:     scoring.NewEngine(log),
		Rules:      ruleEngine,
		Notifier:   dispatcher,
		Proximity:  proximity,
		Audit:      auditTrail,
		Snapshots:  snapshots,
		Logger:     log,
	})

	zapLog.Info("Routing pipeline initialized")

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	if taskType := ri.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := ri.NewHandler(
			&ri.Config{
				Timeout:       config.GetDuration(wcfg.Timeout),
				MaxJobsActive: wcfg.MaxJobsActive,
			},
			router, log,
		)
		workers = append(workers, startWorker(zeebeClient, taskType, wcfg, handler, log))
	}

	if taskType := br.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := br.NewHandler(
			&br.Config{
				Timeout:       config.GetDuration(wcfg.Timeout),
				MaxJobsActive: wcfg.MaxJobsActive,
				Concurrency:   cfg.Routing.BatchConcurrency,
			},
			router, log,
		)
		workers = append(workers, startWorker(zeebeClient, taskType, wcfg, handler, log))
	}

	if taskType := er.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := er.NewHandler(
			&er.Config{
				Timeout:       config.GetDuration(wcfg.Timeout),
				MaxJobsActive: wcfg.MaxJobsActive,
			},
			snapshots, ruleEngine, log,
		)
		workers = append(workers, startWorker(zeebeClient, taskType, wcfg, handler, log))
	}

	if taskType := dn.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := dn.NewHandler(
			&dn.Config{
				Timeout:       config.GetDuration(wcfg.Timeout),
				MaxJobsActive: wcfg.MaxJobsActive,
			},
			snapshots, dispatcher, scheduler, log,
		)
		workers = append(workers, startWorker(zeebeClient, taskType, wcfg, handler, log))
	}

	zapLog.Info("All workers registered successfully", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			status := "ready"
			code := http.StatusOK
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				status = "not ready"
				code = http.StatusServiceUnavailable
			}
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, log logger.Logger) *camunda.CamundaWorker {
	w := camunda.NewWorker(client, taskType, wcfg.MaxJobsActive, handler, log)
	w.Start()
	return w
}
