package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitalwatch-client/internal/cache"
	"vitalwatch-client/internal/config"
	"vitalwatch-client/internal/fallback"
	"vitalwatch-client/internal/logger"
	"vitalwatch-client/internal/monitor"
	"vitalwatch-client/internal/repository"
	"vitalwatch-client/internal/session"
	"vitalwatch-client/internal/transport"
	"vitalwatch-client/internal/view"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "vitalwatch-client")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.With(zap.String("instance_id", uuid.NewString()))

	log.Info("Starting vitalwatch-client")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 会话存储先声明，传输层在每次请求时通过闭包读取当前令牌
	var sess *session.Store
	tokens := transport.TokenSourceFunc(func() string {
		if sess == nil {
			return ""
		}
		return sess.Token()
	})

	requestTimeout := time.Duration(cfg.Backends.RequestTimeout) * time.Second
	summarizerTimeout := time.Duration(cfg.Backends.SummarizerTimeout) * time.Second

	vitalsClient := transport.NewVitalsClient(cfg.Backends.VitalsBaseURL, requestTimeout, tokens, log)
	alertsClient := transport.NewAlertsClient(cfg.Backends.AlertsBaseURL, requestTimeout, tokens, log)
	summarizerClient := transport.NewSummarizerClient(cfg.Backends.SummarizerBaseURL, summarizerTimeout, tokens, log)
	authClient := transport.NewAuthClient(cfg.Backends.AuthBaseURL, requestTimeout, tokens, log)

	// 启动时的整体健康报告（失败只记录，不阻断启动）
	healthCtx, healthCancel := context.WithTimeout(ctx, requestTimeout)
	for _, backend := range transport.CheckHealth(healthCtx, vitalsClient, alertsClient, summarizerClient, authClient) {
		if backend.Err != nil {
			log.Warn("Backend health check failed",
				zap.String("backend", backend.Name),
				zap.Error(backend.Err),
			)
			continue
		}
		log.Info("Backend healthy",
			zap.String("backend", backend.Name),
			zap.String("status", backend.Status),
		)
	}
	healthCancel()

	// 恢复会话；恢复失败且配置了账号时尝试登录
	sess = session.NewStore(authClient, session.NewFileStorage(cfg.Session.TokenFile), log)
	go sess.Restore(ctx)
	<-sess.Restored()

	if !sess.IsValid() && cfg.Session.Username != "" {
		if err := sess.Login(ctx, cfg.Session.Username, cfg.Session.Password); err != nil {
			log.Error("Login failed", zap.Error(err))
		}
	}
	if !sess.IsValid() {
		log.Error("No valid session, exiting (set AUTH_USERNAME/AUTH_PASSWORD or restore a session)")
		os.Exit(1)
	}

	// 可选：快照缓存发布（Redis）
	var publisher monitor.SnapshotPublisher
	if cfg.Cache.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unavailable, snapshot cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			publisher = cache.NewPublisher(
				cache.NewRedisKVStore(redisClient),
				cfg.Cache.KeyPrefix,
				cfg.Cache.SnapshotSuffix,
				time.Duration(cfg.Cache.TTL)*time.Second,
				log,
			)
		}
	}

	// 可选：报警历史落盘（PostgreSQL）
	var recorder monitor.AlertRecorder
	if cfg.History.Enabled {
		db, err := repository.NewPostgresDB(&cfg.History.Database)
		if err != nil {
			log.Warn("Database unavailable, alert history disabled", zap.Error(err))
		} else {
			defer db.Close()
			recorder = repository.NewAlertHistoryRepository(db, log)
		}
	}

	navigator := view.NavigatorFunc(func(from string) {
		log.Info("Session invalid, login required", zap.String("from", from))
	})

	svc := monitor.NewService(
		monitor.ServiceOptions{
			Patient: monitor.Options{
				AlertPollInterval: time.Duration(cfg.Monitor.AlertPollInterval) * time.Second,
				HistoryHours:      cfg.Monitor.HistoryHours,
				WindowSize:        cfg.Monitor.WindowSize,
				SummaryAlertLimit: cfg.Monitor.SummaryAlertLimit,
			},
			RosterPollInterval: time.Duration(cfg.Monitor.RosterPollInterval) * time.Second,
		},
		monitor.NewPatientAPI(vitalsClient),
		vitalsClient,
		alertsClient,
		summarizerClient,
		fallback.NewSupplier(cfg.Monitor.WindowSize),
		publisher,
		recorder,
		sess,
		navigator,
		log,
	)

	if err := svc.Start(ctx); err != nil {
		log.Error("Failed to start monitor service", zap.Error(err))
		os.Exit(1)
	}

	for _, patientID := range cfg.WatchPatients {
		if _, err := svc.OpenPatient(patientID); err != nil {
			log.Error("Failed to open patient monitor",
				zap.String("patient_id", patientID),
				zap.Error(err),
			)
		}
	}

	// 定期输出聚合统计
	go statusLoop(ctx, svc, time.Duration(cfg.Monitor.RosterPollInterval)*time.Second, log)

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	svc.CloseAll()
	log.Info("Client stopped")
}

// statusLoop 周期性输出名单聚合统计
func statusLoop(ctx context.Context, svc *monitor.Service, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			roster := svc.Roster()
			if roster == nil {
				continue
			}
			stats := roster.Stats()
			log.Info("Ward status",
				zap.Int("total", stats.Total),
				zap.Int("critical", stats.Critical),
				zap.Int("warning", stats.Warning),
				zap.Int("stable", stats.Stable),
			)
		}
	}
}
