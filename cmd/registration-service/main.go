package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/cache"
	"matholymp/internal/common/db"
	commonmw "matholymp/internal/common/http/middleware"
	"matholymp/internal/common/mq"
	"matholymp/internal/common/storage"
	"matholymp/internal/registration/controller"
	"matholymp/internal/registration/eventconfig"
	"matholymp/internal/registration/repository"
	"matholymp/internal/registration/service"
	"matholymp/internal/sitegen"
	"matholymp/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "configs/registration_service.yaml"
	configEnv         = "MATHOLYMP_CONFIG"
)

func main() {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defaultPath := defaultConfigPath
	if v := os.Getenv(configEnv); v != "" {
		defaultPath = v
	}
	configPath := flag.String("config", defaultPath, "Path to config file")
	initData := flag.Bool("init", false, "Create the registration data and exit")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(appCfg, *initData); err != nil {
		logger.Error(context.Background(), "registration service failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(appCfg *AppConfig, initData bool) error {
	ctx := context.Background()

	eventCfg, err := eventconfig.Load(appCfg.EventConfig)
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(&appCfg.Database)
	if err != nil {
		return fmt.Errorf("init database failed: %w", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()
	if err := repository.Migrate(ctx, sqlDB); err != nil {
		return fmt.Errorf("migrate database failed: %w", err)
	}
	dbProvider := db.NewManager(sqlDB)

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		return fmt.Errorf("init redis failed: %w", err)
	}
	defer func() {
		_ = redisCache.Close()
	}()

	objStorage, err := buildStorage(ctx, appCfg.MinIO)
	if err != nil {
		return err
	}

	queue, err := buildQueue(appCfg.Events)
	if err != nil {
		return err
	}
	defer func() {
		_ = queue.Close()
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(eventCfg, service.Deps{
		Provider: dbProvider,
		Repos:    repository.New(dbProvider),
		Cache:    redisCache,
		Storage:  objStorage,
		Events:   service.NewMQPublisher(queue, appCfg.Events.PublishMaxWait),
		Metrics:  service.NewMetrics(registry, appCfg.MetricsNamespace),
	}, service.Config{
		RoleLockTTL:   appCfg.Cache.RoleLockTTL,
		ScoreboardTTL: appCfg.Cache.ScoreboardTTL,
		CachePrefix:   appCfg.Cache.Prefix,
	})

	if initData {
		return initialise(ctx, svc, appCfg.Init)
	}

	tokens := auth.NewTokenManager(appCfg.Auth.JWTSecret, appCfg.Auth.Issuer, appCfg.Auth.TokenTTL)
	authService := service.NewAuthService(repository.NewUserRepository(dbProvider), tokens, redisCache, service.AuthServiceConfig{
		LoginFailTTL:   appCfg.Auth.LoginFailTTL,
		LoginFailLimit: appCfg.Auth.LoginFailLimit,
	})

	hub := controller.NewScoreboardHub()
	if err := queue.Subscribe(ctx, service.EventsTopic, svc.ChangeHandler(hub), &mq.SubscribeOptions{
		ConsumerGroup: appCfg.Events.ConsumerGroup,
	}); err != nil {
		return fmt.Errorf("subscribe change events failed: %w", err)
	}
	if err := queue.Start(); err != nil {
		return fmt.Errorf("start change consumer failed: %w", err)
	}

	httpServer, err := buildHTTPServer(appCfg, registry, controller.Handlers{
		Service: svc,
		Auth:    authService,
		Hub:     hub,
		Limiter: commonmw.NewRateLimiter(redisCache, "", appCfg.Redis.ReadTimeout),
		Limits:  appCfg.Server.RateLimits,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "registration http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("event", eventCfg.ShortName+" "+eventCfg.Year))
		errCh <- httpServer.ListenAndServe()
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server stopped: %w", err)
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
	if err := svc.Close(timeoutCtx); err != nil {
		logger.Warn(ctx, "pending change events not published", zap.Error(err))
	}
	if err := queue.Stop(); err != nil {
		logger.Warn(ctx, "stop change consumer failed", zap.Error(err))
	}
	return serveErr
}

// buildStorage returns MinIO storage when an endpoint is configured, and
// in-memory storage otherwise.
func buildStorage(ctx context.Context, cfg storage.MinIOConfig) (storage.ObjectStorage, error) {
	if cfg.Endpoint == "" {
		logger.Warn(ctx, "no minio endpoint configured, files are kept in memory")
		return storage.NewMemoryStorage(), nil
	}
	minioStorage, err := storage.NewMinIOStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("init minio failed: %w", err)
	}
	if err := minioStorage.EnsureBucket(ctx, cfg.Region); err != nil {
		return nil, fmt.Errorf("ensure minio bucket failed: %w", err)
	}
	return minioStorage, nil
}

func buildQueue(cfg EventsConfig) (mq.MessageQueue, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return mq.NewMemoryQueue(), nil
	}
	queue, err := mq.NewKafkaQueue(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("init kafka failed: %w", err)
	}
	return queue, nil
}

func initialise(ctx context.Context, svc *service.Service, cfg InitConfig) error {
	opts := service.InitOptions{
		AdminPassword: cfg.AdminPassword,
		AdminEmail:    cfg.AdminEmail,
	}
	if cfg.StaticSiteDir != "" {
		langs, err := previousLanguages(cfg.StaticSiteDir)
		if err != nil {
			return err
		}
		opts.PreviousLanguages = langs
	}
	if err := svc.Initialise(ctx, opts); err != nil {
		return err
	}
	logger.Info(ctx, "registration data initialised", zap.Int("previous_languages", len(opts.PreviousLanguages)))
	return nil
}

// previousLanguages returns the paper languages of every event of the
// static site rooted at dir.
func previousLanguages(dir string) ([]string, error) {
	siteCfg, err := sitegen.ReadConfig(dir)
	if err != nil {
		return nil, err
	}
	group, err := sitegen.LoadEventGroup(dir, siteCfg)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	langs := []string{}
	for _, e := range group.Events {
		for _, p := range e.Papers {
			if _, ok := seen[p.Language]; ok || p.Language == "" {
				continue
			}
			seen[p.Language] = struct{}{}
			langs = append(langs, p.Language)
		}
	}
	sort.Strings(langs)
	return langs, nil
}

func buildHTTPServer(appCfg *AppConfig, registry *prometheus.Registry, h controller.Handlers) (*http.Server, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(appCfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(commonmw.RecoveryMiddleware())
	router.Use(commonmw.TraceContext())
	router.Use(commonmw.CORSMiddleware(appCfg.Server.CORS))
	router.Use(commonmw.AccessLogMiddleware("/metrics", "/healthz"))
	router.Use(commonmw.NewHTTPMetrics(registry, appCfg.MetricsNamespace).Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	controller.RegisterRoutes(router, h)

	return &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
		IdleTimeout:  appCfg.Server.IdleTimeout,
	}, nil
}
