package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"sudooom.im.chat/internal/config"
	"sudooom.im.chat/internal/dispatch"
	"sudooom.im.chat/internal/handler"
	"sudooom.im.chat/internal/health"
	"sudooom.im.chat/internal/metrics"
	imNats "sudooom.im.chat/internal/nats"
	"sudooom.im.chat/internal/peer"
	chatRedis "sudooom.im.chat/internal/redis"
	"sudooom.im.chat/internal/repository"
	"sudooom.im.chat/internal/service"
	"sudooom.im.chat/internal/session"
)

func main() {
	configPath := os.Getenv("CHAT_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	})).With("node", cfg.Self.Name)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Chat server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// 连接 Redis
	redisClient := chatRedis.NewClient(cfg.Redis)
	defer redisClient.Close()
	redisClient.SetLockRetryInterval(cfg.Lock.RetryInterval)
	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 连接 NATS
	nc, err := imNats.Connect(cfg.NATS, cfg.Self.Name)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer imNats.Shutdown(nc)
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 初始化服务
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	profiles := service.NewProfileService(redisClient, userRepo)
	presence := service.NewPresenceService(redisClient, cfg.Self.Name)
	sessions := session.NewDirectory()

	peerClient, err := peer.NewClient(ctx, cfg.Peers, cfg.PeerPool)
	if err != nil {
		return fmt.Errorf("build peer pools: %w", err)
	}
	defer peerClient.Close()

	// 分发引擎与业务处理器
	engine := dispatch.New(cfg.Dispatch.HandleTimeout)
	logicHandler := handler.NewLogicHandler(
		sessions,
		profiles,
		presence,
		friendRepo,
		redisClient,
		peerClient,
		cfg.Lock,
	)
	logicHandler.Register(engine)
	engine.Start()

	// 节点间 RPC
	rpcServer := peer.NewServer(cfg.Self.RPCAddr, peer.NewService(sessions, profiles))

	// 网关上行
	publisher := imNats.NewMessagePublisher(nc)
	subscriber := imNats.NewGatewaySubscriber(nc, cfg.Self.Name, engine, publisher)
	if err := subscriber.Start(); err != nil {
		engine.Stop()
		return fmt.Errorf("subscribe gateway: %w", err)
	}

	// 健康检查
	checker := health.NewChecker(cfg.Self.Name,
		health.PingFunc(func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}),
		redisClient,
		db,
		health.Stats{Sessions: sessions.Count, Queue: engine.Len},
	)
	healthServer := &http.Server{
		Addr:              cfg.Self.HealthAddr,
		Handler:           health.NewMux(checker, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rpcServer.ListenAndServe()
	})
	g.Go(func() error {
		logger.Info("Health check server started", "addr", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		// 先停止接收，再处理完队列中的消息
		subscriber.Stop()
		engine.Stop()
		logicHandler.Wait()

		rpcServer.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthServer.Shutdown(shutdownCtx)
	})

	logger.Info("Chat server started",
		"name", cfg.App.Name,
		"rpcAddr", cfg.Self.RPCAddr,
		"peers", len(cfg.Peers))

	err = g.Wait()
	logger.Info("Chat server stopped")
	return err
}

// parseLevel 解析日志级别，未知值按 info 处理
func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
