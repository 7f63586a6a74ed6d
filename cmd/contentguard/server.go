package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/api/handlers"
	"github.com/BaSui01/contentguard/config"
	"github.com/BaSui01/contentguard/internal/audit"
	"github.com/BaSui01/contentguard/internal/metrics"
	"github.com/BaSui01/contentguard/internal/server"
	"github.com/BaSui01/contentguard/internal/task"
	"github.com/BaSui01/contentguard/internal/telemetry"
	"github.com/BaSui01/contentguard/llm"
	"github.com/BaSui01/contentguard/moderation"
	"github.com/BaSui01/contentguard/providers/qwen"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 ContentGuard 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// Handlers
	healthHandler   *handlers.HealthHandler
	moderateHandler *handlers.ModerateHandler
	taskHandler     *handlers.TaskHandler

	// 审核流水线依赖
	pipeline   *moderation.Pipeline
	taskStore  task.Store
	auditStore *audit.Store

	// 指标收集器
	metricsCollector *metrics.Collector

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		otel:   otel,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("contentguard", s.logger)

	// 2. 初始化审核流水线
	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init moderation pipeline: %w", err)
	}

	// 3. 初始化任务存储与审计存储
	if err := s.initStores(); err != nil {
		return fmt.Errorf("failed to init stores: %w", err)
	}

	// 4. 初始化 Handlers
	s.initHandlers()

	// 5. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 6. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("redis_enabled", s.cfg.Redis.Enabled),
		zap.Bool("audit_enabled", s.cfg.Audit.Enabled),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initPipeline 初始化 LLM Provider、关键词降级表和审核流水线
func (s *Server) initPipeline() error {
	if s.cfg.LLM.APIKey == "" {
		s.logger.Warn("LLM API key not configured, " +
			"text moderation will fall back to keyword analysis and image moderation will fail conservatively")
	}

	// Qwen Provider（DashScope 兼容模式），包一层指标采集
	var provider llm.Provider = qwen.NewProvider(qwen.Config{
		APIKey:  s.cfg.LLM.APIKey,
		BaseURL: s.cfg.LLM.BaseURL,
		Timeout: s.cfg.LLM.Timeout,
	}, s.logger)
	provider = metrics.InstrumentProvider(provider, s.metricsCollector)

	// 关键词表：可选自定义文件，失败回退内置表
	var table []moderation.KeywordCategory
	if path := s.cfg.Moderation.KeywordFile; path != "" {
		loaded, err := moderation.LoadKeywordTable(path)
		if err != nil {
			s.logger.Warn("Failed to load keyword file, using built-in table",
				zap.String("path", path), zap.Error(err))
		} else {
			table = loaded
			s.logger.Info("Custom keyword table loaded",
				zap.String("path", path), zap.Int("categories", len(loaded)))
		}
	}
	matcher := moderation.NewKeywordMatcher(table)

	s.pipeline = moderation.NewPipeline(
		moderation.NewTextModerator(provider, matcher, s.cfg.LLM.TextModel, s.logger),
		moderation.NewImageModerator(provider, s.cfg.LLM.VisionModel, s.logger),
		moderation.NewImageDescriber(provider, s.cfg.LLM.VisionModel, s.logger),
		s.logger,
	)

	s.logger.Info("Moderation pipeline initialized",
		zap.String("text_model", s.cfg.LLM.TextModel),
		zap.String("vision_model", s.cfg.LLM.VisionModel),
	)
	return nil
}

// initStores 初始化任务存储（Redis 或进程内存）和可选的审计存储
func (s *Server) initStores() error {
	if s.cfg.Redis.Enabled {
		store, err := task.NewRedisStore(task.RedisConfig{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
			TTL:          s.cfg.Moderation.TaskTTL,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("failed to connect redis task store: %w", err)
		}
		s.taskStore = store
	} else {
		s.taskStore = task.NewMemoryStore(s.cfg.Moderation.TaskTTL, s.logger)
	}

	if s.cfg.Audit.Enabled {
		store, err := audit.NewStore(s.cfg.Audit.Path, s.logger)
		if err != nil {
			// 审计是尽力而为的，打开失败不阻止服务启动
			s.logger.Warn("Failed to open audit store, auditing disabled",
				zap.String("path", s.cfg.Audit.Path), zap.Error(err))
		} else {
			s.auditStore = store
		}
	}

	return nil
}

// initHandlers 初始化所有 handlers 并注册就绪检查
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)

	if rs, ok := s.taskStore.(*task.RedisStore); ok {
		s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("redis", rs.Ping))
	}
	if s.auditStore != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("audit", s.auditStore.Ping))
	}

	s.moderateHandler = handlers.NewModerateHandler(
		s.pipeline, s.metricsCollector, s.auditStore,
		s.cfg.Moderation.MaxSyncImageBytes, s.logger,
	)
	s.taskHandler = handlers.NewTaskHandler(
		s.pipeline, s.taskStore, s.metricsCollector, s.auditStore,
		s.cfg.Moderation.MaxAsyncImageBytes, s.logger,
	)

	s.logger.Info("Handlers initialized")
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)

	// 版本信息端点
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// 同步审核 API
	// ========================================
	mux.HandleFunc("POST /api/v1/moderate/text", s.moderateHandler.HandleText)
	mux.HandleFunc("POST /api/v1/moderate/image", s.moderateHandler.HandleImage)
	mux.HandleFunc("POST /api/v1/moderate/content", s.moderateHandler.HandleContent)

	// ========================================
	// 异步任务 API
	// ========================================
	mux.HandleFunc("POST /api/v1/tasks", s.taskHandler.HandleCreate)
	mux.HandleFunc("GET /api/v1/tasks", s.taskHandler.HandleList)
	mux.HandleFunc("GET /api/v1/tasks/{id}", s.taskHandler.HandleGet)
	mux.HandleFunc("DELETE /api/v1/tasks/{id}", s.taskHandler.HandleDelete)

	// ========================================
	// 构建中间件链
	// ========================================
	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.logger),
	)

	// ========================================
	// 使用 internal/server.Manager
	// ========================================
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout, // 2x ReadTimeout
		MaxHeaderBytes:  1 << 20,                      // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	// 使用 httpManager 的 WaitForShutdown（它会监听信号）
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	// 执行清理
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 0. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 1. 关闭 HTTP 服务器，新请求不再进入
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 等待在途异步任务落库，之后才能关闭任务存储
	if s.taskHandler != nil {
		s.taskHandler.Drain()
	}

	// 3. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 4. 关闭存储
	if s.taskStore != nil {
		if err := s.taskStore.Close(); err != nil {
			s.logger.Error("Task store close error", zap.Error(err))
		}
	}
	if s.auditStore != nil {
		if err := s.auditStore.Close(); err != nil {
			s.logger.Error("Audit store close error", zap.Error(err))
		}
	}

	// 5. 关闭遥测
	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
