// =============================================================================
// 📦 ContentGuard 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		LLM:        DefaultLLMConfig(),
		Moderation: DefaultModerationConfig(),
		Redis:      DefaultRedisConfig(),
		Audit:      DefaultAuditConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:           8000,
		MetricsPort:        9091,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       120 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		RateLimitRPS:       100,
		RateLimitBurst:     200,
		CORSAllowedOrigins: nil,
		APIKeys:            nil,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		APIKey:      "",
		BaseURL:     "https://dashscope.aliyuncs.com/compatible-mode/v1",
		TextModel:   "qwen-plus",
		VisionModel: "qwen3-vl-plus",
		Timeout:     60 * time.Second,
	}
}

// DefaultModerationConfig 返回默认审核策略配置
func DefaultModerationConfig() ModerationConfig {
	return ModerationConfig{
		MaxSyncImageBytes:  5 * 1024 * 1024,
		MaxAsyncImageBytes: 10 * 1024 * 1024,
		TaskTTL:            24 * time.Hour,
		KeywordFile:        "",
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultAuditConfig 返回默认审计配置
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled: false,
		Path:    "contentguard_audit.db",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "contentguard",
		SampleRate:   0.1,
	}
}
