// Copyright (c) ContentGuard Authors.
// Licensed under the MIT License.

/*
Package main 提供 ContentGuard 服务端程序入口。

# 概述

cmd/contentguard 是 ContentGuard 内容审核服务的可执行入口，提供 HTTP API
服务、健康检查和版本查询等子命令。程序支持 YAML 配置文件加载、结构化日志
（zap）、Prometheus 指标采集以及 OpenTelemetry 链路追踪。

# 核心类型

  - Server     — 主服务器，管理 HTTP、Metrics 双端口及优雅关闭
  - Middleware — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    OTelTracing、MetricsMiddleware、CORS、RateLimiter（基于 IP）、
    APIKeyAuth（X-API-Key，未配置 Key 时关闭）
  - 审核流水线：Qwen Provider（指标包装）→ 文本/图片审核 + 图片描述
  - 任务存储：Redis（多实例共享）或进程内存，按 TTL 过期
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 关闭 HTTP → 关闭 Metrics → 关闭存储与遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
