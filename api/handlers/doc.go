// Copyright (c) ContentGuard Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 ContentGuard HTTP API 的请求处理器实现。

# 概述

handlers 包实现了 ContentGuard 所有 HTTP 端点的请求处理逻辑，
包括同步审核、异步任务、健康检查以及统一的响应/错误处理。
所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - ModerateHandler  — 同步审核处理器（文本 / 图片 / 图文混合）
  - TaskHandler      — 异步任务受理、查询、列表与删除
  - HealthHandler    — 服务健康检查（/health, /healthz, /ready）
  - Response         — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo        — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck      — 可插拔健康检查接口（Redis、审计库、上游 Provider）

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（严格模式）、multipart 图片格式与大小校验
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 异步处理：任务受理后由后台 goroutine 运行审核编排图
  - 可扩展健康检查：RegisterCheck 注册自定义 HealthCheck 实现
*/
package handlers
