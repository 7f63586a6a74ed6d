// Copyright (c) ContentGuard Authors.
// Licensed under the MIT License.

/*
Package llm 定义统一的 LLM Provider 抽象，屏蔽不同服务商在 API 协议上的差异。

# 核心接口

  - Provider     — 同步对话接口（Completion + HealthCheck + Name）
  - ChatRequest  — 对话请求（模型、消息、采样参数）
  - ChatResponse — 对话响应（choices + usage）
  - Message      — 对话消息，支持多模态内容分片（文本 + base64 图片）

审核服务只需要同步补全能力，因此本包不包含流式与工具调用接口。
具体适配实现见 providers/ 子包（当前内置 DashScope 兼容模式的 Qwen）。
*/
package llm
