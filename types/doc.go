// Copyright (c) ContentGuard Authors.
// Licensed under the MIT License.

/*
Package types 提供 ContentGuard 服务的全局共享类型定义。

# 概述

types 是服务最底层的公共包，不依赖任何内部包，为 moderation、llm、
api 等上层模块提供统一的类型契约。所有跨包共享的结构体、枚举和
错误码均定义于此，以避免循环依赖。

# 核心类型

  - Verdict           — 单一模态（文本或图片）的审核判定
  - OverallVerdict    — 合并后的整体审核结果
  - RiskLevel         — 风险级别序数（low < medium < high）
  - Method            — 判定来源（llm_analysis / keyword_analysis / no_content / analysis_failed）
  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记

# 主要能力

  - 风险级别比较：RiskLevel.Max / Ordinal，未知级别防御性归一为 medium
  - 判定构造：NewNoContentVerdict、NewAnalysisFailedVerdict
  - 错误工具链：NewError / WithCause / WithHTTPStatus / IsRetryable
*/
package types
