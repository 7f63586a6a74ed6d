// Copyright (c) ContentGuard Authors.
// Licensed under the MIT License.

/*
Package moderation 实现内容审核的编排管道：文本与图片经各自的审核节点
独立判定，再由合并器归并为整体结论。

# 组件

  - KeywordMatcher — 确定性的关键词匹配器（无模型依赖，永不失败），
    作为文本 LLM 审核的降级路径。
  - TextModerator  — 文本审核节点：调用 LLM 并解析严格 JSON 回复，
    调用或解析失败时降级到关键词匹配。
  - ImageModerator — 图片审核节点：调用视觉 LLM；图片没有确定性降级
    路径，失败时返回保守判定（不安全 / medium / unknown）。
  - ImageDescriber — 独立的图片描述节点，仅作记录用途，失败不影响
    安全判定。
  - Combine        — 纯函数合并器：风险级别按序数取最大值，推荐语
    首行固定为通过/不通过摘要。
  - Pipeline       — 编排图：start → text_check → {image_check | combine}
    → combine → done。文本与图片分支无数据依赖，并发执行；合并器是
    同步点。节点内失败就地降级，只有逃逸出节点处理的异常才以
    图级错误终止本次请求。

# 失败语义

节点永不向上抛错——每个节点都有文档化的默认判定（关键词降级、保守
判定、空描述）。Pipeline 对每个节点调用做 recover 兜底，编程错误以
ErrPipelineFailed 返回"未产生判定"。
*/
package moderation
