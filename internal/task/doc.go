// Package task 提供异步审核任务的状态存储。
// This package is internal and should not be imported by external projects.
//
// 提供两种实现：进程内存储（MemoryStore）和 Redis 存储（RedisStore），
// 任务记录均按 TTL 过期。
package task
