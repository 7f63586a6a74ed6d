package metrics

import (
	"context"
	"time"

	"github.com/BaSui01/contentguard/llm"
)

// InstrumentedProvider 包装 llm.Provider，为每次模型调用记录指标。
type InstrumentedProvider struct {
	inner     llm.Provider
	collector *Collector
}

// InstrumentProvider 为 Provider 套上指标记录
func InstrumentProvider(inner llm.Provider, collector *Collector) *InstrumentedProvider {
	return &InstrumentedProvider{inner: inner, collector: collector}
}

func (p *InstrumentedProvider) Name() string {
	return p.inner.Name()
}

func (p *InstrumentedProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	start := time.Now()
	resp, err := p.inner.Completion(ctx, req)
	duration := time.Since(start)

	status := "success"
	promptTokens, completionTokens := 0, 0
	if err != nil {
		status = "error"
	} else {
		promptTokens = resp.Usage.PromptTokens
		completionTokens = resp.Usage.CompletionTokens
	}
	p.collector.RecordLLMRequest(p.inner.Name(), req.Model, status, duration, promptTokens, completionTokens)

	return resp, err
}

func (p *InstrumentedProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return p.inner.HealthCheck(ctx)
}
