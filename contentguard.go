// Package contentguard provides a top-level convenience entry point for
// running content moderation with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/contentguard"
//
//	p, err := contentguard.New(contentguard.WithAPIKey("sk-..."))
//	verdict, err := p.Run(ctx, &moderation.Request{Text: "待审核文本"})
//
// This is a thin wrapper around the moderation pipeline; the full server in
// cmd/contentguard wires the same components with metrics, task storage and
// auditing. Use this package when you only need the core pipeline.
package contentguard

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/llm"
	"github.com/BaSui01/contentguard/moderation"
	"github.com/BaSui01/contentguard/providers/qwen"
)

// Option configures the pipeline created by [New].
type Option func(*options)

type options struct {
	apiKey      string
	baseURL     string
	textModel   string
	visionModel string
	timeout     time.Duration
	table       []moderation.KeywordCategory
	provider    llm.Provider
	logger      *zap.Logger
}

// WithAPIKey sets the DashScope API key for the default Qwen provider.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL overrides the DashScope compatible-mode endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithTextModel overrides the text moderation model (default qwen-plus).
func WithTextModel(model string) Option {
	return func(o *options) { o.textModel = model }
}

// WithVisionModel overrides the vision model (default qwen3-vl-plus).
func WithVisionModel(model string) Option {
	return func(o *options) { o.visionModel = model }
}

// WithTimeout sets the per-call timeout of the default provider.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithKeywordTable replaces the built-in keyword fallback table.
func WithKeywordTable(table []moderation.KeywordCategory) Option {
	return func(o *options) { o.table = table }
}

// WithProvider sets a pre-built LLM provider, bypassing the Qwen default.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a ready-to-use [moderation.Pipeline].
// At minimum, an API key must be provided via [WithAPIKey], or a pre-built
// provider via [WithProvider].
func New(opts ...Option) (*moderation.Pipeline, error) {
	o := options{
		textModel:   "qwen-plus",
		visionModel: "qwen3-vl-plus",
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	provider := o.provider
	if provider == nil {
		if o.apiKey == "" {
			return nil, fmt.Errorf("contentguard: an API key (WithAPIKey) or a provider (WithProvider) is required")
		}
		provider = qwen.NewProvider(qwen.Config{
			APIKey:  o.apiKey,
			BaseURL: o.baseURL,
			Timeout: o.timeout,
		}, o.logger)
	}

	matcher := moderation.NewKeywordMatcher(o.table)

	return moderation.NewPipeline(
		moderation.NewTextModerator(provider, matcher, o.textModel, o.logger),
		moderation.NewImageModerator(provider, o.visionModel, o.logger),
		moderation.NewImageDescriber(provider, o.visionModel, o.logger),
		o.logger,
	), nil
}
