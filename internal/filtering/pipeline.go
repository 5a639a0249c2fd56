package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/eligibility"
	"github.com/spigell/scheme-assistant/internal/scheme"
)

// Pipeline evaluates a questionnaire against the catalog. The catalog is
// fetched once and reused by every evaluation of the pipeline.
type Pipeline struct {
	source       *scheme.CachedSource
	enrolledFile string
	disabled     map[string]string
	logger       *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithEnrolledFile enables the enrolled filter for the given file.
func WithEnrolledFile(path string) PipelineOption {
	return func(p *Pipeline) {
		p.enrolledFile = path
	}
}

// WithDisabled disables the named filter.
func WithDisabled(name, reason string) PipelineOption {
	return func(p *Pipeline) {
		p.disabled[name] = reason
	}
}

func NewPipeline(source scheme.Source, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	cached, ok := source.(*scheme.CachedSource)
	if !ok {
		cached = scheme.NewCachedSource(source)
	}

	p := &Pipeline{
		source:   cached,
		disabled: make(map[string]string),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Steps builds the filter chain for a profile in execution order.
func (p *Pipeline) Steps(profile eligibility.NormalizedProfile) []Filter {
	steps := []Filter{
		NewDedup(p.logger),
		NewEnrolled(p.enrolledFile, p.logger),
		NewEligibility(profile, p.logger),
	}
	for name, reason := range p.disabled {
		DisableByName(steps, name, reason)
	}
	return steps
}

// Evaluate returns the schemes matching the answers, in catalog order.
func (p *Pipeline) Evaluate(ctx context.Context, answers eligibility.AnswerProfile) (*scheme.Schemes, error) {
	catalog, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	profile := eligibility.Normalize(answers, p.logger)
	return Run(ctx, p.logger, p.Steps(profile), catalog)
}

// Catalog returns the deduplicated catalog without applying the profile
// dependent filters.
func (p *Pipeline) Catalog(ctx context.Context) (*scheme.Schemes, error) {
	catalog, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	catalog.Dedup()
	return catalog, nil
}

// Reset drops the cached catalog.
func (p *Pipeline) Reset() {
	p.source.Reset()
}
