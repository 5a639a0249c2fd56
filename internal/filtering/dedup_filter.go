package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/scheme"
)

type dedupFilter struct {
	toggle
	logger *zap.Logger
}

// NewDedup creates a filter that drops repeated schemes, keeping the first one.
func NewDedup(logger *zap.Logger) Filter {
	return &dedupFilter{logger: logger}
}

func (f *dedupFilter) Name() string { return "dedup" }

func (f *dedupFilter) Validate() error { return nil }

func (f *dedupFilter) Apply(_ context.Context, s *scheme.Schemes) (*scheme.Schemes, Step, error) {
	initial := s.Len()
	dropped := s.Dedup()
	if f.logger != nil && len(dropped) > 0 {
		f.logger.Info("dropping duplicated schemes",
			zap.Strings("duplicates", dropped),
			zap.Int("schemes_left", s.Len()),
		)
	}

	return s, Step{Initial: initial, Dropped: len(dropped), Left: s.Len()}, nil
}

func (f *dedupFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
