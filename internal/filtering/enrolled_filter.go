package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/scheme"
)

type enrolledFilter struct {
	toggle
	path   string
	logger *zap.Logger
}

// NewEnrolled creates a filter that removes schemes listed in the enrolled file.
// It disables itself when no file is configured.
func NewEnrolled(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &enrolledFilter{path: strings.TrimSpace(path), logger: logger}
	if f.path == "" {
		f.Disable("enrolled file is not configured")
	}
	return f
}

func (f *enrolledFilter) Name() string { return "enrolled" }

func (f *enrolledFilter) Validate() error {
	if f.path == "" {
		return fmt.Errorf("enrolled file path is empty")
	}
	return nil
}

func (f *enrolledFilter) Apply(_ context.Context, s *scheme.Schemes) (*scheme.Schemes, Step, error) {
	initial := s.Len()

	// An unreadable file only costs the exclusion, the catalog is kept.
	enrolled, err := scheme.GetEnrolledFromFile(f.path)
	if err != nil {
		f.logger.Warn("ignoring unreadable enrolled file",
			zap.String("path", f.path),
			zap.Error(err),
		)
		return s, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	removed := s.ExcludeNames(enrolled.Names())
	if len(removed) > 0 {
		f.logger.Info("excluding schemes based on enrolled file",
			zap.String("path", f.path),
			zap.Strings("excluded_schemes", removed),
			zap.Int("schemes_left", s.Len()),
		)
	}

	return s, Step{Initial: initial, Dropped: len(removed), Left: s.Len()}, nil
}

func (f *enrolledFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
