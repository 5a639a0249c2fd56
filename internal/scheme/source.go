package scheme

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Source provides the full scheme catalog.
type Source interface {
	Fetch(ctx context.Context) (*Schemes, error)
}

type bytesSource struct {
	name   string
	data   []byte
	logger *zap.Logger
}

// Embedded returns the catalog shipped with the binary.
func Embedded(logger *zap.Logger) Source {
	return &bytesSource{name: "embedded catalog", data: embeddedCatalog, logger: logger}
}

func (s *bytesSource) Fetch(_ context.Context) (*Schemes, error) {
	return Parse(s.data, s.logger)
}

type fileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource reads the catalog from a YAML or JSON file on every Fetch.
func NewFileSource(path string, logger *zap.Logger) Source {
	return &fileSource{path: strings.TrimSpace(path), logger: logger}
}

func (s *fileSource) Fetch(_ context.Context) (*Schemes, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	schemes, err := Parse(data, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return schemes, nil
}

// Parse decodes a YAML or JSON catalog document. The document is either a
// list of schemes or a mapping with a "schemes" list.
func Parse(data []byte, logger *zap.Logger) (*Schemes, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Schemes{}, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	switch v := doc.(type) {
	case nil:
		return &Schemes{}, nil
	case []any:
		return Decode(v, logger), nil
	case map[string]any:
		items, ok := v["schemes"].([]any)
		if !ok {
			return nil, fmt.Errorf("catalog mapping must contain a schemes list")
		}
		return Decode(items, logger), nil
	default:
		return nil, fmt.Errorf("unsupported catalog document of type %T", doc)
	}
}

// CachedSource fetches the catalog once and serves the same ordered copy
// afterwards. A failed fetch is not cached.
type CachedSource struct {
	src Source

	mu      sync.Mutex
	schemes *Schemes
}

func NewCachedSource(src Source) *CachedSource {
	return &CachedSource{src: src}
}

func (c *CachedSource) Fetch(ctx context.Context) (*Schemes, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.schemes == nil {
		schemes, err := c.src.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.schemes = schemes
	}

	return c.schemes.Clone(), nil
}

// Reset drops the cached catalog so the next Fetch hits the source again.
func (c *CachedSource) Reset() {
	c.mu.Lock()
	c.schemes = nil
	c.mu.Unlock()
}
