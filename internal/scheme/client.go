package scheme

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	restPath     = "/rest/v1/"
	defaultTable = "government_schemes"
	userAgent    = "spigell/scheme-assistant"
	// PostgREST serves at most this many rows per request by default.
	defaultPageSize = 100
	// Paging with limit/offset needs a total order to be stable.
	defaultOrder = "id.asc"
)

// Client reads the scheme catalog from a PostgREST endpoint such as a
// Supabase project.
type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
	Table      string
	PageSize   int
	// Order is passed as the PostgREST order parameter. Empty means "id.asc".
	Order string
}

func NewClient(logger *zap.Logger, baseURL, apiKey string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:  apiKey,
		logger:  logger,
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Table:   defaultTable,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
		PageSize:  defaultPageSize,
		Order:     defaultOrder,
	}
}

// Fetch downloads every row of the catalog table.
func (c *Client) Fetch(ctx context.Context) (*Schemes, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("catalog url is not configured")
	}

	table := strings.TrimSpace(c.Table)
	if table == "" {
		table = defaultTable
	}

	order := strings.TrimSpace(c.Order)
	if order == "" {
		order = defaultOrder
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", order)

	items, err := c.GetItems(ctx, c.BaseURL+restPath+url.PathEscape(table), q)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog table %s: %w", table, err)
	}

	c.logger.Debug("got catalog rows", zap.String("table", table), zap.Int("rows", len(items)))

	return Decode(items, c.logger), nil
}

func (c *Client) pageSize() int {
	if c.PageSize <= 0 {
		return defaultPageSize
	}
	return c.PageSize
}

// withPage sets the limit/offset pair for the given zero-based page.
func withPage(q url.Values, page, size int) url.Values {
	paged := url.Values{}
	for key, values := range q {
		paged[key] = append([]string(nil), values...)
	}
	paged.Set("limit", strconv.Itoa(size))
	paged.Set("offset", strconv.Itoa(page*size))
	return paged
}
