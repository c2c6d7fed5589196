// Package source fetches paginated job listings from the MyCareersFuture
// public API and exposes them as a lazy stream.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/NaqibL/mcf/internal/model"
)

const (
	searchPath  = "/v2/jobs"
	httpTimeout = 15 * time.Second
)

// Client fetches job listings page by page. Requests are throttled with a
// token bucket so a full crawl stays within the board's tolerated rate.
type Client struct {
	baseURL  string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewClient constructs a Client with a shared HTTP client and a request
// budget of ratePerSec requests per second.
func NewClient(baseURL string, pageSize int, ratePerSec float64, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		client:   &http.Client{Timeout: httpTimeout},
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		log:      log,
	}
}

// searchResponse mirrors the top-level MCF search response. Individual
// results are kept raw so the original payload can be stored alongside the
// normalised fields.
type searchResponse struct {
	Results []json.RawMessage `json:"results"`
	Total   int               `json:"total"`
}

// mcfJob mirrors the fields of a single MCF listing that the store keeps.
type mcfJob struct {
	UUID          string `json:"uuid"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PostedCompany struct {
		Name string `json:"name"`
	} `json:"postedCompany"`
	Address struct {
		Block      string `json:"block"`
		Street     string `json:"street"`
		PostalCode string `json:"postalCode"`
	} `json:"address"`
}

func (c *Client) fetchPage(ctx context.Context, category string, offset int) (*searchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(offset))
	if category != "" {
		params.Set("category", category)
	}

	reqURL := c.baseURL + searchPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mycareersfuture returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	c.log.Debug().
		Str("category", category).
		Int("offset", offset).
		Int("results", len(page.Results)).
		Int("total", page.Total).
		Msg("fetched page")

	return &page, nil
}

// toListing normalises a raw MCF record. A record that does not decode, or
// that carries no uuid, yields a Listing with an empty JobUUID; the caller
// counts it as skipped.
func toListing(raw json.RawMessage, category string) model.Listing {
	var j mcfJob
	if err := json.Unmarshal(raw, &j); err != nil {
		return model.Listing{Category: category, Raw: raw}
	}

	location := strings.TrimSpace(strings.Join(nonEmpty(j.Address.Block, j.Address.Street, j.Address.PostalCode), " "))
	return model.Listing{
		JobUUID:     j.UUID,
		Title:       j.Title,
		CompanyName: j.PostedCompany.Name,
		Location:    location,
		Description: j.Description,
		Category:    category,
		Raw:         raw,
	}
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
