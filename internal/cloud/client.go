package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/marketlake-labs/marketlake-go/internal/catalog"
	"github.com/marketlake-labs/marketlake-go/internal/platform/env"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type Config struct {
	BaseURL string
	Timeout time.Duration

	// Client-credentials grant against the market API's token endpoint.
	// StaticToken short-circuits it for dev and tests.
	TokenURL     string
	ClientID     string
	ClientSecret string
	StaticToken  string
}

func ConfigFromEnv() (Config, error) {
	timeout, err := env.Duration("MARKET_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		BaseURL:      env.String("MARKET_API_URL", "https://api.marketlake.io/v2"),
		Timeout:      timeout,
		TokenURL:     env.String("MARKET_API_TOKEN_URL", ""),
		ClientID:     env.String("MARKET_API_CLIENT_ID", ""),
		ClientSecret: env.String("MARKET_API_CLIENT_SECRET", ""),
		StaticToken:  env.String("MARKET_API_STATIC_TOKEN", ""),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("MARKET_API_URL is required")
	}
	if c.Timeout <= 0 {
		return errors.New("MARKET_API_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.StaticToken) == "" {
		if strings.TrimSpace(c.TokenURL) == "" {
			return errors.New("MARKET_API_TOKEN_URL is required without a static token")
		}
		if strings.TrimSpace(c.ClientID) == "" {
			return errors.New("MARKET_API_CLIENT_ID is required without a static token")
		}
		if strings.TrimSpace(c.ClientSecret) == "" {
			return errors.New("MARKET_API_CLIENT_SECRET is required without a static token")
		}
	}
	return nil
}

// Client talks to the upstream data-market API. All calls are synchronous and
// context-aware; callers wrap listings and price tables in the session caches.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if strings.TrimSpace(cfg.StaticToken) != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.StaticToken})
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &oauth2.Transport{Source: source},
		}
	} else {
		grant := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
		httpClient = grant.Client(ctx)
		httpClient.Timeout = cfg.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}

// ListFiles returns all remote file identifiers whose path starts with
// prefix. The API returns object names relative to the first path segment.
func (c *Client) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	var out struct {
		Objects []string `json:"objects"`
	}
	if err := c.post(ctx, "/data/list", map[string]string{"filePath": prefix}, &out); err != nil {
		return nil, err
	}

	firstPart := strings.SplitN(prefix, "/", 2)[0]
	files := make([]string, 0, len(out.Objects))
	for _, object := range out.Objects {
		files = append(files, firstPart+"/"+object)
	}
	sort.Strings(files)
	return files, nil
}

type DatasetDelivery string

const (
	DeliveryCloudOnly        DatasetDelivery = "cloud only"
	DeliveryDownloadOnly     DatasetDelivery = "download only"
	DeliveryCloudAndDownload DatasetDelivery = "cloud & download"
)

type DatasetTag struct {
	Name string `json:"name"`
}

// DatasetSummary is one row of the dataset market listing.
type DatasetSummary struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Delivery DatasetDelivery `json:"delivery"`
	Vendor   string          `json:"vendorName"`
	Tags     []DatasetTag    `json:"tags"`
	Pending  bool            `json:"pending"`
}

func (c *Client) ListDatasets(ctx context.Context) ([]DatasetSummary, error) {
	var out struct {
		Datasets []DatasetSummary `json:"datasets"`
	}
	if err := c.post(ctx, "/market/data/list", map[string]string{}, &out); err != nil {
		return nil, err
	}
	return out.Datasets, nil
}

type vendorDoc struct {
	Name  string   `json:"vendorName"`
	Regex string   `json:"regex"`
	Price *float64 `json:"price"`
}

// DataInfo is the per-organization market state: raw datasource documents
// keyed by dataset id, the vendor price table, and the data agreement.
type DataInfo struct {
	Datasources map[string]json.RawMessage
	Vendors     []catalog.Vendor
	Agreement   Agreement
}

type Agreement struct {
	URL        string
	Signed     bool
	SignedTime time.Time
}

func (c *Client) DataInfo(ctx context.Context, organizationID string) (*DataInfo, error) {
	var out struct {
		Datasources map[string]json.RawMessage `json:"datasources"`
		Prices      []vendorDoc                `json:"prices"`
		Agreement   string                     `json:"agreement"`
		Signed      bool                       `json:"signed"`
		SignedTime  int64                      `json:"signedTime"`
	}
	if err := c.post(ctx, "/data/prices", map[string]string{"organizationId": organizationID}, &out); err != nil {
		return nil, err
	}

	vendors := make([]catalog.Vendor, 0, len(out.Prices))
	for _, doc := range out.Prices {
		pattern, err := parseVendorRegex(doc.Regex)
		if err != nil {
			// A vendor with an unusable regex can never match a file.
			c.logger.Warn("dropping vendor with invalid regex",
				"vendor", doc.Name, "regex", doc.Regex, "error", err)
			continue
		}
		vendors = append(vendors, catalog.Vendor{
			Name:  doc.Name,
			Regex: pattern,
			Price: doc.Price,
		})
	}

	info := &DataInfo{
		Datasources: out.Datasources,
		Vendors:     vendors,
		Agreement: Agreement{
			URL:    out.Agreement,
			Signed: out.Signed,
		},
	}
	if out.SignedTime > 0 {
		info.Agreement.SignedTime = time.Unix(out.SignedTime, 0).UTC()
	}
	return info, nil
}

// parseVendorRegex strips the slash delimiters the API wraps vendor patterns
// in and compiles what is between them.
func parseVendorRegex(raw string) (*regexp.Regexp, error) {
	first := strings.Index(raw, "/")
	last := strings.LastIndex(raw, "/")
	if first < 0 || last <= first {
		return nil, fmt.Errorf("regex %q is not /-delimited", raw)
	}
	pattern, err := regexp.Compile(raw[first+1 : last])
	if err != nil {
		return nil, fmt.Errorf("compile regex: %w", err)
	}
	return pattern, nil
}

// Organization is the subset of the organization record the engine needs:
// credit balance and held subscription product ids.
type Organization struct {
	ID            string   `json:"id"`
	Balance       float64  `json:"balance"`
	Subscriptions []string `json:"subscriptions"`
}

func (c *Client) Organization(ctx context.Context, organizationID string) (Organization, error) {
	var out struct {
		Organization Organization `json:"organization"`
	}
	if err := c.post(ctx, "/organizations/read", map[string]string{"organizationId": organizationID}, &out); err != nil {
		return Organization{}, err
	}
	return out.Organization, nil
}

func (c *Client) OrganizationBalance(ctx context.Context, organizationID string) (float64, error) {
	org, err := c.Organization(ctx, organizationID)
	if err != nil {
		return 0, err
	}
	return org.Balance, nil
}

func (c *Client) OrganizationSubscriptions(ctx context.Context, organizationID string) ([]string, error) {
	org, err := c.Organization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return org.Subscriptions, nil
}
