package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	defaultPageLimit  = 250
	maxErrorBody      = 4 << 10
)

// ErrUnauthorized is returned when the feed rejects the access token.
var ErrUnauthorized = errors.New("feed rejected access token")

// Client reads orders from the storefront admin feed.
type Client struct {
	baseURL     *url.URL
	accessToken string
	httpClient  *http.Client
}

// NewClient instantiates the feed client with sane defaults.
func NewClient(baseURL, accessToken string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("feed base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse feed base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: parsed, accessToken: strings.TrimSpace(accessToken), httpClient: httpClient}, nil
}

// ListOrders fetches one page of orders.
func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, error) {
	if c == nil || c.baseURL == nil {
		return nil, errors.New("feed client not configured")
	}
	req, err := c.newListOrdersRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call feed API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body listOrdersResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode feed orders: %w", err)
		}
		return body.Orders, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("feed API error: %s", errorMessage(resp))
	default:
		return nil, fmt.Errorf("feed API unexpected status: %s", resp.Status)
	}
}

func (c *Client) newListOrdersRequest(ctx context.Context, params ListOrdersParams) (*http.Request, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: "orders.json"})
	query := url.Values{}

	status := params.Status
	if status == "" {
		status = "any"
	}
	if err := addQueryParam(query, "status", status); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 || limit > defaultPageLimit {
		limit = defaultPageLimit
	}
	if err := addQueryParam(query, "limit", limit); err != nil {
		return nil, err
	}
	if params.CreatedAtMin != nil && !params.CreatedAtMin.IsZero() {
		if err := addQueryParam(query, "created_at_min", params.CreatedAtMin.UTC()); err != nil {
			return nil, err
		}
	}
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set(accessTokenHeader, c.accessToken)
	}
	return req, nil
}

// addQueryParam styles value as an exploded form parameter.
func addQueryParam(query url.Values, name string, value any) error {
	styled, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("style %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(styled)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body Error
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != nil && strings.TrimSpace(*body.Message) != "" {
			return strings.TrimSpace(*body.Message)
		}
		if len(body.Errors) > 0 && string(body.Errors) != "null" {
			return string(body.Errors)
		}
	}
	return resp.Status
}
