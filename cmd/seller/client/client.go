// Package client talks to the HTTP API of a game server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)

type Seller struct {
	Username string  `json:"username"`
	Cash     float64 `json:"cash"`
	Online   bool    `json:"online"`
}

// HTTPClient calls the game server.
type HTTPClient struct {
	baseURL *url.URL
	client  *retryablehttp.Client
}

type newClientOptions struct {
	retryMax int
}

type newClientOptionFunc func(*newClientOptions)

func WithRetryMax(retryMax int) newClientOptionFunc {
	return func(opts *newClientOptions) {
		opts.retryMax = retryMax
	}
}

// New returns a client of the game server at baseURL.
func New(baseURL string, opts ...newClientOptionFunc) (*HTTPClient, error) {
	options := newClientOptions{retryMax: 4}
	for _, opt := range opts {
		opt(&options)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing address: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}

	client := retryablehttp.NewClient()
	client.RetryMax = options.retryMax
	client.Logger = nil
	return &HTTPClient{baseURL: u, client: client}, nil
}

// Register joins the game, or updates the URL of an already registered seller.
func (c *HTTPClient) Register(ctx context.Context, username, password, sellerURL string) error {
	request := map[string]string{"username": username, "password": password, "url": sellerURL}
	if err := c.req(ctx, http.MethodPost, "/seller", request, nil); err != nil {
		return fmt.Errorf("registering %s: %w", username, err)
	}
	return nil
}

func (c *HTTPClient) Sellers(ctx context.Context) ([]Seller, error) {
	var sellers []Seller
	if err := c.req(ctx, http.MethodGet, "/sellers", nil, &sellers); err != nil {
		return nil, fmt.Errorf("listing sellers: %w", err)
	}
	return sellers, nil
}

func (c *HTTPClient) req(ctx context.Context, method, path string, reqBody, resBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading response body (%w)", err)
	}

	switch res.StatusCode {
	case http.StatusOK, http.StatusNoContent:
	case http.StatusForbidden:
		return fmt.Errorf("%w: response status code: %s, body: %s", ErrForbidden, res.Status, string(data))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: response status code: %s, body: %s", ErrInvalidRequest, res.Status, string(data))
	default:
		return fmt.Errorf("unrecognized error: status code: %s, body: %s", res.Status, string(data))
	}

	if resBody != nil {
		if err := json.Unmarshal(data, resBody); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}
