package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"ringsync/internal/models"
	"ringsync/internal/providers"
	"ringsync/internal/structures"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const maxResponseBodySize = 64 << 20 // 64 MB

var ErrUnexpectedStatus = errors.New("unexpected status")

type ApiClientInterface interface {
	Fetch(ctx context.Context, category models.Category, params url.Values) ([]models.Record, error)
}

type ApiClient struct {
	baseURL string
	token   string
	http    *http.Client
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
}

type collectionResponse struct {
	Data      []models.Record `json:"data"`
	NextToken *string         `json:"next_token"`
}

func NewApiClient(conf *structures.Config, creds *structures.Credentials, httpClient *http.Client, metrics providers.MetricsProviderInterface, logger providers.Logger) ApiClientInterface {
	return &ApiClient{
		baseURL: strings.TrimRight(conf.Api.BaseUrl, "/"),
		token:   creds.Token,
		http:    httpClient,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch issues a single GET for one category. Any transport error, non-2xx
// status or undecodable body is returned as an error.
func (c *ApiClient) Fetch(ctx context.Context, category models.Category, params url.Values) ([]models.Record, error) {
	endpoint := c.baseURL + "/" + category.String()
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveRequestDuration(category.String(), time.Since(start))
	if err != nil {
		c.metrics.IncRequestsTotal(category.String(), 0)
		return nil, err
	}
	defer resp.Body.Close()
	c.metrics.IncRequestsTotal(category.String(), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body so the message carries the API's reason.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d for %s: %s", ErrUnexpectedStatus, resp.StatusCode, category, strings.TrimSpace(string(body)))
	}

	var payload collectionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", category, err)
	}
	if payload.NextToken != nil && *payload.NextToken != "" {
		c.logger.Warnf(providers.TypeFetch, "%s | Response has more pages; only the first one is kept", category)
	}
	if payload.Data == nil {
		payload.Data = []models.Record{}
	}
	return payload.Data, nil
}
