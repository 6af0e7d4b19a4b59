package httpclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/domain/entity"
	"jpeg_swap/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxMetadataRedirects = 5

// MetadataClientOptions configures a MetadataClient.
type MetadataClientOptions struct {
	Timeout           time.Duration
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Burst             int
}

// MetadataClient fetches ERC-721 metadata JSON over HTTP. Successful lookups are
// cached; failures are not, so a flaky gateway gets retried on the next refresh.
type MetadataClient struct {
	client  *fasthttp.Client
	timeout time.Duration
	cache   *cache.Cache
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ port.MetadataFetcher = (*MetadataClient)(nil)

// NewMetadataClient creates a new MetadataClient.
func NewMetadataClient(opts MetadataClientOptions, logger *zap.Logger) *MetadataClient {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &MetadataClient{
		client:  &fasthttp.Client{Name: "jpeg_swap"},
		timeout: opts.Timeout,
		cache:   cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("MetadataClient"),
	}
}

// FetchMetadata implements port.MetadataFetcher. data: URIs are decoded locally.
func (c *MetadataClient) FetchMetadata(ctx context.Context, rawURL string) (entity.TokenMetadata, error) {
	if rawURL == "" {
		return entity.TokenMetadata{}, errors.New("empty metadata URL")
	}

	if strings.HasPrefix(rawURL, "data:") {
		meta, err := decodeDataURI(rawURL)
		observe(err, "inline")
		return meta, err
	}

	if cached, found := c.cache.Get(rawURL); found {
		if meta, ok := cached.(entity.TokenMetadata); ok {
			metrics.MetadataRequests.WithLabelValues("cache_hit").Inc()
			return meta, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		observe(err, "")
		return entity.TokenMetadata{}, fmt.Errorf("metadata rate limiter: %w", err)
	}

	meta, err := c.fetch(ctx, rawURL)
	observe(err, "fetched")
	if err != nil {
		return entity.TokenMetadata{}, err
	}
	c.cache.Set(rawURL, meta, cache.DefaultExpiration)
	return meta, nil
}

func (c *MetadataClient) fetch(ctx context.Context, rawURL string) (entity.TokenMetadata, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return entity.TokenMetadata{}, ctx.Err()
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if timeout > 0 {
		req.SetTimeout(timeout)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Requesting token metadata", zap.String("url", rawURL))
	if err := c.client.DoRedirects(req, resp, maxMetadataRedirects); err != nil {
		return entity.TokenMetadata{}, fmt.Errorf("failed to execute request to %s: %w", rawURL, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("Metadata request failed",
			zap.String("url", rawURL),
			zap.Int("statusCode", resp.StatusCode()))
		return entity.TokenMetadata{}, fmt.Errorf("metadata request to %s failed with status %d", rawURL, resp.StatusCode())
	}

	return decodeMetadata(resp.Body())
}

func observe(err error, outcome string) {
	if err != nil {
		outcome = "error"
	}
	metrics.MetadataRequests.WithLabelValues(outcome).Inc()
}

// decodeMetadata reads name and image, tolerating non-string values by ignoring them.
func decodeMetadata(body []byte) (entity.TokenMetadata, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return entity.TokenMetadata{}, fmt.Errorf("invalid metadata JSON: %w", err)
	}
	var meta entity.TokenMetadata
	if name, ok := raw["name"].(string); ok {
		meta.Name = name
	}
	if image, ok := raw["image"].(string); ok {
		meta.Image = image
	}
	return meta, nil
}

// decodeDataURI handles data:application/json[;base64],<payload>.
func decodeDataURI(uri string) (entity.TokenMetadata, error) {
	header, payload, found := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !found {
		return entity.TokenMetadata{}, errors.New("malformed data URI")
	}

	var body []byte
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return entity.TokenMetadata{}, fmt.Errorf("invalid base64 data URI: %w", err)
		}
		body = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			unescaped = payload
		}
		body = []byte(unescaped)
	}
	return decodeMetadata(body)
}
