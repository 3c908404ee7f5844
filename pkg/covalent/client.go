package covalent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"resty.dev/v3"

	"ptrack/pkg/models"
)

const (
	DefaultBaseURL = "https://api.covalenthq.com"

	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second

	endpointNative = "balances_native"
	endpointTokens = "balances_v2"
	endpointNFTs   = "balances_nft"
)

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string
	// RetryCount is the number of retries after the first attempt. Zero disables retries.
	RetryCount int
	// RateLimit is the number of requests per second. Zero or less disables limiting.
	RateLimit float64
}

// Client talks to the Covalent v1 balances endpoints.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient returns a client for the given options. The API key is not
// validated here; a bad key surfaces as a client error on the first call.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{logger: logger.Named("covalent")}
	c.http = resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Bearer "+opts.APIKey).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(c.retryHook)

	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	switch code := r.StatusCode(); {
	case code >= 500, code == 429, code == 408:
		return true
	default:
		return false
	}
}

func (c *Client) retryHook(r *resty.Response, err error) {
	if err != nil {
		c.logger.Debug("retrying request due to error",
			zap.String("url", r.Request.URL),
			zap.Int("attempt", r.Request.Attempt),
			zap.Error(err))
		return
	}
	c.logger.Debug("retrying request due to status code",
		zap.String("url", r.Request.URL),
		zap.Int("attempt", r.Request.Attempt),
		zap.Int("status_code", r.StatusCode()))
}

// GetNativeBalance returns the native currency record of address. The
// listing normally has one entry.
func (c *Client) GetNativeBalance(ctx context.Context, network models.Network, address string) ([]models.AssetBalance, error) {
	items, err := fetchItems[balanceItem](ctx, c, endpointNative, network, address)
	if err != nil {
		return nil, err
	}
	out := make([]models.AssetBalance, 0, len(items))
	for _, it := range items {
		out = append(out, it.toModel(true))
	}
	return out, nil
}

// GetTokenBalances returns every fungible asset of address in upstream order.
func (c *Client) GetTokenBalances(ctx context.Context, network models.Network, address string) ([]models.AssetBalance, error) {
	items, err := fetchItems[balanceItem](ctx, c, endpointTokens, network, address)
	if err != nil {
		return nil, err
	}
	out := make([]models.AssetBalance, 0, len(items))
	for _, it := range items {
		out = append(out, it.toModel(false))
	}
	return out, nil
}

// GetNftHoldings returns the NFT collections held by address.
func (c *Client) GetNftHoldings(ctx context.Context, network models.Network, address string) ([]models.NftRecord, error) {
	items, err := fetchItems[nftItem](ctx, c, endpointNFTs, network, address)
	if err != nil {
		return nil, err
	}
	out := make([]models.NftRecord, 0, len(items))
	for _, it := range items {
		out = append(out, it.toModel())
	}
	return out, nil
}

func endpointPath(endpoint string, network models.Network, address string) string {
	return fmt.Sprintf("/v1/%s/address/%s/%s/",
		url.PathEscape(string(network)), url.PathEscape(strings.TrimSpace(address)), endpoint)
}

func fetchItems[T any](ctx context.Context, c *Client, endpoint string, network models.Network, address string) ([]T, error) {
	log := c.logger.With(zap.String("endpoint", endpoint), zap.String("network", string(network)))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, requestError(errors.Join(err, ctx.Err()))
		}
	}

	var result envelope[T]
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(endpointPath(endpoint, network, address))
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return nil, requestError(err)
	}
	log.Debug("response received",
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)))

	if !resp.IsSuccess() {
		return nil, ClassifyHTTPError(resp.StatusCode(), upstreamMessage(resp.String()))
	}
	if result.Error {
		msg := result.ErrorMessage
		if msg == "" {
			msg = "upstream reported an error"
		}
		return nil, NewValidationError(msg)
	}
	if result.Data == nil {
		return nil, NewValidationError("response has no data")
	}
	if result.Data.Items == nil {
		return []T{}, nil
	}
	return result.Data.Items, nil
}

func requestError(err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}

// upstreamMessage extracts error_message from an error body, if any.
func upstreamMessage(body string) string {
	var eb errorBody
	if err := json.Unmarshal([]byte(body), &eb); err != nil {
		return ""
	}
	return eb.ErrorMessage
}
