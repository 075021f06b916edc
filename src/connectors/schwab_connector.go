package connectors

// REST client for the Schwab Trader and Market Data APIs.
// RESTY ONLY + INTERNAL RETRY

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"tradetracker/src/externalmodel"
	"tradetracker/src/mapper"
	"tradetracker/src/model"
)

const (
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second

	// Schwab expects fromEnteredTime/toEnteredTime in this shape.
	schwabQueryTimeLayout = "2006-01-02T15:04:05.000Z"

	// Refresh the access token a little before the broker expires it.
	tokenExpirySlack = 60 * time.Second
)

// SchwabClient talks to the Schwab Trader and Market Data APIs. The
// access token is refreshed lazily from the long-lived refresh token and
// cached until shortly before expiry.
type SchwabClient struct {
	appKey        string
	appSecret     string
	refreshToken  string
	traderURL     string
	marketDataURL string
	tokenURL      string
	http          *resty.Client

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewSchwabClient builds a client with retry/backoff tuned for the
// broker's rate limits.
func NewSchwabClient(appKey, appSecret, refreshToken string, cfg Config) *SchwabClient {
	retryCount := defaultRetryAttempts - 1

	traderURL := strings.TrimRight(cfg.TraderBaseURL, "/")
	marketDataURL := strings.TrimRight(cfg.MarketDataBaseURL, "/")

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &SchwabClient{
		appKey:        appKey,
		appSecret:     appSecret,
		refreshToken:  refreshToken,
		traderURL:     traderURL,
		marketDataURL: marketDataURL,
		tokenURL:      cfg.TokenURL,
		http:          httpClient,
	}
}

// ListOrdersOptions narrows the broker order query.
type ListOrdersOptions struct {
	FromTime   time.Time
	ToTime     time.Time
	MaxResults int
	Status     string // optional broker status filter
}

// ListOrders fetches orders entered within the window for the account.
func (c *SchwabClient) ListOrders(ctx context.Context, accountHash string, opts ListOrdersOptions) ([]model.BrokerOrder, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"fromEnteredTime": opts.FromTime.UTC().Format(schwabQueryTimeLayout),
	}
	if !opts.ToTime.IsZero() {
		params["toEnteredTime"] = opts.ToTime.UTC().Format(schwabQueryTimeLayout)
	}
	if opts.MaxResults > 0 {
		params["maxResults"] = strconv.Itoa(opts.MaxResults)
	}
	if opts.Status != "" {
		params["status"] = opts.Status
	}

	var raws []externalmodel.SchwabOrder
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(params).
		SetResult(&raws).
		Get(c.traderURL + "/accounts/" + accountHash + "/orders")

	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list orders: %s (%d)", GetErrorMsg(resp.StatusCode()), resp.StatusCode())
	}

	orders := make([]model.BrokerOrder, 0, len(raws))
	for _, raw := range raws {
		orders = append(orders, mapper.MapOrder(raw))
	}

	logger.WithFields(map[string]interface{}{
		"component": "SchwabClient",
		"op":        "ListOrders",
		"count":     len(orders),
	}).Debug("broker orders fetched")

	return orders, nil
}

// GetAccountDetails fetches positions and balances for the account.
func (c *SchwabClient) GetAccountDetails(ctx context.Context, accountHash string) ([]model.BrokerPosition, model.AccountBalances, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, model.AccountBalances{}, err
	}

	var raw externalmodel.SchwabAccountResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("fields", "positions").
		SetResult(&raw).
		Get(c.traderURL + "/accounts/" + accountHash)

	if err != nil {
		return nil, model.AccountBalances{}, fmt.Errorf("get account details: %w", err)
	}
	if resp.IsError() {
		return nil, model.AccountBalances{}, fmt.Errorf("get account details: %s (%d)", GetErrorMsg(resp.StatusCode()), resp.StatusCode())
	}

	return mapper.MapPositions(raw), mapper.MapBalances(raw), nil
}

// ListTransactions fetches the account's transaction history between
// startDate and endDate, already filtered down to trade activity.
func (c *SchwabClient) ListTransactions(ctx context.Context, accountHash string, startDate, endDate time.Time) ([]model.BrokerTransaction, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var raws []externalmodel.SchwabTransaction
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"startDate": startDate.UTC().Format(schwabQueryTimeLayout),
			"endDate":   endDate.UTC().Format(schwabQueryTimeLayout),
			"types":     "TRADE",
		}).
		SetResult(&raws).
		Get(c.traderURL + "/accounts/" + accountHash + "/transactions")

	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list transactions: %s (%d)", GetErrorMsg(resp.StatusCode()), resp.StatusCode())
	}

	return mapper.MapTransactions(raws), nil
}

// GetQuotes fetches live quotes for the given symbols, keyed by
// upper-cased symbol. An empty input short-circuits to an empty map.
func (c *SchwabClient) GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	if len(symbols) == 0 {
		return map[string]model.Quote{}, nil
	}

	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var raw map[string]externalmodel.SchwabQuoteEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetResult(&raw).
		Get(c.marketDataURL + "/quotes")

	if err != nil {
		return nil, fmt.Errorf("get quotes: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get quotes: %s (%d)", GetErrorMsg(resp.StatusCode()), resp.StatusCode())
	}

	return mapper.MapQuotes(raw), nil
}

// getAccessToken returns a cached access token, refreshing it through the
// OAuth refresh_token grant when missing or near expiry.
func (c *SchwabClient) getAccessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	var tokenResp externalmodel.SchwabTokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.appKey, c.appSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": c.refreshToken,
		}).
		SetResult(&tokenResp).
		Post(c.tokenURL)

	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("refresh access token: %s (%d)", GetErrorMsg(resp.StatusCode()), resp.StatusCode())
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("refresh access token: empty token in response")
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	// The broker rotates refresh tokens occasionally.
	if tokenResp.RefreshToken != "" {
		c.refreshToken = tokenResp.RefreshToken
	}

	logger.WithField("component", "SchwabClient").Debug("access token refreshed")

	return c.accessToken, nil
}
