package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"market-collector/src/helpers"
	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/models"

	"golang.org/x/time/rate"
)

const baseRetryDelay = 500 * time.Millisecond

// AsyncNetworkManager issues GET requests towards data providers with retries,
// proxy rotation and a minimum spacing between requests.
type AsyncNetworkManager struct {
	Config       models.MNetworkConfig
	ProxyManager interfaces.IProxyManager
	Logger       *logger.Logger

	mu      sync.RWMutex
	client  *http.Client
	limiter *rate.Limiter
	sem     chan struct{}
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg models.MNetworkConfig, log *logger.Logger) *AsyncNetworkManager {
	if log == nil {
		log = logger.NewLogger(nil, "Network")
	}
	var proxies []string
	if cfg.Enabled {
		proxies = cfg.Proxies
	}

	limit := rate.Inf
	if cfg.MinDelayMs > 0 {
		limit = rate.Every(time.Duration(cfg.MinDelayMs) * time.Millisecond)
	}
	slots := cfg.ConcurrentRequests
	if slots < 1 {
		slots = 1
	}

	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(proxies, cfg.UserAgent, log.Named("Proxy")),
		Logger:       log,
		limiter:      rate.NewLimiter(limit, 1),
		sem:          make(chan struct{}, slots),
	}
	nm.client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) currentClient() *http.Client {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.client
}

func (nm *AsyncNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	nm.mu.Lock()
	nm.client = nm.createClient()
	nm.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and proxy rotation. Client errors
// other than 403 and 429 are not retried.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewNetworkError("invalid url "+urlStr, err)
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	select {
	case nm.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-nm.sem }()

	attempt := 0
	body, err := helpers.RetryWithBackoff(ctx, nm.Logger, "GET "+reqURL.Path, nm.Config.MaxRetries+1, baseRetryDelay, func() ([]byte, error) {
		attempt++
		if attempt > 1 {
			nm.rotateProxy()
		}
		if err := nm.limiter.Wait(ctx); err != nil {
			return nil, helpers.Permanent(err)
		}
		return nm.do(ctx, finalURL)
	})
	if err != nil {
		return nil, helpers.NewNetworkError("request to "+reqURL.Host+reqURL.Path+" failed", err)
	}
	return body, nil
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, finalURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, helpers.Permanent(err)
	}
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := nm.currentClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, helpers.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		nm.Logger.Info("Request blocked (%d). Rotating proxy.", resp.StatusCode)
		return nil, fmt.Errorf("blocked (status %d)", resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, helpers.Permanent(fmt.Errorf("bad status %d: %s", resp.StatusCode, msg))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
