// Package cache implements the drivers that talk to the external edge cache.
package cache

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/reposphere/staleweb/internal/config"
	"github.com/reposphere/staleweb/internal/domain/models"
	domain "github.com/reposphere/staleweb/internal/domain/service"
	"github.com/reposphere/staleweb/pkg/constants"
	"github.com/reposphere/staleweb/pkg/logger"
)

// NginxWebServerCache drives an NGINX-style edge cache over HTTP. It resolves
// URLs through the embedded resolver and performs the actual invalidation and
// renewal calls asynchronously on two bounded worker pools.
//
// Invalidation is cheap and runs on the larger pool with a short timeout.
// Renewal forces the origin to rebuild a page, so it is deliberately
// serialized on a small pool with a longer timeout to avoid overwhelming the
// origin after a large transaction.
type NginxWebServerCache struct {
	*domain.RepositoryURLResolver

	client      *http.Client
	clientRenew *http.Client
	sem         *semaphore.Weighted
	semRenew    *semaphore.Weighted
	languages   []string
	metrics     domain.Metrics
	log         logger.Logger
	tracer      trace.Tracer

	// lifetime of all scheduled work; cancelled on Shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNginxWebServerCache creates the driver from the cache configuration.
func NewNginxWebServerCache(cfg *config.CacheConfig, resolver *domain.RepositoryURLResolver,
	metrics domain.Metrics, log logger.Logger) *NginxWebServerCache {

	ctx, cancel := context.WithCancel(context.Background())
	return &NginxWebServerCache{
		RepositoryURLResolver: resolver,
		client:                newHTTPClient(cfg.InvalidateWorkers, cfg.InvalidateTimeout()),
		clientRenew:           newHTTPClient(cfg.RenewWorkers, cfg.RenewTimeout()),
		sem:                   semaphore.NewWeighted(int64(cfg.InvalidateWorkers)),
		semRenew:              semaphore.NewWeighted(int64(cfg.RenewWorkers)),
		languages:             cfg.Languages,
		metrics:               metrics,
		log:                   log.WithComponent("NginxWebServerCache"),
		tracer:                otel.Tracer(constants.ServiceName),
		ctx:                   ctx,
		cancel:                cancel,
	}
}

func newHTTPClient(maxConns int, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxConnsPerHost: maxConns,
			MaxIdleConns:    maxConns,
			IdleConnTimeout: 90 * time.Second,
		},
	}
}

// InvalidateAndRenew schedules the cache work for both URL sets and returns
// immediately. URLs are processed in parallel with no relative order; within
// one URL the renewal only runs after its invalidation succeeded. Failures are
// logged per URL and never reach the caller.
func (c *NginxWebServerCache) InvalidateAndRenew(ctx context.Context, toUpdate, toRemove models.URLSet) {
	_, span := c.tracer.Start(ctx, "cache.invalidate_and_renew", trace.WithAttributes(
		attribute.Int("urls.to_update", len(toUpdate)),
		attribute.Int("urls.to_remove", len(toRemove)),
	))
	defer span.End()

	for url := range toUpdate {
		c.wg.Add(1)
		go c.updateChain(url)
	}
	for url := range toRemove {
		c.wg.Add(1)
		go c.removeChain(url)
	}
}

// Shutdown abandons scheduled work and releases pooled connections. In-flight
// HTTP calls are not drained; the edge cache heals on the next real request.
func (c *NginxWebServerCache) Shutdown() {
	c.cancel()
	c.client.CloseIdleConnections()
	c.clientRenew.CloseIdleConnections()
}

func (c *NginxWebServerCache) updateChain(url string) {
	defer c.wg.Done()
	c.log.Debug(c.ctx, "renewing url", logger.String("url", url))

	if err := c.withWorker(c.sem, func() error { return c.invalidateURL(url) }); err != nil {
		c.metrics.RecordInvalidation(false)
		c.log.Error(c.ctx, "failure removing url in cache (not refreshed)", err, logger.String("url", url))
		return
	}
	c.metrics.RecordInvalidation(true)

	if err := c.withWorker(c.semRenew, func() error { return c.generateCache(url) }); err != nil {
		c.metrics.RecordRenewal(false)
		c.log.Error(c.ctx, "failure renewing url in cache", err, logger.String("url", url))
		return
	}
	c.metrics.RecordRenewal(true)
}

func (c *NginxWebServerCache) removeChain(url string) {
	defer c.wg.Done()
	c.log.Debug(c.ctx, "removing from cache url", logger.String("url", url))

	if err := c.withWorker(c.sem, func() error { return c.invalidateURL(url) }); err != nil {
		c.metrics.RecordInvalidation(false)
		c.log.Error(c.ctx, "failure removing url from cache", err, logger.String("url", url))
		return
	}
	c.metrics.RecordInvalidation(true)
}

// withWorker runs fn while holding one slot of the given pool. Acquire only
// fails once the driver is shut down.
func (c *NginxWebServerCache) withWorker(sem *semaphore.Weighted, fn func() error) error {
	if err := sem.Acquire(c.ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)
	return fn()
}

// invalidateURL asks the edge cache to drop its stored copy of every locale
// variant of the URL: one HEAD with a refresh directive per configured
// language, plus one without a language cookie.
func (c *NginxWebServerCache) invalidateURL(url string) error {
	for _, locale := range c.localeVariants() {
		req, err := http.NewRequestWithContext(c.ctx, http.MethodHead, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set(constants.HeaderCacheControl, constants.CacheControlRefresh)
		setLocale(req, locale)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		c.log.Debug(c.ctx, "invalidate cache response",
			logger.Int("status", resp.StatusCode), logger.String("url", url))
	}
	return nil
}

// generateCache fetches every locale variant of the URL so the edge cache
// stores a fresh copy before the next real visitor asks for it. The response
// bodies are discarded; only the fetch side effect matters.
func (c *NginxWebServerCache) generateCache(url string) error {
	for _, locale := range c.localeVariants() {
		req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		setLocale(req, locale)

		resp, err := c.clientRenew.Do(req)
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.log.Debug(c.ctx, "generate new cache response",
			logger.Int("status", resp.StatusCode), logger.String("url", url))
	}
	return nil
}

// localeVariants returns the configured languages followed by "" for the
// cookie-less default variant.
func (c *NginxWebServerCache) localeVariants() []string {
	return append(append(make([]string, 0, len(c.languages)+1), c.languages...), "")
}

// setLocale attaches the language-selection cookie to a single request. Each
// request carries its own cookie, so concurrent URL chains share no cookie
// state.
func setLocale(req *http.Request, locale string) {
	if locale != "" {
		req.AddCookie(&http.Cookie{Name: constants.LanguageCookieName, Value: locale})
	}
}

// wait blocks until all scheduled chains finished; used by tests.
func (c *NginxWebServerCache) wait() {
	c.wg.Wait()
}
