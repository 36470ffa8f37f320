package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/starford/koinecards/internal/apperr"
)

// DefaultVersion tags the current cache. Bump it whenever the pre-populated
// asset list changes so Activate evicts the previous store.
const DefaultVersion = "koinecards-v1"

// Options configures a Cache.
type Options struct {
	// Version names the current cache store.
	Version string
	// Assets are absolute URLs fetched and stored by Install.
	Assets []string
	// Next performs network requests. Defaults to http.DefaultTransport.
	Next   http.RoundTripper
	Logger *slog.Logger
}

// Cache is a cache-first http.RoundTripper. Lookups hit the versioned store
// before the network; network responses are stored on the way back.
// Distinct requests may be served concurrently.
type Cache struct {
	store   Store
	version string
	assets  []string
	next    http.RoundTripper
	logger  *slog.Logger
}

var _ http.RoundTripper = (*Cache)(nil)

// New creates a Cache over store.
func New(store Store, opts Options) *Cache {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Next == nil {
		opts.Next = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		store:   store,
		version: opts.Version,
		assets:  append([]string(nil), opts.Assets...),
		next:    opts.Next,
		logger:  opts.Logger,
	}
}

// Version returns the tag of the current cache store.
func (c *Cache) Version() string {
	return c.version
}

// Install opens the current store and pre-populates it with every asset.
// It is all-or-nothing: if any asset cannot be fetched, answers with a
// non-success status, or cannot be written, nothing is stored and the error
// is returned.
func (c *Cache) Install(ctx context.Context) error {
	snaps := make([]*Snapshot, 0, len(c.assets))
	for _, asset := range c.assets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset, nil)
		if err != nil {
			return fmt.Errorf("offline: install %s: %w", asset, err)
		}
		resp, err := c.next.RoundTrip(req)
		if err != nil {
			return fmt.Errorf("offline: install %s: %w", asset, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return fmt.Errorf("offline: install %s: status %d", asset, resp.StatusCode)
		}
		snap, err := snapshot(resp)
		if err != nil {
			return fmt.Errorf("offline: install %s: %w", asset, err)
		}
		snap.URL = req.URL.String()
		snaps = append(snaps, snap)
	}

	if err := c.store.PutAll(ctx, c.version, snaps); err != nil {
		return fmt.Errorf("offline: install: %w", err)
	}
	c.logger.Info("offline: installed",
		slog.String("version", c.version),
		slog.Int("assets", len(snaps)))
	return nil
}

// Installed reports whether the store for the current version exists, i.e.
// an earlier Install succeeded. A failed re-install leaves it usable.
func (c *Cache) Installed(ctx context.Context) (bool, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(keys, c.version), nil
}

// Activate deletes every cache store whose name differs from the current
// version and returns the names it deleted.
func (c *Cache) Activate(ctx context.Context) ([]string, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, k := range keys {
		if k == c.version {
			continue
		}
		if _, err := c.store.Delete(ctx, k); err != nil {
			return deleted, err
		}
		deleted = append(deleted, k)
		c.logger.Info("offline: evicted stale cache", slog.String("version", k))
	}
	return deleted, nil
}

// RoundTrip serves GET requests from the current store when possible and
// otherwise forwards to the network, storing the response best-effort.
// The request's own Cache-Control header does not bypass the store.
func (c *Cache) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	key := req.URL.String()
	cacheable := req.Method == http.MethodGet

	if cacheable {
		snap, err := c.store.Match(ctx, c.version, key)
		if err == nil {
			c.logger.Debug("offline: hit", slog.String("url", key))
			return snap.Response(req), nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			c.logger.Debug("offline: lookup failed", slog.String("url", key), slog.String("error", err.Error()))
		}
	}

	resp, err := c.next.RoundTrip(req)
	if err != nil {
		// Nothing was cached for this request, so there is no fallback.
		return nil, err
	}
	if !cacheable || resp.StatusCode == http.StatusPartialContent {
		return resp, nil
	}

	snap, err := snapshot(resp)
	if err != nil {
		return nil, err
	}
	snap.URL = key
	if err := c.store.Put(ctx, c.version, key, snap); err != nil {
		// Storage failures never reach the caller; the response is still served.
		c.logger.Debug("offline: store dropped", slog.String("url", key), slog.String("error", err.Error()))
	}
	return resp, nil
}
