// Package loader fetches a deck manifest and its card files over HTTP.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/parser"
)

// DefaultManifest is the manifest file name relative to the deck base URL.
const DefaultManifest = "index.json"

// Loader fetches the manifest and card files of one deck.
type Loader struct {
	client   *http.Client
	base     *url.URL
	manifest string
	logger   *slog.Logger
}

// New creates a Loader for the deck rooted at baseURL. Card files and the
// manifest are resolved relative to it; a trailing slash is added when
// missing. An empty manifest name selects DefaultManifest.
func New(client *http.Client, baseURL, manifest string, logger *slog.Logger) (*Loader, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if manifest == "" {
		manifest = DefaultManifest
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("loader: parse base url: %w", err)
	}
	return &Loader{client: client, base: base, manifest: manifest, logger: logger}, nil
}

// Resolve returns the absolute URL of a path inside the deck.
func (l *Loader) Resolve(path string) string {
	ref := &url.URL{Path: path}
	return l.base.ResolveReference(ref).String()
}

// LoadIndex fetches and decodes the manifest. Any transport failure or
// non-success status is returned as an error.
func (l *Loader) LoadIndex(ctx context.Context) (*models.Manifest, error) {
	target := l.Resolve(l.manifest)
	resp, err := l.get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return nil, fmt.Errorf("loader: missing manifest %s: status %d", target, resp.StatusCode)
	}

	var m models.Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("loader: decode manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = []string{}
	}
	return &m, nil
}

// LoadAllCards fetches files one after another in the given order and
// parses each into a Card. Files answered with a non-success status are
// skipped; a transport or read failure aborts the remaining loads.
func (l *Loader) LoadAllCards(ctx context.Context, files []string) ([]models.Card, error) {
	cards := make([]models.Card, 0, len(files))
	for _, f := range files {
		target := l.Resolve(f)
		resp, err := l.get(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("loader: fetch %s: %w", f, err)
		}
		if !ok(resp.StatusCode) {
			resp.Body.Close()
			l.logger.Debug("loader: card skipped", slog.String("path", f), slog.Int("status", resp.StatusCode))
			continue
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", f, err)
		}
		cards = append(cards, parser.Parse(string(raw), f))
	}
	return cards, nil
}

// Load fetches the manifest and then every card it lists.
func (l *Loader) Load(ctx context.Context) ([]models.Card, error) {
	m, err := l.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}
	cards, err := l.LoadAllCards(ctx, m.Files)
	if err != nil {
		return nil, err
	}
	l.logger.Info("loader: deck loaded",
		slog.Int("listed", len(m.Files)),
		slog.Int("loaded", len(cards)))
	return cards, nil
}

func (l *Loader) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	return l.client.Do(req)
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

// NewTransport returns a clone of the default transport that additionally
// serves file:// URLs from the local file system, so a cards directory can
// be used as a deck origin.
func NewTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return t
}
