package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/koinecards/internal/loader"
	"github.com/starford/koinecards/internal/offline"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Deck  DeckConfig        `yaml:"deck"`
	Cache CacheConfig       `yaml:"cache"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Deck.Validate(); err != nil {
		return fmt.Errorf("deck: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile redirects logs to a file. Empty means stdout, except for the
	// terminal viewer which then discards them.
	LogFile string     `yaml:"log_file"`
	HTTP    HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DeckConfig locates the deck.
//
// URL is the base the manifest and card paths resolve against (http, https
// or file). When it is empty the deck is read from Dir. Dir is also the
// directory served under /cards/ and watched for manifest rebuilds.
type DeckConfig struct {
	URL      string `yaml:"url"`
	Dir      string `yaml:"dir"`
	Manifest string `yaml:"manifest"`
	Watch    bool   `yaml:"watch"`
}

var errBadScheme = errors.New("must be an http, https or file URL")

func validDeckURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	default:
		return errBadScheme
	}
}

// Validate validates the deck configuration.
func (c *DeckConfig) Validate() error {
	if c.Manifest == "" {
		c.Manifest = loader.DefaultManifest
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URL,
			validation.When(c.Dir == "", validation.Required.Error("url or dir is required")),
			validation.By(validDeckURL)),
		validation.Field(&c.Dir, validation.When(c.Watch, validation.Required.Error("is required to watch"))),
	)
}

// BaseURL returns the URL the deck is loaded from.
func (c *DeckConfig) BaseURL() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	abs, err := filepath.Abs(c.Dir)
	if err != nil {
		return "", fmt.Errorf("resolve deck dir: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs) + "/"}).String(), nil
}

// CacheConfig controls the offline cache.
//
// Version names the active cache store; changing it makes the next start
// evict every other store. Assets are paths, resolved against the deck URL,
// that are fetched at install time.
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"`
	Path    string   `yaml:"path"`
	Version string   `yaml:"version"`
	Assets  []string `yaml:"assets"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Version, validation.When(c.Enabled, validation.Required)),
	)
}

// AuthConfig holds authentication configuration for the JSON API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Deck: DeckConfig{
			Dir:      "./cards",
			Manifest: loader.DefaultManifest,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "./koinecards-cache.db",
			Version: offline.DefaultVersion,
			Assets:  []string{loader.DefaultManifest},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
