package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/restops/auth"
	"github.com/jonwraymond/restops/endpoint"
	"github.com/jonwraymond/restops/middleware"
	"github.com/jonwraymond/restops/observe"
	"github.com/jonwraymond/restops/secret"
)

// Cache backends.
const (
	BackendFile    = "file"
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
)

// Config is the restops server configuration.
type Config struct {
	Server    ServerConfig          `yaml:"server"`
	Cache     CacheConfig           `yaml:"cache"`
	Observe   observe.Config        `yaml:"observe"`
	CORS      middleware.CORSConfig `yaml:"cors"`
	Sanitize  SanitizeConfig        `yaml:"sanitize"`
	RateLimit RateLimitConfig       `yaml:"rate_limit"`
	Auth      AuthConfig            `yaml:"auth"`
	Secrets   SecretsConfig         `yaml:"secrets"`
}

// ServerConfig configures the HTTP listener and the shared request limits.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`

	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes    ByteSize `yaml:"max_header_bytes"`

	// RequestTimeout bounds each pipeline run. Zero disables it.
	RequestTimeout Duration `yaml:"request_timeout"`

	// MaxConcurrent caps in-flight requests per route. Zero disables it.
	MaxConcurrent int      `yaml:"max_concurrent"`
	MaxWait       Duration `yaml:"max_wait"`
}

// CacheConfig selects and tunes the response cache.
type CacheConfig struct {
	// Backend is file (default), memory or leveldb.
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`

	DefaultTTL Duration `yaml:"default_ttl"`
	MaxTTL     Duration `yaml:"max_ttl"`

	// Serialization is raw, json (default) or binary.
	Serialization string `yaml:"serialization"`

	// Keyer is md5 (default) or xxhash.
	Keyer string `yaml:"keyer"`
}

// SanitizeConfig is the YAML form of middleware.SanitizeConfig.
type SanitizeConfig struct {
	Enabled      bool                `yaml:"enabled"`
	KeepTags     bool                `yaml:"keep_tags"`
	SkipEncoding bool                `yaml:"skip_encoding"`
	AllowedTags  map[string][]string `yaml:"allowed_tags"`
	Encoding     string              `yaml:"encoding"`
}

// RateLimitConfig is the YAML form of middleware.RateLimitConfig.
type RateLimitConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Rate      float64  `yaml:"rate"`
	Burst     int      `yaml:"burst"`
	MaxWait   Duration `yaml:"max_wait"`
	PerClient bool     `yaml:"per_client"`
}

// AuthConfig configures the permission guard.
type AuthConfig struct {
	Enabled        bool `yaml:"enabled"`
	AllowAnonymous bool `yaml:"allow_anonymous"`

	APIKeyHeader string         `yaml:"api_key_header"`
	APIKeys      []APIKeyConfig `yaml:"api_keys"`

	JWT  JWTConfig       `yaml:"jwt"`
	RBAC auth.RBACConfig `yaml:"rbac"`
}

// APIKeyConfig registers one API key. Key may be a secretref.
type APIKeyConfig struct {
	ID        string   `yaml:"id"`
	Key       string   `yaml:"key"`
	Principal string   `yaml:"principal"`
	TenantID  string   `yaml:"tenant_id"`
	Roles     []string `yaml:"roles"`
	ExpiresAt string   `yaml:"expires_at"`

	expiresAt time.Time
}

// JWTConfig enables bearer tokens when Secret is set. Secret may be a
// secretref.
type JWTConfig struct {
	Secret     string   `yaml:"secret"`
	Issuer     string   `yaml:"issuer"`
	Audience   string   `yaml:"audience"`
	RolesClaim string   `yaml:"roles_claim"`
	Leeway     Duration `yaml:"leeway"`
}

// SecretsConfig configures the providers behind secretref: values.
type SecretsConfig struct {
	// Dir enables secretref:file:<name>.
	Dir string `yaml:"dir"`
	// EnvPrefix is prepended to secretref:env:<name> lookups.
	EnvPrefix string `yaml:"env_prefix"`
}

// Default returns the configuration used for absent fields.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			Prefix:            "api",
			ReadHeaderTimeout: Duration(5 * time.Second),
			ShutdownTimeout:   Duration(10 * time.Second),
			MaxHeaderBytes:    1 << 20,
		},
		Cache: CacheConfig{
			Backend:       BackendFile,
			Dir:           "cache",
			DefaultTTL:    Duration(endpoint.DefaultTTL),
			Serialization: "json",
			Keyer:         "md5",
		},
		Observe: observe.Config{
			ServiceName: "restops",
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		CORS: middleware.DefaultCORSConfig(),
		RateLimit: RateLimitConfig{
			Rate:  100,
			Burst: 10,
		},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(context.Background(), b)
}

// Parse decodes a YAML document over Default, validates it and resolves
// credentials.
func Parse(ctx context.Context, data []byte) (*Config, error) {
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resolver := secret.NewResolver(true, secret.NewEnvProvider(cfg.Secrets.EnvPrefix))
	if cfg.Secrets.Dir != "" {
		resolver.Register(secret.NewFileProvider(cfg.Secrets.Dir))
	}
	defer resolver.Close()
	if err := cfg.ResolveSecrets(ctx, resolver); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and compiles derived fields.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr: %w", ErrMissingField)
	}
	if c.Server.MaxConcurrent < 0 {
		return fmt.Errorf("server.max_concurrent: %w: %d", ErrInvalidValue, c.Server.MaxConcurrent)
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout: %w: negative", ErrInvalidValue)
	}

	switch c.Cache.Backend {
	case BackendFile, BackendLevelDB:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir: %w", ErrMissingField)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("cache.backend: %w: %q", ErrInvalidBackend, c.Cache.Backend)
	}
	if c.Cache.DefaultTTL < 0 || c.Cache.MaxTTL < 0 {
		return fmt.Errorf("cache: %w: negative ttl", ErrInvalidValue)
	}
	if _, err := endpoint.ParseSerialization(c.Cache.Serialization); err != nil {
		return fmt.Errorf("cache.serialization: %w", err)
	}
	if !slices.Contains([]string{"", "md5", "xxhash"}, c.Cache.Keyer) {
		return fmt.Errorf("cache.keyer: %w: %q", ErrInvalidValue, c.Cache.Keyer)
	}

	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("observe: %w", err)
	}

	if c.RateLimit.Enabled && (c.RateLimit.Rate < 0 || c.RateLimit.Burst < 0) {
		return fmt.Errorf("rate_limit: %w: negative rate or burst", ErrInvalidValue)
	}

	return c.Auth.validate()
}

func (a *AuthConfig) validate() error {
	for i := range a.APIKeys {
		k := &a.APIKeys[i]
		if k.Key == "" {
			return fmt.Errorf("auth.api_keys[%d].key: %w", i, ErrMissingField)
		}
		if k.Principal == "" {
			return fmt.Errorf("auth.api_keys[%d].principal: %w", i, ErrMissingField)
		}
		if k.ID == "" {
			k.ID = fmt.Sprintf("key-%d", i)
		}
		if k.ExpiresAt != "" {
			t, err := time.Parse(time.RFC3339, k.ExpiresAt)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].expires_at: %w", i, err)
			}
			k.expiresAt = t
		}
	}
	if a.Enabled && len(a.APIKeys) == 0 && a.JWT.Secret == "" {
		return fmt.Errorf("auth: %w: api_keys or jwt.secret", ErrMissingField)
	}
	if role := a.RBAC.DefaultRole; role != "" {
		if _, ok := a.RBAC.Roles[role]; !ok {
			return fmt.Errorf("auth.rbac.default_role: %w: unknown role %q", ErrInvalidValue, role)
		}
	}
	for name, role := range a.RBAC.Roles {
		for _, parent := range role.Inherits {
			if _, ok := a.RBAC.Roles[parent]; !ok {
				return fmt.Errorf("auth.rbac.roles.%s.inherits: %w: unknown role %q", name, ErrInvalidValue, parent)
			}
		}
	}
	return nil
}

// ResolveSecrets replaces secretref: values in credential fields.
func (c *Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) error {
	targets := map[string]*string{"auth.jwt.secret": &c.Auth.JWT.Secret}
	for i := range c.Auth.APIKeys {
		targets[fmt.Sprintf("auth.api_keys[%d].key", i)] = &c.Auth.APIKeys[i].Key
	}
	return r.ResolveInPlace(ctx, targets)
}

// Redacted returns a copy safe to print, with credentials masked.
func (c Config) Redacted() Config {
	const mask = "********"
	if c.Auth.JWT.Secret != "" {
		c.Auth.JWT.Secret = mask
	}
	keys := slices.Clone(c.Auth.APIKeys)
	for i := range keys {
		keys[i].Key = mask
	}
	c.Auth.APIKeys = keys
	return c
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
