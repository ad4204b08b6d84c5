package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod. En dev los errores exponen el detalle.
		Env string `yaml:"env"`
		// Level de log (debug|info|warn|error)
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		DSN            string        `yaml:"dsn"`
		MaxConns       int32         `yaml:"max_conns"`
		MinConns       int32         `yaml:"min_conns"`
		AcquireTimeout time.Duration `yaml:"acquire_timeout"`
		MigrateOnStart bool          `yaml:"migrate_on_start"`
	} `yaml:"database"`

	JWT struct {
		AccessSecret  string `yaml:"access_secret"`
		RefreshSecret string `yaml:"refresh_secret"`
		Issuer        string `yaml:"issuer"`
	} `yaml:"jwt"`

	Password struct {
		MemoryKiB     uint32 `yaml:"memory_kib"`
		Time          uint32 `yaml:"time"`
		Parallelism   uint8  `yaml:"parallelism"`
		BlacklistPath string `yaml:"blacklist_path"`
	} `yaml:"password"`

	TenantContext struct {
		// closed (default) | open
		FailMode string        `yaml:"fail_mode"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"tenant_context"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		Enabled bool       `yaml:"enabled"`
		Login   RateBucket `yaml:"login"`
		Refresh RateBucket `yaml:"refresh"`
		// IPs o CIDRs de proxies cuyo X-Forwarded-For se acepta.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"rate"`

	Webhook struct {
		Secret string `yaml:"secret"`
	} `yaml:"webhook"`
}

type RateBucket struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// IsDev indica si los errores pueden exponer detalle interno.
func (c *Config) IsDev() bool { return c.App.Env == "dev" }

// Load lee el YAML (si path no es vacío), aplica defaults y después las
// variables de entorno. No valida: llamar Validate.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "prod"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 20 * time.Second
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.AcquireTimeout == 0 {
		c.Database.AcquireTimeout = 3 * time.Second
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "propmanager"
	}
	if c.TenantContext.FailMode == "" {
		c.TenantContext.FailMode = "closed"
	}
	if c.TenantContext.CacheTTL == 0 {
		c.TenantContext.CacheTTL = 5 * time.Minute
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "propmanager"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == 0 {
		c.Rate.Login.Window = time.Minute
	}
	if c.Rate.Refresh.Limit == 0 {
		c.Rate.Refresh.Limit = 30
	}
	if c.Rate.Refresh.Window == 0 {
		c.Rate.Refresh.Window = time.Minute
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// DATABASE
	if v, ok := getEnvStr("DATABASE_DSN"); ok {
		c.Database.DSN = v
	}
	if v, ok := getEnvInt("DATABASE_MAX_CONNS"); ok {
		c.Database.MaxConns = int32(v)
	}
	if v, ok := getEnvDur("DATABASE_ACQUIRE_TIMEOUT"); ok {
		c.Database.AcquireTimeout = v
	}
	if v, ok := getEnvBool("DATABASE_MIGRATE_ON_START"); ok {
		c.Database.MigrateOnStart = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ACCESS_SECRET"); ok {
		c.JWT.AccessSecret = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_SECRET"); ok {
		c.JWT.RefreshSecret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}

	// PASSWORD
	if v, ok := getEnvStr("PASSWORD_BLACKLIST_PATH"); ok {
		c.Password.BlacklistPath = v
	}

	// TENANT CONTEXT
	if v, ok := getEnvStr("TENANT_CONTEXT_FAIL_MODE"); ok {
		c.TenantContext.FailMode = strings.ToLower(v)
	}
	if v, ok := getEnvDur("TENANT_CONTEXT_CACHE_TTL"); ok {
		c.TenantContext.CacheTTL = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvDur("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_REFRESH_LIMIT"); ok {
		c.Rate.Refresh.Limit = v
	}
	if v, ok := getEnvDur("RATE_REFRESH_WINDOW"); ok {
		c.Rate.Refresh.Window = v
	}
	if v, ok := getEnvStr("RATE_TRUSTED_PROXIES"); ok {
		c.Rate.TrustedProxies = strings.Split(v, ",")
	}

	// WEBHOOK
	if v, ok := getEnvStr("WEBHOOK_SECRET"); ok {
		c.Webhook.Secret = v
	}
}

// MinSecretLen es el largo mínimo de cada secreto (jwt, webhook).
const MinSecretLen = 32

// Validate revisa los valores críticos. Secretos faltantes o débiles son
// error: el servicio no arranca.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if len(c.JWT.AccessSecret) < MinSecretLen {
		errs = append(errs, fmt.Errorf("jwt.access_secret must be at least %d bytes", MinSecretLen))
	}
	if len(c.JWT.RefreshSecret) < MinSecretLen {
		errs = append(errs, fmt.Errorf("jwt.refresh_secret must be at least %d bytes", MinSecretLen))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("jwt.access_secret and jwt.refresh_secret must differ"))
	}
	if c.Webhook.Secret != "" && len(c.Webhook.Secret) < MinSecretLen {
		errs = append(errs, fmt.Errorf("webhook.secret must be at least %d bytes", MinSecretLen))
	}
	switch c.TenantContext.FailMode {
	case "closed", "open":
	default:
		errs = append(errs, fmt.Errorf("tenant_context.fail_mode must be closed|open, got %q", c.TenantContext.FailMode))
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required when cache.kind=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind must be memory|redis, got %q", c.Cache.Kind))
	}
	for _, p := range c.Rate.TrustedProxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil && net.ParseIP(p) == nil {
			errs = append(errs, fmt.Errorf("rate.trusted_proxies: invalid ip or cidr %q", p))
		}
	}
	if c.Database.AcquireTimeout <= 0 {
		errs = append(errs, errors.New("database.acquire_timeout must be > 0"))
	}
	return errors.Join(errs...)
}
