package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML).
	App struct {
		// dev | staging | prod
		Env     string `yaml:"app_env"`
		Name    string `yaml:"name"`
		Version string `yaml:"-"`
	} `yaml:"app"`

	Log struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"` // json | console; vacío = según env
	} `yaml:"log"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Admin: hash argon2id (PHC) de la API key del header X-Admin-API-Key.
	// Vacío = endpoints /v1/admin deshabilitados.
	Admin struct {
		APIKeyHash string `yaml:"api_key_hash"`
	} `yaml:"admin"`

	// SettingsStore: dónde viven las preferencias coral_*.
	SettingsStore struct {
		Driver string `yaml:"driver"` // file | mysql | sqlite | postgres | redis | memory
		Path   string `yaml:"path"`   // file
		DSN    string `yaml:"dsn"`    // mysql | sqlite | postgres
		Table  string `yaml:"table"`  // mysql | sqlite
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Key      string `yaml:"key"`
		} `yaml:"redis"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"settings_store"`

	Security struct {
		// Clave de secretbox para cifrar el token de API en reposo (base64/hex/raw de 32 bytes).
		SecretboxKey string `yaml:"secretbox_key"`
	} `yaml:"security"`

	Rate struct {
		// Activo por defecto: cada intento de aprovisionamiento manda credenciales a Coral.
		Disabled bool   `yaml:"disabled"`
		Backend  string `yaml:"backend"` // memory | redis
		Redis    struct {
			Addr   string `yaml:"addr"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Provision struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"provision"`
	} `yaml:"rate"`

	Events struct {
		Driver string `yaml:"driver"` // log | amqp | none
		AMQP   struct {
			URL   string `yaml:"url"`
			Queue string `yaml:"queue"`
		} `yaml:"amqp"`
	} `yaml:"events"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		From               string `yaml:"from"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		TLSMode            string `yaml:"tls_mode"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Digest struct {
		Recipients    []string `yaml:"recipients"`
		SubjectPrefix string   `yaml:"subject_prefix"`
		SendEmpty     bool     `yaml:"send_empty"`
	} `yaml:"digest"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		// Addr vacío = /metrics en el server principal.
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	// Embed: de dónde se acepta la identidad del visitante para firmar SSO.
	// Los headers X-Session-* solo cuentan si el request trae el secreto
	// compartido del proxy o viene de una red confiable. Sin ninguno de los
	// dos el embed es siempre anónimo.
	Embed struct {
		ProxySecret    string   `yaml:"proxy_secret"`
		TrustedProxies []string `yaml:"trusted_proxies"` // CIDRs
	} `yaml:"embed"`
}

// Default devuelve una config usable sin archivo: store en archivo local,
// rate limit en memoria, eventos al log.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load lee path (si no está vacío), aplica defaults y variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "coralbridge"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "15s"
	}
	if c.Server.WriteTimeout == "" {
		// createToken + login pueden tardar 2x el timeout de Coral
		c.Server.WriteTimeout = "30s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.SettingsStore.Driver == "" {
		c.SettingsStore.Driver = "file"
	}
	if c.SettingsStore.Driver == "file" && c.SettingsStore.Path == "" {
		c.SettingsStore.Path = "data/coral_prefs.yaml"
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Provision.Limit == 0 {
		c.Rate.Provision.Limit = 5
	}
	if c.Rate.Provision.Window == "" {
		c.Rate.Provision.Window = "10m"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "log"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
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
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_ENCODING"); ok {
		c.Log.Encoding = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("CORALBRIDGE_ADDR"); ok {
		c.Server.Addr = v
	}

	// ADMIN
	if v, ok := getEnvStr("CORALBRIDGE_ADMIN_KEY_HASH"); ok {
		c.Admin.APIKeyHash = v
	}

	// SETTINGS STORE
	if v, ok := getEnvStr("CORALBRIDGE_SETTINGS_DRIVER"); ok {
		c.SettingsStore.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("CORALBRIDGE_SETTINGS_PATH"); ok {
		c.SettingsStore.Path = v
	}
	if v, ok := getEnvStr("CORALBRIDGE_SETTINGS_TABLE"); ok {
		c.SettingsStore.Table = v
	}
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.SettingsStore.DSN = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.SettingsStore.Redis.Addr = v
		c.Rate.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.SettingsStore.Redis.Password = v
	}

	// SECURITY
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretboxKey = v
	}

	// RATE
	if v, ok := getEnvBool("CORALBRIDGE_RATE_ENABLED"); ok {
		c.Rate.Disabled = !v
	}
	if v, ok := getEnvStr("CORALBRIDGE_RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}

	// EVENTS
	if v, ok := getEnvStr("CORALBRIDGE_EVENTS_DRIVER"); ok {
		c.Events.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("RABBITMQ_URL"); ok {
		c.Events.AMQP.URL = v
		if c.Events.Driver == "" {
			c.Events.Driver = "amqp"
		}
	}

	// SMTP / DIGEST
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvCSV("CORALBRIDGE_DIGEST_RECIPIENTS"); ok {
		c.Digest.Recipients = v
	}

	// METRICS
	if v, ok := getEnvBool("CORALBRIDGE_METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
	if v, ok := getEnvStr("CORALBRIDGE_METRICS_ADDR"); ok {
		c.Metrics.Addr = v
	}

	// EMBED
	if v, ok := getEnvStr("CORALBRIDGE_EMBED_PROXY_SECRET"); ok {
		c.Embed.ProxySecret = v
	}
	if v, ok := getEnvCSV("CORALBRIDGE_TRUSTED_PROXIES"); ok {
		c.Embed.TrustedProxies = v
	}
}

// Validate revisa combinaciones que no pueden funcionar.
func (c *Config) Validate() error {
	var errs []error
	switch c.App.Env {
	case "dev", "staging", "prod":
	default:
		errs = append(errs, fmt.Errorf("app.app_env: unknown env %q", c.App.Env))
	}

	switch c.SettingsStore.Driver {
	case "memory":
	case "file":
		if c.SettingsStore.Path == "" {
			errs = append(errs, errors.New("settings_store.path is required for driver file"))
		}
	case "mysql", "sqlite", "postgres":
		if c.SettingsStore.DSN == "" {
			errs = append(errs, fmt.Errorf("settings_store.dsn is required for driver %s", c.SettingsStore.Driver))
		}
	case "redis":
		if c.SettingsStore.Redis.Addr == "" {
			errs = append(errs, errors.New("settings_store.redis.addr is required for driver redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("settings_store.driver: unknown driver %q", c.SettingsStore.Driver))
	}

	switch c.Rate.Backend {
	case "memory":
	case "redis":
		if !c.Rate.Disabled && c.Rate.Redis.Addr == "" {
			errs = append(errs, errors.New("rate.redis.addr is required for backend redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("rate.backend: unknown backend %q", c.Rate.Backend))
	}
	if c.Rate.Provision.Limit < 0 {
		errs = append(errs, errors.New("rate.provision.limit must be >= 0"))
	}

	switch c.Events.Driver {
	case "log", "none":
	case "amqp":
		if c.Events.AMQP.URL == "" {
			errs = append(errs, errors.New("events.amqp.url is required for driver amqp"))
		}
	default:
		errs = append(errs, fmt.Errorf("events.driver: unknown driver %q", c.Events.Driver))
	}

	for _, cidr := range c.Embed.TrustedProxies {
		if _, err := netip.ParsePrefix(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, fmt.Errorf("embed.trusted_proxies: invalid cidr %q", cidr))
		}
	}

	for name, v := range map[string]string{
		"server.read_timeout":                       c.Server.ReadTimeout,
		"server.write_timeout":                      c.Server.WriteTimeout,
		"server.shutdown_timeout":                   c.Server.ShutdownTimeout,
		"rate.provision.window":                     c.Rate.Provision.Window,
		"settings_store.postgres.conn_max_lifetime": c.SettingsStore.Postgres.ConnMaxLifetime,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}
	return errors.Join(errs...)
}

// Duration parsea v o devuelve def si está vacío o es inválido.
// Validate ya rechazó los inválidos; esto es para los call sites.
func Duration(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
		return d
	}
	return def
}

// IsProd indica si corre en producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }
