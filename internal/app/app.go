// Package app arma el contenedor de dependencias a partir de la config.
// Lo usan el server HTTP y los comandos del CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/coralbridge/internal/comments"
	"github.com/dropDatabas3/coralbridge/internal/config"
	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/digest"
	"github.com/dropDatabas3/coralbridge/internal/embed"
	"github.com/dropDatabas3/coralbridge/internal/events"
	"github.com/dropDatabas3/coralbridge/internal/moderation"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/observability/metrics"
	"github.com/dropDatabas3/coralbridge/internal/provisioning"
	"github.com/dropDatabas3/coralbridge/internal/rate"
	"github.com/dropDatabas3/coralbridge/internal/security/adminkey"
	"github.com/dropDatabas3/coralbridge/internal/security/secretbox"
	"github.com/dropDatabas3/coralbridge/internal/settings"
	"github.com/dropDatabas3/coralbridge/internal/sso"
)

// ErrNoSMTP: digest sin servidor SMTP configurado.
var ErrNoSMTP = errors.New("app: smtp host not configured")

// Check es un chequeo de salud de una dependencia.
type Check func(ctx context.Context) error

// Container agrupa las dependencias ya construidas.
type Container struct {
	Config *config.Config

	Settings     *settings.Repository
	Coral        *coral.Client
	Signer       *sso.Signer
	EmbedTrust   embed.Trust
	Moderation   *moderation.Coordinator
	Comments     *comments.Fetcher
	Provisioning *provisioning.Flow

	Publisher        events.Publisher
	ProvisionLimiter rate.Limiter
	AdminKey         *adminkey.Verifier
	Metrics          *metrics.Metrics

	// Checks por componente para /healthz.
	Checks map[string]Check

	closers []func() error
}

// New construye el contenedor. Close libera conexiones aunque New falle a mitad.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: invalid config: %w", err)
	}
	log := logger.From(ctx).With(logger.Component("app"))

	c := &Container{Config: cfg, Checks: map[string]Check{}}

	if cfg.Metrics.Enabled {
		m, err := metrics.New(prometheus.NewRegistry())
		if err != nil {
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
		c.Metrics = m
	}

	var opts []settings.RepositoryOption
	if key := strings.TrimSpace(cfg.Security.SecretboxKey); key != "" {
		box, err := secretbox.New(key)
		if err != nil {
			return nil, fmt.Errorf("app: secretbox: %w", err)
		}
		opts = append(opts, settings.WithSealer(box))
	} else if cfg.IsProd() {
		log.Warn("secretbox key not set: coral api token stored in plain text")
	}

	store, err := openStore(ctx, cfg, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Settings = settings.NewRepository(store, opts...)

	c.Coral = coral.New(coral.WithObserver(c.Metrics))
	c.Signer = sso.NewSigner()
	trust, err := embed.NewTrust(cfg.Embed.ProxySecret, cfg.Embed.TrustedProxies)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("app: %w", err)
	}
	if !trust.Enabled() {
		log.Warn("embed proxy trust not configured: sso disabled, every visitor is anonymous")
	}
	c.EmbedTrust = trust
	c.Publisher = newPublisher(cfg)
	c.Moderation = moderation.NewCoordinator(c.Coral,
		moderation.WithPublisher(c.Publisher),
		moderation.WithRecorder(c.Metrics),
	)
	c.Comments = comments.NewFetcher(c.Coral)
	c.Provisioning = provisioning.NewFlow(c.Coral, c.Settings)
	c.AdminKey = adminkey.NewVerifier(cfg.Admin.APIKeyHash)
	c.ProvisionLimiter = newLimiter(cfg, c)

	log.Debug("container ready",
		logger.String("settings_driver", cfg.SettingsStore.Driver),
		logger.String("events_driver", cfg.Events.Driver),
		logger.Bool("rate_limit", c.ProvisionLimiter != nil),
		logger.Bool("admin_api", c.AdminKey.Enabled()),
	)
	return c, nil
}

// Digest arma el resumen de colas por e-mail.
func (c *Container) Digest() (*digest.Digest, error) {
	s := c.Config.SMTP
	if strings.TrimSpace(s.Host) == "" {
		return nil, ErrNoSMTP
	}
	sender := digest.NewSMTPSender(s.Host, s.Port, s.From, s.Username, s.Password)
	sender.TLSMode = s.TLSMode
	sender.InsecureSkipVerify = s.InsecureSkipVerify
	return digest.New(c.Moderation, sender, digest.Options{
		Recipients:    c.Config.Digest.Recipients,
		SubjectPrefix: c.Config.Digest.SubjectPrefix,
		SendEmpty:     c.Config.Digest.SendEmpty,
	}), nil
}

// Close cierra pools y clientes en orden inverso.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) onClose(fn func() error) { c.closers = append(c.closers, fn) }

func newPublisher(cfg *config.Config) events.Publisher {
	switch cfg.Events.Driver {
	case "amqp":
		return events.NewAMQPPublisher(cfg.Events.AMQP.URL, cfg.Events.AMQP.Queue)
	case "none":
		return events.Noop{}
	default:
		return events.LogPublisher{}
	}
}

func newLimiter(cfg *config.Config, c *Container) rate.Limiter {
	if cfg.Rate.Disabled || cfg.Rate.Provision.Limit == 0 {
		return nil
	}
	window := config.Duration(cfg.Rate.Provision.Window, rate.DefaultWindow)
	if cfg.Rate.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Rate.Redis.Addr})
		c.onClose(rdb.Close)
		c.Checks["rate_redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return rate.NewRedisLimiter(rdb, cfg.Rate.Redis.Prefix, cfg.Rate.Provision.Limit, window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.Provision.Limit, window)
}
