package config

import (
	"path/filepath"
	"time"

	jaegerconfig "github.com/uber/jaeger-client-go/config"
)

type Global struct {
	// Logging configuration. Each entry installs a logrus hook.
	Logging []LogrusHook `yaml:"logging"`

	// Metrics configuration
	Metrics Metrics `yaml:"metrics"`

	// Sentry configuration
	Sentry Sentry `yaml:"sentry"`

	// Tracing configuration
	Tracing Tracing `yaml:"tracing"`
}

func (c *Global) Defaults(generate bool) {
	if generate {
		c.Logging = []LogrusHook{
			{
				Type:  "std",
				Level: "info",
			},
			{
				Type:   "file",
				Level:  "info",
				Params: map[string]interface{}{"path": "./logs"},
			},
		}
	}
	c.Metrics.Defaults(generate)
	c.Sentry.Defaults()
	c.Tracing.Defaults()
}

func (c *Global) Verify(configErrs *ConfigErrors) {
	for _, hook := range c.Logging {
		switch hook.Type {
		case "file", "syslog", "std":
		default:
			configErrs.Add("invalid value for config key \"global.logging.type\": " + hook.Type)
		}
		checkNotEmpty(configErrs, "global.logging.level", hook.Level)
	}
	c.Metrics.Verify(configErrs)
	c.Sentry.Verify(configErrs)
}

// resolvePaths makes relative file hook paths relative to basePath.
func (c *Global) resolvePaths(basePath string) {
	for i, hook := range c.Logging {
		if hook.Type != "file" {
			continue
		}
		p, ok := hook.Params["path"].(string)
		if !ok || filepath.IsAbs(p) {
			continue
		}
		c.Logging[i].Params["path"] = filepath.Join(basePath, p)
	}
}

type Metrics struct {
	// Whether or not the metrics are enabled
	Enabled bool `yaml:"enabled"`
	// Use BasicAuth for Authorization
	BasicAuth struct {
		// Authorization via Static Username & Password
		// Hardcoded Username and Password
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"basic_auth"`
}

func (c *Metrics) Defaults(generate bool) {
	c.Enabled = false
	if generate {
		c.BasicAuth.Username = "metrics"
		c.BasicAuth.Password = "metrics"
	}
}

func (c *Metrics) Verify(configErrs *ConfigErrors) {
}

type Sentry struct {
	Enabled bool `yaml:"enabled"`
	// The DSN to connect to e.g "https://examplePublicKey@o0.ingest.sentry.io/0"
	// See https://docs.sentry.io/platforms/go/configuration/options/
	DSN string `yaml:"dsn"`
	// The environment e.g "production"
	// See https://docs.sentry.io/platforms/go/configuration/environments/
	Environment string `yaml:"environment"`
}

func (c *Sentry) Defaults() {
	c.Enabled = false
}

func (c *Sentry) Verify(configErrs *ConfigErrors) {
	if c.Enabled {
		checkNotEmpty(configErrs, "global.sentry.dsn", c.DSN)
	}
}

// The configuration to use for Opentracing
type Tracing struct {
	// Set to true to enable tracer hooks. If false, no tracing is set up.
	Enabled bool `yaml:"enabled"`
	// The config for the jaeger opentracing reporter.
	Jaeger jaegerconfig.Configuration `yaml:"jaeger"`
}

func (c *Tracing) Defaults() {
	c.Enabled = false
	c.Jaeger = jaegerconfig.Configuration{}
}

type DatabaseOptions struct {
	// The connection string, file:filename.db or postgres://server....
	// Left empty, sessions are kept in memory only.
	ConnectionString DataSource `yaml:"connection_string"`
	// Maximum open connections to the DB (0 = use default, negative means unlimited)
	MaxOpenConnections int `yaml:"max_open_conns"`
	// Maximum idle connections to the DB (0 = use default, negative means unlimited)
	MaxIdleConnections int `yaml:"max_idle_conns"`
	// maximum amount of time (in seconds) a connection may be reused (<= 0 means unlimited)
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime"`
}

func (c *DatabaseOptions) Defaults(conns int) {
	c.MaxOpenConnections = conns
	c.MaxIdleConnections = 2
	c.ConnMaxLifetimeSeconds = -1
}

func (c DatabaseOptions) MaxIdleConns() int {
	return c.MaxIdleConnections
}

func (c DatabaseOptions) MaxOpenConns() int {
	return c.MaxOpenConnections
}

func (c DatabaseOptions) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeSeconds) * time.Second
}
