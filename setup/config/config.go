// Copyright 2026 The SafeTrack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	jaegerconfig "github.com/uber/jaeger-client-go/config"
	jaegermetrics "github.com/uber/jaeger-lib/metrics"
	"gopkg.in/yaml.v2"
)

// Version is the current version of the config format.
// This will change whenever we make breaking changes to the config format.
const Version = 1

// Console contains all the config used by the SafeTrack admin console.
type Console struct {
	// The version of the configuration file.
	// If the version in a file doesn't match the current console config
	// version then we can give a clear error message telling the user
	// to update their config file to the current version.
	Version int `yaml:"version"`

	Global       Global       `yaml:"global"`
	HTTP         HTTP         `yaml:"http"`
	API          API          `yaml:"api"`
	SessionStore SessionStore `yaml:"session_store"`
	Dashboard    Dashboard    `yaml:"console"`

	// Any information derived from the configuration options for later use.
	Derived Derived `yaml:"-"`
}

// Derived holds values computed from the configuration, not read from it.
type Derived struct {
	// The backend API prefix, i.e. api.base_url + "/api/v1".
	APIPrefix string
}

// The config for setting a proper logger hook.
type LogrusHook struct {
	// The type of hook, currently only "file", "syslog" and "std" are supported.
	Type string `yaml:"type"`

	// The level of the logs to produce. Will output only this level and above.
	Level string `yaml:"level"`

	// The parameters for this hook.
	Params map[string]interface{} `yaml:"params"`
}

// A Path on the filesystem.
type Path string

// A DataSource for opening a postgresql database using lib/pq or
// a SQLite database file.
type DataSource string

func (d DataSource) IsSQLite() bool {
	return strings.HasPrefix(string(d), "file:")
}

func (d DataSource) IsPostgres() bool {
	// commented line may not always be true?
	// return strings.HasPrefix(string(d), "postgres:")
	return !d.IsSQLite()
}

// An HTTPAddress to listen on, e.g. ":8080" or "127.0.0.1:8080".
type HTTPAddress string

// ConfigErrors stores problems encountered when parsing a config file.
// It implements the error interface.
type ConfigErrors []string

// Add appends an error to the list of errors in this configErrors.
// It is a wrapper to the builtin append and hides pointers from
// the client code.
// This method is safe to use with an uninitialized configErrors because
// if it is nil, it will be properly allocated.
func (errs *ConfigErrors) Add(str string) {
	*errs = append(*errs, str)
}

// Error returns a string detailing how many errors were contained within a
// configErrors type.
func (errs ConfigErrors) Error() string {
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Sprintf(
		"%s (and %d other problems)", errs[0], len(errs)-1,
	)
}

// Load a yaml config file for the console.
// Relative paths in the config are resolved against the directory the
// config file lives in.
func Load(configPath string) (*Console, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	basePath, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, err
	}
	return loadConfig(basePath, data)
}

func loadConfig(basePath string, configData []byte) (*Console, error) {
	var c Console
	c.Defaults(false)

	if err := yaml.Unmarshal(configData, &c); err != nil {
		return nil, err
	}

	c.applyEnvironment()

	if err := c.check(); err != nil {
		return nil, err
	}

	c.Global.resolvePaths(basePath)
	c.derive()

	return &c, nil
}

// Defaults populates the configuration with sensible values. When generate
// is set, placeholder secrets are filled in so that the result is usable
// as a starting point for a new deployment.
func (c *Console) Defaults(generate bool) {
	c.Version = Version
	c.Global.Defaults(generate)
	c.HTTP.Defaults(generate)
	c.API.Defaults(generate)
	c.SessionStore.Defaults(generate)
	c.Dashboard.Defaults(generate)
	c.derive()
}

// Verify checks the configuration for missing or invalid values and
// records every problem in configErrs.
func (c *Console) Verify(configErrs *ConfigErrors) {
	c.Global.Verify(configErrs)
	c.HTTP.Verify(configErrs)
	c.API.Verify(configErrs)
	c.SessionStore.Verify(configErrs)
	c.Dashboard.Verify(configErrs)
}

func (c *Console) check() error {
	var configErrs ConfigErrors
	if c.Version != Version {
		configErrs.Add(fmt.Sprintf(
			"config version is %d, expected %d - this means that the format of the configuration "+
				"file has changed in some significant way, so please revisit the sample config "+
				"and ensure you are not missing any important options that may have been added "+
				"or changed recently!",
			c.Version, Version,
		))
		return configErrs
	}
	c.Verify(&configErrs)
	if len(configErrs) > 0 {
		return configErrs
	}
	return nil
}

func (c *Console) applyEnvironment() {
	if v := os.Getenv("SAFETRACK_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SAFETRACK_LISTEN"); v != "" {
		c.HTTP.Listen = HTTPAddress(v)
	}
}

func (c *Console) derive() {
	c.Derived.APIPrefix = strings.TrimRight(c.API.BaseURL, "/") + APIPathPrefix
}

// SetupTracing configures the opentracing using the supplied configuration.
func (c *Console) SetupTracing(serviceName string) (closer io.Closer, err error) {
	if !c.Global.Tracing.Enabled {
		return io.NopCloser(nil), nil
	}
	return c.Global.Tracing.Jaeger.InitGlobalTracer(
		serviceName,
		jaegerconfig.Logger(logrusLogger{logrus.StandardLogger()}),
		jaegerconfig.Metrics(jaegermetrics.NullFactory),
	)
}

// logrusLogger is a small wrapper that implements jaeger.Logger using logrus.
type logrusLogger struct {
	l *logrus.Logger
}

func (l logrusLogger) Error(msg string) {
	l.l.Error(msg)
}

func (l logrusLogger) Infof(msg string, args ...interface{}) {
	l.l.Infof(msg, args...)
}

// checkNotEmpty verifies the given value is not empty in the configuration.
// If it is, adds an error to the list.
func checkNotEmpty(configErrs *ConfigErrors, key, value string) {
	if value == "" {
		configErrs.Add(fmt.Sprintf("missing config key %q", key))
	}
}

// checkPositive verifies that the value is a positive (non-zero) number.
// If it isn't, adds an error to the list.
func checkPositive(configErrs *ConfigErrors, key string, value int64) {
	if value <= 0 {
		configErrs.Add(fmt.Sprintf("invalid value for config key %q: %d", key, value))
	}
}

// checkAtLeast verifies that the duration is not below floor.
func checkAtLeast(configErrs *ConfigErrors, key string, value, floor time.Duration) {
	if value < floor {
		configErrs.Add(fmt.Sprintf("invalid value for config key %q: %s is below %s", key, value, floor))
	}
}

// checkURL verifies that the value parses as an absolute http(s) URL.
func checkURL(configErrs *ConfigErrors, key, value string) {
	if value == "" {
		return
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		configErrs.Add(fmt.Sprintf("invalid value for config key %q: %q is not an http(s) URL", key, value))
	}
}
