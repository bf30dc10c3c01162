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
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
	_ "time/tzdata"
)

// APIPathPrefix is appended to api.base_url for every backend call.
const APIPathPrefix = "/api/v1"

type HTTP struct {
	// The address the console listens on.
	Listen HTTPAddress `yaml:"listen"`
	// Optional TLS certificate and key. Both must be set to serve HTTPS.
	TLSCert Path `yaml:"tls_cert"`
	TLSKey  Path `yaml:"tls_key"`
}

func (c *HTTP) Defaults(generate bool) {
	c.Listen = ":8088"
}

func (c *HTTP) Verify(configErrs *ConfigErrors) {
	checkNotEmpty(configErrs, "http.listen", string(c.Listen))
	if (c.TLSCert == "") != (c.TLSKey == "") {
		configErrs.Add("http.tls_cert and http.tls_key must be set together")
	}
}

// API configures the SafeTrack backend the console talks to.
type API struct {
	// The backend origin, e.g. "https://safetrack.example.com". The
	// "/api/v1" prefix is appended automatically.
	BaseURL string `yaml:"base_url"`
	// Timeout for a single backend request. Zero means no timeout.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func (c *API) Defaults(generate bool) {
	if generate {
		c.BaseURL = "http://localhost:8000"
	}
	c.RequestTimeout = 0
}

func (c *API) Verify(configErrs *ConfigErrors) {
	checkNotEmpty(configErrs, "api.base_url", c.BaseURL)
	checkURL(configErrs, "api.base_url", c.BaseURL)
	if c.RequestTimeout < 0 {
		configErrs.Add(fmt.Sprintf("invalid value for config key %q: %s", "api.request_timeout", c.RequestTimeout))
	}
}

// minIdleTimeout bounds session_store.idle_timeout from below; the janitor
// checks every quarter of it.
const minIdleTimeout = time.Minute

type SessionStore struct {
	// Where sessions are persisted. Empty keeps them in memory.
	Database DatabaseOptions `yaml:"database"`
	// Cookie signing and encryption.
	Cookie Cookie `yaml:"cookie"`
	// Sessions untouched for longer than this are purged.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

func (c *SessionStore) Defaults(generate bool) {
	c.Database.Defaults(10)
	if generate {
		c.Database.ConnectionString = "file:safetrack_admin_sessions.db"
	}
	c.Cookie.Defaults(generate)
	c.IdleTimeout = time.Hour * 12
}

func (c *SessionStore) Verify(configErrs *ConfigErrors) {
	c.Cookie.Verify(configErrs)
	checkAtLeast(configErrs, "session_store.idle_timeout", c.IdleTimeout, minIdleTimeout)
}

type Cookie struct {
	// Hex encoded HMAC key, 32 or 64 bytes once decoded.
	HashKey string `yaml:"hash_key"`
	// Hex encoded AES key, 16, 24 or 32 bytes once decoded. Optional.
	BlockKey string `yaml:"block_key"`
	// Mark the cookie Secure. Enable when served over HTTPS.
	Secure bool `yaml:"secure"`
}

func (c *Cookie) Defaults(generate bool) {
	if generate {
		c.HashKey = randomHex(32)
		c.BlockKey = randomHex(32)
	}
}

func (c *Cookie) Verify(configErrs *ConfigErrors) {
	checkNotEmpty(configErrs, "session_store.cookie.hash_key", c.HashKey)
	if c.HashKey != "" {
		if b, err := hex.DecodeString(c.HashKey); err != nil || (len(b) != 32 && len(b) != 64) {
			configErrs.Add("session_store.cookie.hash_key must be 32 or 64 hex encoded bytes")
		}
	}
	if c.BlockKey != "" {
		b, err := hex.DecodeString(c.BlockKey)
		if err != nil || (len(b) != 16 && len(b) != 24 && len(b) != 32) {
			configErrs.Add("session_store.cookie.block_key must be 16, 24 or 32 hex encoded bytes")
		}
	}
}

// Keys returns the decoded hash and block keys. The block key is nil when
// encryption is disabled.
func (c *Cookie) Keys() (hashKey, blockKey []byte) {
	hashKey, _ = hex.DecodeString(c.HashKey)
	if c.BlockKey != "" {
		blockKey, _ = hex.DecodeString(c.BlockKey)
	}
	return
}

// Dashboard configures the timers of the console views.
type Dashboard struct {
	// Interval between two device list refreshes.
	PollInterval time.Duration `yaml:"poll_interval"`
	// How long a toast stays visible.
	ToastTTL time.Duration `yaml:"toast_ttl"`
	// Time zone used to display device dates.
	Timezone string `yaml:"timezone"`
	// Maximum number of cached administrator profiles.
	ProfileCacheSize int64 `yaml:"profile_cache_size"`
}

func (c *Dashboard) Defaults(generate bool) {
	c.PollInterval = time.Second * 30
	c.ToastTTL = time.Second * 4
	c.Timezone = "Europe/Paris"
	c.ProfileCacheSize = 1024
}

func (c *Dashboard) Verify(configErrs *ConfigErrors) {
	checkPositive(configErrs, "console.poll_interval", int64(c.PollInterval))
	checkPositive(configErrs, "console.toast_ttl", int64(c.ToastTTL))
	checkPositive(configErrs, "console.profile_cache_size", c.ProfileCacheSize)
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		configErrs.Add(fmt.Sprintf("invalid value for config key %q: %s", "console.timezone", err))
	}
}

// Location returns the configured display time zone, falling back to UTC.
func (c *Dashboard) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
