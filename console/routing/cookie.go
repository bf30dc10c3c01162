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

package routing

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/safetrack/safetrack-admin/internal"
	"github.com/safetrack/safetrack-admin/setup/config"
)

// SessionCookieName is the cookie carrying the console session ID.
const SessionCookieName = "st_admin_session"

// csrfBlobLength is the number of random bytes in a CSRF token.
const csrfBlobLength = 32

// cookieSession is the signed content of the session cookie.
type cookieSession struct {
	ID   string
	CSRF string
}

// matchesCSRF compares a submitted token with the session's in constant time.
func (s cookieSession) matchesCSRF(token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.CSRF)) == 1
}

// SessionCookies reads and writes the signed session cookie.
type SessionCookies struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

func NewSessionCookies(cfg *config.SessionStore) *SessionCookies {
	hashKey, blockKey := cfg.Cookie.Keys()
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(cfg.IdleTimeout.Seconds()))
	return &SessionCookies{
		codec:  codec,
		maxAge: cfg.IdleTimeout,
		secure: cfg.Cookie.Secure,
	}
}

// Read decodes the session cookie of req.
func (c *SessionCookies) Read(req *http.Request) (cookieSession, error) {
	var s cookieSession
	cookie, err := req.Cookie(SessionCookieName)
	if err != nil {
		return s, err
	}
	if err = c.codec.Decode(SessionCookieName, cookie.Value, &s); err != nil {
		return s, err
	}
	if _, err = uuid.Parse(s.ID); err != nil || s.CSRF == "" {
		return cookieSession{}, errors.New("malformed session cookie")
	}
	return s, nil
}

// Issue creates a fresh session and sets its cookie on w.
func (c *SessionCookies) Issue(w http.ResponseWriter) (cookieSession, error) {
	csrf, err := internal.GenerateBlob(csrfBlobLength)
	if err != nil {
		return cookieSession{}, err
	}
	s := cookieSession{ID: uuid.NewString(), CSRF: csrf}
	if err = c.write(w, s); err != nil {
		return cookieSession{}, err
	}
	return s, nil
}

// Refresh re-sends the cookie so that its expiry follows activity.
func (c *SessionCookies) Refresh(w http.ResponseWriter, s cookieSession) error {
	return c.write(w, s)
}

// Expire removes the cookie from the browser.
func (c *SessionCookies) Expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *SessionCookies) write(w http.ResponseWriter, s cookieSession) error {
	encoded, err := c.codec.Encode(SessionCookieName, s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
