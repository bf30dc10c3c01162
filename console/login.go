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
package console

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/safetrack/safetrack-admin/internal"
	"github.com/safetrack/safetrack-admin/internal/caching"
	"github.com/safetrack/safetrack-admin/internal/hooks"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
	"github.com/safetrack/safetrack-admin/session"
)

var (
	ErrCredentialsRequired = internal.ErrCredentialsRequired
	ErrLoginInFlight       = errors.New("Connexion déjà en cours.")
	errSessionNotSaved     = errors.New("Impossible d'enregistrer la session.")
)

// Login exchanges credentials for a token and stores it in the session.
type Login struct {
	auth     api.AuthAPI
	store    *session.Store
	profiles caching.ProfileCache

	inFlight atomic.Bool

	mu    sync.Mutex
	email string
	err   string
}

func NewLogin(auth api.AuthAPI, store *session.Store, profiles caching.ProfileCache) *Login {
	return &Login{auth: auth, store: store, profiles: profiles}
}

// Email returns the email last submitted, kept for re-rendering the form.
func (l *Login) Email() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.email
}

// Error returns the inline error of the last submit.
func (l *Login) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Submitting reports whether a submit is waiting for the backend.
func (l *Login) Submitting() bool {
	return l.inFlight.Load()
}

// Submit logs in. On success the token, and the email when it could be
// resolved, are saved in the session. Every failure ends as the inline
// error and is returned.
func (l *Login) Submit(ctx context.Context, email, password string) error {
	if !l.inFlight.CompareAndSwap(false, true) {
		return ErrLoginInFlight
	}
	defer l.inFlight.Store(false)

	l.mu.Lock()
	l.email = email
	l.err = ""
	l.mu.Unlock()

	err := l.submit(ctx, email, password)
	if err != nil && SurfaceFor(ActionLogin) == SurfaceInline {
		l.mu.Lock()
		l.err = api.Message(err)
		l.mu.Unlock()
	}
	return err
}

func (l *Login) submit(ctx context.Context, email, password string) error {
	if err := internal.ValidateCredentials(email, password); err != nil {
		return err
	}
	res, err := l.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err = l.store.Save(ctx, res.AccessToken); err != nil {
		logrus.WithError(err).Error("Failed to save console session")
		return errSessionNotSaved
	}

	resolved := l.resolveEmail(ctx, res.AccessToken)
	if resolved != "" {
		if err = l.store.SaveEmail(ctx, resolved); err != nil {
			logrus.WithError(err).Warn("Failed to save administrator email")
		}
	}
	hooks.Run(hooks.KindSessionStarted, resolved)

	l.mu.Lock()
	l.email = ""
	l.mu.Unlock()
	return nil
}

// resolveEmail returns the email of the token owner, or "" when /users/me
// fails. It never blocks the login.
func (l *Login) resolveEmail(ctx context.Context, token string) string {
	if l.profiles != nil {
		if p, ok := l.profiles.GetProfile(token); ok {
			return p.Email
		}
	}
	profile, err := l.auth.Me(ctx, token)
	if err != nil {
		logrus.WithError(err).Warn("Failed to resolve administrator profile")
		return ""
	}
	if l.profiles != nil {
		l.profiles.StoreProfile(token, *profile)
	}
	return profile.Email
}
