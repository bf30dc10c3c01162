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

// Package routing serves the console views over HTTP.
package routing

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/matrix-org/util"
	"github.com/sirupsen/logrus"

	"github.com/safetrack/safetrack-admin/console"
	"github.com/safetrack/safetrack-admin/internal/httputil"
	"github.com/safetrack/safetrack-admin/setup/config"
)

// requestContext is what every console handler is called with.
type requestContext struct {
	console *console.Console
	session cookieSession
}

type consoleHandler func(w http.ResponseWriter, req *http.Request, rc *requestContext)

type routes struct {
	registry *console.Registry
	cookies  *SessionCookies
	pages    *Pages
}

// Setup registers the console routes on router.
func Setup(router *mux.Router, registry *console.Registry, cfg *config.Console) {
	r := &routes{
		registry: registry,
		cookies:  NewSessionCookies(&cfg.SessionStore),
		pages:    NewPages(&cfg.Dashboard),
	}

	router.Handle("/login", r.public("login_page", r.getLogin)).Methods(http.MethodGet)
	router.Handle("/login", r.public("login", r.postLogin, withCSRF)).Methods(http.MethodPost)
	router.Handle("/logout", r.public("logout", r.postLogout, withCSRF)).Methods(http.MethodPost)

	router.Handle("/", r.authed("dashboard", r.getDashboard)).Methods(http.MethodGet)
	router.Handle("/devices/refresh", r.authed("refresh", r.postRefresh, withCSRF)).Methods(http.MethodPost)
	router.Handle("/devices/provision", r.authed("provision", r.postProvision, withCSRF)).Methods(http.MethodPost)
	router.Handle("/devices/{id}/release/confirm",
		r.authed("release_confirm", r.postRequestAction(console.IntentRelease), withCSRF),
	).Methods(http.MethodPost)
	router.Handle("/devices/{id}/delete/confirm",
		r.authed("delete_confirm", r.postRequestAction(console.IntentDelete), withCSRF),
	).Methods(http.MethodPost)
	router.Handle("/modal/confirm", r.authed("modal_confirm", r.postModalConfirm, withCSRF)).Methods(http.MethodPost)
	router.Handle("/modal/cancel", r.authed("modal_cancel", r.postModalCancel, withCSRF)).Methods(http.MethodPost)
	router.Handle("/toasts/{id}/dismiss", r.authed("toast_dismiss", r.postDismissToast, withCSRF)).Methods(http.MethodPost)

	router.Handle("/console/state", httputil.MakeExternalAPI("console_state", func(req *http.Request) util.JSONResponse {
		rc, req, err := r.resolve(nil, req)
		if err != nil {
			return util.JSONResponse{
				Code: http.StatusUnauthorized,
				JSON: map[string]string{"error": "session absente"},
			}
		}
		return getState(req, rc)
	})).Methods(http.MethodGet)
}

type handlerOption int

const (
	// withCSRF rejects form posts whose csrf field does not match the session.
	withCSRF handlerOption = iota
	// withAuth redirects to the login page when the session has no token.
	withAuth
)

func (r *routes) public(name string, f consoleHandler, opts ...handlerOption) http.Handler {
	return httputil.MakeHTMLAPI(name, r.wrap(f, opts...))
}

func (r *routes) authed(name string, f consoleHandler, opts ...handlerOption) http.Handler {
	return httputil.MakeHTMLAPI(name, r.wrap(f, append(opts, withAuth)...))
}

func (r *routes) wrap(f consoleHandler, opts ...handlerOption) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		rc, req, err := r.resolve(w, req)
		if err != nil {
			util.GetLogger(req.Context()).WithError(err).Error("Failed to resolve console session")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		for _, opt := range opts {
			switch opt {
			case withCSRF:
				if !rc.session.matchesCSRF(req.PostFormValue("csrf")) {
					util.GetLogger(req.Context()).Warn("Rejected form post with a bad CSRF token")
					http.Error(w, "Jeton de formulaire invalide, rechargez la page.", http.StatusForbidden)
					return
				}
			case withAuth:
				if !rc.console.Authenticated() {
					http.Redirect(w, req, "/login", redirectCode(req))
					return
				}
			}
		}
		f(w, req, rc)
	}
}

// resolve finds the console of the request's session. With a nil w a
// missing or invalid cookie is an error; otherwise a new session is issued.
func (r *routes) resolve(w http.ResponseWriter, req *http.Request) (*requestContext, *http.Request, error) {
	sess, err := r.cookies.Read(req)
	switch {
	case err == nil && w != nil:
		err = r.cookies.Refresh(w, sess)
	case err != nil && w != nil:
		sess, err = r.cookies.Issue(w)
	}
	if err != nil {
		return nil, req, err
	}

	c, err := r.registry.Get(req.Context(), sess.ID)
	if err != nil {
		return nil, req, err
	}
	fields := logrus.Fields{"session_id": sess.ID}
	if email := c.Email(); email != "" {
		fields["email"] = email
	}
	ctx := util.ContextWithLogger(req.Context(), util.GetLogger(req.Context()).WithFields(fields))
	return &requestContext{console: c, session: sess}, req.WithContext(ctx), nil
}

// redirectCode keeps GET redirects cacheable and turns form posts into GETs.
func redirectCode(req *http.Request) int {
	if req.Method == http.MethodGet {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

func redirectHome(w http.ResponseWriter, req *http.Request) {
	http.Redirect(w, req, "/", http.StatusSeeOther)
}
