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
	"errors"
	"net/http"

	"github.com/matrix-org/util"

	"github.com/safetrack/safetrack-admin/console"
	"github.com/safetrack/safetrack-admin/internal"
)

// getLogin implements GET /login
func (r *routes) getLogin(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	if rc.console.Authenticated() {
		http.Redirect(w, req, "/", http.StatusFound)
		return
	}
	r.pages.renderLogin(w, req, http.StatusOK, loginPage{
		CSRF:  rc.session.CSRF,
		Email: rc.console.Login.Email(),
		Error: rc.console.Login.Error(),
	})
}

// postLogin implements POST /login
func (r *routes) postLogin(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	if rc.console.Authenticated() {
		redirectHome(w, req)
		return
	}
	email, password := req.PostFormValue("email"), req.PostFormValue("password")
	err := rc.console.Login.Submit(req.Context(), email, password)
	switch {
	case err == nil:
		util.GetLogger(req.Context()).WithField("email", rc.console.Email()).Info("Administrator logged in")
		rc.console.Activate()
		redirectHome(w, req)
		return
	case errors.Is(err, console.ErrLoginInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	util.GetLogger(req.Context()).WithError(err).Info("Login failed")
	code := http.StatusUnauthorized
	if internal.IsCredentialError(err) {
		code = http.StatusBadRequest
	}
	r.pages.renderLogin(w, req, code, loginPage{
		CSRF:  rc.session.CSRF,
		Email: rc.console.Login.Email(),
		Error: rc.console.Login.Error(),
	})
}

// postLogout implements POST /logout
func (r *routes) postLogout(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	if err := r.registry.Logout(req.Context(), rc.session.ID); err != nil {
		util.GetLogger(req.Context()).WithError(err).Error("Failed to clear console session")
	}
	r.cookies.Expire(w)
	http.Redirect(w, req, "/login", http.StatusSeeOther)
}
