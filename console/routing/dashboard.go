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
	"net/http"

	"github.com/matrix-org/util"
)

// getDashboard implements GET /
func (r *routes) getDashboard(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	r.pages.renderDashboard(w, req, rc.console, rc.session.CSRF)
}

// postRefresh implements POST /devices/refresh
func (r *routes) postRefresh(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	if err := rc.console.Dashboard.Refresh(req.Context()); err != nil {
		util.GetLogger(req.Context()).WithError(err).Warn("Manual refresh failed")
	}
	redirectHome(w, req)
}

// getState implements GET /console/state
func getState(req *http.Request, rc *requestContext) util.JSONResponse {
	if !rc.console.Authenticated() {
		return util.JSONResponse{
			Code: http.StatusUnauthorized,
			JSON: map[string]string{"error": "session non authentifiée"},
		}
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: rc.console.Snapshot(),
	}
}
