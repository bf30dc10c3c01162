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

	"github.com/gorilla/mux"
	"github.com/matrix-org/util"

	"github.com/safetrack/safetrack-admin/console"
)

// postProvision implements POST /devices/provision
func (r *routes) postProvision(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	form := rc.console.Provision
	form.Set(console.ProvisionValues{
		DevEUI:      req.PostFormValue("deveui"),
		Name:        req.PostFormValue("device_name"),
		Description: req.PostFormValue("device_description"),
	})
	if err := form.Submit(req.Context()); err != nil {
		util.GetLogger(req.Context()).WithError(err).Info("Provisioning failed")
	}
	redirectHome(w, req)
}

// postRequestAction implements POST /devices/{id}/release/confirm and
// POST /devices/{id}/delete/confirm
func (r *routes) postRequestAction(kind console.IntentKind) consoleHandler {
	return func(w http.ResponseWriter, req *http.Request, rc *requestContext) {
		id, err := console.ParseDeviceID(mux.Vars(req)["id"])
		if err == nil {
			err = rc.console.RequestAction(kind, id)
		}
		switch {
		case err == nil:
		case errors.Is(err, console.ErrUnknownDevice), errors.Is(err, console.ErrActionNotOffered):
			// the page was stale, show the current list
			util.GetLogger(req.Context()).WithError(err).Info("Ignoring action on a stale row")
		default:
			util.GetLogger(req.Context()).WithError(err).Error("Failed to open confirmation")
		}
		redirectHome(w, req)
	}
}

// postModalConfirm implements POST /modal/confirm
func (r *routes) postModalConfirm(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	if err := rc.console.ConfirmModal(req.Context()); err != nil && !errors.Is(err, console.ErrActionPending) {
		util.GetLogger(req.Context()).WithError(err).Info("Confirmed action failed")
	}
	redirectHome(w, req)
}

// postModalCancel implements POST /modal/cancel
func (r *routes) postModalCancel(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	rc.console.CancelModal()
	redirectHome(w, req)
}

// postDismissToast implements POST /toasts/{id}/dismiss
func (r *routes) postDismissToast(w http.ResponseWriter, req *http.Request, rc *requestContext) {
	rc.console.Toasts.Dismiss(mux.Vars(req)["id"])
	redirectHome(w, req)
}
