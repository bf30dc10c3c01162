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

package base

import (
	"github.com/sirupsen/logrus"

	"github.com/safetrack/safetrack-admin/internal/hooks"
)

// attachAuditHooks logs every administrator action at info level.
func attachAuditHooks() {
	for _, kind := range []string{
		hooks.KindDeviceProvisioned,
		hooks.KindDeviceReleased,
		hooks.KindDeviceDeleted,
	} {
		kind := kind
		hooks.Attach(kind, func(data interface{}) {
			ev, ok := data.(*hooks.DeviceEvent)
			if !ok {
				return
			}
			logrus.WithFields(logrus.Fields{
				"audit":     kind,
				"actor":     ev.Actor,
				"device_id": ev.DeviceID,
				"deveui":    ev.DevEUI,
			}).Info("Administrator action")
		})
	}
	for _, kind := range []string{hooks.KindSessionStarted, hooks.KindSessionEnded} {
		kind := kind
		hooks.Attach(kind, func(data interface{}) {
			email, _ := data.(string)
			logrus.WithFields(logrus.Fields{
				"audit": kind,
				"actor": email,
			}).Info("Administrator session")
		})
	}
}
