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

// Package hooks exposes places in the console where custom code can be executed
// after an administrator action succeeded, e.g. for audit logging.
package hooks

import "sync"

const (
	// KindDeviceProvisioned is called with a *DeviceEvent once the backend
	// accepted a provisioning request.
	// Usage:
	//   hooks.Attach(hooks.KindDeviceProvisioned, func(d interface{}) { ev := d.(*hooks.DeviceEvent) ... })
	KindDeviceProvisioned = "device_provisioned"
	// KindDeviceReleased is called with a *DeviceEvent for the released box.
	KindDeviceReleased = "device_released"
	// KindDeviceDeleted is called with a *DeviceEvent for the deleted box.
	KindDeviceDeleted = "device_deleted"
	// KindSessionStarted is called with the administrator email (possibly
	// empty) after a successful login.
	KindSessionStarted = "session_started"
	// KindSessionEnded is called with the administrator email on logout.
	KindSessionEnded = "session_ended"
)

// DeviceEvent describes an administrator action on a boîtier.
type DeviceEvent struct {
	// Email of the administrator, empty when it could not be resolved.
	Actor    string
	DeviceID int64
	DevEUI   string
}

var (
	hookMap = make(map[string][]func(interface{}))
	hookMu  = sync.Mutex{}
	enabled = false
)

// Enable all hooks.
func Enable() {
	hookMu.Lock()
	defer hookMu.Unlock()
	enabled = true
}

// Run any hooks
func Run(kind string, data interface{}) {
	for _, cb := range callbacks(kind) {
		cb(data)
	}
}

// Attach a hook
func Attach(kind string, callback func(interface{})) {
	hookMu.Lock()
	defer hookMu.Unlock()
	if !enabled {
		return
	}
	hookMap[kind] = append(hookMap[kind], callback)
}

// Reset detaches every hook and disables them again.
func Reset() {
	hookMu.Lock()
	defer hookMu.Unlock()
	hookMap = make(map[string][]func(interface{}))
	enabled = false
}

func callbacks(kind string) []func(interface{}) {
	hookMu.Lock()
	defer hookMu.Unlock()
	if !enabled {
		return nil
	}
	return hookMap[kind]
}
