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

// Action is a user initiated operation that can fail.
type Action string

const (
	ActionLoad      Action = "load"
	ActionLogin     Action = "login"
	ActionProvision Action = "provision"
	ActionRelease   Action = "release"
	ActionDelete    Action = "delete"
)

// Surface is where a failure is shown to the administrator.
type Surface string

const (
	// SurfaceToast is an auto-expiring error toast.
	SurfaceToast Surface = "toast"
	// SurfaceInline is an error line above the form that was submitted.
	SurfaceInline Surface = "inline"
	// SurfaceAlert is a blocking browser alert.
	SurfaceAlert Surface = "alert"
)

// Presentation is the error presentation policy: which surface shows the
// failure of each action. Views look it up instead of choosing themselves.
var Presentation = map[Action]Surface{
	ActionLoad:      SurfaceToast,
	ActionLogin:     SurfaceInline,
	ActionProvision: SurfaceInline,
	ActionRelease:   SurfaceAlert,
	ActionDelete:    SurfaceAlert,
}

// SurfaceFor returns where failures of action are shown, inline when the
// action is not listed.
func SurfaceFor(action Action) Surface {
	if s, ok := Presentation[action]; ok {
		return s
	}
	return SurfaceInline
}
