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
package caching

import (
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
)

// ProfileCache remembers the /users/me answer for an access token so that
// a reloaded session does not fetch it again.
type ProfileCache interface {
	GetProfile(token string) (api.Profile, bool)
	StoreProfile(token string, profile api.Profile)
	EvictProfile(token string)
}

func (c Caches) GetProfile(token string) (api.Profile, bool) {
	return c.Profiles.Get(TokenKey(token))
}

func (c Caches) StoreProfile(token string, profile api.Profile) {
	c.Profiles.Set(TokenKey(token), profile)
}

func (c Caches) EvictProfile(token string) {
	c.Profiles.Unset(TokenKey(token))
}
