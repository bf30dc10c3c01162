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

package main

import (
	"flag"

	"github.com/safetrack/safetrack-admin/setup"
	basepkg "github.com/safetrack/safetrack-admin/setup/base"
	"github.com/safetrack/safetrack-admin/setup/config"
)

var (
	httpBindAddr = flag.String("http-bind-address", "", "The HTTP listening address for the console, overrides http.listen")
)

func main() {
	cfg := setup.ParseFlags()
	if *httpBindAddr != "" {
		cfg.HTTP.Listen = config.HTTPAddress(*httpBindAddr)
	}

	base := basepkg.NewBaseConsole(cfg, "Console")
	defer base.Close() // nolint: errcheck

	go base.SetupAndServeHTTP(cfg.HTTP.Listen)

	base.WaitForShutdown()
}
