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
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/safetrack/safetrack-admin/setup/config"
)

func main() {
	defaultsForCI := flag.Bool("ci", false, "sane defaults for CI testing")
	apiURL := flag.String("api", "", "The SafeTrack backend origin, e.g. https://safetrack.example.com")
	dbURI := flag.String("db", "", "The session database to use, empty keeps sessions in memory")
	flag.Parse()

	cfg := &config.Console{}
	cfg.Defaults(true)
	cfg.Global.Logging = []config.LogrusHook{
		{
			Type:  "file",
			Level: "info",
			Params: map[string]interface{}{
				"path": "/var/log/safetrack-admin",
			},
		},
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *dbURI != "" {
		cfg.SessionStore.Database.ConnectionString = config.DataSource(*dbURI)
	}

	if *defaultsForCI {
		cfg.Global.Logging[0].Level = "trace"
		cfg.SessionStore.Database.ConnectionString = ""
	}

	j, err := yaml.Marshal(cfg)
	if err != nil {
		panic(err)
	}

	fmt.Println(string(j))
}
