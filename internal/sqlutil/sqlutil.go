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

package sqlutil

import (
	"database/sql"
	"flag"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/safetrack/safetrack-admin/setup/config"
)

var skipSanityChecks = flag.Bool("skip-db-sanity", false, "Ignore sanity checks on the session database connections (NOT RECOMMENDED!)")

var credentialsRegexp = regexp.MustCompile(`://[^@]*@`)

// Open opens the session database described by dbProperties. SQLite
// connection strings start with "file:", anything else is handed to lib/pq.
func Open(dbProperties *config.DatabaseOptions) (*sql.DB, error) {
	var err error
	var driverName, dsn string
	switch {
	case dbProperties.ConnectionString.IsSQLite():
		driverName = SQLITE_DRIVER_NAME
		dsn, err = ParseFileURI(dbProperties.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("ParseFileURI: %w", err)
		}
		dsn = sqliteDSNExtension(dsn)
	case dbProperties.ConnectionString.IsPostgres():
		driverName = "postgres"
		dsn = string(dbProperties.ConnectionString)
	default:
		return nil, fmt.Errorf("invalid database connection string %q", dbProperties.ConnectionString)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if driverName == SQLITE_DRIVER_NAME {
		// a single writer connection avoids "database is locked"
		db.SetMaxOpenConns(1)
		return db, nil
	}

	logger := logrus.WithFields(logrus.Fields{
		"max_open_conns":    dbProperties.MaxOpenConns(),
		"max_idle_conns":    dbProperties.MaxIdleConns(),
		"conn_max_lifetime": dbProperties.ConnMaxLifetime(),
		"data_source_name":  credentialsRegexp.ReplaceAllLiteralString(dsn, "://"),
	})
	logger.Debug("Setting DB connection limits")
	db.SetMaxOpenConns(dbProperties.MaxOpenConns())
	db.SetMaxIdleConns(dbProperties.MaxIdleConns())
	db.SetConnMaxLifetime(dbProperties.ConnMaxLifetime())

	if *skipSanityChecks {
		return db, nil
	}
	if dbProperties.MaxOpenConns() == 0 {
		logrus.Warnf("WARNING: Configuring 'max_open_conns' to be unlimited is not recommended.")
	}
	var max, reserved int
	if err := db.QueryRow("SELECT setting::integer FROM pg_settings WHERE name='max_connections';").Scan(&max); err != nil {
		return nil, fmt.Errorf("failed to find maximum connections: %w", err)
	}
	if err := db.QueryRow("SELECT setting::integer FROM pg_settings WHERE name='superuser_reserved_connections';").Scan(&reserved); err != nil {
		return nil, fmt.Errorf("failed to find reserved connections: %w", err)
	}
	if configured, allowed := dbProperties.MaxOpenConns(), max-reserved; configured > allowed {
		logrus.Errorf("ERROR: The configured 'max_open_conns' is greater than the %d non-superuser connections that PostgreSQL is configured to allow. Pass --skip-db-sanity to override.", allowed)
		return nil, fmt.Errorf("database sanity checks failed")
	}
	return db, nil
}
