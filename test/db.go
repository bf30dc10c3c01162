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

package test

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lib/pq"
)

type DBType int

var DBTypeMemory DBType = 0
var DBTypeSQLite DBType = 1
var DBTypePostgres DBType = 2

// PostgresEnv names the variable holding a lib/pq connection string, as a
// URL or in key=value form, e.g. "host=localhost user=safetrack password=secret
// dbname=safetrack_test sslmode=disable". PostgreSQL tests are skipped
// without it.
const PostgresEnv = "SAFETRACK_TEST_POSTGRES"

// PrepareDBConnectionString returns a connection string for an empty
// session database of the given type and a function removing it. The
// in-memory type returns an empty connection string.
//
// PostgreSQL tests share the database named in PostgresEnv: each test gets
// its own schema, selected through search_path, and drops it afterwards.
func PrepareDBConnectionString(t *testing.T, dbType DBType) (connStr string, close func()) {
	switch dbType {
	case DBTypeMemory:
		return "", func() {}
	case DBTypeSQLite:
		dbname := filepath.Join(t.TempDir(), "safetrack_admin_test.db")
		return fmt.Sprintf("file:%s", dbname), func() {}
	}

	base := os.Getenv(PostgresEnv)
	if base == "" {
		t.Skipf("%s not set, skipping postgres tests", PostgresEnv)
	}
	if strings.HasPrefix(base, "postgres://") || strings.HasPrefix(base, "postgresql://") {
		parsed, err := pq.ParseURL(base)
		if err != nil {
			t.Fatalf("invalid %s: %s", PostgresEnv, err)
		}
		base = parsed
	}

	// tests of several packages may run at once against the same server
	hash := sha256.Sum256([]byte(t.Name()))
	schema := "st_admin_test_" + hex.EncodeToString(hash[:8])

	admin, err := sql.Open("postgres", base)
	if err != nil {
		t.Fatalf("failed to open %s: %s", PostgresEnv, err)
	}
	defer admin.Close() // nolint: errcheck
	for _, stmt := range []string{
		"DROP SCHEMA IF EXISTS " + pq.QuoteIdentifier(schema) + " CASCADE",
		"CREATE SCHEMA " + pq.QuoteIdentifier(schema),
	} {
		if _, err = admin.Exec(stmt); err != nil {
			t.Fatalf("failed to prepare schema %s: %s", schema, err)
		}
	}

	// lib/pq sends unknown keys as run-time parameters
	connStr = fmt.Sprintf("%s search_path=%s", base, schema)
	return connStr, func() {
		db, err := sql.Open("postgres", base)
		if err != nil {
			t.Errorf("failed to reopen %s: %s", PostgresEnv, err)
			return
		}
		defer db.Close() // nolint: errcheck
		if _, err = db.Exec("DROP SCHEMA IF EXISTS " + pq.QuoteIdentifier(schema) + " CASCADE"); err != nil {
			t.Errorf("failed to drop schema %s: %s", schema, err)
		}
	}
}

// WithAllDatabases runs testFn once per session storage backend.
func WithAllDatabases(t *testing.T, testFn func(t *testing.T, db DBType)) {
	dbs := map[string]DBType{
		"memory":   DBTypeMemory,
		"postgres": DBTypePostgres,
		"sqlite":   DBTypeSQLite,
	}
	for dbName, dbType := range dbs {
		dbt := dbType
		t.Run(dbName, func(tt *testing.T) {
			testFn(tt, dbt)
		})
	}
}
