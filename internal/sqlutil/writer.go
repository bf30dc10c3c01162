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

import "database/sql"

// Writer serialises database writes for engines that don't allow
// concurrent writers, e.g. SQLite.
//
// Do calls f when it is safe to do so:
//
//   - db and txn given: f runs with txn.
//   - db given, txn nil: a new transaction is opened on db for f.
//   - both nil: f runs with a nil transaction, for single prepared
//     statements that don't need one.
//
// Calling Do from within f on the same Writer deadlocks.
type Writer interface {
	Do(db *sql.DB, txn *sql.Tx, f func(txn *sql.Tx) error) error
}
