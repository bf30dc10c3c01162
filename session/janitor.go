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
package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/safetrack/safetrack-admin/session/storage"
)

// RunJanitor purges sessions idle for longer than idleTimeout, checking
// every idleTimeout/4, until ctx is done. report, if set, is called after
// every purge with its error, nil on success.
func RunJanitor(ctx context.Context, db storage.Database, idleTimeout time.Duration, report func(error)) error {
	ticker := time.NewTicker(idleTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			deleted, err := db.DeleteExpiredSessions(ctx, time.Now().Add(-idleTimeout))
			if report != nil {
				report(err)
			}
			if err != nil {
				logrus.WithError(err).Error("Failed to purge idle console sessions")
				continue
			}
			if deleted > 0 {
				logrus.WithField("deleted", deleted).Info("Purged idle console sessions")
			}
		}
	}
}
