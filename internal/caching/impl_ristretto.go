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
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/safetrack/safetrack-admin/safetrackapi/api"
)

// ProfileMaxAge bounds how long a resolved profile is trusted.
const ProfileMaxAge = time.Hour

// NewRistrettoCache builds the caches on a single ristretto cache holding
// at most maxEntries items.
func NewRistrettoCache(maxEntries int64, enablePrometheus bool) (*Caches, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	if enablePrometheus {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "safetrack_admin",
			Subsystem: "caching_ristretto",
			Name:      "ratio",
		}, func() float64 {
			return float64(cache.Metrics.Ratio())
		})
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "safetrack_admin",
			Subsystem: "caching_ristretto",
			Name:      "cost",
		}, func() float64 {
			return float64(cache.Metrics.CostAdded() - cache.Metrics.CostEvicted())
		})
	}
	return &Caches{
		Profiles: &RistrettoCachePartition[string, api.Profile]{
			cache:  cache,
			Name:   "profiles",
			MaxAge: ProfileMaxAge,
		},
	}, nil
}

// RistrettoCachePartition namespaces a shared ristretto cache. Every entry
// costs 1, so MaxCost is an entry count.
type RistrettoCachePartition[K keyable, V any] struct {
	cache  *ristretto.Cache
	Name   string
	MaxAge time.Duration
}

func (c *RistrettoCachePartition[K, V]) key(key K) string {
	return fmt.Sprintf("%s\000%v", c.Name, key)
}

func (c *RistrettoCachePartition[K, V]) Set(key K, value V) {
	c.cache.SetWithTTL(c.key(key), value, 1, c.MaxAge)
	// make the value visible to the next Get
	c.cache.Wait()
}

func (c *RistrettoCachePartition[K, V]) Unset(key K) {
	c.cache.Del(c.key(key))
}

func (c *RistrettoCachePartition[K, V]) Get(key K) (value V, ok bool) {
	v, ok := c.cache.Get(c.key(key))
	if !ok || v == nil {
		var empty V
		return empty, false
	}
	value, ok = v.(V)
	return
}
