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

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ToastKind selects the colour of a toast.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a transient feedback message.
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      ToastKind `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Toasts is an insertion ordered queue of toasts, each removed by its own
// timer once the TTL elapsed.
type Toasts struct {
	ttl time.Duration

	mu     sync.Mutex
	items  []Toast
	timers map[string]*time.Timer
	closed bool
}

func NewToasts(ttl time.Duration) *Toasts {
	return &Toasts{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Push appends a toast and arms its expiry timer. After Close, the toast
// is returned but not queued.
func (t *Toasts) Push(kind ToastKind, message string) Toast {
	now := time.Now()
	toast := Toast{
		// creation time first so that IDs sort like the original millisecond
		// IDs, the uuid suffix tells same-instant toasts apart
		ID:        fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8]),
		Message:   message,
		Kind:      kind,
		CreatedAt: now,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return toast
	}
	t.items = append(t.items, toast)
	t.timers[toast.ID] = time.AfterFunc(t.ttl, func() {
		t.remove(toast.ID)
	})
	return toast
}

// Success and Error are shorthands for Push.
func (t *Toasts) Success(message string) Toast { return t.Push(ToastSuccess, message) }
func (t *Toasts) Error(message string) Toast   { return t.Push(ToastError, message) }

// List returns the active toasts in insertion order.
func (t *Toasts) List() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Toast(nil), t.items...)
}

// Dismiss removes a toast before its timer fires. It reports whether the
// toast was still present.
func (t *Toasts) Dismiss(id string) bool {
	t.mu.Lock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
	}
	t.mu.Unlock()
	return t.remove(id)
}

// Close stops every pending timer and drops the queue.
func (t *Toasts) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, timer := range t.timers {
		timer.Stop()
	}
	t.timers = map[string]*time.Timer{}
	t.items = nil
	t.closed = true
}

func (t *Toasts) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.timers, id)
	for i := range t.items {
		if t.items[i].ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return true
		}
	}
	return false
}
