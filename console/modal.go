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

	"github.com/safetrack/safetrack-admin/safetrackapi/api"
)

// IntentKind is the action a confirmation modal guards.
type IntentKind string

const (
	IntentRelease IntentKind = "release"
	IntentDelete  IntentKind = "delete"
)

// Variant is the visual style of the modal's confirm button.
type Variant string

const (
	VariantNeutral Variant = "neutral"
	VariantDanger  Variant = "danger"
)

// Intent is an action waiting for confirmation.
type Intent struct {
	Kind   IntentKind `json:"kind"`
	Device api.Device `json:"device"`
}

// ModalView holds the texts of an open modal.
type ModalView struct {
	Title        string  `json:"title"`
	Message      string  `json:"message"`
	ConfirmLabel string  `json:"confirm_label"`
	CancelLabel  string  `json:"cancel_label"`
	Variant      Variant `json:"variant"`
}

// View returns the texts shown for the intent.
func (i Intent) View() ModalView {
	switch i.Kind {
	case IntentRelease:
		return ModalView{
			Title: "🔄 Libérer le boîtier",
			Message: fmt.Sprintf(
				"Le boîtier %s sera dissocié du véhicule \"%s\" et repassera en statut DISPONIBLE. "+
					"Il reste dans ChirpStack et peut être re-appairé immédiatement.",
				i.Device.DevEUI, i.Device.DisplayName("N/A"),
			),
			ConfirmLabel: "Libérer le boîtier",
			CancelLabel:  "Annuler",
			Variant:      VariantNeutral,
		}
	default:
		return ModalView{
			Title: "🗑️ Supprimer définitivement",
			Message: fmt.Sprintf(
				"La suppression du boîtier %s est irréversible. Il sera retiré de SafeTrack et de ChirpStack.",
				i.Device.DevEUI,
			),
			ConfirmLabel: "Supprimer",
			CancelLabel:  "Annuler",
			Variant:      VariantDanger,
		}
	}
}

// Modal is closed, or open with exactly one pending intent.
type Modal struct {
	mu     sync.Mutex
	intent *Intent
}

// Open shows the modal for intent, replacing any pending one.
func (m *Modal) Open(intent Intent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intent = &intent
}

// Pending returns the intent of an open modal.
func (m *Modal) Pending() (Intent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intent == nil {
		return Intent{}, false
	}
	return *m.intent, true
}

// Confirm closes the modal and hands the intent over for execution.
func (m *Modal) Confirm() (Intent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intent == nil {
		return Intent{}, false
	}
	intent := *m.intent
	m.intent = nil
	return intent, true
}

// Cancel closes the modal, discarding the intent.
func (m *Modal) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intent = nil
}

// View returns the texts of the open modal. Nothing is shown when closed.
func (m *Modal) View() (ModalView, bool) {
	intent, ok := m.Pending()
	if !ok {
		return ModalView{}, false
	}
	return intent.View(), true
}
