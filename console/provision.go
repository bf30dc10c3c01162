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
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/safetrack/safetrack-admin/internal/hooks"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
)

// Input limits of the provisioning form, as enforced by the inputs'
// maxlength attribute.
const (
	MaxDevEUILength      = api.DevEUILength
	MaxNameLength        = 128
	MaxDescriptionLength = 256
)

var (
	ErrInvalidDevEUI = errors.New("DevEUI invalide. Doit contenir exactement 16 caractères hexadécimaux.")
	ErrNameRequired  = errors.New("Le nom du device est requis.")
)

// ProvisionValues are the raw field values of the provisioning form.
type ProvisionValues struct {
	DevEUI      string `json:"deveui"`
	Name        string `json:"device_name"`
	Description string `json:"device_description"`
}

// ProvisionForm registers new boîtiers. Values survive a failed submit so
// that they can be corrected.
type ProvisionForm struct {
	api   api.DeviceAPI
	token func() string
	actor func() string
	// onProvisioned is called with the normalised DevEUI after a success.
	onProvisioned func(ctx context.Context, devEUI string)

	mu         sync.Mutex
	values     ProvisionValues
	err        string
	submitting bool
}

func NewProvisionForm(
	deviceAPI api.DeviceAPI, token, actor func() string,
	onProvisioned func(ctx context.Context, devEUI string),
) *ProvisionForm {
	return &ProvisionForm{
		api:           deviceAPI,
		token:         token,
		actor:         actor,
		onProvisioned: onProvisioned,
	}
}

// Set replaces the field values. The DevEUI is trimmed and upper-cased
// before every field is cut at its maximum length.
func (f *ProvisionForm) Set(v ProvisionValues) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = ProvisionValues{
		DevEUI:      truncate(api.NormalizeDevEUI(v.DevEUI), MaxDevEUILength),
		Name:        truncate(v.Name, MaxNameLength),
		Description: truncate(v.Description, MaxDescriptionLength),
	}
}

func (f *ProvisionForm) Values() ProvisionValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Error returns the inline error message, empty when there is none.
func (f *ProvisionForm) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *ProvisionForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// CanSubmit reports whether the submit button is enabled: the DevEUI is 16
// hexadecimal characters and the name is not blank. It does not depend on
// the last validation error.
func (f *ProvisionForm) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.submitting && CanSubmit(f.values)
}

// CanSubmit is the enablement rule of the submit button for v.
func CanSubmit(v ProvisionValues) bool {
	return api.ValidDevEUI(v.DevEUI) && strings.TrimSpace(v.Name) != ""
}

// Validate builds the provisioning request, or returns the first
// validation error.
func Validate(v ProvisionValues) (*api.ProvisionRequest, error) {
	devEUI := api.NormalizeDevEUI(v.DevEUI)
	if !api.ValidDevEUI(devEUI) {
		return nil, ErrInvalidDevEUI
	}
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return &api.ProvisionRequest{
		DevEUI:            devEUI,
		DeviceName:        name,
		DeviceDescription: strings.TrimSpace(v.Description),
	}, nil
}

// Submit validates the current values and provisions the device. Failures
// are kept as the inline error and returned. On success the fields are
// cleared before onProvisioned runs.
func (f *ProvisionForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrActionPending
	}
	f.err = ""
	req, err := Validate(f.values)
	if err != nil {
		f.err = err.Error()
		f.mu.Unlock()
		return err
	}
	f.submitting = true
	f.mu.Unlock()

	device, err := f.api.Provision(ctx, f.token(), req)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		if SurfaceFor(ActionProvision) == SurfaceInline {
			f.err = api.Message(err)
		}
		f.mu.Unlock()
		return err
	}
	f.values = ProvisionValues{}
	f.mu.Unlock()

	event := &hooks.DeviceEvent{Actor: f.actor(), DevEUI: req.DevEUI}
	if device != nil {
		event.DeviceID = device.ID
	}
	hooks.Run(hooks.KindDeviceProvisioned, event)
	if f.onProvisioned != nil {
		f.onProvisioned(ctx, req.DevEUI)
	}
	return nil
}

// Reset clears values and error.
func (f *ProvisionForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = ProvisionValues{}
	f.err = ""
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
