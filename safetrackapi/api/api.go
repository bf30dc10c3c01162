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

// Package api contains the types exchanged with the SafeTrack backend and the
// interfaces the console consumes it through.
package api

import (
	"context"
)

// SafeTrackAPI is everything the console needs from the backend.
type SafeTrackAPI interface {
	AuthAPI
	DeviceAPI
}

// AuthAPI exchanges credentials for a bearer token and resolves the caller.
type AuthAPI interface {
	// Login posts the credentials form-encoded and returns the access token.
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	// Me returns the profile of the token owner.
	Me(ctx context.Context, token string) (*Profile, error)
}

// DeviceAPI manages the boîtiers known to the backend.
type DeviceAPI interface {
	ListDevices(ctx context.Context, token string) ([]Device, error)
	Provision(ctx context.Context, token string, req *ProvisionRequest) (*Device, error)
	Release(ctx context.Context, token string, id int64) (*Device, error)
	Delete(ctx context.Context, token string, id int64) (*Device, error)
}

// DeviceStatus is the pairing state of a boîtier. Values other than the two
// constants below are kept verbatim.
type DeviceStatus string

const (
	// StatusAvailable is an unpaired box, ready to be attached to a vehicle.
	StatusAvailable DeviceStatus = "DISPONIBLE"
	// StatusActive is a box paired with a vehicle.
	StatusActive DeviceStatus = "ACTIF"
)

// Device is the backend's vehicle record seen from the box side.
type Device struct {
	ID          int64        `json:"id_vehicule"`
	DevEUI      string       `json:"deveui"`
	Name        *string      `json:"nom"`
	Plate       *string      `json:"immatriculation"`
	Status      DeviceStatus `json:"statut"`
	CreatedAt   *Timestamp   `json:"created_at"`
	ActivatedAt *Timestamp   `json:"activated_at"`
	OwnerUserID *int64       `json:"id_utilisateur_proprietaire"`
}

// CanRelease reports whether the release action is offered for the device.
func (d *Device) CanRelease() bool {
	return d.Status == StatusActive
}

// CanDelete reports whether the delete action is offered for the device.
func (d *Device) CanDelete() bool {
	return d.Status == StatusAvailable
}

// DisplayName returns the vehicle name or def when the device has none.
func (d *Device) DisplayName(def string) string {
	if d.Name == nil || *d.Name == "" {
		return def
	}
	return *d.Name
}

// ProvisionRequest registers a new box in SafeTrack and ChirpStack.
type ProvisionRequest struct {
	DevEUI            string `json:"deveui"`
	DeviceName        string `json:"device_name"`
	DeviceDescription string `json:"device_description"`
}

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Profile is the subset of /users/me the console displays.
type Profile struct {
	ID     int64  `json:"id_utilisateur"`
	Email  string `json:"email"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Role   string `json:"role"`
}
