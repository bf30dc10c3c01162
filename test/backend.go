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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/tidwall/sjson"

	"github.com/safetrack/safetrack-admin/safetrackapi/api"
)

// Failure is a canned error response returned by the fake backend.
type Failure struct {
	Code int
	Body string
}

// Backend is an in-memory SafeTrack backend served over httptest. It mimics
// the status codes and error bodies of the real service.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]string // email -> password
	profiles map[string]api.Profile
	devices  []api.Device
	nextID   int64
	failures map[string][]Failure
	calls    map[string]int
	requests map[string][]*http.Request
	bodies   map[string][][]byte
}

// NewBackend starts a fake backend and stops it when the test ends.
func NewBackend(t *testing.T) *Backend {
	b := &Backend{
		users:    map[string]string{},
		profiles: map[string]api.Profile{},
		nextID:   1,
		failures: map[string][]Failure{},
		calls:    map[string]int{},
		requests: map[string][]*http.Request{},
		bodies:   map[string][][]byte{},
	}
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/auth/login/access-token", b.login).Methods(http.MethodPost)
	v1.HandleFunc("/users/me", b.authed("me", b.me)).Methods(http.MethodGet)
	v1.HandleFunc("/vehicles/", b.authed("list", b.list)).Methods(http.MethodGet)
	v1.HandleFunc("/vehicles/provision", b.authed("provision", b.provision)).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/{id:[0-9]+}/release", b.authed("release", b.release)).Methods(http.MethodPost)
	v1.HandleFunc("/vehicles/{id:[0-9]+}", b.authed("delete", b.delete)).Methods(http.MethodDelete)
	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// APIPrefix is the value to hand to client.New.
func (b *Backend) APIPrefix() string {
	return b.URL + "/api/v1"
}

// AddUser registers credentials and returns the token Login will issue.
func (b *Backend) AddUser(email, password string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = password
	b.profiles[TokenFor(email)] = api.Profile{ID: int64(len(b.users)), Email: email, Nom: "Admin", Prenom: "Tech", Role: "ADMIN"}
	return TokenFor(email)
}

// TokenFor returns the token the backend issues for email.
func TokenFor(email string) string {
	return "token-" + email
}

// AddDevice stores d, assigning it the next ID, and returns the stored copy.
func (b *Backend) AddDevice(d api.Device) api.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	d.ID = b.nextID
	b.nextID++
	if d.CreatedAt == nil {
		d.CreatedAt = &api.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	}
	b.devices = append(b.devices, d)
	return d
}

// Devices returns a copy of the stored devices.
func (b *Backend) Devices() []api.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Device(nil), b.devices...)
}

// Fail queues a canned failure for the next call to endpoint, one of
// "login", "me", "list", "provision", "release" or "delete".
func (b *Backend) Fail(endpoint string, code int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[endpoint] = append(b.failures[endpoint], Failure{Code: code, Body: body})
}

// Calls returns how many times endpoint was hit.
func (b *Backend) Calls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[endpoint]
}

// LastRequest returns the last request received for endpoint and its body.
func (b *Backend) LastRequest(endpoint string) (*http.Request, []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reqs := b.requests[endpoint]
	if len(reqs) == 0 {
		return nil, nil
	}
	return reqs[len(reqs)-1], b.bodies[endpoint][len(reqs)-1]
}

func (b *Backend) record(endpoint string, req *http.Request, body []byte) (Failure, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[endpoint]++
	b.requests[endpoint] = append(b.requests[endpoint], req)
	b.bodies[endpoint] = append(b.bodies[endpoint], body)
	if fs := b.failures[endpoint]; len(fs) > 0 {
		b.failures[endpoint] = fs[1:]
		return fs[0], true
	}
	return Failure{}, false
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail answers like FastAPI's HTTPException: {"detail": "..."}.
func writeDetail(w http.ResponseWriter, code int, detail string) {
	body, _ := sjson.SetBytes(nil, "detail", detail)
	writeRaw(w, code, body)
}

// writeValidationError answers like a FastAPI request validation failure.
func writeValidationError(w http.ResponseWriter, loc, msg string) {
	body, _ := sjson.SetBytes(nil, "detail.0.loc", []string{"body", loc})
	body, _ = sjson.SetBytes(body, "detail.0.msg", msg)
	body, _ = sjson.SetBytes(body, "detail.0.type", "value_error")
	writeRaw(w, http.StatusUnprocessableEntity, body)
}

func writeRaw(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func (b *Backend) login(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if f, ok := b.record("login", req, []byte(req.PostForm.Encode())); ok {
		w.WriteHeader(f.Code)
		_, _ = w.Write([]byte(f.Body))
		return
	}
	email, password := req.PostForm.Get("username"), req.PostForm.Get("password")
	b.mu.Lock()
	want, ok := b.users[email]
	b.mu.Unlock()
	if !ok || want != password {
		writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: TokenFor(email), TokenType: "bearer"})
}

func (b *Backend) authed(endpoint string, f func(http.ResponseWriter, *http.Request, []byte)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
		}
		if fail, ok := b.record(endpoint, req, body); ok {
			w.WriteHeader(fail.Code)
			_, _ = w.Write([]byte(fail.Body))
			return
		}
		token := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		_, known := b.profiles[token]
		b.mu.Unlock()
		if !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		f(w, req, body)
	}
}

func (b *Backend) me(w http.ResponseWriter, req *http.Request, _ []byte) {
	token := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
	b.mu.Lock()
	p := b.profiles[token]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) list(w http.ResponseWriter, _ *http.Request, _ []byte) {
	writeJSON(w, http.StatusOK, b.Devices())
}

func (b *Backend) provision(w http.ResponseWriter, _ *http.Request, body []byte) {
	var in api.ProvisionRequest
	if err := json.Unmarshal(body, &in); err != nil {
		writeValidationError(w, "body", "Invalid JSON")
		return
	}
	if in.DeviceName == "" {
		writeValidationError(w, "device_name", "field required")
		return
	}
	b.mu.Lock()
	for _, d := range b.devices {
		if d.DevEUI == in.DevEUI {
			b.mu.Unlock()
			writeDetail(w, http.StatusConflict, fmt.Sprintf("DevEUI %s est déjà enregistré dans le système", in.DevEUI))
			return
		}
	}
	b.mu.Unlock()
	d := b.AddDevice(api.Device{DevEUI: in.DevEUI, Status: api.StatusAvailable})
	writeJSON(w, http.StatusCreated, d)
}

func (b *Backend) find(req *http.Request) (int, bool) {
	id, _ := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	for i, d := range b.devices {
		if d.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (b *Backend) release(w http.ResponseWriter, req *http.Request, _ []byte) {
	b.mu.Lock()
	i, ok := b.find(req)
	if !ok {
		b.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Véhicule introuvable")
		return
	}
	if b.devices[i].Status == api.StatusAvailable {
		b.mu.Unlock()
		writeDetail(w, http.StatusConflict, "Ce boîtier est déjà en statut DISPONIBLE")
		return
	}
	d := &b.devices[i]
	d.Status = api.StatusAvailable
	d.Name, d.Plate, d.OwnerUserID, d.ActivatedAt = nil, nil, nil, nil
	out := *d
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) delete(w http.ResponseWriter, req *http.Request, _ []byte) {
	b.mu.Lock()
	i, ok := b.find(req)
	if !ok {
		b.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Véhicule introuvable")
		return
	}
	out := b.devices[i]
	b.devices = append(b.devices[:i], b.devices[i+1:]...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}
