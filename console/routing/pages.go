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

package routing

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/matrix-org/util"

	"github.com/safetrack/safetrack-admin/console"
	"github.com/safetrack/safetrack-admin/internal"
	"github.com/safetrack/safetrack-admin/internal/httputil"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
	"github.com/safetrack/safetrack-admin/setup/config"
)

//go:embed static/*.gotmpl
var staticContent embed.FS

const (
	dateLayout    = "02/01/2006 15:04"
	refreshLayout = "15:04"
	missingValue  = "—"
)

// Pages renders the console views.
type Pages struct {
	tmpl     *template.Template
	location *time.Location
	poll     time.Duration
	toastTTL time.Duration
}

func NewPages(cfg *config.Dashboard) *Pages {
	return &Pages{
		tmpl: template.Must(template.New("pages").Funcs(template.FuncMap{
			"plural": plural,
		}).ParseFS(staticContent, "static/*.gotmpl")),
		location: cfg.Location(),
		poll:     cfg.PollInterval,
		toastTTL: cfg.ToastTTL,
	}
}

type loginPage struct {
	Version string
	CSRF    string
	Email   string
	Error   string
}

type dashboardPage struct {
	Version        string
	CSRF           string
	Email          string
	Loading        bool
	Refreshed      string
	Stats          console.Stats
	Rows           []deviceRow
	Toasts         []console.Toast
	ToastTTLMillis int64
	PollMillis     int64
	Modal          *console.ModalView
	Form           console.ProvisionValues
	FormError      string
	CanSubmit      bool
	Alert          string
	MaxDevEUI      int
	MaxName        int
	MaxDescription int
}

type deviceRow struct {
	ID          int64
	DevEUI      string
	Name        string
	Plate       string
	Status      string
	BadgeClass  string
	CreatedAt   string
	ActivatedAt string
	Owner       string
	CanRelease  bool
	CanDelete   bool
	InFlight    bool
}

func (p *Pages) renderLogin(w http.ResponseWriter, req *http.Request, code int, data loginPage) {
	data.Version = internal.VersionString()
	p.render(w, req, code, "login.gotmpl", data)
}

func (p *Pages) renderDashboard(w http.ResponseWriter, req *http.Request, c *console.Console, csrf string) {
	state := c.Snapshot()
	data := dashboardPage{
		Version:        internal.VersionString(),
		CSRF:           csrf,
		Email:          state.Email,
		Loading:        state.Loading,
		Refreshed:      "…",
		Stats:          state.Stats,
		Toasts:         state.Toasts,
		ToastTTLMillis: p.toastTTL.Milliseconds(),
		PollMillis:     p.poll.Milliseconds(),
		Modal:          state.Modal,
		Form:           state.Form,
		FormError:      state.FormError,
		CanSubmit:      state.CanSubmit,
		Alert:          c.TakeAlert(),
		MaxDevEUI:      console.MaxDevEUILength,
		MaxName:        console.MaxNameLength,
		MaxDescription: console.MaxDescriptionLength,
	}
	if state.LastRefresh != nil {
		data.Refreshed = state.LastRefresh.In(p.location).Format(refreshLayout)
	}
	data.Rows = make([]deviceRow, 0, len(state.Devices))
	for _, row := range state.Devices {
		data.Rows = append(data.Rows, p.deviceRow(row))
	}
	p.render(w, req, http.StatusOK, "dashboard.gotmpl", data)
}

func (p *Pages) deviceRow(row console.Row) deviceRow {
	r := deviceRow{
		ID:          row.ID,
		DevEUI:      row.DevEUI,
		Name:        row.DisplayName(missingValue),
		Plate:       missingValue,
		Status:      string(row.Status),
		BadgeClass:  badgeClass(row.Status),
		CreatedAt:   p.formatDate(row.CreatedAt),
		ActivatedAt: p.formatDate(row.ActivatedAt),
		Owner:       missingValue,
		CanRelease:  row.CanRelease,
		CanDelete:   row.CanDelete,
		InFlight:    row.InFlight,
	}
	if row.Plate != nil && *row.Plate != "" {
		r.Plate = *row.Plate
	}
	if row.OwnerUserID != nil {
		r.Owner = strconv.FormatInt(*row.OwnerUserID, 10)
	}
	return r
}

func (p *Pages) formatDate(ts *api.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return missingValue
	}
	return ts.In(p.location).Format(dateLayout)
}

func badgeClass(status api.DeviceStatus) string {
	switch status {
	case api.StatusAvailable:
		return "badge-disponible"
	case api.StatusActive:
		return "badge-actif"
	default:
		return "badge-default"
	}
}

func (p *Pages) render(w http.ResponseWriter, req *http.Request, code int, name string, data interface{}) {
	httputil.SetSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := p.tmpl.ExecuteTemplate(w, name, data); err != nil {
		util.GetLogger(req.Context()).WithError(err).Errorf("Failed to render %s", name)
	}
}

// plural returns "s" unless n is exactly one.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
