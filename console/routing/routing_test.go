package routing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetrack/safetrack-admin/console"
	"github.com/safetrack/safetrack-admin/internal/caching"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
	"github.com/safetrack/safetrack-admin/safetrackapi/client"
	"github.com/safetrack/safetrack-admin/session/storage/inmemory"
	"github.com/safetrack/safetrack-admin/setup/config"
	"github.com/safetrack/safetrack-admin/test"
)

const (
	testEmail    = "tech@safetrack.local"
	testPassword = "s3cret"
)

var csrfPattern = regexp.MustCompile(`name="csrf" value="([^"]+)"`)

type browser struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
	csrf   string
}

func newConsoleServer(t *testing.T) (*browser, *test.Backend) {
	t.Helper()
	backend := test.NewBackend(t)
	backend.AddUser(testEmail, testPassword)

	cfg := &config.Console{}
	cfg.Defaults(true)
	cfg.Dashboard.PollInterval = time.Hour
	cfg.Dashboard.ToastTTL = time.Minute

	caches, err := caching.NewRistrettoCache(64, false)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	registry := console.NewRegistry(
		ctx, inmemory.NewDatabase(time.Hour), client.New(backend.APIPrefix(), nil), caches, cfg.Dashboard,
	)
	router := mux.NewRouter()
	Setup(router, registry, cfg)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		registry.Close()
		cancel()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, server: server, client: &http.Client{Jar: jar}}, backend
}

// do performs a request, remembers the CSRF token of HTML answers and
// returns the final status and body.
func (b *browser) do(req *http.Request) (int, string) {
	b.t.Helper()
	res, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer res.Body.Close() // nolint:errcheck
	body, err := io.ReadAll(res.Body)
	require.NoError(b.t, err)
	if m := csrfPattern.FindSubmatch(body); m != nil {
		b.csrf = string(m[1])
	}
	return res.StatusCode, string(body)
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.server.URL+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) (int, string) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf") == "" {
		form.Set("csrf", b.csrf)
	}
	req, err := http.NewRequest(http.MethodPost, b.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login() string {
	b.t.Helper()
	code, _ := b.get("/login")
	require.Equal(b.t, http.StatusOK, code)
	code, body := b.post("/login", url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(b.t, http.StatusOK, code, body)
	return body
}

func (b *browser) noRedirect() *http.Client {
	return &http.Client{
		Jar: b.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestDashboardRequiresLogin(t *testing.T) {
	b, _ := newConsoleServer(t)

	res, err := b.noRedirect().Get(b.server.URL + "/")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))
	require.NotEmpty(t, res.Cookies())
	assert.Equal(t, SessionCookieName, res.Cookies()[0].Name)
	assert.True(t, res.Cookies()[0].HttpOnly)

	code, body := b.get("/login")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Panneau de gestion technique des boîtiers LoRaWAN")
	assert.Contains(t, body, "Email administrateur")
}

func TestLoginAndDashboard(t *testing.T) {
	b, backend := newConsoleServer(t)
	backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Name: strPtr("Hilux"), Status: api.StatusActive})

	b.login()
	code, body := b.post("/devices/refresh", nil)
	require.Equal(t, http.StatusOK, code)

	assert.Contains(t, body, "🔑 "+testEmail)
	assert.Contains(t, body, "1 dispositif dans la base")
	assert.Contains(t, body, "AABBCCDDEE001122")
	assert.Contains(t, body, "badge-actif")
	assert.Contains(t, body, "01/05/2024 12:00", "dates are shown in Europe/Paris")
	assert.Contains(t, body, "🔄 Libérer")
	assert.NotContains(t, body, "🗑️ Supprimer")
	assert.NotContains(t, body, "Actualisation auto · …")

	// the login page sends authenticated sessions home
	code, body = b.get("/login")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "📋 Boîtiers enregistrés")
}

func TestLoginFailureIsInline(t *testing.T) {
	b, backend := newConsoleServer(t)
	b.get("/login")

	code, body := b.post("/login", url.Values{"email": {testEmail}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, body, "Incorrect email or password")
	assert.Contains(t, body, `value="`+testEmail+`"`)
	assert.Equal(t, 1, backend.Calls("login"))

	code, body = b.post("/login", url.Values{"email": {testEmail}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, console.ErrCredentialsRequired.Error())
	assert.Equal(t, 1, backend.Calls("login"), "no call without credentials")
}

func TestFormPostsNeedCSRFToken(t *testing.T) {
	b, backend := newConsoleServer(t)
	b.login()

	code, _ := b.post("/devices/refresh", url.Values{"csrf": {"forged"}})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = b.post("/login", url.Values{"csrf": {"forged"}, "email": {testEmail}, "password": {testPassword}})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 1, backend.Calls("login"))
}

func TestEmptyState(t *testing.T) {
	b, _ := newConsoleServer(t)
	b.login()
	_, body := b.post("/devices/refresh", nil)
	assert.Contains(t, body, "0 dispositifs dans la base")
	assert.Contains(t, body, "Aucun boîtier enregistré. Commencez par en ajouter un ci-dessus.")
}

func TestReleaseThroughModal(t *testing.T) {
	b, backend := newConsoleServer(t)
	paired := backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Status: api.StatusActive})
	b.login()
	b.post("/devices/refresh", nil)

	id := strconv.FormatInt(paired.ID, 10)
	_, body := b.post("/devices/"+id+"/release/confirm", nil)
	assert.Contains(t, body, "🔄 Libérer le boîtier")
	assert.Contains(t, body, `action="/modal/confirm"`)
	assert.Equal(t, 0, backend.Calls("release"), "nothing happens before confirmation")

	_, body = b.post("/modal/cancel", nil)
	assert.NotContains(t, body, `action="/modal/confirm"`)
	assert.Equal(t, 0, backend.Calls("release"))

	b.post("/devices/"+id+"/release/confirm", nil)
	_, body = b.post("/modal/confirm", nil)
	assert.Equal(t, 1, backend.Calls("release"))
	assert.Contains(t, body, "🔄 Boîtier AABBCCDDEE001122 libéré — prêt pour re-appairage")
	assert.Contains(t, body, "badge-disponible")
	assert.Equal(t, api.StatusAvailable, backend.Devices()[0].Status)
}

func TestDeleteFailureRaisesAlertOnce(t *testing.T) {
	b, backend := newConsoleServer(t)
	spare := backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Status: api.StatusAvailable})
	b.login()
	b.post("/devices/refresh", nil)
	backend.Fail("delete", http.StatusForbidden, `{"detail":"Forbidden"}`)

	b.post("/devices/"+strconv.FormatInt(spare.ID, 10)+"/delete/confirm", nil)
	_, body := b.post("/modal/confirm", nil)
	assert.Contains(t, body, `window.alert("Erreur : Forbidden")`)
	assert.Contains(t, body, "AABBCCDDEE001122", "the row is kept")

	_, body = b.get("/")
	assert.NotContains(t, body, "window.alert(")
}

func TestStaleActionIsIgnored(t *testing.T) {
	b, backend := newConsoleServer(t)
	spare := backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Status: api.StatusAvailable})
	b.login()
	b.post("/devices/refresh", nil)

	code, body := b.post("/devices/"+strconv.FormatInt(spare.ID, 10)+"/release/confirm", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, `action="/modal/confirm"`)

	code, _ = b.post("/devices/not-a-number/delete/confirm", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestProvisionThroughForm(t *testing.T) {
	b, backend := newConsoleServer(t)
	b.login()

	_, body := b.post("/devices/provision", url.Values{"deveui": {"a1b2"}, "device_name": {"Tracker"}})
	assert.Contains(t, body, console.ErrInvalidDevEUI.Error())
	assert.Contains(t, body, `value="A1B2"`)
	assert.Equal(t, 0, backend.Calls("provision"))

	_, body = b.post("/devices/provision", url.Values{
		"deveui":             {"a1b2c3d4e5f60001"},
		"device_name":        {"Tracker-Camion-001"},
		"device_description": {"Hilux"},
	})
	assert.Equal(t, 1, backend.Calls("provision"))
	assert.Contains(t, body, "✅ Boîtier A1B2C3D4E5F60001 enregistré avec succès")
	assert.Contains(t, body, `id="deveui" name="deveui" value=""`)
	assert.Len(t, backend.Devices(), 1)
}

func TestDismissToast(t *testing.T) {
	b, backend := newConsoleServer(t)
	b.login()
	b.post("/devices/provision", url.Values{"deveui": {"A1B2C3D4E5F60001"}, "device_name": {"Tracker"}})
	require.Len(t, backend.Devices(), 1)

	res, err := b.client.Get(b.server.URL + "/console/state")
	require.NoError(t, err)
	var state console.State
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	_ = res.Body.Close()
	require.Len(t, state.Toasts, 1)

	_, body := b.post("/toasts/"+state.Toasts[0].ID+"/dismiss", nil)
	assert.NotContains(t, body, "enregistré avec succès")
}

func TestConsoleState(t *testing.T) {
	b, backend := newConsoleServer(t)
	backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Status: api.StatusAvailable})

	res, err := http.Get(b.server.URL + "/console/state")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "no cookie")

	b.get("/login")
	res, err = b.client.Get(b.server.URL + "/console/state")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "not logged in")

	b.login()
	b.post("/devices/refresh", nil)
	res, err = b.client.Get(b.server.URL + "/console/state")
	require.NoError(t, err)
	defer res.Body.Close() // nolint:errcheck
	require.Equal(t, http.StatusOK, res.StatusCode)
	var state console.State
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	assert.True(t, state.Authenticated)
	assert.Equal(t, testEmail, state.Email)
	assert.Equal(t, console.Stats{Total: 1, Disponibles: 1}, state.Stats)
	require.Len(t, state.Devices, 1)
	assert.True(t, state.Devices[0].CanDelete)
}

func TestLogout(t *testing.T) {
	b, _ := newConsoleServer(t)
	b.login()

	code, body := b.post("/logout", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "🔐 Se connecter")

	res, err := b.noRedirect().Get(b.server.URL + "/")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))
}

func TestDeviceRowFormatting(t *testing.T) {
	cfg := &config.Dashboard{}
	cfg.Defaults(false)
	pages := NewPages(cfg)

	owner := int64(7)
	row := pages.deviceRow(console.Row{Device: api.Device{
		ID:          3,
		DevEUI:      "AABBCCDDEE001122",
		Status:      "MAINTENANCE",
		CreatedAt:   &api.Timestamp{Time: time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)},
		OwnerUserID: &owner,
	}})
	assert.Equal(t, deviceRow{
		ID:          3,
		DevEUI:      "AABBCCDDEE001122",
		Name:        "—",
		Plate:       "—",
		Status:      "MAINTENANCE",
		BadgeClass:  "badge-default",
		CreatedAt:   "16/01/2024 00:30",
		ActivatedAt: "—",
		Owner:       "7",
	}, row)

	assert.Equal(t, "s", plural(0))
	assert.Equal(t, "", plural(1))
	assert.Equal(t, "s", plural(2))
}

func strPtr(s string) *string { return &s }
