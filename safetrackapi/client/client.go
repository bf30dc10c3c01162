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

// Package client implements api.SafeTrackAPI over the backend's REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"

	"github.com/safetrack/safetrack-admin/internal"
	"github.com/safetrack/safetrack-admin/internal/httputil"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
)

// HTTP paths of the backend, relative to the /api/v1 prefix.
const (
	LoginPath     = "/auth/login/access-token"
	MePath        = "/users/me"
	DevicesPath   = "/vehicles/"
	ProvisionPath = "/vehicles/provision"
	ReleasePath   = "/vehicles/%d/release"
	DevicePath    = "/vehicles/%d"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safetrack_admin",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Number of requests made to the SafeTrack backend, by endpoint and status code",
		},
		[]string{"endpoint", "code"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "safetrack_admin",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Time taken by requests to the SafeTrack backend",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

// Client talks to one SafeTrack backend. It keeps no state besides the base
// prefix, so a single Client is shared by every console session.
type Client struct {
	prefix     string
	httpClient *http.Client
}

var _ api.SafeTrackAPI = (*Client)(nil)

// New returns a client for the API rooted at prefix, e.g.
// "https://safetrack.example.com/api/v1". A nil httpClient uses a client
// without timeout.
func New(prefix string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		prefix:     strings.TrimRight(prefix, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (*api.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	var res api.TokenResponse
	err := call(ctx, c, "login", &httputil.Request{
		Method:      http.MethodPost,
		URL:         c.prefix + LoginPath,
		Body:        strings.NewReader(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, &api.Error{StatusCode: http.StatusOK, Message: "Réponse de connexion sans jeton d'accès"}
	}
	return &res, nil
}

func (c *Client) Me(ctx context.Context, token string) (*api.Profile, error) {
	var res api.Profile
	if err := call(ctx, c, "me", &httputil.Request{
		Method: http.MethodGet,
		URL:    c.prefix + MePath,
		Token:  token,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListDevices(ctx context.Context, token string) ([]api.Device, error) {
	res := []api.Device{}
	if err := call(ctx, c, "list_devices", &httputil.Request{
		Method: http.MethodGet,
		URL:    c.prefix + DevicesPath,
		Token:  token,
	}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) Provision(ctx context.Context, token string, req *api.ProvisionRequest) (*api.Device, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var res api.Device
	if err = call(ctx, c, "provision", &httputil.Request{
		Method:      http.MethodPost,
		URL:         c.prefix + ProvisionPath,
		Token:       token,
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Release(ctx context.Context, token string, id int64) (*api.Device, error) {
	var res api.Device
	if err := call(ctx, c, "release", &httputil.Request{
		Method: http.MethodPost,
		URL:    c.prefix + fmt.Sprintf(ReleasePath, id),
		Token:  token,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Delete(ctx context.Context, token string, id int64) (*api.Device, error) {
	var res api.Device
	if err := call(ctx, c, "delete", &httputil.Request{
		Method: http.MethodDelete,
		URL:    c.prefix + fmt.Sprintf(DevicePath, id),
		Token:  token,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func call[restype any](ctx context.Context, c *Client, endpoint string, req *httputil.Request, res *restype) error {
	trace, ctx := internal.StartRegion(ctx, "SafeTrackAPI."+endpoint)
	defer trace.EndRegion()

	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("User-Agent", internal.UserAgent())

	start := time.Now()
	code, err := httputil.DoJSON(ctx, trace.Span(), c.httpClient, req, res, decodeError)
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()

	var te *httputil.TransportError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &te):
		return api.TransportError(te.Err)
	default:
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return &api.Error{StatusCode: code, Message: fmt.Sprintf("Réponse invalide du serveur : %s", err)}
	}
}

// decodeError extracts the human readable message of a backend error.
// FastAPI sends {"detail": "..."} for HTTP exceptions and
// {"detail": [{"msg": "..."}, ...]} for validation failures.
func decodeError(statusCode int, body []byte) error {
	if !gjson.ValidBytes(body) {
		return api.StatusError(statusCode)
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String && detail.String() != "":
		return &api.Error{StatusCode: statusCode, Message: detail.String()}
	case detail.IsArray():
		var msgs []string
		for _, m := range detail.Get("#.msg").Array() {
			if m.String() != "" {
				msgs = append(msgs, m.String())
			}
		}
		if len(msgs) > 0 {
			return &api.Error{StatusCode: statusCode, Message: strings.Join(msgs, "; ")}
		}
	}
	return api.StatusError(statusCode)
}
