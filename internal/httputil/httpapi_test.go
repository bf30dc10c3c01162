package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matrix-org/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWrapHandlerInBasicAuth(t *testing.T) {
	type args struct {
		h http.Handler
		b BasicAuth
	}

	dummyHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name    string
		args    args
		want    int
		reqAuth bool
	}{
		{
			name:    "no user or password setup",
			args:    args{h: dummyHandler},
			want:    http.StatusOK,
			reqAuth: false,
		},
		{
			name: "only user set",
			args: args{
				h: dummyHandler,
				b: BasicAuth{Username: "test"}, // no basic auth
			},
			want:    http.StatusOK,
			reqAuth: false,
		},
		{
			name: "only pass set",
			args: args{
				h: dummyHandler,
				b: BasicAuth{Password: "test"}, // no basic auth
			},
			want:    http.StatusOK,
			reqAuth: false,
		},
		{
			name: "credentials correct",
			args: args{
				h: dummyHandler,
				b: BasicAuth{Username: "test", Password: "test"}, // basic auth enabled
			},
			want:    http.StatusOK,
			reqAuth: true,
		},
		{
			name: "credentials wrong",
			args: args{
				h: dummyHandler,
				b: BasicAuth{Username: "test1", Password: "test"}, // basic auth enabled
			},
			want:    http.StatusForbidden,
			reqAuth: true,
		},
		{
			name: "no basic auth in request",
			args: args{
				h: dummyHandler,
				b: BasicAuth{Username: "test", Password: "test"}, // basic auth enabled
			},
			want:    http.StatusForbidden,
			reqAuth: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baHandler := WrapHandlerInBasicAuth(tt.args.h, tt.args.b)

			req := httptest.NewRequest("GET", "http://localhost/metrics", nil)
			if tt.reqAuth {
				req.SetBasicAuth("test", "test")
			}

			w := httptest.NewRecorder()
			baHandler(w, req)
			resp := w.Result()

			if resp.StatusCode != tt.want {
				t.Errorf("Expected status code %d, got %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestMakeHTMLAPICountsRequests(t *testing.T) {
	h := MakeHTMLAPI("test_html", func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, util.GetLogger(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	})
	before := testutil.ToFloat64(requestCounter.With(prometheus.Labels{"handler": "test_html", "code": "418", "method": "get"}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	after := testutil.ToFloat64(requestCounter.With(prometheus.Labels{"handler": "test_html", "code": "418", "method": "get"}))
	assert.Equal(t, before+1, after)
}

func TestMakeExternalAPI(t *testing.T) {
	h := MakeExternalAPI("test_json", func(r *http.Request) util.JSONResponse {
		return util.JSONResponse{Code: http.StatusOK, JSON: map[string]int{"total": 3}}
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/console/state", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":3}`, rec.Body.String())
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthCheckHandler(t *testing.T) {
	healthy := func() (bool, []string) { return false, nil }
	degraded := func() (bool, []string) { return true, []string{"session database unreachable"} }

	tests := []struct {
		name     string
		degraded func() (bool, []string)
		deps     []Pinger
		want     int
	}{
		{"ok", healthy, []Pinger{fakePinger{}}, http.StatusOK},
		{"ping failure", healthy, []Pinger{fakePinger{errors.New("down")}}, http.StatusServiceUnavailable},
		{"degraded", degraded, nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthCheckHandler(tt.degraded, tt.deps...)(rec, httptest.NewRequest(http.MethodGet, "/monitor/health", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
