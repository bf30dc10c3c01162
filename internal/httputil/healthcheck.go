package httputil

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type healthResponse struct {
	Code       int      `json:"code"`
	FirstError string   `json:"error,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Pinger is implemented by the session storage backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckHandler reports 503 when a dependency fails to respond or when
// degraded returns true.
func HealthCheckHandler(degraded func() (bool, []string), deps ...Pinger) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		resp := &healthResponse{
			Code: http.StatusOK,
		}
		pingCheck(req.Context(), deps, resp)
		if isDegraded, reasons := degraded(); isDegraded {
			resp.Code = http.StatusServiceUnavailable
			resp.Warnings = reasons
		}
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(resp.Code)
		if err := json.NewEncoder(rw).Encode(resp); err != nil {
			logrus.WithError(err).Error("unable to encode health response")
		}
	}
}

func pingCheck(ctx context.Context, deps []Pinger, resp *healthResponse) {
	for _, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			resp.Code = http.StatusServiceUnavailable
			resp.FirstError = err.Error()
			return
		}
	}
}
