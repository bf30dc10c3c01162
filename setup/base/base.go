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

package base

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"
	"github.com/kardianos/minwinsvc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/safetrack/safetrack-admin/console"
	"github.com/safetrack/safetrack-admin/console/routing"
	"github.com/safetrack/safetrack-admin/internal"
	"github.com/safetrack/safetrack-admin/internal/caching"
	"github.com/safetrack/safetrack-admin/internal/hooks"
	"github.com/safetrack/safetrack-admin/internal/httputil"
	"github.com/safetrack/safetrack-admin/safetrackapi/client"
	"github.com/safetrack/safetrack-admin/session"
	"github.com/safetrack/safetrack-admin/session/storage"
	"github.com/safetrack/safetrack-admin/setup/config"
	"github.com/safetrack/safetrack-admin/setup/process"
)

// BaseConsole is a base for creating a new instance of the console. It
// exposes the resources every part of the console shares. All errors are
// handled by logging then exiting, so all methods should only be used
// during start up.
// Must be closed when shutting down.
type BaseConsole struct {
	*process.ProcessContext
	componentName string
	tracerCloser  io.Closer
	Cfg           *config.Console
	ConsoleMux    *mux.Router
	AdminMux      *mux.Router
	Caches        *caching.Caches
	SessionDB     storage.Database
	API           *client.Client
	Registry      *console.Registry
	EnableMetrics bool
}

const HTTPServerTimeout = time.Minute * 5

type BaseConsoleOptions int

const (
	DisableMetrics BaseConsoleOptions = iota
)

// NewBaseConsole creates a new instance of the console. The componentName
// is used for logging and tracing.
func NewBaseConsole(cfg *config.Console, componentName string, options ...BaseConsoleOptions) *BaseConsole {
	platformSanityChecks()
	enableMetrics := true
	for _, opt := range options {
		switch opt {
		case DisableMetrics:
			enableMetrics = false
		}
	}

	configErrors := &config.ConfigErrors{}
	cfg.Verify(configErrors)
	if len(*configErrors) > 0 {
		for _, err := range *configErrors {
			logrus.Errorf("Configuration error: %s", err)
		}
		logrus.Fatalf("Failed to start due to configuration errors")
	}

	internal.SetupStdLogging()
	internal.SetupHookLogging(cfg.Global.Logging, componentName)

	logrus.Infof("SafeTrack admin console version %s", internal.VersionString())
	if !cfg.SessionStore.Cookie.Secure {
		logrus.Warn("Session cookies are not marked secure, serve the console over HTTPS in production")
	}

	closer, err := cfg.SetupTracing("SafeTrackAdmin" + componentName)
	if err != nil {
		logrus.WithError(err).Panicf("failed to start opentracing")
	}

	if cfg.Global.Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		err = sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Global.Sentry.DSN,
			Environment:      cfg.Global.Sentry.Environment,
			Debug:            true,
			Release:          "safetrack-admin@" + internal.VersionString(),
			AttachStacktrace: true,
		})
		if err != nil {
			logrus.WithError(err).Panic("failed to start Sentry")
		}
	}

	hooks.Enable()
	attachAuditHooks()

	processCtx := process.NewProcessContext()
	caches, err := caching.NewRistrettoCache(cfg.Dashboard.ProfileCacheSize, enableMetrics)
	if err != nil {
		logrus.WithError(err).Panic("failed to create profile cache")
	}
	db, err := storage.NewDatabase(processCtx.Context(), &cfg.SessionStore.Database, cfg.SessionStore.IdleTimeout)
	if err != nil {
		logrus.WithError(err).Panic("failed to connect to session database")
	}

	apiClient := client.New(cfg.Derived.APIPrefix, &http.Client{
		Timeout: cfg.API.RequestTimeout,
	})
	logrus.WithField("api", cfg.Derived.APIPrefix).Info("Using SafeTrack backend")

	return &BaseConsole{
		ProcessContext: processCtx,
		componentName:  componentName,
		tracerCloser:   closer,
		Cfg:            cfg,
		ConsoleMux:     mux.NewRouter(),
		AdminMux:       mux.NewRouter(),
		Caches:         caches,
		SessionDB:      db,
		API:            apiClient,
		Registry:       console.NewRegistry(processCtx.Context(), db, apiClient, caches, cfg.Dashboard),
		EnableMetrics:  enableMetrics,
	}
}

// Close implements io.Closer
func (b *BaseConsole) Close() error {
	b.Registry.Close()
	return b.tracerCloser.Close()
}

func (b *BaseConsole) configureHTTPErrors() {
	notAllowedHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(r.Method + " non autorisé sur cette page"))
	}
	b.ConsoleMux.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Page introuvable", http.StatusNotFound)
	})
	b.ConsoleMux.MethodNotAllowedHandler = http.HandlerFunc(notAllowedHandler)
}

// ConfigureAdminEndpoints registers the liveness and health endpoints.
func (b *BaseConsole) ConfigureAdminEndpoints() {
	b.AdminMux.HandleFunc("/monitor/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	b.AdminMux.HandleFunc("/monitor/health", httputil.HealthCheckHandler(b.ProcessContext.IsDegraded, b.SessionDB))
	if b.EnableMetrics && b.Cfg.Global.Metrics.Enabled {
		b.AdminMux.Handle("/metrics", httputil.WrapHandlerInBasicAuth(promhttp.Handler(), httputil.BasicAuth{
			Username: b.Cfg.Global.Metrics.BasicAuth.Username,
			Password: b.Cfg.Global.Metrics.BasicAuth.Password,
		}))
	}
}

// Handler returns the root handler: admin endpoints first, then the
// console views.
func (b *BaseConsole) Handler() http.Handler {
	b.configureHTTPErrors()
	b.ConfigureAdminEndpoints()
	routing.Setup(b.ConsoleMux, b.Registry, b.Cfg)

	var consoleHandler http.Handler = b.ConsoleMux
	if b.Cfg.Global.Sentry.Enabled {
		sentryHandler := sentryhttp.New(sentryhttp.Options{
			Repanic: true,
		})
		consoleHandler = sentryHandler.Handle(b.ConsoleMux)
	}

	root := mux.NewRouter()
	root.PathPrefix("/monitor/").Handler(b.AdminMux)
	root.Path("/metrics").Handler(b.AdminMux)
	root.PathPrefix("/").Handler(consoleHandler)
	return root
}

// SetupAndServeHTTP serves the console on listenAddr, together with the
// session janitor and the idle console eviction, until the process shuts
// down. A failure of any of them shuts the process down.
func (b *BaseConsole) SetupAndServeHTTP(listenAddr config.HTTPAddress) {
	serv := &http.Server{
		Addr:              string(listenAddr),
		WriteTimeout:      HTTPServerTimeout,
		ReadHeaderTimeout: time.Second * 30,
		Handler:           b.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return b.ProcessContext.Context()
		},
	}
	idleTimeout := b.Cfg.SessionStore.IdleTimeout
	certFile, keyFile := string(b.Cfg.HTTP.TLSCert), string(b.Cfg.HTTP.TLSKey)

	b.ProcessContext.ComponentStarted()
	defer b.ProcessContext.ComponentFinished()

	g, ctx := errgroup.WithContext(b.ProcessContext.Context())
	g.Go(func() error {
		logrus.Infof("Starting %s listener on %s", b.componentName, serv.Addr)
		var err error
		if certFile != "" && keyFile != "" {
			err = serv.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = serv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		logrus.Infof("Stopping HTTP listener")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		err := serv.Shutdown(shutdownCtx)
		logrus.Infof("Stopped %s listener on %s", b.componentName, serv.Addr)
		return err
	})
	g.Go(func() error {
		return session.RunJanitor(ctx, b.SessionDB, idleTimeout, b.reportSessionDB)
	})
	g.Go(func() error {
		return b.Registry.RunEviction(ctx, idleTimeout)
	})

	minwinsvc.SetOnExit(b.ProcessContext.ShutdownConsole)
	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("Console stopped unexpectedly")
		b.ProcessContext.ShutdownConsole()
	}
}

func (b *BaseConsole) reportSessionDB(err error) {
	if err != nil {
		b.ProcessContext.Degraded(err)
		return
	}
	b.ProcessContext.Recovered()
}

// WaitForShutdown blocks until SIGINT, SIGTERM or an internal shutdown,
// then stops every console and waits for the listener to finish.
func (b *BaseConsole) WaitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigs:
	case <-b.ProcessContext.WaitForShutdown():
	}
	signal.Reset(syscall.SIGINT, syscall.SIGTERM)

	logrus.Warnf("Shutdown signal received")

	b.ProcessContext.ShutdownConsole()
	b.ProcessContext.WaitForComponentsToFinish()
	b.Registry.Close()
	if b.Cfg.Global.Sentry.Enabled {
		if !sentry.Flush(time.Second * 5) {
			logrus.Warnf("failed to flush all Sentry events!")
		}
	}

	logrus.Warnf("SafeTrack admin console is exiting now")
}
