/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/longsleep/go-metrics/loggedwriter"
	"github.com/longsleep/go-metrics/timing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	kcoidc "stash.kopano.io/kc/libkcoidc"

	"stash.kopano.io/kwm/kwmeventbridge/bridge"
	apiv0 "stash.kopano.io/kwm/kwmeventbridge/bridge/api-v0/service"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/eventq"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/events"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/hub"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/upstreams"
	cfg "stash.kopano.io/kwm/kwmeventbridge/config"
	"stash.kopano.io/kwm/kwmeventbridge/internal/pionsource"
)

// Server is our HTTP server implementation.
type Server struct {
	config *cfg.Config

	listenAddr string
	logger     logrus.FieldLogger

	requestLog bool
}

// NewServer constructs a server from the provided parameters.
func NewServer(c *cfg.Config) (*Server, error) {
	s := &Server{
		config: c,

		listenAddr: c.ListenAddr,
		logger:     c.Logger,

		requestLog: os.Getenv("KWMEVENTBRIDGED_REQUEST_LOG") == "1",
	}

	return s, nil
}

// WithMetrics adds metrics logging to the provided http.Handler. When the
// handler is done, the context is canceled, logging metrics.
func (s *Server) WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		// Create per request cancel context.
		ctx, cancel := context.WithCancel(req.Context())

		loggedWriter := metrics.NewLoggedResponseWriter(rw)
		// Create per request context.
		ctx = timing.NewContext(ctx, func(duration time.Duration) {
			// This is the stop callback, called when complete with duration.
			durationMs := float64(duration) / float64(time.Millisecond)
			// Log request.
			s.logger.WithFields(logrus.Fields{
				"status":     loggedWriter.Status(),
				"method":     req.Method,
				"path":       req.URL.Path,
				"remote":     req.RemoteAddr,
				"duration":   durationMs,
				"referer":    req.Referer(),
				"user-agent": req.UserAgent(),
				"origin":     req.Header.Get("Origin"),
			}).Debug("HTTP request complete")
		})
		rw = loggedWriter

		// Run the request.
		next.ServeHTTP(rw, req.WithContext(ctx))

		// Cancel per request context when done.
		cancel()
	})
}

// AddContext adds the accociated server's context to the provided http.Hander
// request.
func (s *Server) AddContext(parent context.Context, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(rw, req.WithContext(parent))
	})
}

// AddRoutes add the accociated Servers URL routes to the provided router with
// the provided context.Context.
func (s *Server) AddRoutes(ctx context.Context, router *mux.Router, chain alice.Chain) http.Handler {
	router.Handle("/health-check", chain.ThenFunc(s.HealthCheckHandler))

	return router
}

// pipeline holds the event path from notification sources to consumers.
type pipeline struct {
	queue   *eventq.Queue
	hub     *hub.Hub
	bridge  *events.Bridge
	session *pionsource.Session
}

func (s *Server) newPipeline(authenticator hub.AuthenticatorFunc) (*pipeline, error) {
	policy, err := eventq.ParseOverflowPolicy(s.config.EventQueuePolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid event queue policy: %w", err)
	}

	queue, err := eventq.New(&eventq.Options{
		Logger:  s.logger.WithField("component", "eventq"),
		Metrics: s.config.Metrics,

		Size:   s.config.EventQueueSize,
		Policy: policy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event queue: %w", err)
	}

	eventsHub, err := hub.New(&hub.Options{
		Logger:  s.logger.WithField("component", "hub"),
		Metrics: s.config.Metrics,

		ConsumerQueueSize: s.config.ConsumerQueueSize,
		Authenticator:     authenticator,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event hub: %w", err)
	}

	eventBridge, err := events.New(queue, &events.Options{
		Logger:  s.logger.WithField("component", "bridge"),
		Metrics: s.config.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event bridge: %w", err)
	}

	session, err := pionsource.NewSession(events.NewListener(eventBridge), &pionsource.Options{
		Config: s.config,
		Logger: s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create participant session: %w", err)
	}

	return &pipeline{
		queue:   queue,
		hub:     eventsHub,
		bridge:  eventBridge,
		session: session,
	}, nil
}

// Serve starts all the accociated servers resources and listeners and blocks
// forever until signals or error occurs. Returns error and gracefully stops
// all HTTP listeners before return.
func (s *Server) Serve(ctx context.Context) error {
	var err error

	serveCtx, serveCtxCancel := context.WithCancel(ctx)
	defer serveCtxCancel()

	logger := s.logger
	services := &bridge.Services{}

	// OpenID connect.
	var authenticator hub.AuthenticatorFunc
	if s.config.Iss != nil {
		var oidcp *kcoidc.Provider
		var oidcLogger *kcoidcLogger
		kcoidcDebug := os.Getenv("KCOIDC_DEBUG") == "1"
		if kcoidcDebug && logger != nil {
			oidcLogger = &kcoidcLogger{
				logger: logger,
				prefix: "kcoidc debug ",
			}
		}

		if oidcLogger != nil {
			oidcp, err = kcoidc.NewProvider(s.config.HTTPClient, oidcLogger, kcoidcDebug)
		} else {
			oidcp, err = kcoidc.NewProvider(s.config.HTTPClient, nil, kcoidcDebug)
		}
		if err != nil {
			return fmt.Errorf("failed to create kcoidc provider for server: %v", err)
		}
		err = oidcp.Initialize(serveCtx, s.config.Iss)
		if err != nil {
			return fmt.Errorf("OIDC provider initialization error: %v", err)
		}
		if errOIDCInitialize := oidcp.WaitUntilReady(serveCtx, 10*time.Second); errOIDCInitialize != nil {
			// NOTE: Not fatal, the provider keeps retrying in the background.
			logger.WithError(errOIDCInitialize).WithField("iss", s.config.Iss).Warnf("failed to initialize OIDC provider")
		} else {
			logger.WithField("iss", s.config.Iss).Debugln("OIDC provider initialized")
		}
		authenticator = newOIDCAuthenticator(oidcp)
	}

	p, err := s.newPipeline(authenticator)
	if err != nil {
		return err
	}
	services.Hub = p.hub
	services.Directory = p.session

	if s.config.Survey != nil {
		s.config.Survey.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "kwmeventbridged_consumers_connected",
			Help: "Number of connected event consumers",
		}, func() float64 {
			return float64(p.hub.NumActive())
		}))
	}

	// HTTP services.
	router := mux.NewRouter()
	commonHandlers := alice.New()
	if s.requestLog {
		commonHandlers = commonHandlers.Append(s.WithMetrics)
	}

	// Basic routes provided by server.
	s.AddRoutes(ctx, router, commonHandlers)

	errCh := make(chan error, 2)
	exitCh := make(chan bool, 1)
	signalCh := make(chan os.Signal, 1)

	// HTTP listener.
	logger.WithField("listenAddr", s.listenAddr).Infoln("starting http listener")
	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}

	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer func() {
			logger.Debugln("event queue stopped")
			wg.Done()
		}()

		runErr := p.queue.Run(serveCtx, p.hub.Broadcast)
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			errCh <- runErr
		}
	}()

	var upstreamsManager *upstreams.Manager
	if len(s.config.UpstreamURIs) > 0 {
		upstreamsManager, err = upstreams.NewManager(serveCtx, s.config, s.config.UpstreamURIs, p.bridge)
		if err != nil {
			return err
		}
		services.Upstreams = upstreamsManager
	}

	if true {
		apiv0Service := apiv0.NewHTTPService(serveCtx, logger, services, authenticator)
		apiv0Service.AddRoutes(ctx, router, commonHandlers)
	}

	srv := &http.Server{
		Handler: s.AddContext(serveCtx, router),
	}
	wg.Add(1)
	go func() {
		defer func() {
			logger.Debugln("http listener stopped")
			wg.Done()
		}()

		serveErr := srv.Serve(listener)
		if serveErr != nil {
			errCh <- serveErr
		}
	}()

	if upstreamsManager != nil {
		wg.Add(1)
		go func() {
			upstreamsManager.Wait()
			wg.Done()
		}()
	}

	go func() {
		wg.Wait()
		close(exitCh)
	}()

	logger.Infoln("ready to handle requests")

	// Wait for exit or error.
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err = <-errCh:
		// breaks
	case reason := <-signalCh:
		logger.WithField("signal", reason).Warnln("received signal")
		// breaks
	}

	// Shutdown, server will stop to accept new connections, requires Go 1.8+.
	logger.Infoln("clean server shutdown start")
	shutDownCtx, shutDownCtxCancel := context.WithTimeout(ctx, 10*time.Second)
	if shutdownErr := srv.Shutdown(shutDownCtx); shutdownErr != nil {
		logger.WithError(shutdownErr).Warn("clean server shutdown failed")
	}

	// Cancel our own context, wait on managers.
	serveCtxCancel()
	p.queue.Close()
	func() {
		for {
			select {
			case <-exitCh:
				return
			default:
				logger.Info("waiting for services to exit")
			}

			select {
			case reason := <-signalCh:
				logger.WithField("signal", reason).Warn("received signal")
				return
			case <-time.After(100 * time.Millisecond):
			}
		}
	}()
	shutDownCtxCancel() // prevent leak.

	return err
}
