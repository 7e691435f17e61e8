/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"stash.kopano.io/kgol/ksurveyclient-go/autosurvey"
	"stash.kopano.io/kgol/ksurveyclient-go/prometrics"

	"stash.kopano.io/kwm/kwmeventbridge/bridge/eventq"
	"stash.kopano.io/kwm/kwmeventbridge/bridge/server"
	cfg "stash.kopano.io/kwm/kwmeventbridge/config"
	"stash.kopano.io/kwm/kwmeventbridge/version"
)

const defaultListenAddr = "127.0.0.1:8780"

var (
	detectDeadlocks = true
)

func commandServe() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve [...args]",
		Short: "Start server and listen for requests",
		Run: func(cmd *cobra.Command, args []string) {
			if err := serve(cmd, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("config", "", "Path to YAML configuration file, command line flags take precedence")
	serveCmd.Flags().String("listen", "", fmt.Sprintf("TCP listen address (default \"%s\")", defaultListenAddr))
	serveCmd.Flags().String("iss", "", "OIDC issuer URL, enables bearer token authentication of event consumers")
	serveCmd.Flags().Bool("insecure", false, "Disable TLS certificate and hostname validation")
	serveCmd.Flags().Bool("log-timestamp", true, "Prefix each log line with timestamp")
	serveCmd.Flags().String("log-level", "info", "Log level (one of panic, fatal, error, warn, info or debug)")
	serveCmd.Flags().Bool("with-pprof", false, "With pprof enabled")
	serveCmd.Flags().String("pprof-listen", "127.0.0.1:6060", "TCP listen address for pprof")
	serveCmd.Flags().Bool("with-metrics", false, "Enable metrics")
	serveCmd.Flags().String("metrics-listen", "127.0.0.1:6780", "TCP listen address for metrics")
	serveCmd.Flags().StringArray("upstream-url", nil, "Websocket URL of an upstream notification source to connect, can be given multiple times")
	serveCmd.Flags().Int("event-queue-size", 100, "Number of events buffered between notification sources and consumers")
	serveCmd.Flags().String("event-queue-policy", eventq.OverflowBlock.String(), "Event queue overflow policy (one of block or drop)")
	serveCmd.Flags().Int("consumer-queue-size", 50, "Number of events buffered per event consumer before it is disconnected as slow")
	serveCmd.Flags().StringArray("use-ice-if", nil, "Interface to use when gathering ICE candidates, all interfaces will be used if not set")
	serveCmd.Flags().StringArray("use-ice-network-type", nil, "ICE network type supported when gathering candidates, if not set all types (udp4, udp6, tcp4, tcp6) are enabled")
	serveCmd.Flags().String("use-ice-udp-port-range", "", "Range of ephemeral ports that ICE UDP connections can allocate from in format min:max, if not set its not limited")
	serveCmd.Flags().Bool("use-ice-lite", false, "Enable ICE lite mode")
	serveCmd.Flags().BoolVar(&detectDeadlocks, "with-deadlock-detector", detectDeadlocks, "Enable deadlock detection")

	return serveCmd
}

func serve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	file := &cfg.File{}
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		var err error
		file, err = cfg.LoadFile(configFile)
		if err != nil {
			return err
		}
	}
	settings := &flagSettings{cmd: cmd}

	logTimestamp, _ := cmd.Flags().GetBool("log-timestamp")
	logLevel := settings.String("log-level", file.LogLevel)

	logger, err := newLogger(!logTimestamp, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}
	logger.Infoln("serve start")

	deadlock.Opts.Disable = !detectDeadlocks
	deadlock.Opts.DeadlockTimeout = 15 * time.Second
	if !deadlock.Opts.Disable {
		logger.Warnln("enabled automatic deadlock detector")
	}

	config := &cfg.Config{
		Logger: logger,

		// Initialize survey client data with operational usage.
		Survey: prometrics.WrapRegistry(autosurvey.DefaultRegistry, map[string]string{}),
	}

	if issString := settings.String("iss", file.Iss); issString != "" {
		config.Iss, err = url.Parse(issString)
		if err != nil {
			return fmt.Errorf("invalid iss url: %w", err)
		}
	}

	listenAddr := settings.String("listen", file.Listen)
	if listenAddr == "" {
		listenAddr = os.Getenv("KWMEVENTBRIDGED_LISTEN")
	}
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}
	config.ListenAddr = listenAddr

	config.UpstreamURIs = make([]*url.URL, 0)
	for _, uriString := range settings.StringArray("upstream-url", file.UpstreamURL) {
		u, uriErr := url.Parse(uriString)
		if uriErr != nil {
			return fmt.Errorf("invalid upstream-url: %w", uriErr)
		}
		u.Path = strings.TrimRight(u.Path, "/") // Always trim trailing slash to simplify url generation later.
		config.UpstreamURIs = append(config.UpstreamURIs, u)
	}
	if len(config.UpstreamURIs) == 0 {
		logger.Warnln("no upstream-url given, only local participant sessions will produce events")
	}

	config.EventQueueSize = settings.Int("event-queue-size", file.Events.QueueSize)
	config.EventQueuePolicy = settings.String("event-queue-policy", file.Events.QueuePolicy)
	if _, policyErr := eventq.ParseOverflowPolicy(config.EventQueuePolicy); policyErr != nil {
		return fmt.Errorf("invalid event-queue-policy: %w", policyErr)
	}
	config.ConsumerQueueSize = settings.Int("consumer-queue-size", file.Events.ConsumerQueueSize)

	if ICEInterfaceStrings := settings.StringArray("use-ice-if", file.ICE.Interfaces); len(ICEInterfaceStrings) > 0 {
		config.ICEInterfaces = ICEInterfaceStrings
		logger.WithField("interfaces", config.ICEInterfaces).Infoln("limiting ICE interfaces")
	}
	if ICENetworkTypeStrings := settings.StringArray("use-ice-network-type", file.ICE.NetworkTypes); len(ICENetworkTypeStrings) > 0 {
		config.ICENetworkTypes = ICENetworkTypeStrings
		logger.WithField("types", config.ICENetworkTypes).Infoln("limiting ICE network types")
	}
	if ICEEphemeralUDPPortRangeString := settings.String("use-ice-udp-port-range", file.ICE.UDPPortRange); ICEEphemeralUDPPortRangeString != "" {
		config.ICEEphemeralUDPPortRange, err = cfg.ParseUDPPortRange(ICEEphemeralUDPPortRangeString)
		if err != nil {
			return fmt.Errorf("invalid use-ice-udp-port-range: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"min": config.ICEEphemeralUDPPortRange[0],
			"max": config.ICEEphemeralUDPPortRange[1],
		}).Infoln("limiting ICE port range")
	}
	config.ICELite = settings.Bool("use-ice-lite", file.ICE.Lite)
	if config.ICELite {
		logger.Infoln("ICE lite mode enabled")
	}

	var tlsClientConfig *tls.Config
	tlsInsecureSkipVerify := settings.Bool("insecure", file.Insecure)
	if tlsInsecureSkipVerify {
		// NOTE: This disables http2 client support. See https://github.com/golang/go/issues/14275 for reasons.
		tlsClientConfig = &tls.Config{
			InsecureSkipVerify: tlsInsecureSkipVerify,
		}
		logger.Warnln("insecure mode, TLS client connections are susceptible to man-in-the-middle attacks")
		logger.Debugln("http2 client support is disabled (insecure mode)")
	}
	config.HTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
				DualStack: true,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			TLSClientConfig:       tlsClientConfig,
		},
	}

	// Metrics support.
	config.WithMetrics = settings.Bool("with-metrics", file.Metrics.Enabled)
	metricsListenAddr := settings.String("metrics-listen", file.Metrics.Listen)
	config.MetricsListenAddr = metricsListenAddr
	if config.WithMetrics && metricsListenAddr != "" {
		reg := prometheus.NewPedanticRegistry()
		config.Metrics = prometheus.WrapRegistererWithPrefix("kwmeventbridged_", reg)
		// Add the standard process and Go metrics to the custom registry.
		reg.MustRegister(
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			prometheus.NewGoCollector(),
		)
		go func() {
			metricsListen := metricsListenAddr
			handler := http.NewServeMux()
			logger.WithField("listenAddr", metricsListen).Infoln("metrics enabled, starting listener")
			handler.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			err := http.ListenAndServe(metricsListen, handler)
			if err != nil {
				logger.WithError(err).Errorln("unable to start metrics listener")
			}
		}()
	}

	srv, err := server.NewServer(config)
	if err != nil {
		return fmt.Errorf("failed to create server: %v", err)
	}

	// Profiling support.
	withPprof, _ := cmd.Flags().GetBool("with-pprof")
	pprofListenAddr, _ := cmd.Flags().GetString("pprof-listen")
	if withPprof && pprofListenAddr != "" {
		runtime.SetMutexProfileFraction(5)
		go func() {
			pprofListen := pprofListenAddr
			logger.WithField("listenAddr", pprofListen).Infoln("pprof enabled, starting listener")
			err := http.ListenAndServe(pprofListen, nil)
			if err != nil {
				logger.WithError(err).Errorln("unable to start pprof listener")
			}
		}()
	}

	// Survey support.
	var guid []byte
	if config.Iss != nil && config.Iss.Hostname() != "localhost" {
		guid = []byte(config.Iss.String())
	}
	err = autosurvey.Start(ctx, "kwmeventbridged", version.Version, guid)
	if err != nil {
		return fmt.Errorf("failed to start auto survey: %v", err)
	}

	logger.Infoln("serve started")
	return srv.Serve(ctx)
}
