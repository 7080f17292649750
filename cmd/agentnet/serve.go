//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-agentnet-go/client"
	"trpc.group/trpc-go/trpc-agentnet-go/log"
	"trpc.group/trpc-go/trpc-agentnet-go/network/validate"
	"trpc.group/trpc-go/trpc-agentnet-go/registry"
	"trpc.group/trpc-go/trpc-agentnet-go/run"
	"trpc.group/trpc-go/trpc-agentnet-go/server"
	"trpc.group/trpc-go/trpc-agentnet-go/telemetry"
	"trpc.group/trpc-go/trpc-agentnet-go/toolbox"
)

// updatePeriodEnv configures the manifest re-check period in whole
// seconds when the --update-period flag is not given.
const updatePeriodEnv = "AGENT_MANIFEST_UPDATE_PERIOD_SECONDS"

func newServeCmd() *cobra.Command {
	var (
		manifest     string
		port         int
		updatePeriod time.Duration
		timeout      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent networks of a manifest over HTTP",
		Long: "serve restores every network the manifest names, then answers\n" +
			"streaming_chat, connectivity, function and list requests for them\n" +
			"until interrupted. A positive update period re-reads the manifest\n" +
			"whenever its files change.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("update-period") {
				updatePeriod = updatePeriodFromEnv()
			}
			return serve(cmd.Context(), manifest, port, updatePeriod, timeout)
		},
	}
	cmd.Flags().StringVar(&manifest, "manifest", "",
		"manifest file naming the networks to serve (default $AGENT_MANIFEST_FILE)")
	cmd.Flags().IntVar(&port, "port", 0,
		"listening port (default $AGENT_HTTP_PORT, then 8080)")
	cmd.Flags().DurationVar(&updatePeriod, "update-period", 0,
		"manifest re-check period, e.g. 30s (default $"+updatePeriodEnv+"; 0 disables hot reload)")
	cmd.Flags().DurationVar(&timeout, "request-timeout", 0,
		"umbrella timeout for one chat turn; 0 means unbounded")
	return cmd
}

func updatePeriodFromEnv() time.Duration {
	v := os.Getenv(updatePeriodEnv)
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		log.Warnf("ignoring invalid %s value %q", updatePeriodEnv, v)
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func serve(ctx context.Context, manifest string, port int, updatePeriod, timeout time.Duration) error {
	// Deployment secrets commonly ride a .env beside the binary.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if telemetryConfigured() {
		shutdown, err := telemetry.Start(ctx)
		if err != nil {
			log.Warnf("telemetry disabled: %v", err)
		} else {
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					log.Warnf("telemetry shutdown: %v", err)
				}
			}()
		}
	}

	loader := registry.NewLoader(manifest, validate.Options{})
	networks, err := loader.Restore()
	if err != nil {
		return err
	}
	store := registry.NewStore()
	store.ReplaceAll(networks)
	log.Infof("Restored %d agent network(s) from %s", len(networks), loader.Path())

	tools, err := toolbox.NewRegistryFromEnv()
	if err != nil {
		return err
	}
	defer func() {
		if err := tools.Close(); err != nil {
			log.Warnf("toolbox shutdown: %v", err)
		}
	}()

	sessions := client.NewFactory(
		client.WithStore(store),
		client.WithRunOptions(run.WithToolbox(tools)),
	)

	updater := registry.NewUpdater(loader, store, updatePeriod)
	if err := updater.Start(); err != nil {
		return err
	}
	defer updater.Stop()

	opts := []server.Option{
		server.WithStore(store),
		server.WithSessionFactory(sessions),
		server.WithRequestTimeout(timeout),
	}
	if port > 0 {
		opts = append(opts, server.WithPort(port))
	}
	srv, err := server.New(opts...)
	if err != nil {
		return err
	}

	err = srv.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		log.Infof("agent service stopped")
		return nil
	}
	return err
}

// telemetryConfigured reports whether any OTLP endpoint is configured;
// without a collector the exporters would only log dial failures.
func telemetryConfigured() bool {
	for _, name := range []string{
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT",
	} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}
