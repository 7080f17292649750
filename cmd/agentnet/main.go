//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// agentnet is the command-line face of the agent-network runtime: it
// serves the networks of a manifest over HTTP and validates network
// files against the structural rules the loader enforces.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-agentnet-go/log"

	// Register the built-in model providers.
	_ "trpc.group/trpc-go/trpc-agentnet-go/llm/providers"
)

// Version is stamped at build time via
// -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

// exitError carries a specific process exit code through cobra. The
// validate command prints its own report, so the error text stays empty
// and the code alone travels up to main.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func newRootCmd() *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "agentnet",
		Short: "Multi-agent orchestration runtime",
		Long: "agentnet loads declarative agent-network files and executes graphs of\n" +
			"cooperating language-model agents and tools on behalf of streaming\n" +
			"chat clients.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetLevel(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", log.LevelInfo,
		"log level: debug, info, warn, error or fatal")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agentnet %s\n", Version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}
