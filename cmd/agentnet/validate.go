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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-agentnet-go/internal/codec"
	"trpc.group/trpc-go/trpc-agentnet-go/network"
	"trpc.group/trpc-go/trpc-agentnet-go/network/validate"
	"trpc.group/trpc-go/trpc-agentnet-go/registry"
)

// Exit codes of the validate command.
const (
	exitValid      = 0
	exitViolations = 1
	exitUnreadable = 2
)

func newValidateCmd() *cobra.Command {
	var (
		verbose       bool
		includeCycles bool
		externalCSV   string
		mcpCSV        string
		jsonOutput    bool
		registryDir   string
	)
	cmd := &cobra.Command{
		Use:   "validate [network-file]",
		Short: "Validate agent network files",
		Long: "validate checks agent network files against the loader's rules:\n" +
			"missing or unreachable agents, cyclical dependencies, invalid tool\n" +
			"names, empty instructions and unknown URL references.\n\n" +
			"Exit codes: 0 valid, 1 validation errors, 2 unreadable input.",
		Example: "  agentnet validate registries/hello_world.json\n" +
			"  agentnet validate my_agent.yaml --verbose\n" +
			"  agentnet validate my_agent.yaml --include-cycles\n" +
			"  agentnet validate --registry-dir registries --json-output",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			if len(args) > 1 {
				fmt.Fprintln(stderr, "Error: at most one network file may be given")
				return exitError{exitUnreadable}
			}
			if len(args) == 0 && registryDir == "" {
				fmt.Fprintln(stderr, "Error: a network file or --registry-dir is required")
				return exitError{exitUnreadable}
			}

			targets := append([]string{}, args...)
			if registryDir != "" {
				found, err := scanRegistryDir(registryDir)
				if err != nil {
					fmt.Fprintf(stderr, "Error: %v\n", err)
					return exitError{exitUnreadable}
				}
				if len(found) == 0 && len(targets) == 0 {
					fmt.Fprintf(stderr, "Error: no network files found under %s\n", registryDir)
					return exitError{exitUnreadable}
				}
				targets = append(targets, found...)
			}

			opts := validate.Options{
				IncludeCycles:  includeCycles,
				ExternalAgents: splitCSV(externalCSV),
				MCPServers:     splitCSV(mcpCSV),
			}
			reports := make([]*fileReport, 0, len(targets))
			for _, target := range targets {
				reports = append(reports, validateFile(target, opts))
			}

			if jsonOutput {
				if err := printJSONReports(stdout, reports); err != nil {
					fmt.Fprintf(stderr, "Error: %v\n", err)
					return exitError{exitUnreadable}
				}
			} else {
				printTextReports(stdout, stderr, reports, verbose)
			}
			if code := worstExitCode(reports); code != exitValid {
				return exitError{code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false,
		"print additional information about the agent network")
	cmd.Flags().BoolVar(&includeCycles, "include-cycles", false,
		"permit cyclical agent references instead of failing on them")
	cmd.Flags().StringVar(&externalCSV, "external-agents", "",
		"comma-separated list of valid external agent references (e.g. '/agent1,/agent2')")
	cmd.Flags().StringVar(&mcpCSV, "mcp-servers", "",
		"comma-separated list of valid MCP server URLs")
	cmd.Flags().BoolVar(&jsonOutput, "json-output", false,
		"output validation results as JSON")
	cmd.Flags().StringVar(&registryDir, "registry-dir", "",
		"validate every network file under this directory (manifest files are skipped)")
	return cmd
}

// fileReport is the outcome of validating one network file.
type fileReport struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Error  string   `json:"error,omitempty"`
	Errors []string `json:"errors,omitempty"`

	net *network.Network
}

func validateFile(path string, opts validate.Options) *fileReport {
	report := &fileReport{File: path}
	net, err := registry.LoadNetworkFile(path)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.net = net
	report.Errors = validate.Suite(opts).Validate(net)
	report.Valid = len(report.Errors) == 0
	return report
}

// worstExitCode aggregates codes over every report: unreadable input
// dominates validation findings, which dominate a clean pass.
func worstExitCode(reports []*fileReport) int {
	code := exitValid
	for _, r := range reports {
		switch {
		case r.Error != "":
			return exitUnreadable
		case !r.Valid:
			code = exitViolations
		}
	}
	return code
}

func printTextReports(stdout, stderr io.Writer, reports []*fileReport, verbose bool) {
	scan := len(reports) > 1
	passed, failed, unreadable := 0, 0, 0
	for i, report := range reports {
		if scan {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "--- %s ---\n", report.File)
		}
		switch {
		case report.Error != "":
			unreadable++
			fmt.Fprintf(stderr, "Error: %s\n", report.Error)
		case !report.Valid:
			failed++
			fmt.Fprintf(stdout, "Validation failed with %d error(s):\n\n", len(report.Errors))
			for i, violation := range report.Errors {
				fmt.Fprintf(stdout, "  %d. %s\n", i+1, violation)
			}
		default:
			passed++
			fmt.Fprintln(stdout, "Validation passed: No errors found.")
			if verbose {
				printNetworkSummary(stdout, report.net)
			}
		}
	}
	if scan {
		fmt.Fprintf(stdout, "\nValidated %d file(s): %d passed, %d failed, %d unreadable.\n",
			len(reports), passed, failed, unreadable)
	}
}

// printNetworkSummary mirrors the loader's view of the file: every
// declared agent, its kind and its downstream tools.
func printNetworkSummary(w io.Writer, net *network.Network) {
	names := net.AgentNames()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Agent Network Summary ---")
	fmt.Fprintf(w, "Total agents/tools defined: %d\n", len(names))

	if len(names) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Agents:")
		for _, name := range names {
			spec, _ := net.Agent(name)
			kind := "Coded Tool"
			if _, hasInstructions := spec.Raw["instructions"]; hasInstructions {
				kind = "LLM Agent"
			}
			fmt.Fprintf(w, "  - %s (%s)\n", name, kind)
			if len(spec.Tools) > 0 {
				fmt.Fprintf(w, "      Sub-tools: %s\n", strings.Join(spec.Tools, ", "))
			}
		}
	}

	if metadata := net.Metadata(); len(metadata) > 0 {
		data, err := json.MarshalIndent(metadata, "", "  ")
		if err == nil {
			fmt.Fprintf(w, "\nMetadata: %s\n", data)
		}
	}
}

// printJSONReports emits one object for a single file and an array for a
// directory scan.
func printJSONReports(w io.Writer, reports []*fileReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
}

// scanRegistryDir lists the network files under dir, one per decodable
// extension, skipping manifest files.
func scanRegistryDir(dir string) ([]string, error) {
	if info, err := os.Stat(dir); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	exts := make([]string, 0, len(codec.Extensions()))
	for _, ext := range codec.Extensions() {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	pattern := "**/*.{" + strings.Join(exts, ",") + "}"
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		stem := strings.TrimSuffix(filepath.Base(match), filepath.Ext(match))
		if strings.EqualFold(stem, "manifest") {
			continue
		}
		files = append(files, filepath.Join(dir, match))
	}
	sort.Strings(files)
	return files, nil
}

func splitCSV(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
