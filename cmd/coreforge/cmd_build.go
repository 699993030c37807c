package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"coreforge/internal/domain-adapters/gateways"
	orchestrators "coreforge/internal/domain-orchestrators"
	"coreforge/internal/domain/services"
	"coreforge/internal/external-adapters/yaml"
)

func runBuild(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		bundlesDir  = fs.String("bundles-dir", "bundles", "Path to bundle definitions directory")
		payloadRoot = fs.String("payload-root", ".", "Directory holding payload files and wheels")
		workDir     = fs.String("work-dir", "build", "Root directory for staged build contexts")
		all         = fs.Bool("all", false, "Build every available bundle")
		bundleList  = fs.String("bundles", "", "JSON array of bundle names to build (or @file)")
		timeout     = fs.Int("timeout", 20, "Timeout per bundle build in minutes")
		parallelism = fs.Int("parallelism", 2, "Concurrent builds within a plan stage")
		successFile = fs.String("successes", "build-successes.txt", "File to write successful builds")
		failureFile = fs.String("failures", "build-failures.txt", "File to write failed builds")
		timeoutFile = fs.String("timeouts", "build-failures-timeout.txt", "File to write timed-out builds")
		jsonOutput  = fs.String("json-output", "", "Optional JSON file for the detailed report")
		quiet       = fs.Bool("quiet", false, "Quiet mode - minimal output")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coreforge build <bundle>... [options]
       coreforge build --all [options]
       coreforge build --bundles <json> [options]

Build container images for service bundles.

Examples:
  coreforge build web-cam-image
  coreforge build web-cam-image ricoh-theta-image --parallelism 2
  coreforge build --all --payload-root ./payloads --json-output report.json
  coreforge build --bundles '["web-cam-image","ricoh-theta-image"]' --quiet
  coreforge build --bundles @bundles.json

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	repo := yaml.NewBundleRepository(*bundlesDir)

	names := fs.Args()
	if *all {
		bundles, err := repo.ListBundles(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing bundles: %v\n", err)
			os.Exit(1)
		}
		names = names[:0]
		for _, b := range bundles {
			names = append(names, b.Name)
		}
	}

	if *bundleList != "" {
		parsed, err := parseBundleList(*bundleList)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		if len(parsed) == 0 {
			if !*quiet {
				fmt.Println("No bundles to build")
			}
			return
		}
		names = parsed
	}

	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "Error: bundle name is required (or use --all / --bundles)\n\n")
		fs.Usage()
		os.Exit(1)
	}

	docker := gateways.NewDockerCLI()
	if err := docker.Preflight(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	orchestrator := orchestrators.NewBuildOrchestrator(
		repo,
		services.NewValidationService(),
		gateways.NewContextStager(),
		gateways.NewWheelVerifier(),
		docker,
		orchestrators.BuildOrchestratorConfig{
			PayloadRoot: *payloadRoot,
			WorkDir:     *workDir,
			Timeout:     time.Duration(*timeout) * time.Minute,
			Parallelism: *parallelism,
		},
	)

	if !*quiet {
		fmt.Printf("Building %d bundle(s)\n\n", len(names))
	}

	report, err := orchestrator.BuildMany(ctx, names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	writeReportFiles(report, *successFile, *failureFile, *timeoutFile)

	if *jsonOutput != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to marshal JSON report: %v\n", err)
		} else if err := os.WriteFile(*jsonOutput, data, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write JSON report: %v\n", err)
		}
	}

	if !*quiet {
		printBuildSummary(report)
	}

	if report.Failed > 0 || report.Skipped > 0 {
		os.Exit(1)
	}
}

// parseBundleList decodes a JSON array of bundle names, reading it from a
// file when the input starts with "@".
func parseBundleList(input string) ([]string, error) {
	if strings.HasPrefix(input, "@") {
		filename := strings.TrimPrefix(input, "@")
		//nolint:gosec // G304: operator explicitly provides the bundle list path
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read bundle list: %w", err)
		}
		input = string(data)
	}

	var names []string
	if err := json.Unmarshal([]byte(input), &names); err != nil {
		return nil, fmt.Errorf("failed to parse bundle list JSON: %w", err)
	}
	return names, nil
}

func writeReportFiles(report *orchestrators.BuildReport, successFile, failureFile, timeoutFile string) {
	var successes, failures, timeouts []string
	for _, r := range report.Results {
		switch r.Status {
		case orchestrators.StatusSuccess:
			successes = append(successes, r.Bundle+":"+r.Reference)
		case orchestrators.StatusSkipped:
			failures = append(failures, fmt.Sprintf("%s - SKIPPED - %s", r.Bundle, r.Message))
		case orchestrators.StatusTimeout:
			timeouts = append(timeouts, fmt.Sprintf("%s - TIMEOUT - %s", r.Bundle, r.Message))
			failures = append(failures, fmt.Sprintf("%s - TIMEOUT - %s", r.Bundle, r.Message))
		default:
			failures = append(failures, fmt.Sprintf("%s - %s - %s", r.Bundle, strings.ToUpper(r.Status), r.Message))
		}
	}

	if err := writeLines(successFile, successes); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write success file: %v\n", err)
	}
	if err := writeLines(failureFile, failures); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write failure file: %v\n", err)
	}
	if err := writeLines(timeoutFile, timeouts); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write timeout file: %v\n", err)
	}
}

func writeLines(filename string, lines []string) error {
	if len(lines) == 0 {
		return os.WriteFile(filename, []byte{}, 0600)
	}
	return os.WriteFile(filename, []byte(strings.Join(lines, "\n")+"\n"), 0600)
}

func printBuildSummary(report *orchestrators.BuildReport) {
	fmt.Printf("\nBuild report %s\n", report.ID)
	fmt.Printf("  Successful: %d\n", report.Successful)
	fmt.Printf("  Failed:     %d\n", report.Failed)
	fmt.Printf("  Skipped:    %d\n", report.Skipped)

	for _, r := range report.Results {
		switch r.Status {
		case orchestrators.StatusSuccess:
			fmt.Printf("  + %s -> %s (%v)\n", r.Bundle, r.Reference, r.BuildDuration.Round(time.Second))
		default:
			fmt.Printf("  - %s: %s", r.Bundle, r.Status)
			if r.Message != "" {
				fmt.Printf(" - %s", r.Message)
			}
			fmt.Println()
		}
	}

	fmt.Printf("  Duration: %.2f seconds\n", report.DurationSeconds)
}
