package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"coreforge/internal/domain/interfaces"
	"coreforge/internal/external-adapters/yaml"
	"coreforge/internal/server"
)

func runServe(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		addr       = fs.String("addr", ":8099", "Listen address for the inventory API")
		bundlesDir = fs.String("bundles-dir", "bundles", "Path to bundle definitions directory")
		reportPath = fs.String("report", "build/report.json", "Build report served at /api/reports/latest")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coreforge serve [options]

Serve a read-only inventory API: bundle listings, rendered Dockerfiles
and the latest build report.

Endpoints:
  GET /health
  GET /api/bundles
  GET /api/bundles/:name
  GET /api/bundles/:name/dockerfile
  GET /api/reports/latest

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logger := &interfaces.StderrLogger{}
	srv := server.New(server.Config{
		Repo:       yaml.NewBundleRepository(*bundlesDir),
		ReportPath: *reportPath,
		Logger:     logger,
	})

	if err := srv.Run(ctx, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
