package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"coreforge/internal/domain/entities"
	"coreforge/internal/domain/services"
	"coreforge/internal/external-adapters/yaml"
)

func runValidate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var (
		bundlesDir = fs.String("bundles-dir", "bundles", "Path to bundle definitions directory")
		credFile   = fs.String("credentials-file", "", "Payload credentials file to check alongside the bundles")
		strict     = fs.Bool("strict", false, "Treat warnings as errors")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coreforge validate [bundle...] [options]

Validate service bundles against the build contract: entrypoint surface,
payload copy steps, credentials handling, wheel pins and build ordering.

With no bundle names, validates all available bundles. With
--credentials-file, also checks that the operator's payload credentials
file parses as a GUID line followed by a secret line.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *credFile != "" {
		//nolint:gosec // G304: operator explicitly provides the credentials path
		data, err := os.ReadFile(*credFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading credentials file: %v\n", err)
			os.Exit(1)
		}
		creds, err := entities.ParsePayloadCredentials(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: credentials file %s: %v\n", *credFile, err)
			os.Exit(1)
		}
		fmt.Printf("Credentials file OK (GUID %s)\n", creds.GUID)
	}

	repo := yaml.NewBundleRepository(*bundlesDir)
	validator := services.NewValidationService()

	var bundles []*entities.ServiceBundle
	if fs.NArg() == 0 {
		all, err := repo.ListBundles(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing bundles: %v\n", err)
			os.Exit(1)
		}
		bundles = all
	} else {
		for _, name := range fs.Args() {
			bundle, err := repo.GetBundle(ctx, name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			bundles = append(bundles, bundle)
		}
	}

	report := validator.ValidateAll(bundles)

	if len(report.Findings) == 0 {
		fmt.Printf("All %d bundle(s) valid\n", len(bundles))
		return
	}

	errorCount := 0
	for _, f := range report.Findings {
		fmt.Printf("%s: %s: %s: %s\n", f.Severity, f.Bundle, f.Field, f.Message)
		if f.Severity == entities.SeverityError {
			errorCount++
		}
	}

	fmt.Printf("\n%d finding(s), %d error(s) in %d bundle(s)\n", len(report.Findings), errorCount, len(bundles))

	if errorCount > 0 || (*strict && len(report.Findings) > 0) {
		os.Exit(1)
	}
}
