package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"coreforge/internal/domain/entities"
	"coreforge/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		bundlesDir      = fs.String("bundles-dir", "bundles", "Path to bundle definitions directory")
		platform        = fs.String("platform", "", "Filter by platform (e.g., linux/arm64)")
		credentialsOnly = fs.Bool("credentials", false, "Only show bundles that mount payload credentials")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coreforge list [options]

List all available service bundles.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  coreforge list
  coreforge list --platform linux/arm64
  coreforge list --credentials
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	repo := yaml.NewBundleRepository(*bundlesDir)

	var bundles []*entities.ServiceBundle
	var err error

	if *platform != "" {
		bundles, err = repo.GetBundlesByPlatform(ctx, *platform)
	} else {
		bundles, err = repo.ListBundles(ctx)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing bundles: %v\n", err)
		os.Exit(1)
	}

	if *credentialsOnly {
		filtered := make([]*entities.ServiceBundle, 0)
		for _, b := range bundles {
			if b.UsesCredentials() {
				filtered = append(filtered, b)
			}
		}
		bundles = filtered
	}

	if *platform != "" {
		fmt.Printf("Bundles for platform %s (%d total):\n\n", *platform, len(bundles))
	} else {
		fmt.Printf("Available bundles (%d total):\n\n", len(bundles))
	}

	for _, b := range bundles {
		fmt.Printf("  %-30s %s\n", b.Name, b.Description)
		fmt.Printf("  %-30s Image: %s\n", "", b.Reference())
		fmt.Printf("  %-30s Entrypoint: %s", "", b.Entrypoint.Script)
		if len(b.Entrypoint.Args) > 0 {
			fmt.Printf(" %s", strings.Join(b.Entrypoint.Args, " "))
		}
		fmt.Println()

		if b.UsesCredentials() {
			fmt.Printf("  %-30s Credentials: %s\n", "", b.Entrypoint.CredentialsPath)
		}
		if len(b.DependsOn) > 0 {
			fmt.Printf("  %-30s Depends on: %s\n", "", strings.Join(b.DependsOn, ", "))
		}

		fmt.Println()
	}
}
