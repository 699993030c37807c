package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"coreforge/internal/domain-adapters/gateways"
	"coreforge/internal/external-adapters/yaml"
)

func runRender(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var (
		bundlesDir = fs.String("bundles-dir", "bundles", "Path to bundle definitions directory")
		outputDir  = fs.String("output-dir", "", "Write Dockerfiles under this directory instead of stdout")
		all        = fs.Bool("all", false, "Render every available bundle")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coreforge render <bundle>... [options]

Render bundle Dockerfiles.

Examples:
  coreforge render web-cam-image
  coreforge render --all --output-dir rendered/

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	repo := yaml.NewBundleRepository(*bundlesDir)
	renderer := gateways.NewDockerfileRenderer()

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

	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "Error: bundle name is required (or use --all)\n\n")
		fs.Usage()
		os.Exit(1)
	}

	for _, name := range names {
		bundle, err := repo.GetBundle(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		dockerfile, err := renderer.Render(bundle)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering %s: %v\n", name, err)
			os.Exit(1)
		}

		if *outputDir == "" {
			if len(names) > 1 {
				fmt.Printf("# --- %s ---\n", name)
			}
			fmt.Print(dockerfile)
			continue
		}

		dir := filepath.Join(*outputDir, name)
		if err := os.MkdirAll(dir, 0750); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		path := filepath.Join(dir, "Dockerfile")
		if err := os.WriteFile(path, []byte(dockerfile), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Rendered %s\n", path)
	}
}
