package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"coreforge/internal/domain-adapters/gateways"
	"coreforge/internal/domain/entities"
	"coreforge/internal/domain/services"
	"coreforge/internal/external-adapters/yaml"
)

func runExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var (
		bundlesDir  = fs.String("bundles-dir", "bundles", "Path to bundle definitions directory")
		outputDir   = fs.String("output-dir", "dist", "Output directory for the extension archive")
		name        = fs.String("name", "payload-services", "Extension name (archive is <name>.spx)")
		version     = fs.String("version", "0.1.0", "Extension version recorded in the manifest")
		description = fs.String("description", "", "Extension description")
		all         = fs.Bool("all", false, "Export every available bundle")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coreforge export <bundle>... [options]

Export built bundle images as an extension archive installable on the
companion compute module. The archive contains manifest.json, a generated
docker-compose.yml and the saved image tarball, with a .sha256 sidecar.

Examples:
  coreforge export web-cam-image --name web-cam --version 1.2.0
  coreforge export --all --output-dir dist/

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	repo := yaml.NewBundleRepository(*bundlesDir)

	var bundles []*entities.ServiceBundle
	if *all {
		listed, err := repo.ListBundles(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing bundles: %v\n", err)
			os.Exit(1)
		}
		bundles = listed
	} else {
		if fs.NArg() == 0 {
			fmt.Fprintf(os.Stderr, "Error: bundle name is required (or use --all)\n\n")
			fs.Usage()
			os.Exit(1)
		}
		for _, bundleName := range fs.Args() {
			bundle, err := repo.GetBundle(ctx, bundleName)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			bundles = append(bundles, bundle)
		}
	}

	docker := gateways.NewDockerCLI()
	if err := docker.Preflight(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	composeService := services.NewComposeService()
	compose, err := composeService.Generate(bundles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	composeData, err := composeService.Marshal(compose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	manifest := &entities.ExtensionManifest{
		ExtensionName:    *name,
		Version:          *version,
		Description:      *description,
		HostNetworkMode:  anyHostNetwork(bundles),
		RestartOnFailure: true,
	}

	exporter := gateways.NewExporter(docker)
	artifact, err := exporter.ExportExtension(ctx, bundles, manifest, composeData, *outputDir, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d bundle(s) to %s\n", len(bundles), artifact.Path)
	fmt.Printf("Checksum: %s.sha256\n", artifact.Path)
}

func anyHostNetwork(bundles []*entities.ServiceBundle) bool {
	for _, b := range bundles {
		if b.Runtime.NetworkMode == "host" {
			return true
		}
	}
	return false
}
