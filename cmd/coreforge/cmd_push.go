package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"coreforge/internal/domain-adapters/gateways"
	"coreforge/internal/domain/entities"
	"coreforge/internal/external-adapters/yaml"
)

func runPush(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	var (
		bundlesDir  = fs.String("bundles-dir", "bundles", "Path to bundle definitions directory")
		registry    = fs.String("registry", "", "Registry host:port, overrides the bundle's registry")
		registryURL = fs.String("registry-url", "", "Registry API base URL for skip-if-present checks (e.g. http://192.168.50.5:5000)")
		username    = fs.String("username", os.Getenv("COREFORGE_REGISTRY_USER"), "Registry username")
		password    = fs.String("password", os.Getenv("COREFORGE_REGISTRY_PASSWORD"), "Registry password")
		force       = fs.Bool("force", false, "Push even when the tag already exists")
		listTags    = fs.Bool("list", false, "List the registry tags for each bundle's repository instead of pushing")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coreforge push <bundle>... [options]
       coreforge push --list <bundle>... --registry-url <url>

Tag and push built bundle images to a registry. With --registry-url the
registry is consulted first and already-present tags are skipped. With
--list, no push happens: the registry's existing tags for each bundle's
repository are printed instead.

Examples:
  coreforge push web-cam-image --registry 192.168.50.5:5000
  coreforge push web-cam-image --registry 192.168.50.5:5000 --registry-url http://192.168.50.5:5000
  coreforge push --list web-cam-image --registry-url http://192.168.50.5:5000

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: bundle name is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	repo := yaml.NewBundleRepository(*bundlesDir)

	var registryClient *gateways.RegistryClient
	if *registryURL != "" {
		registryClient = gateways.NewRegistryClient(*registryURL, *username, *password)
		if err := registryClient.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *listTags {
		if registryClient == nil {
			fmt.Fprintf(os.Stderr, "Error: --list requires --registry-url\n")
			os.Exit(1)
		}
		listRegistryTags(ctx, repo, registryClient, fs.Args())
		return
	}

	docker := gateways.NewDockerCLI()
	if err := docker.Preflight(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	pushed, skipped := 0, 0
	for _, name := range fs.Args() {
		bundle, err := repo.GetBundle(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		local, target, err := pushPlan(bundle, *registry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if registryClient != nil && !*force {
			exists, err := registryClient.TagExists(ctx, repositoryName(bundle), tagName(bundle))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			} else if exists {
				fmt.Printf("Skipping %s: already present\n", target)
				skipped++
				continue
			}
		}

		if local != target {
			if err := docker.Tag(ctx, local, target); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Printf("Pushing %s\n", target)
		if err := docker.Push(ctx, target); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		pushed++
	}

	fmt.Printf("\nPush complete: %d pushed, %d skipped\n", pushed, skipped)
}

// pushPlan resolves the references for a bundle push. local is the
// reference the build tagged, registry prefix included when the bundle's
// YAML sets one; target is the reference after the --registry override.
func pushPlan(bundle *entities.ServiceBundle, registryOverride string) (local, target string, err error) {
	local = bundle.Reference()

	if registryOverride != "" {
		bundle.Image.Registry = registryOverride
	}
	if bundle.Image.Registry == "" {
		return "", "", fmt.Errorf("bundle %s has no registry configured", bundle.Name)
	}

	return local, bundle.Reference(), nil
}

func listRegistryTags(ctx context.Context, repo *yaml.BundleRepository, client *gateways.RegistryClient, names []string) {
	failed := false
	for _, name := range names {
		bundle, err := repo.GetBundle(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		tags, err := client.ListTags(ctx, repositoryName(bundle))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
			continue
		}
		if len(tags) == 0 {
			fmt.Printf("%s: no tags\n", repositoryName(bundle))
			continue
		}
		fmt.Printf("%s: %s\n", repositoryName(bundle), strings.Join(tags, ", "))
	}
	if failed {
		os.Exit(1)
	}
}

func repositoryName(bundle *entities.ServiceBundle) string {
	if bundle.Image.Repository != "" {
		return bundle.Image.Repository
	}
	return bundle.Name
}

func tagName(bundle *entities.ServiceBundle) string {
	if bundle.Image.Tag != "" {
		return bundle.Image.Tag
	}
	return "latest"
}
