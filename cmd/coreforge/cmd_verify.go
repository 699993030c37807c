package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coreforge/internal/domain-adapters/gateways"
	"coreforge/internal/external-adapters/gpg"
	"coreforge/internal/external-adapters/yaml"
)

func runVerify(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var (
		bundlesDir  = fs.String("bundles-dir", "bundles", "Path to bundle definitions directory")
		payloadRoot = fs.String("payload-root", ".", "Directory holding the service payload files")
		keyFile     = fs.String("key-file", "", "Armored public key file for signature checks")
		keyIDs      = fs.String("key-ids", "", "Comma-separated GPG key fingerprints to fetch from keyservers")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coreforge verify <bundle>... [options]

Verify prebuilt wheels against their bundle pins: SHA256 checksums, and
detached GPG signatures when a signature file is declared and keys are
provided.

Examples:
  coreforge verify retinanet-fire-detector --payload-root ./fire_detector
  coreforge verify retinanet-fire-detector --key-file vendor.asc

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

	verifier := gpg.NewVerifier()
	if *keyFile != "" {
		if err := verifier.ImportKeyFromFile(*keyFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing key: %v\n", err)
			os.Exit(1)
		}
	}
	if *keyIDs != "" {
		ids := strings.Split(*keyIDs, ",")
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
		if err := verifier.ImportKeys(ctx, ids); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing keys: %v\n", err)
			os.Exit(1)
		}
	}

	repo := yaml.NewBundleRepository(*bundlesDir)
	wheels := gateways.NewWheelVerifier()

	failures := 0
	for _, name := range fs.Args() {
		bundle, err := repo.GetBundle(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(bundle.Packages.Wheels) == 0 {
			fmt.Printf("%s: no wheels to verify\n", name)
			continue
		}

		wheelDir := filepath.Join(*payloadRoot, bundle.Packages.Pip.FindLinks)
		for _, wheel := range bundle.Packages.Wheels {
			wheelPath := filepath.Join(wheelDir, wheel.File)

			if wheel.SHA256 != "" {
				if err := wheels.VerifyChecksum(wheelPath, wheel.SHA256); err != nil {
					fmt.Printf("%s: %s: FAILED (%v)\n", name, wheel.File, err)
					failures++
					continue
				}
				fmt.Printf("%s: %s: checksum OK\n", name, wheel.File)
			} else {
				fmt.Printf("%s: %s: no sha256 pin, skipped\n", name, wheel.File)
			}

			if wheel.SignatureFile != "" && verifier.KeyringSize() > 0 {
				sigPath := filepath.Join(wheelDir, wheel.SignatureFile)
				if err := verifier.VerifyDetached(wheelPath, sigPath); err != nil {
					fmt.Printf("%s: %s: signature FAILED (%v)\n", name, wheel.File, err)
					failures++
					continue
				}
				fmt.Printf("%s: %s: signature OK\n", name, wheel.File)
			}
		}
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "\n%d verification failure(s)\n", failures)
		os.Exit(1)
	}
}
