// Package main provides the coreforge CLI for building payload service images.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "build":
		runBuild(ctx, os.Args[2:])
	case "render":
		runRender(ctx, os.Args[2:])
	case "list":
		runList(ctx, os.Args[2:])
	case "validate":
		runValidate(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "push":
		runPush(ctx, os.Args[2:])
	case "export":
		runExport(ctx, os.Args[2:])
	case "serve":
		runServe(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`coreforge - Payload service image builder for companion compute modules

Usage:
  coreforge <command> [options]

Commands:
  build     Build container images for one or more service bundles
  render    Render a bundle's Dockerfile to stdout or disk
  list      List available service bundles
  validate  Validate bundles against the build contract
  verify    Verify prebuilt wheels against checksum pins and signatures
  push      Push built images to the configured registry
  export    Export built images as an installable extension archive
  serve     Serve the bundle inventory API

Use "coreforge <command> --help" for more information about a command.`)
}
