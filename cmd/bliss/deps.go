package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ajkachnic/bliss/pkg/driver"
)

func runDeps(args []string) int {
	if len(args) != 1 || args[0] != "install" {
		printUsage()
		return 1
	}
	path, err := driver.FindManifest(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bliss deps install: %v\n", err)
		return 1
	}
	manifest, err := driver.LoadManifest(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cacheDir, err := resolveCacheDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bliss deps install: %v\n", err)
		return 1
	}

	installer := &driver.Installer{
		Git:  driver.NewGitFetcher(cacheDir),
		Tool: cliToolVersion,
		Progress: func(pkg *driver.LockedPackage) {
			fmt.Fprintf(os.Stdout, "installed %s from %s\n", pkg.Name, pkg.Source)
		},
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	lock, err := installer.Install(ctx, manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bliss deps install: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "wrote %s (%d packages)\n", lock.Path, len(lock.Packages))
	return 0
}

// resolveCacheDir returns BLISS_CACHE, or ~/.bliss when it is unset.
func resolveCacheDir() (string, error) {
	if dir := os.Getenv("BLISS_CACHE"); dir != "" {
		return filepath.Abs(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate dependency cache: %w", err)
	}
	return filepath.Join(home, ".bliss"), nil
}
