package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const cliToolVersion = "bliss 0.1.0-dev"

var errManifestNotFound = errors.New("bliss.yml not found")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:])
	case "check":
		return runCheck(args[1:])
	case "repl":
		return runRepl(args[1:])
	case "deps":
		return runDeps(args[1:])
	}
	if strings.HasPrefix(args[0], "-") {
		fmt.Fprintf(os.Stderr, "unknown flag %s\n", args[0])
		printUsage()
		return 1
	}
	return runEntry(args)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  bliss run [file.bl]")
	fmt.Fprintln(os.Stderr, "  bliss <file.bl>")
	fmt.Fprintln(os.Stderr, "  bliss check [file.bl]")
	fmt.Fprintln(os.Stderr, "  bliss repl")
	fmt.Fprintln(os.Stderr, "  bliss deps install")
	fmt.Fprintln(os.Stderr, "  bliss --version")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Without a file, run and check use the entry of the nearest bliss.yml.")
	fmt.Fprintln(os.Stderr, "Environment:")
	fmt.Fprintln(os.Stderr, "  BLISS_PATH       extra module search roots")
	fmt.Fprintln(os.Stderr, "  BLISS_MAX_DEPTH  maximum non-tail call depth")
	fmt.Fprintln(os.Stderr, "  BLISS_CACHE      dependency cache directory (default ~/.bliss)")
	fmt.Fprintln(os.Stderr, "  BLISS_TRACE      print module loads to stderr when set")
}
