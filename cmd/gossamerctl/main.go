// Package main provides the gossamerctl CLI.
//
// gossamerctl operates on a Gossamer deployment from the command line:
// it weaves decoy variants for inspection, validates a corpus file
// before rollout, and renders activity reports from the visit store.
//
// Usage:
//
//	gossamerctl preview --variant 3
//	gossamerctl validate --corpus templates/master.html
//	gossamerctl report --window 24h
//
// See --help for all available options.
package main

// main is the entry point for gossamerctl.
func main() {
	Execute()
}
