// Package main is the entry point for the stripe-server CLI.
//
// stripe-server serves the card, charge and subscription API backed by Stripe, and carries a few
// operational commands alongside it.
//
// Commands: serve, migrate, plans, events, version.
package main

import (
	"fmt"
	"os"

	"github.com/founderlab/fl-stripe-server/cmd/stripe-server/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
