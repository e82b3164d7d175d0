// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"git.arvados.org/arvados.git/lib/cmd"
	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

var (
	handler = cmd.Multi(map[string]cmd.Handler{
		"version":   cmd.Version,
		"-version":  cmd.Version,
		"--version": cmd.Version,

		"filter-pools":    &filterPools{},
		"sites":           &sitescmd{},
		"count-mutations": &countMutations{},
		"codon-position":  &codonPosition{},
		"regions":         &regionscmd{},
	})
)

func Main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.StandardLogger().Formatter = &log.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(handler.RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func setLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

// errUsage is returned by a subcommand's run method after it has
// already printed usage information.
var errUsage = errors.New("usage error")

// parseFlags wraps flags.Parse, mapping parse failures (already
// reported by the flag package) to errUsage.
func parseFlags(flags *flag.FlagSet, args []string) error {
	err := flags.Parse(args)
	if err == nil || err == flag.ErrHelp {
		return err
	}
	return errUsage
}

// exitCode reports err on stderr and returns the process exit code
// for it: 0 on success or -help, 2 on usage errors, 1 otherwise.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil || err == flag.ErrHelp:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
}
