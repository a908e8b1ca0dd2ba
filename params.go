package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jancajthaml-openbank/lake-contract-tests/config"
	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
)

type commandParams struct {
	configFile string
	mode       string
	host       string
	filters    framework.RegexFilters
	debug      bool
	debugAll   bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&c.mode, "mode", "", "how the service is run: container, unit or external")
	fs.StringVar(&c.host, "host", "", "hostname of an externally managed service")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	return true
}

// apply overrides cfg with the flags that were given.
func (c *commandParams) apply(cfg *config.Config) {
	if c.mode != "" {
		cfg.Mode = c.mode
	}
	if c.host != "" {
		cfg.Host = c.host
	}
	if c.debugAll {
		cfg.LogLevel = "debug"
	}
}
