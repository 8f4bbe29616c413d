package main

import (
	"errors"
	"fmt"
)

// CLI is the top-level command tree.
var CLI struct {
	Config  string `help:"Path to process config YAML." type:"path" env:"SAQSHY_CONFIG"`
	Verbose bool   `help:"Enable debug logging." short:"v"`

	RunLocal    RunLocalCmd    `cmd:"" name:"run-local" help:"Process sample messages against fully in-process adapters."`
	HealthCheck HealthCheckCmd `cmd:"" name:"health-check" help:"Probe the key-value store and spam database and construct the LLM client."`
	InitDB      InitDBCmd      `cmd:"" name:"init-db" help:"Write the key-value schema marker for this deployment."`
	SeedSpamDB  SeedSpamDBCmd  `cmd:"" name:"seed-spam-db" help:"Load a spam-phrase seed file into the shared store."`
	Override    OverrideCmd    `cmd:"" help:"Promote a user to trusted by admin override."`

	Version VersionCmd `cmd:"" help:"Print version and exit."`
}

// errConfig marks failures the operator must fix in configuration; main
// maps it to exit code 2 rather than the generic 1.
var errConfig = errors.New("configuration error")

// errDependency marks an unreachable external dependency; exit code 1.
var errDependency = errors.New("dependency unreachable")

func exitCode(err error) (int, bool) {
	switch {
	case errors.Is(err, errConfig):
		return 2, true
	case errors.Is(err, errDependency):
		return 1, true
	default:
		return 0, false
	}
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("saqshy", version)
	return nil
}
