package commands

import (
	"flag"
	"fmt"
)

// VERSION is set at build time with -ldflags "-X github.com/sheets-relay/sheets-relay/commands.VERSION=..."
var VERSION = "v0.1.0"

var VersionCmd = Version{}

// Version is a CLI command implementation that displays the version information.
type Version struct {
}

func (c *Version) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet("version", flag.ExitOnError)
}

// Execute prints the current version
func (c *Version) Execute(args ...any) error {
	fmt.Printf("%s\n", VERSION)

	return nil
}

func (c *Version) Name() string {
	return "version"
}

func (c *Version) Description() string {
	return "Displays the current version"
}

func (c *Version) Usage() string {
	return ""
}

func (c *Version) Help() {
	fmt.Printf("Displays the %s version in the format v<major>.<minor>.<patch> e.g. v0.1.0\n", APP)
	fmt.Println()
}
