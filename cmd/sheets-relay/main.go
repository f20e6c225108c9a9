package main

import (
	"flag"
	"fmt"
	"os"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/sheets-relay/sheets-relay/commands"
)

var cli = commands.CLI

var options = commands.Options{
	Config: "",
	Debug:  false,
}

var help = uhppoted.NewHelp(commands.APP, cli, nil)

func main() {
	flag.StringVar(&options.Config, "config", options.Config, "TOML configuration file")
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	cmd, err := uhppoted.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute()
		os.Exit(1)
	}

	if err = cmd.Execute(&options); err != nil {
		fmt.Fprintf(os.Stderr, "\n   ERROR: %v\n\n", err)
		os.Exit(1)
	}
}
