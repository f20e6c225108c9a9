package commands

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/sheets-relay/sheets-relay/config"
)

const APP = "sheets-relay"

// CLI is the command list for main(). Every command is executed with *Options.
var CLI = []uhppoted.Command{
	&VersionCmd,
	&RunCmd,
	&GetCmd,
	&UploadCmd,
	&AuthoriseCmd,
}

// Options are the global command line options.
type Options struct {
	Config string
	Debug  bool
}

var spreadsheetURL = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)
var spreadsheetID = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,}$`)

// getSpreadsheetID accepts either a spreadsheet URL or a bare spreadsheet ID.
func getSpreadsheetID(v string) (string, error) {
	v = strings.TrimSpace(v)

	if match := spreadsheetURL.FindStringSubmatch(v); len(match) > 1 && match[1] != "" {
		return match[1], nil
	}

	if spreadsheetID.MatchString(v) {
		return v, nil
	}

	return "", fmt.Errorf("invalid spreadsheet - expected an ID or a URL like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
}

// loadConfig loads the configuration from the --config file, or from the default
// configuration file if it exists.
func loadConfig(options *Options) (*config.Config, error) {
	path := options.Config
	if path == "" {
		if _, err := os.Stat(DEFAULT_CONFIG); err == nil {
			path = DEFAULT_CONFIG
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if options.Debug {
		cfg.Debug = true
	}

	return cfg, nil
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flagset.VisitAll(func(f *flag.Flag) {
		count++
	})

	if count > 0 {
		fmt.Println("  Options:")
		flagset.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}

	fmt.Println()
	fmt.Println("    --debug         Displays internal information for diagnosing errors")
	fmt.Println("    --config        TOML configuration file")
}

func debugf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	slog.Info(fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...))
}
