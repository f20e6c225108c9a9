package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/sheets-relay/sheets-relay/auth"
	"github.com/sheets-relay/sheets-relay/logging"
	"github.com/sheets-relay/sheets-relay/sheet"
)

var GetCmd = Get{
	spreadsheet: "",
	area:        sheet.DefaultRange,
	file:        time.Now().Format("2006-01-02T150405.tsv"),
	json:        false,
}

// Get reads a spreadsheet range with the service account and writes it to a TSV or JSON file.
type Get struct {
	spreadsheet string
	area        string
	file        string
	json        bool
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves a range from a Google Sheets worksheet and stores it to a local file"
}

func (cmd *Get) Usage() string {
	return "--spreadsheet <ID or URL> --range <range> --file <file> [--json]"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] get [options] --spreadsheet <ID or URL> --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a Google Sheets worksheet range to a TSV file (or JSON records with --json),")
	fmt.Println("  using the service account in GOOGLE_SERVICE_ACCOUNT")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s --debug get --spreadsheet "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`+"\n", APP)
	fmt.Println(`                         --range "Inventory!A1:E" \`)
	fmt.Println(`                         --file "inventory.tsv"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("get", flag.ExitOnError)

	flagset.StringVar(&cmd.spreadsheet, "spreadsheet", cmd.spreadsheet, "Spreadsheet ID or URL")
	flagset.StringVar(&cmd.area, "range", cmd.area, "Spreadsheet range e.g. 'Inventory!A1:E'")
	flagset.StringVar(&cmd.file, "file", cmd.file, "Output file name. Defaults to '<yyyy-mm-dd HHmmss>.tsv'")
	flagset.BoolVar(&cmd.json, "json", cmd.json, "Writes the range as JSON records keyed by the header row")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	options := args[0].(*Options)

	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}

	logging.Configure(os.Stderr, cfg.Debug)

	// ... check parameters
	if strings.TrimSpace(cmd.spreadsheet) == "" {
		return fmt.Errorf("--spreadsheet is a required option")
	}

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	if strings.TrimSpace(cfg.Google.ServiceAccount) == "" {
		return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT is not configured")
	}

	spreadsheet, err := getSpreadsheetID(cmd.spreadsheet)
	if err != nil {
		return err
	}

	debugf("Spreadsheet - ID:%s  range:%s", spreadsheet, cmd.area)

	ctx := context.Background()

	ts, err := auth.ServiceTokenSource(ctx, cfg.Google.ServiceAccount, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return fmt.Errorf("authentication/authorization error (%w)", err)
	}

	reader, err := sheet.New(ctx, ts)
	if err != nil {
		return err
	}

	rows, err := reader.ReadRange(ctx, spreadsheet, cmd.area)
	if err != nil {
		return fmt.Errorf("unable to retrieve data from sheet (%w)", err)
	}

	if len(rows) == 0 {
		return fmt.Errorf("no data in spreadsheet/range")
	}

	tmp, err := os.CreateTemp(os.TempDir(), APP)
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if cmd.json {
		err = sheet.WriteJSON(tmp, rows)
	} else {
		err = sheet.WriteTSV(tmp, rows)
	}

	if err != nil {
		return fmt.Errorf("error creating output file (%w)", err)
	}

	tmp.Close()

	dir := filepath.Dir(cmd.file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	infof("Retrieved %v rows to file %s", len(rows)-1, cmd.file)

	return nil
}
