package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/sheets-relay/sheets-relay/auth"
	"github.com/sheets-relay/sheets-relay/logging"
)

var AuthoriseCmd = Authorise{
	credentials: "",
}

// Authorise checks that the service account can obtain an access token.
type Authorise struct {
	credentials string
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Verifies the service account credentials used by the webhook and CLI commands"
}

func (cmd *Authorise) Usage() string {
	return "[--credentials <file>]"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] authorise [--credentials <file>]\n", APP)
	fmt.Println()
	fmt.Println("  Exchanges the service account credentials for an access token and reports the token expiry.")
	fmt.Println("  The credentials default to GOOGLE_SERVICE_ACCOUNT.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s authorise --credentials "service-account.json"`+"\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("authorise", flag.ExitOnError)

	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the service account JSON file")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)

	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}

	logging.Configure(os.Stderr, cfg.Debug)

	credentials := cmd.credentials
	if strings.TrimSpace(credentials) == "" {
		credentials = cfg.Google.ServiceAccount
	}

	if strings.TrimSpace(credentials) == "" {
		return fmt.Errorf("--credentials is a required option if GOOGLE_SERVICE_ACCOUNT is not configured")
	}

	ts, err := auth.ServiceTokenSource(context.Background(), credentials, drive.DriveScope, sheets.SpreadsheetsScope)
	if err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	}

	token, err := ts.Token()
	if err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	}

	debugf("token type:%v", token.Type())

	if identity, err := serviceIdentity(credentials); err == nil {
		infof("Authorised %v, token expires %v", identity, humanize.Time(token.Expiry))
	} else {
		infof("Authorised, token expires %v", humanize.Time(token.Expiry))
	}

	return nil
}
