package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"

	"github.com/sheets-relay/sheets-relay/auth"
	"github.com/sheets-relay/sheets-relay/logging"
	"github.com/sheets-relay/sheets-relay/notify"
	"github.com/sheets-relay/sheets-relay/store"
	"github.com/sheets-relay/sheets-relay/upload"
)

var UploadCmd = Upload{
	file:     "",
	name:     "",
	noPublic: false,
}

// Upload runs the upload flow for a local spreadsheet file with the service account.
type Upload struct {
	file     string
	name     string
	noPublic bool
}

var uploadTypes = map[string]string{
	".csv":  "text/csv",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type serviceAccount struct {
	ts       oauth2.TokenSource
	identity string
}

func (s serviceAccount) TokenSource() oauth2.TokenSource {
	return s.ts
}

func (s serviceAccount) Identity() string {
	return s.identity
}

func (cmd *Upload) Name() string {
	return "upload"
}

func (cmd *Upload) Description() string {
	return "Uploads a CSV or Excel file as a Google Sheets spreadsheet"
}

func (cmd *Upload) Usage() string {
	return "--file <file> [--name <name>] [--no-public]"
}

func (cmd *Upload) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] upload [options] --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Uploads a CSV or Excel file to Google Drive as a spreadsheet using the service account,")
	fmt.Println("  makes it public (unless --no-public) and notifies the N8N_WEBHOOK_URL workflow")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s upload --file "q1-budget.xlsx" --name "Q1 Budget"`+"\n", APP)
	fmt.Println()
}

func (cmd *Upload) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("upload", flag.ExitOnError)

	flagset.StringVar(&cmd.file, "file", cmd.file, "CSV, XLS or XLSX file")
	flagset.StringVar(&cmd.name, "name", cmd.name, "Spreadsheet name. Defaults to the file name without the extension")
	flagset.BoolVar(&cmd.noPublic, "no-public", cmd.noPublic, "Does not share the spreadsheet with 'anyone with the link'")

	return flagset
}

func (cmd *Upload) Execute(args ...any) error {
	options := args[0].(*Options)

	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}

	logging.Configure(os.Stderr, cfg.Debug)

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	if strings.TrimSpace(cfg.Google.ServiceAccount) == "" {
		return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT is not configured")
	}

	mimeType, err := mimeTypeOf(cmd.file)
	if err != nil {
		return err
	}

	f, err := os.Open(cmd.file)
	if err != nil {
		return err
	}

	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	ctx := context.Background()

	ts, err := auth.ServiceTokenSource(ctx, cfg.Google.ServiceAccount, drive.DriveScope)
	if err != nil {
		return fmt.Errorf("authentication/authorization error (%w)", err)
	}

	identity, err := serviceIdentity(cfg.Google.ServiceAccount)
	if err != nil {
		identity = APP
	}

	name := strings.TrimSpace(cmd.name)
	if name == "" {
		base := filepath.Base(cmd.file)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	flow := upload.Flow{
		Stores: func(ctx context.Context, ts oauth2.TokenSource) (upload.Store, error) {
			c, err := store.New(ctx, ts)
			if err != nil {
				return nil, err
			}

			return c, nil
		},
		Forwarder:   notify.NewForwarder(nil),
		CallbackURL: cfg.Webhook.WorkflowURL,
	}

	result, err := flow.Run(ctx, serviceAccount{ts: ts, identity: identity}, upload.Request{
		Content:        f,
		Size:           info.Size(),
		MimeType:       mimeType,
		Name:           name,
		SourceFilename: filepath.Base(cmd.file),
		MakePublic:     !cmd.noPublic,
	})
	if err != nil {
		return fmt.Errorf("upload failed (%w)", err)
	}

	if result.PermissionError != "" {
		warnf("Spreadsheet is not public (%v)", result.PermissionError)
	}

	if !result.Forwarding.Success {
		warnf("Workflow notification failed (%v)", result.Forwarding.Error)
	}

	b, err := json.MarshalIndent(struct {
		Spreadsheet     *store.File       `json:"spreadsheet"`
		PermissionError string            `json:"permissionError,omitempty"`
		Forwarding      upload.Forwarding `json:"n8nForwarding"`
	}{
		Spreadsheet:     result.File,
		PermissionError: result.PermissionError,
		Forwarding:      result.Forwarding,
	}, "", "  ")
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", b)

	return nil
}

func mimeTypeOf(file string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file))

	if t, ok := uploadTypes[ext]; ok {
		return t, nil
	}

	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			for _, v := range uploadTypes {
				if v == mediaType {
					return mediaType, nil
				}
			}
		}
	}

	return "", fmt.Errorf("unsupported file type '%v' - expected .csv, .xls or .xlsx", ext)
}

// serviceIdentity returns the client_email of a service account JSON file.
func serviceIdentity(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var account struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(b, &account); err != nil {
		return "", err
	} else if account.ClientEmail == "" {
		return "", fmt.Errorf("missing client_email in %v", path)
	}

	return account.ClientEmail, nil
}
