// Package google stores expense records in a Google Sheets spreadsheet,
// one tab per card named after the card table (dados_latam, dados_azul).
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"despesas/internal/core"
	"despesas/internal/records"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Header is the first row of every card tab.
var Header = []string{"despesa", "categoria", "valor", "mes", "ano"}

var _ records.Store = (*Client)(nil)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Options selects the spreadsheet and the service account used to read it.
// CredentialsJSON takes precedence over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when no credentials are configured.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// FetchRecords implements records.Fetcher
func (c *Client) FetchRecords(ctx context.Context, card core.Card, year int, month *int) ([]core.RawExpenseRecord, error) {
	if !card.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCard, card)
	}
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:E", card.Table())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	recs, skipped := parseRecords(resp.Values, year, month)
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped unreadable sheet rows",
			"card", card,
			"year", year,
			"skipped", skipped)
	}
	return recs, nil
}

// AppendRecords implements records.Writer by appending rows after the
// last filled row of the card tab.
func (c *Client) AppendRecords(ctx context.Context, card core.Card, recs []core.RawExpenseRecord) (int, error) {
	if !card.IsValid() {
		return 0, fmt.Errorf("%w: %q", core.ErrUnknownCard, card)
	}
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	if len(recs) == 0 {
		return 0, nil
	}

	rng := fmt.Sprintf("%s!A:E", card.Table())
	vr := &gsheet.ValueRange{Values: formatRows(recs)}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append to %s: %w", card.Table(), err)
	}

	slog.InfoContext(ctx, "Records appended to sheet",
		"card", card,
		"records", len(recs))
	return len(recs), nil
}
