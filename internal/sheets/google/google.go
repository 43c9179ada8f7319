package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"waist/internal/core"
	"waist/internal/export"
	"waist/internal/log"
	ports "waist/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ ports.Writer = (*Client)(nil)

// Credentials selects how the client authenticates. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// New creates a Sheets client authenticated with a service account.
// Extra options are appended after the credentials, which lets tests point
// the client at a local endpoint.
func New(ctx context.Context, spreadsheetID, sheetName string, creds Credentials, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transactions"
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	var options []goption.ClientOption
	if len(opts) == 0 {
		credentialsJSON, err := creds.load()
		if err != nil {
			return nil, err
		}
		options = append(options,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
			goption.WithHTTPClient(newHTTPClient()),
		)
	}
	options = append(options, opts...)

	svc, err := gsheet.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 60 * time.Second,
	}
}

// ReplaceAll clears the sheet's A:E columns and writes a header row plus
// one row per transaction in the order given.
func (c *Client) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:E", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := Rows(txs)
	updateRange := fmt.Sprintf("%s!A1:E%d", c.sheetName, len(values))
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, updateRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", updateRange, err)
	}

	c.logger.InfoContext(ctx, "Sheet mirrored",
		log.FieldOperation, log.OpMirror,
		"rows", len(txs),
		"sheet", c.sheetName)
	return nil
}

// Rows builds the cell grid: header first, amounts as numbers.
func Rows(txs []core.Transaction) [][]any {
	header := make([]any, len(export.Header))
	for i, h := range export.Header {
		header[i] = h
	}
	values := make([][]any, 0, len(txs)+1)
	values = append(values, header)
	for _, t := range txs {
		values = append(values, []any{t.ID, t.Date, t.Category, t.Amount.InexactFloat64(), t.Note})
	}
	return values
}
