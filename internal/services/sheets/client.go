// Package sheets reads and appends idea rows in a Google Sheets spreadsheet
// with a service account.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/hoangt2/kielo-convo-generator/internal/services/retry"
)

// Config identifies the spreadsheet and service account.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
}

// Entry is one existing idea row (columns A and B).
type Entry struct {
	Title       string
	Description string
}

// String renders the entry the way idea prompts list forbidden ideas.
func (e Entry) String() string {
	if e.Description == "" {
		return e.Title
	}
	return e.Title + " — " + e.Description
}

// Client wraps the Sheets values API.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	policy        retry.Policy
}

// New builds a client. When clientOpts is empty the service account JSON in
// cfg.CredentialsFile is used.
func New(ctx context.Context, cfg Config, clientOpts ...option.ClientOption) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("sheets: spreadsheet id required")
	}
	if len(clientOpts) == 0 {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("sheets: read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheetsapi.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("sheets: parse credentials: %w", err)
		}
		clientOpts = []option.ClientOption{option.WithCredentials(creds)}
	}
	svc, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: id, policy: retry.Default()}, nil
}

// WithRetryPolicy replaces the retry policy and returns the client.
func (c *Client) WithRetryPolicy(policy retry.Policy) *Client {
	c.policy = policy
	return c
}

// Existing returns the title and description rows of sheet, skipping the
// header row and blank titles.
func (c *Client) Existing(ctx context.Context, sheet string) ([]Entry, error) {
	op := "sheets read " + sheet
	var resp *sheetsapi.ValueRange
	err := c.policy.Do(ctx, op, func(int) error {
		r, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A2:B").Context(ctx).Do()
		if err != nil {
			return classify(op, err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(resp.Values))
	for _, row := range resp.Values {
		entry := Entry{Title: cell(row, 0), Description: cell(row, 1)}
		if entry.Title == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AppendRows appends rows below the existing data of sheet.
func (c *Client) AppendRows(ctx context.Context, sheet string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	op := "sheets append " + sheet
	body := &sheetsapi.ValueRange{Values: rows}
	return c.policy.Do(ctx, op, func(int) error {
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A2", body).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if err != nil {
			return classify(op, err)
		}
		return nil
	})
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &retry.StatusError{Op: op, StatusCode: apiErr.Code, Body: retry.Snippet(apiErr.Message)}
	}
	return fmt.Errorf("%s: %w", op, err)
}
