// Package google stores transactions in a Google Sheets spreadsheet: one
// row per transaction under a header row, plus a sheet of taxonomy entries.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
	"financialchecker/internal/store"
)

const (
	DefaultTransactionsSheet = "Transactions"
	DefaultUtilitiesSheet    = "Utilities"
)

var (
	_ store.Store          = (*Client)(nil)
	_ store.TaxonomyReader = (*Client)(nil)
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID     string
	TransactionsSheet string
	UtilitiesSheet    string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	utilitiesSheet    string
	logger            *applog.Logger
}

// New creates a Sheets-backed store authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a fake
// endpoint.
func NewWithService(svc *gsheet.Service, cfg Config, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	c := &Client{
		svc:               svc,
		spreadsheetID:     strings.TrimSpace(cfg.SpreadsheetID),
		transactionsSheet: strings.TrimSpace(cfg.TransactionsSheet),
		utilitiesSheet:    strings.TrimSpace(cfg.UtilitiesSheet),
		logger:            logger.WithComponent(applog.ComponentSheets),
	}
	if c.transactionsSheet == "" {
		c.transactionsSheet = DefaultTransactionsSheet
	}
	if c.utilitiesSheet == "" {
		c.utilitiesSheet = DefaultUtilitiesSheet
	}
	return c
}

func newSheetsService(ctx context.Context, cfg Config, logger *applog.Logger) (*gsheet.Service, error) {
	var (
		credentialsJSON []byte
		err             error
	)
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		credentialsJSON, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	if logger != nil {
		logger.InfoContext(ctx, "Creating Google Sheets service",
			"credentials_size", len(credentialsJSON),
			"scope", gsheet.SpreadsheetsScope)
	}
	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// Close is a no-op; the HTTP transport is shared.
func (c *Client) Close() error {
	return nil
}

// FetchAll reads every transaction row, in sheet order.
func (c *Client) FetchAll(ctx context.Context) ([]core.Record, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:J", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseTransactions(resp.Values)
}

// Insert validates rec and appends it as a new row. The header row is
// written first when the sheet is empty.
func (c *Client) Insert(ctx context.Context, rec core.Record) (string, error) {
	rec, err := rec.Canonical()
	if err != nil {
		return "", err
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	headerRange := fmt.Sprintf("%s!A1:J1", c.transactionsSheet)
	head, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", headerRange, err)
	}

	var values [][]any
	if len(head.Values) == 0 {
		values = append(values, headerRow())
	}
	rec.ID = uuid.NewString()
	values = append(values, recordRow(rec))

	rng := fmt.Sprintf("%s!A:J", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.transactionsSheet, err)
	}

	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Transaction appended to sheet",
		applog.FieldTransactionID, rec.ID,
		"range", updated)
	return rec.ID, nil
}

// Taxonomy reads the utilities sheet (type, value columns).
func (c *Client) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	if c.svc == nil {
		return core.Taxonomy{}, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:B", c.utilitiesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return core.Taxonomy{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseUtilities(resp.Values), nil
}
