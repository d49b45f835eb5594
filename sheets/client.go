package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

const (
	DefaultRosterSheet   = "Atlet"
	DefaultTransferSheet = "Transfer"
)

type Config struct {
	ServiceAccountJSONPath string
	SpreadsheetID          string
	RosterSheet            string
	TransferSheet          string
}

// Client - доступ к таблице с заявками спортсменов (источник) и листу переноса (приёмник).
type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
	rosterSheet   string
	transferSheet string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if _, err := os.Stat(cfg.ServiceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	return NewWithOptions(ctx, cfg,
		option.WithCredentialsFile(cfg.ServiceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
}

// NewWithOptions allows a custom endpoint/http client (used by tests).
func NewWithOptions(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	srv, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	c := &Client{
		srv:           srv,
		spreadsheetID: cfg.SpreadsheetID,
		rosterSheet:   cfg.RosterSheet,
		transferSheet: cfg.TransferSheet,
	}
	if c.rosterSheet == "" {
		c.rosterSheet = DefaultRosterSheet
	}
	if c.transferSheet == "" {
		c.transferSheet = DefaultTransferSheet
	}
	return c, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

func (c *Client) readAll(ctx context.Context, sheet string) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:Z").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:Z", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return fmt.Sprint(row[idx])
}
