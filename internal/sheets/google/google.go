package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensedash/internal/core"
)

// Row layout of the export sheet.
var header = []any{"ID", "Date", "Description", "Category", "Amount", "Receipt", "Seq", "Status"}

const (
	lastCol       = "H"
	statusActive  = "active"
	statusDeleted = "deleted"
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// valuesAPI is the subset of the Sheets values API the exporter uses.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

// Client mirrors expenses into one sheet, one row per expense id. Deleted
// expenses keep a tombstone row so late events for them are ignored.
type Client struct {
	values        valuesAPI
	spreadsheetID string
	sheet         string

	mu                 sync.Mutex
	rows               map[string]rowRef // expense id -> row
	nextRow            int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

type rowRef struct {
	row int
	seq uint64
}

// New creates a client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Expenses"
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(sheetsValues{svc: svc}, cfg.SpreadsheetID, sheet), nil
}

func newClient(values valuesAPI, spreadsheetID, sheet string) *Client {
	return &Client{
		values:             values,
		spreadsheetID:      spreadsheetID,
		sheet:              sheet,
		cacheValidDuration: 5 * time.Minute,
	}
}

// newSheetsService initializes a Sheets service from service account
// credentials, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	credsFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var data []byte
	switch {
	case credsJSON != "":
		data = []byte(credsJSON)
	case credsFile != "":
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		data = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(data),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(data),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// UpsertExpense writes e into its row, appending one when the id is new.
// Events with a seq not newer than the row's are skipped.
func (c *Client) UpsertExpense(ctx context.Context, e core.Expense, seq uint64) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return c.write(ctx, e.ID, seq, []any{
		e.ID,
		e.Date.String(),
		e.Description,
		e.Category,
		e.Amount.Float(),
		e.ReceiptURL,
		strconv.FormatUint(seq, 10),
		statusActive,
	})
}

// DeleteExpense replaces the expense row with a tombstone.
func (c *Client) DeleteExpense(ctx context.Context, id string, seq uint64) error {
	if id == "" {
		return core.Invalid("id", core.ErrEmptyID)
	}
	return c.write(ctx, id, seq, []any{id, "", "", "", "", "", strconv.FormatUint(seq, 10), statusDeleted})
}

func (c *Client) write(ctx context.Context, id string, seq uint64, row []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadIndexLocked(ctx); err != nil {
		return err
	}

	ref, exists := c.rows[id]
	if exists && ref.seq >= seq {
		slog.DebugContext(ctx, "Skipping outdated export",
			"expense_id", id, "seq", seq, "row_seq", ref.seq)
		return nil
	}
	if !exists {
		ref.row = c.nextRow
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheet, ref.row, lastCol, ref.row)
	if err := c.values.Update(ctx, c.spreadsheetID, rng, [][]any{row}); err != nil {
		c.invalidateLocked()
		return core.Transport("update "+rng, err)
	}

	c.rows[id] = rowRef{row: ref.row, seq: seq}
	if !exists {
		c.nextRow++
	}
	slog.InfoContext(ctx, "Exported expense row",
		"expense_id", id, "row", ref.row, "seq", seq, "status", row[7])
	return nil
}

// loadIndexLocked reads the id and seq columns when the cached index has
// expired. An empty sheet gets the header row.
func (c *Client) loadIndexLocked(ctx context.Context) error {
	if c.rows != nil && time.Now().Before(c.cacheExpiresAt) {
		return nil
	}

	rng := fmt.Sprintf("%s!A:G", c.sheet)
	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return core.Transport("read "+rng, err)
	}
	if len(values) == 0 {
		hdr := fmt.Sprintf("%s!A1:%s1", c.sheet, lastCol)
		if err := c.values.Update(ctx, c.spreadsheetID, hdr, [][]any{header}); err != nil {
			return core.Transport("write header", err)
		}
		values = [][]any{header}
	}

	c.rows = parseIndex(values)
	c.nextRow = len(values) + 1
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return nil
}

func (c *Client) invalidateLocked() {
	c.rows = nil
	c.cacheExpiresAt = time.Time{}
}

// parseIndex maps ids to 1-based rows, skipping the header and blank rows.
func parseIndex(values [][]any) map[string]rowRef {
	out := make(map[string]rowRef, len(values))
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 || cols[0] == "" || (i == 0 && strings.EqualFold(cols[0], "ID")) {
			continue
		}
		var seq uint64
		if len(cols) >= 7 {
			seq, _ = strconv.ParseUint(cols[6], 10, 64)
		}
		out[cols[0]] = rowRef{row: i + 1, seq: seq}
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// sheetsValues adapts the generated Sheets client to valuesAPI.
type sheetsValues struct {
	svc *gsheet.Service
}

func (s sheetsValues) Get(ctx context.Context, id, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s sheetsValues) Update(ctx context.Context, id, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(id, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}
