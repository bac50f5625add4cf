// Package sheets mirrors the ledger into a Google spreadsheet: one sheet of
// expenses and one of savings snapshots, both rewritten on every export.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

var (
	expensesHeader = []any{"ID", "Date", "Category", "Amount"}
	savingsHeader  = []any{"Date", "Total"}
)

// ValuesWriter is the subset of the Sheets values API the exporter needs.
type ValuesWriter interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

type Options struct {
	SpreadsheetID string
	ExpensesSheet string
	SavingsSheet  string
}

type Exporter struct {
	values ValuesWriter
	opts   Options
	logger *slog.Logger
}

func New(values ValuesWriter, opts Options, logger *slog.Logger) (*Exporter, error) {
	if values == nil {
		return nil, errors.New("sheets values writer is required")
	}
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if opts.ExpensesSheet == "" {
		opts.ExpensesSheet = "Expenses"
	}
	if opts.SavingsSheet == "" {
		opts.SavingsSheet = "Savings"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{values: values, opts: opts, logger: logger}, nil
}

// NewFromConfig authenticates with the configured service account.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Exporter, error) {
	svc, err := newSheetsService(ctx, cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(&googleValues{svc: svc}, Options{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		ExpensesSheet: cfg.GoogleExpensesSheet,
		SavingsSheet:  cfg.GoogleSavingsSheet,
	}, logger)
}

// Export overwrites both sheets with the contents of v.
func (e *Exporter) Export(ctx context.Context, v ledger.View) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.replace(gctx, e.opts.ExpensesSheet, "A:D", expenseRows(v.Expenses))
	})
	g.Go(func() error {
		return e.replace(gctx, e.opts.SavingsSheet, "A:B", savingsRows(v.Savings.History))
	})
	if err := g.Wait(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Ledger exported",
		applog.FieldOperation, applog.OpExport,
		"expenses", len(v.Expenses),
		"snapshots", len(v.Savings.History))
	return nil
}

func (e *Exporter) replace(ctx context.Context, sheet, cols string, rows [][]any) error {
	if err := e.values.Clear(ctx, e.opts.SpreadsheetID, fmt.Sprintf("%s!%s", sheet, cols)); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}
	if err := e.values.Update(ctx, e.opts.SpreadsheetID, fmt.Sprintf("%s!A1", sheet), rows); err != nil {
		return fmt.Errorf("write %s: %w", sheet, err)
	}
	e.logger.DebugContext(ctx, "Sheet rewritten", applog.FieldSheet, sheet, applog.FieldRows, len(rows)-1)
	return nil
}

func expenseRows(records []core.ExpenseRecord) [][]any {
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, expensesHeader)
	for _, r := range records {
		rows = append(rows, []any{r.ID, r.Date.String(), r.Category, r.Amount.StringFixed(2)})
	}
	return rows
}

func savingsRows(history []core.Snapshot) [][]any {
	rows := make([][]any, 0, len(history)+1)
	rows = append(rows, savingsHeader)
	for _, s := range history {
		rows = append(rows, []any{s.Date.String(), s.Amount.StringFixed(2)})
	}
	return rows
}

type googleValues struct {
	svc *gsheet.Service
}

func (g *googleValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleValues) Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// newSheetsService builds a Sheets client from inline service account JSON
// or a credentials file. Inline JSON wins when both are set.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
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
