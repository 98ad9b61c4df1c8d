package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkquest/models"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig configures the spreadsheet sink
type SheetsConfig struct {
	SpreadsheetID string
	// Range is the A1 range rows are appended after, e.g. "Checklists!A1".
	Range string
	Retry RetryPolicy
}

// SheetsSink appends one row per completed checklist to a spreadsheet
type SheetsSink struct {
	cfg     SheetsConfig
	service *sheets.Service
}

// NewSheetsSink creates a spreadsheet sink. Credentials come from opts,
// typically option.WithCredentialsFile for a service account.
func NewSheetsSink(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsSink, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	if cfg.Range == "" {
		cfg.Range = "Checklists!A1"
	}
	return &SheetsSink{cfg: cfg, service: srv}, nil
}

func (s *SheetsSink) Name() string { return TargetSheets }

func (s *SheetsSink) Handles(event models.EventType) bool {
	return event == models.EventChecklistCompleted
}

// Deliver appends the row and returns the updated range
func (s *SheetsSink) Deliver(ctx context.Context, event models.OutboxEvent) (string, error) {
	var entry models.ChecklistCompletedPayload
	if err := json.Unmarshal(event.Payload, &entry); err != nil {
		return "", fmt.Errorf("sheets: decode payload: %w", err)
	}

	values := &sheets.ValueRange{Values: [][]interface{}{checklistRow(entry)}}
	var updated string
	err := retry(ctx, s.cfg.Retry, func() error {
		resp, err := s.service.Spreadsheets.Values.
			Append(s.cfg.SpreadsheetID, s.cfg.Range, values).
			// RAW keeps user text such as "=IMPORTXML(...)" from being parsed as a formula.
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if err != nil {
			return sheetsError(err)
		}
		if resp.Updates != nil {
			updated = resp.Updates.UpdatedRange
		}
		return nil
	})
	return updated, err
}

func checklistRow(e models.ChecklistCompletedPayload) []interface{} {
	return []interface{}{
		e.CompletedAt.UTC().Format(time.RFC3339),
		e.TemplateName,
		e.UserName,
		e.Location,
		e.Score,
		e.Points,
		e.MaxPoints,
		e.NonConformities,
		e.CriticalFailure,
		e.XPEarned,
		e.EntryID,
	}
}

// sheetsError maps API errors onto HTTPError so retry and auth
// classification work the same as for the webhook sinks.
func sheetsError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &HTTPError{Target: TargetSheets, StatusCode: gerr.Code, Body: gerr.Message}
	}
	return fmt.Errorf("sheets: %w", err)
}
