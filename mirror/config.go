package mirror

import (
	"context"
	"log/slog"

	"checkquest/config"

	"google.golang.org/api/option"
)

// FromConfig registers a sink for every integration that has credentials.
func FromConfig(ctx context.Context, cfg *config.Config, pages PageResolver) (*Registry, error) {
	r := NewRegistry()

	if cfg.NotionEnabled() {
		r.Register(NewNotionSink(NotionConfig{
			Token:      cfg.NotionToken,
			DatabaseID: cfg.NotionDatabaseID,
			RateLimit:  cfg.NotionRateLimit,
			Pages:      pages,
		}))
	}

	if cfg.N8NWebhookURL != "" {
		r.Register(NewN8NSink(N8NConfig{URL: cfg.N8NWebhookURL, Secret: cfg.N8NWebhookSecret}))
	}

	if cfg.SheetsEnabled() {
		sink, err := NewSheetsSink(ctx, SheetsConfig{
			SpreadsheetID: cfg.SheetsSpreadsheetID,
			Range:         cfg.SheetsRange,
		}, option.WithCredentialsFile(cfg.SheetsCredentialsFile))
		if err != nil {
			return nil, err
		}
		r.Register(sink)
	}

	slog.Info("mirror targets configured", "targets", r.Names())
	return r, nil
}
