package main

import (
	"checkquest/app"
	"checkquest/config"
	"checkquest/config/setup"
	"checkquest/database"
	"checkquest/session"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	seedFile string
	seedOrg  string
)

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "templates.yaml", "YAML file with checklist templates")
	seedCmd.Flags().StringVar(&seedOrg, "org", "", "organization slug (defaults to DEFAULT_ORGANIZATION)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadToolConfig(); err != nil {
			return err
		}
		db, err := setup.InitDatabase(config.AppConfig.DBPath, slog.Default())
		if err != nil {
			return err
		}
		defer db.Close()

		printf(cmd, "database ready at %s\n", config.AppConfig.DBPath)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import checklist templates from a YAML file",
	Long: `Import checklist templates into an organization. The organization is
created when it does not exist; templates whose name already exists are skipped.

Examples:
  checkquest seed --file templates.yaml
  checkquest seed --file opening.yaml --org la-tasca`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadToolConfig(); err != nil {
		return err
	}
	if seedOrg == "" {
		seedOrg = config.AppConfig.DefaultOrganization
	}

	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	db, err := setup.InitDatabase(config.AppConfig.DBPath, slog.Default())
	if err != nil {
		return err
	}
	defer db.Close()

	repo := database.NewRepository(db)
	application := app.New(repo, nil, session.NewStore(repo, session.DefaultTTL), nil, slog.Default())

	result, err := application.SeedService.Import(seedOrg, f)
	if result != nil {
		if len(result.Created) > 0 {
			printf(cmd, "created: %s\n", strings.Join(result.Created, ", "))
		}
		if len(result.Skipped) > 0 {
			printf(cmd, "skipped (already present): %s\n", strings.Join(result.Skipped, ", "))
		}
	}
	return err
}
