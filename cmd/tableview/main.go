package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datatable/internal/application"
	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/source"
)

var rootCmd = &cobra.Command{
	Use:   "tableview",
	Short: "Browse a YAML fixture table in the terminal",
	Long: `tableview opens a fixture file as an interactive table: search, sort,
filter, page, select, edit, delete, hide and resize columns from the keyboard.

Examples:
  # Open a fixture with the configured page size
  tableview --fixture fixtures/employees.yaml

  # Open it 25 rows at a time, logging to a file
  tableview --fixture fixtures/employees.yaml --page-size 25 --log-file tableview.log`,
	SilenceUsage: true,
	RunE:         runView,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the fixture files in the fixtures directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		paths, err := source.FixturePaths(cfg.Fixtures.Dir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Printf("No fixtures in %s\n", cfg.Fixtures.Dir)
			return nil
		}
		for _, p := range paths {
			def, err := source.NewFixture(p, cfg.Table.Options()).Definition()
			if err != nil {
				fmt.Printf("  %s  (error: %v)\n", p, err)
				continue
			}
			fmt.Printf("  %-30s %s (%d columns)\n", p, def.Info.Label, len(def.Columns))
		}
		return nil
	},
}

var (
	fixturePath string
	pageSize    int
	logFile     string
)

func init() {
	rootCmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "Fixture YAML file to open (required)")
	rootCmd.Flags().IntVarP(&pageSize, "page-size", "n", 0, "Rows per page (default from TABLE_PAGE_SIZE)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of discarding them")
	_ = rootCmd.MarkFlagRequired("fixture")

	rootCmd.AddCommand(tablesCmd)
}

// loadConfig reads .env and the environment. Logs go to --log-file since
// the terminal belongs to the table.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Overload()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if pageSize > 0 {
		cfg.Table.PageSize = pageSize
	}
	return cfg, nil
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	closer, err := logging.SetupFile(logFile, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	def, err := source.NewFixture(fixturePath, cfg.Table.Options()).Definition()
	if err != nil {
		return err
	}

	m, err := application.New(ctx, def, cfg.Table)
	if err != nil {
		return err
	}
	return application.Run(ctx, m)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
