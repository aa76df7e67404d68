package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carecycle/carecycle/internal/store/sqlstore"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Manage the database schema",
		Long:    "Apply and inspect schema migrations for the SQL drivers (sqlite, postgres, mysql).",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBStatusCmd())

	return cmd
}

// ---------- db migrate ----------

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			applied, err := st.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			states, err := st.MigrationStatus(ctx)
			if err != nil {
				return fmt.Errorf("migration status: %w", err)
			}
			var version int64
			for _, s := range states {
				if s.Applied && s.Version > version {
					version = s.Version
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s); %s schema at version %d\n", applied, st.Dialect(), version)
			return nil
		},
	}
}

// ---------- db status ----------

func newDBStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			states, err := st.MigrationStatus(ctx)
			if err != nil {
				return fmt.Errorf("migration status: %w", err)
			}
			return printMigrations(cmd.OutOrStdout(), states, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func openDB(ctx context.Context) (*sqlstore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openSQLStore(ctx, cfg)
}

func printMigrations(out io.Writer, states []sqlstore.MigrationState, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(states)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSOURCE\tAPPLIED AT")
	for _, s := range states {
		applied := "pending"
		if s.Applied {
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.Source, applied)
	}
	return tw.Flush()
}
