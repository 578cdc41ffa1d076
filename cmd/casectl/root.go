package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"casework/internal/adapters/storage"
	"casework/internal/config"
)

// cli carries state shared by subcommands.
type cli struct {
	out     io.Writer
	dbPath  string
	asJSON  bool
	verbose bool
	cfg     config.Config
	db      *sql.DB
	now     func() time.Time
	genID   func() string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{
		out:   out,
		now:   time.Now,
		genID: func() string { return uuid.New().String() },
	}

	root := &cobra.Command{
		Use:           "casectl",
		Short:         "Inspect and operate the casework case database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = c.dbPath
			}
			c.cfg = cfg
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.db != nil {
				return c.db.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", "casework.db", "path to the SQLite database (overrides CASEWORK_DB)")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print JSON instead of text")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(c.migrateCmd(), c.caseCmd(), c.outboxCmd())
	return root
}

// open returns the migrated database, opening it on first use.
func (c *cli) open(ctx context.Context) (*sql.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := storage.Open(ctx, c.cfg.DSN(), c.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

// emit prints v as indented JSON when --json is set, otherwise runs text.
func (c *cli) emit(v any, text func(w io.Writer)) error {
	if c.asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(c.out)
	return nil
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			return c.emit(map[string]any{"path": c.cfg.DBPath, "schema_version": v}, func(w io.Writer) {
				fmt.Fprintf(w, "%s is at schema version %d\n", c.cfg.DBPath, v)
			})
		},
	}
}
