package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	emailPkg "casework/internal/adapters/email"
	outboxStore "casework/internal/adapters/storage/outbox"
	workerStore "casework/internal/adapters/storage/worker"
	"casework/internal/application/orchestrators"
	domain "casework/internal/domain/outbox"
)

func (c *cli) outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and drain the notification delivery queue",
	}
	cmd.AddCommand(c.outboxProcessCmd(), c.outboxListCmd())
	return cmd
}

func (c *cli) processor(store outboxStore.Store, workers workerStore.Store) *orchestrators.OutboxProcessor {
	var sender emailPkg.Sender = emailPkg.NewNoopSender()
	if c.cfg.Email.ResendKey != "" {
		sender = emailPkg.NewResendSender(c.cfg.Email.ResendKey, c.cfg.Email.From)
	}
	return orchestrators.NewOutboxProcessor(store, map[string]orchestrators.ActionExecutor{
		domain.ActionTypeNotificationEmail: &orchestrators.EmailExecutor{
			Sender:  sender,
			Workers: workers,
			ReplyTo: c.cfg.Email.ReplyTo,
		},
	}, c.now)
}

func (c *cli) outboxProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Attempt every due entry once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			p := c.processor(outboxStore.NewSQLiteStore(db), workerStore.NewSQLiteStore(db))
			stats, err := p.ProcessPending(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(stats, func(w io.Writer) {
				fmt.Fprintf(w, "attempted %d, succeeded %d, failed %d, deferred %d\n", stats.Attempted, stats.Succeeded, stats.Failed, stats.Deferred)
			})
		},
	}
}

func (c *cli) outboxListCmd() *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending or failed entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			store := outboxStore.NewSQLiteStore(db)
			var entries []domain.Entry
			switch status {
			case domain.StatusFailed:
				entries, err = store.ListFailed(cmd.Context(), limit)
			case domain.StatusPending:
				entries, err = store.ListPending(cmd.Context(), limit)
			default:
				return fmt.Errorf("--status must be %s or %s", domain.StatusPending, domain.StatusFailed)
			}
			if err != nil {
				return err
			}
			rows := make([]map[string]any, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, map[string]any{
					"id": e.ID, "action_type": e.ActionType, "status": e.Status,
					"attempts": e.Attempts, "max_attempts": e.MaxAttempts, "error": e.ErrorMessage,
				})
			}
			return c.emit(rows, func(w io.Writer) {
				for _, e := range entries {
					fmt.Fprintf(w, "%s  %-9s  %d/%d  %s\n", e.ID, e.Status, e.Attempts, e.MaxAttempts, e.ErrorMessage)
				}
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", domain.StatusFailed, "pending or failed")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to list")
	return cmd
}
