package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "casework/internal/adapters/email"
	"casework/internal/adapters/notify"
	outboxStore "casework/internal/adapters/storage/outbox"
	domain "casework/internal/domain/outbox"
)

// ErrTerminalEntry is returned when an operator retries an entry that cannot be retried.
var ErrTerminalEntry = errors.New("outbox entry is in a terminal state")

// OutboxProcessor delivers pending outbox entries with exponential backoff.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the external ID (e.g., provider message ID) and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// ProcessStats summarises one processing pass.
type ProcessStats struct {
	Attempted int
	Succeeded int
	Failed    int
	Deferred  int
}

// NewOutboxProcessor creates a new outbox processor. now defaults to time.Now.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor, now func() time.Time) *OutboxProcessor {
	if now == nil {
		now = time.Now
	}
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		now:       now,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 50,
	}
}

// ProcessPending processes pending outbox entries with retries.
// PRE: Context is valid
// POST: Due entries are attempted once; entries still in backoff are left untouched
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (ProcessStats, error) {
	var stats ProcessStats
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return stats, fmt.Errorf("list pending outbox entries: %w", err)
	}

	now := p.now()
	for _, entry := range entries {
		if !entry.IsDue(now, p.baseDelay, p.maxDelay) {
			stats.Deferred++
			continue
		}
		stats.Attempted++
		ok, err := p.attempt(ctx, entry, now)
		if err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
		if ok {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	if stats.Attempted > 0 {
		slog.Info("outbox_process_complete", "attempted", stats.Attempted, "succeeded", stats.Succeeded, "failed", stats.Failed, "deferred", stats.Deferred)
	}
	return stats, nil
}

// attempt runs one entry and saves the result. The returned error is a save failure.
func (p *OutboxProcessor) attempt(ctx context.Context, entry domain.Entry, now time.Time) (bool, error) {
	entry.MarkAttempt(now)
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return false, p.store.Save(ctx, entry)
	}

	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err.Error())
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return err == nil, p.store.Save(ctx, entry)
}

// ProcessSingle manually processes a single outbox entry, ignoring backoff.
// PRE: entryID is non-empty
// POST: Entry is attempted once, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalEntry, entryID)
	}
	if _, err := p.attempt(ctx, entry, p.now()); err != nil {
		return fmt.Errorf("save outbox entry: %w", err)
	}
	return nil
}

// AbandonEntry marks an entry as abandoned by an operator.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// --- Email Executor ---

// EmailExecutor delivers a queued notification by email.
type EmailExecutor struct {
	Sender  emailAdapter.Sender
	Workers WorkerDirectory
	ReplyTo string
}

// Execute resolves the recipient's address, renders the markdown body and sends it.
// PRE: payload is an outbox notification payload
// POST: email sent via the configured sender, returns the provider message ID
// INVARIANT: outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	n, err := notify.DecodePayload(payload)
	if err != nil {
		return "", err
	}
	recipient, err := e.Workers.GetByID(ctx, n.RecipientID)
	if err != nil {
		return "", fmt.Errorf("resolve recipient %s: %w", n.RecipientID, err)
	}
	if recipient.Email == "" || !recipient.IsActive() {
		return "", fmt.Errorf("recipient %s has no deliverable address", n.RecipientID)
	}
	html, err := notify.RenderHTML(n.Body)
	if err != nil {
		return "", err
	}
	res, err := e.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{recipient.Email},
		Subject: n.Subject,
		HTML:    html,
		ReplyTo: e.ReplyTo,
		Tags:    map[string]string{"kind": string(n.Kind), "case_id": n.CaseID},
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// --- Background Worker ---

// StartBackgroundWorker starts a background goroutine that periodically processes pending outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
