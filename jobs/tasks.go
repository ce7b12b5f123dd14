package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/jobs"
	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/roster"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeRosterImport is the task type for importing a parsed voter
	// roster into the database.
	TaskTypeRosterImport = "roster:import"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP in phase 2.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// RosterImportPayload carries the validated roster entries to the worker.
type RosterImportPayload struct {
	Entries []roster.Entry `json:"entries"`
}

// NewRosterImportTask constructs an Asynq task.
func NewRosterImportTask(payload RosterImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRosterImport, data), nil
}

// RosterImporter writes roster entries to the store.
type RosterImporter interface {
	Import(ctx context.Context, entries []roster.Entry) (int, error)
}

// NewRosterImportHandler builds the handler for TaskTypeRosterImport tasks.
func NewRosterImportHandler(importer RosterImporter, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("roster_import")
		var payload RosterImportPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		n, err := importer.Import(ctx, payload.Entries)
		if err != nil {
			return tracker.End(err)
		}
		metrics.AddRosterRows("written", n)
		if logger != nil {
			logger.Info("roster import", slog.Int("written", n))
		}
		return tracker.End(nil)
	}
}
