package roster

import (
	"context"
	"io"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
)

// StorePort describes persistence used by Service.
type StorePort interface {
	Upsert(ctx context.Context, entries []Entry) (int, error)
	Count(ctx context.Context) (int64, error)
}

// Enqueuer hands parsed entries to the background import queue.
type Enqueuer interface {
	EnqueueRosterImport(ctx context.Context, entries []Entry) error
}

// AuditPort records privileged actions.
type AuditPort interface {
	Record(ctx context.Context, event audit.Event)
}

// Service validates roster uploads and defers the database writes to the
// job queue.
type Service struct {
	store    StorePort
	enqueuer Enqueuer
	audit    AuditPort
}

// NewService constructs the roster service.
func NewService(store StorePort, enqueuer Enqueuer, auditor AuditPort) *Service {
	return &Service{store: store, enqueuer: enqueuer, audit: auditor}
}

// Upload parses the CSV, records the audit event with the outcome counts,
// and queues the accepted entries for import. The upload is accounted even
// when every row is rejected.
func (s *Service) Upload(ctx context.Context, r io.Reader, filename string) (Report, error) {
	entries, report, err := ParseCSV(r)
	if err != nil {
		return Report{}, err
	}
	if len(entries) > 0 {
		if err := s.enqueuer.EnqueueRosterImport(ctx, entries); err != nil {
			return Report{}, err
		}
	}
	if s.audit != nil {
		s.audit.Record(ctx, audit.Event{
			Action:     audit.ActionUploadVoterRoster,
			EntityType: "roster",
			EntityID:   filename,
			Details: map[string]any{
				"accepted": report.Accepted,
				"rejected": report.Rejected,
			},
		})
	}
	return report, nil
}

// Import writes parsed entries to the store. The job worker calls this.
func (s *Service) Import(ctx context.Context, entries []Entry) (int, error) {
	return s.store.Upsert(ctx, entries)
}

// Size returns the roster size.
func (s *Service) Size(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}
