package roster

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ielcomnunsahui/cohssa-electoral-system-sub002/internal/audit"
)

type memoryStore struct {
	entries map[string]Entry
}

func (s *memoryStore) Upsert(ctx context.Context, entries []Entry) (int, error) {
	if s.entries == nil {
		s.entries = make(map[string]Entry)
	}
	for _, e := range entries {
		s.entries[e.MatricNumber] = e
	}
	return len(entries), nil
}

func (s *memoryStore) Count(ctx context.Context) (int64, error) {
	return int64(len(s.entries)), nil
}

type captureEnqueuer struct {
	batches [][]Entry
}

func (c *captureEnqueuer) EnqueueRosterImport(ctx context.Context, entries []Entry) error {
	c.batches = append(c.batches, entries)
	return nil
}

type captureAudit struct {
	events []audit.Event
}

func (c *captureAudit) Record(ctx context.Context, event audit.Event) {
	c.events = append(c.events, event)
}

func TestUploadQueuesAndAudits(t *testing.T) {
	store := &memoryStore{}
	queue := &captureEnqueuer{}
	auditor := &captureAudit{}
	svc := NewService(store, queue, auditor)

	input := "matric_number,full_name\nCOHSSA/ACC/21/001,Ada Obi\n,bad row\n"
	report, err := svc.Upload(context.Background(), strings.NewReader(input), "roster.csv")
	require.NoError(t, err)
	require.Equal(t, 1, report.Accepted)
	require.Equal(t, 1, report.Rejected)

	require.Len(t, queue.batches, 1)
	require.Len(t, queue.batches[0], 1)

	require.Len(t, auditor.events, 1)
	require.Equal(t, audit.ActionUploadVoterRoster, auditor.events[0].Action)
	require.Equal(t, "roster.csv", auditor.events[0].EntityID)
	require.Equal(t, 1, auditor.events[0].Details["accepted"])
}

func TestUploadRejectsBadHeaderWithoutQueueing(t *testing.T) {
	queue := &captureEnqueuer{}
	auditor := &captureAudit{}
	svc := NewService(&memoryStore{}, queue, auditor)

	_, err := svc.Upload(context.Background(), strings.NewReader("oops\nrow\n"), "roster.csv")
	require.ErrorIs(t, err, ErrBadHeader)
	require.Empty(t, queue.batches)
	require.Empty(t, auditor.events)
}

func TestImportWritesStore(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, &captureEnqueuer{}, nil)

	n, err := svc.Import(context.Background(), []Entry{
		{MatricNumber: "COHSSA/ACC/21/001", FullName: "Ada Obi"},
		{MatricNumber: "COHSSA/ECO/21/002", FullName: "Bola Sani"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	size, err := svc.Size(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, size)
}
