package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenzone/guardian/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "guardian.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndQueryAlerts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.SaveAlert(ctx, types.Alert{
			ID:        uuid.New().String(),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Level:     types.AlertWarning,
			Message:   "cpu usage elevated",
			Details:   map[string]string{"metric": "cpu"},
		})
		require.NoError(t, err)
	}

	alerts, err := s.RecentAlerts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.True(t, alerts[0].Timestamp.After(alerts[1].Timestamp), "newest first")
	assert.Equal(t, "cpu", alerts[0].Details["metric"])
	assert.Equal(t, types.AlertWarning, alerts[0].Level)
}

func TestAuditTrail(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordAudit(ctx, AuditEntry{
		Path:      "/tmp/a.tmp",
		SizeBytes: 100,
		Category:  types.CategoryTemp,
		Outcome:   OutcomeDeleted,
	}))
	require.NoError(t, s.RecordAudit(ctx, AuditEntry{
		Path:      "/tmp/b.log",
		SizeBytes: 200,
		Category:  types.CategoryLog,
		Outcome:   OutcomeDeleted,
	}))
	require.NoError(t, s.RecordAudit(ctx, AuditEntry{
		Path:      "/etc/protected",
		SizeBytes: 300,
		Category:  types.CategoryUnknown,
		Outcome:   OutcomeSkipped,
		Detail:    "under protected prefix /etc",
	}))

	trail, err := s.AuditTrail(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, "/etc/protected", trail[0].Path)
	assert.Equal(t, OutcomeSkipped, trail[0].Outcome)

	total, err := s.TotalReclaimedBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300), total, "skipped entries do not count as reclaimed")
}

func TestTotalReclaimedEmpty(t *testing.T) {
	s := testStore(t)
	total, err := s.TotalReclaimedBytes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestReportSummaries(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, ReportSummary{
		GeneratedAt:      time.Now(),
		Cycle:            42,
		HealthScore:      87.5,
		AnomalyCount:     2,
		ReclaimableBytes: 1 << 20,
		ReportPath:       "/tmp/guardian_report_1.txt",
	}))

	reports, err := s.RecentReports(ctx, 5)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 42, reports[0].Cycle)
	assert.InDelta(t, 87.5, reports[0].HealthScore, 1e-9)
}
