// Package storage persists guardian's operational history (alerts,
// cleanup audit trail, report summaries) in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zenzone/guardian/internal/types"
)

// Store is the SQLite-backed history store.
type Store struct {
	db *sql.DB
}

// AuditOutcome classifies one deletion attempt in the audit trail.
type AuditOutcome string

const (
	OutcomeDeleted AuditOutcome = "deleted"
	OutcomeSkipped AuditOutcome = "skipped"
	OutcomeFailed  AuditOutcome = "failed"
)

// AuditEntry is one row of the cleanup audit trail.
type AuditEntry struct {
	Timestamp time.Time
	Path      string
	SizeBytes int64
	Category  types.FileCategory
	Outcome   AuditOutcome
	Detail    string
}

// ReportSummary is the persisted digest of one generated report.
type ReportSummary struct {
	GeneratedAt      time.Time
	Cycle            int
	HealthScore      float64
	AnomalyCount     int
	ReclaimableBytes int64
	ReportPath       string
}

// New opens (or creates) the database at path and initializes the
// schema. WAL mode keeps the run loop and CLI queries from blocking
// each other.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAlert persists one alert. Details are stored as JSON.
func (s *Store) SaveAlert(ctx context.Context, alert types.Alert) error {
	details := alert.Details
	if details == nil {
		details = map[string]string{}
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode alert details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, timestamp, level, message, details)
		VALUES (?, ?, ?, ?, ?)
	`, alert.ID, alert.Timestamp.UTC(), string(alert.Level), alert.Message, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// RecentAlerts returns up to limit alerts, newest first.
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]types.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, level, message, details
		FROM alerts
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var out []types.Alert
	for rows.Next() {
		var a types.Alert
		var level, details string
		if err := rows.Scan(&a.ID, &a.Timestamp, &level, &a.Message, &details); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Level = types.AlertLevel(level)
		if details != "" && details != "{}" {
			if err := json.Unmarshal([]byte(details), &a.Details); err != nil {
				return nil, fmt.Errorf("failed to decode alert details: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordAudit appends one deletion attempt to the audit trail.
func (s *Store) RecordAudit(ctx context.Context, entry AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cleanup_audit (timestamp, path, size_bytes, category, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Timestamp.UTC(), entry.Path, entry.SizeBytes, string(entry.Category), string(entry.Outcome), entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// AuditTrail returns up to limit audit entries, newest first.
func (s *Store) AuditTrail(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, path, size_bytes, category, outcome, detail
		FROM cleanup_audit
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var category, outcome string
		if err := rows.Scan(&e.Timestamp, &e.Path, &e.SizeBytes, &category, &outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Category = types.FileCategory(category)
		e.Outcome = AuditOutcome(outcome)
		out = append(out, e)
	}
	return out, rows.Err()
}

// TotalReclaimedBytes sums bytes across all successful deletions.
func (s *Store) TotalReclaimedBytes(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(size_bytes) FROM cleanup_audit WHERE outcome = 'deleted'
	`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum reclaimed bytes: %w", err)
	}
	return total.Int64, nil
}

// SaveReport persists one report summary.
func (s *Store) SaveReport(ctx context.Context, summary ReportSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (generated_at, cycle, health_score, anomaly_count, reclaimable_bytes, report_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, summary.GeneratedAt.UTC(), summary.Cycle, summary.HealthScore, summary.AnomalyCount, summary.ReclaimableBytes, summary.ReportPath)
	if err != nil {
		return fmt.Errorf("failed to save report summary: %w", err)
	}
	return nil
}

// RecentReports returns up to limit report summaries, newest first.
func (s *Store) RecentReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT generated_at, cycle, health_score, anomaly_count, reclaimable_bytes, report_path
		FROM reports
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var r ReportSummary
		if err := rows.Scan(&r.GeneratedAt, &r.Cycle, &r.HealthScore, &r.AnomalyCount, &r.ReclaimableBytes, &r.ReportPath); err != nil {
			return nil, fmt.Errorf("failed to scan report summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
