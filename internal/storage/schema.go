package storage

const schema = `
-- Alerts table (operator-facing alert history)
CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    timestamp DATETIME NOT NULL,
    level TEXT NOT NULL CHECK(level IN ('info', 'warning', 'critical')),
    message TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
CREATE INDEX IF NOT EXISTS idx_alerts_level ON alerts(level);

-- Cleanup audit table (one row per deletion attempt)
CREATE TABLE IF NOT EXISTS cleanup_audit (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp DATETIME NOT NULL,
    path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    category TEXT NOT NULL,
    outcome TEXT NOT NULL CHECK(outcome IN ('deleted', 'skipped', 'failed')),
    detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_cleanup_audit_timestamp ON cleanup_audit(timestamp);
CREATE INDEX IF NOT EXISTS idx_cleanup_audit_outcome ON cleanup_audit(outcome);

-- Report summaries table
CREATE TABLE IF NOT EXISTS reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    generated_at DATETIME NOT NULL,
    cycle INTEGER NOT NULL,
    health_score REAL NOT NULL,
    anomaly_count INTEGER NOT NULL,
    reclaimable_bytes INTEGER NOT NULL,
    report_path TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
`
