package database

import "watchly/internal/core"

// Migration001CreateMonitoringTables creates users, websites, metrics and alerts
var Migration001CreateMonitoringTables = core.Migration{
	Version:     1,
	Name:        "create_monitoring_tables",
	Description: "Create users, websites, metrics and alerts tables",
	UpSQL: `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS websites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		check_interval INTEGER NOT NULL DEFAULT 5,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		website_id INTEGER NOT NULL,
		response_time REAL NOT NULL,
		uptime INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (website_id) REFERENCES websites (id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_website_timestamp ON metrics (website_id, timestamp);

	-- No uniqueness on (website_id, alert_type, status): the single active tick
	-- is what keeps one unresolved alert per website.
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		website_id INTEGER NOT NULL,
		alert_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'unresolved',
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (website_id) REFERENCES websites (id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_website_type_status ON alerts (website_id, alert_type, status);
	`,
	DownSQL: `
	DROP TABLE IF EXISTS alerts;
	DROP TABLE IF EXISTS metrics;
	DROP TABLE IF EXISTS websites;
	DROP TABLE IF EXISTS users;
	`,
}

// Migrations returns all monitoring migrations in order
func Migrations() []core.Migration {
	return []core.Migration{
		Migration001CreateMonitoringTables,
	}
}
