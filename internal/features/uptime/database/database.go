package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"watchly/internal/core"
	"watchly/internal/features/uptime/models"
)

const bcryptCost = 12

// Store is the SQLite-backed persistence for websites, users, metrics and alerts
type Store struct {
	db     *core.Database
	logger *core.Logger
}

func NewStore(db *core.Database, logger *core.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Migrate applies the monitoring schema
func (s *Store) Migrate(ctx context.Context) error {
	migrations := core.NewMigrationService(s.db, s.logger)
	if err := migrations.Migrate(ctx, Migrations()); err != nil {
		return err
	}

	applied, err := migrations.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		latest := applied[len(applied)-1]
		s.logger.Debug("Schema up to date", "version", latest.Version, "name", latest.Name, "applied_at", latest.CreatedAt)
	}

	return nil
}

// Rollback reverts the latest applied monitoring migration. It returns nil
// when nothing is applied.
func (s *Store) Rollback(ctx context.Context) (*core.Migration, error) {
	return core.NewMigrationService(s.db, s.logger).Rollback(ctx, Migrations())
}

// ListWebsites retrieves every monitored website
func (s *Store) ListWebsites(ctx context.Context) ([]models.Website, error) {
	query := `
		SELECT id, user_id, name, url, check_interval, created_at
		FROM websites
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, core.NewDatabaseError("failed to list websites", err)
	}
	defer rows.Close()

	var websites []models.Website
	for rows.Next() {
		var website models.Website
		err := rows.Scan(
			&website.ID,
			&website.UserID,
			&website.Name,
			&website.URL,
			&website.CheckInterval,
			&website.CreatedAt,
		)
		if err != nil {
			return nil, core.NewDatabaseError("failed to scan website", err)
		}
		websites = append(websites, website)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewDatabaseError("failed to list websites", err)
	}

	return websites, nil
}

// GetWebsite retrieves a website by ID
func (s *Store) GetWebsite(ctx context.Context, websiteID int) (*models.Website, error) {
	query := `
		SELECT id, user_id, name, url, check_interval, created_at
		FROM websites
		WHERE id = ?
	`

	var website models.Website
	row, cancel := s.db.QueryRowWithTimeout(ctx, query, websiteID)
	defer cancel()

	err := row.Scan(
		&website.ID,
		&website.UserID,
		&website.Name,
		&website.URL,
		&website.CheckInterval,
		&website.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError(fmt.Sprintf("website %d not found", websiteID), err)
		}
		return nil, core.NewDatabaseError("failed to get website", err)
	}

	return &website, nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, userID int) (*models.User, error) {
	query := `
		SELECT id, name, email, created_at
		FROM users
		WHERE id = ?
	`

	var user models.User
	row, cancel := s.db.QueryRowWithTimeout(ctx, query, userID)
	defer cancel()

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError(fmt.Sprintf("user %d not found", userID), err)
		}
		return nil, core.NewDatabaseError("failed to get user", err)
	}

	return &user, nil
}

// InsertMetrics writes the whole batch in one transaction. Either every row
// is stored or none is.
func (s *Store) InsertMetrics(ctx context.Context, batch []models.Metric) error {
	if len(batch) == 0 {
		return nil
	}

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO metrics (website_id, response_time, uptime, timestamp)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, metric := range batch {
			_, err := stmt.ExecContext(ctx, metric.WebsiteID, metric.ResponseTime, metric.Uptime, metric.Timestamp.UTC())
			if err != nil {
				return fmt.Errorf("website %d: %w", metric.WebsiteID, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.NewDatabaseError(fmt.Sprintf("failed to insert %d metrics", len(batch)), err)
	}

	return nil
}

// FindUnresolvedAlert returns the active alert of the given type for a
// website, or nil when there is none
func (s *Store) FindUnresolvedAlert(ctx context.Context, websiteID int, alertType models.AlertType) (*models.Alert, error) {
	query := `
		SELECT id, website_id, alert_type, status, timestamp
		FROM alerts
		WHERE website_id = ? AND alert_type = ? AND status = ?
		ORDER BY id
		LIMIT 1
	`

	var alert models.Alert
	row, cancel := s.db.QueryRowWithTimeout(ctx, query, websiteID, alertType, models.AlertStatusUnresolved)
	defer cancel()

	err := row.Scan(&alert.ID, &alert.WebsiteID, &alert.Type, &alert.Status, &alert.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No active alert
		}
		return nil, core.NewDatabaseError("failed to find unresolved alert", err)
	}

	return &alert, nil
}

// CreateAlert inserts a new alert row
func (s *Store) CreateAlert(ctx context.Context, websiteID int, alertType models.AlertType, status models.AlertStatus, timestamp time.Time) (*models.Alert, error) {
	query := `
		INSERT INTO alerts (website_id, alert_type, status, timestamp)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	alert := models.Alert{
		WebsiteID: websiteID,
		Type:      alertType,
		Status:    status,
		Timestamp: timestamp,
	}

	row, cancel := s.db.QueryRowWithTimeout(ctx, query, websiteID, alertType, status, timestamp.UTC())
	defer cancel()

	if err := row.Scan(&alert.ID); err != nil {
		return nil, core.NewDatabaseError("failed to create alert", err)
	}

	return &alert, nil
}

// ResolveAlert flips an unresolved alert to resolved
func (s *Store) ResolveAlert(ctx context.Context, alertID int) error {
	query := `UPDATE alerts SET status = ? WHERE id = ? AND status = ?`

	result, err := s.db.ExecWithTimeout(ctx, query, models.AlertStatusResolved, alertID, models.AlertStatusUnresolved)
	if err != nil {
		return core.NewDatabaseError("failed to resolve alert", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.NewDatabaseError("failed to resolve alert", err)
	}
	if affected == 0 {
		return core.NewNotFoundError(fmt.Sprintf("unresolved alert %d not found", alertID), nil)
	}

	return nil
}

// CreateUser stores a user with a bcrypt-hashed password
func (s *Store) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, core.NewValidationError("name, email and password are required", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, core.NewInternalError("failed to hash password", err)
	}

	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES (?, ?, ?)
		RETURNING id, created_at
	`

	user := models.User{Name: name, Email: email}
	row, cancel := s.db.QueryRowWithTimeout(ctx, query, name, email, hash)
	defer cancel()

	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, core.NewConflictError(fmt.Sprintf("user %s already exists", email), err)
		}
		return nil, core.NewDatabaseError("failed to create user", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email address
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, name, email, created_at FROM users WHERE email = ?`

	var user models.User
	row, cancel := s.db.QueryRowWithTimeout(ctx, query, email)
	defer cancel()

	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError(fmt.Sprintf("user %s not found", email), err)
		}
		return nil, core.NewDatabaseError("failed to get user", err)
	}

	return &user, nil
}

// CreateWebsite registers a website for a user
func (s *Store) CreateWebsite(ctx context.Context, userID int, name, url string, checkInterval int) (*models.Website, error) {
	if url == "" {
		return nil, core.NewValidationError("website url is required", nil)
	}
	if name == "" {
		name = url
	}
	if checkInterval <= 0 {
		checkInterval = 5
	}

	query := `
		INSERT INTO websites (user_id, name, url, check_interval)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at
	`

	website := models.Website{UserID: userID, Name: name, URL: url, CheckInterval: checkInterval}
	row, cancel := s.db.QueryRowWithTimeout(ctx, query, userID, name, url, checkInterval)
	defer cancel()

	if err := row.Scan(&website.ID, &website.CreatedAt); err != nil {
		return nil, core.NewDatabaseError("failed to create website", err)
	}

	return &website, nil
}

// ListMetrics returns the metric history of a website, oldest first
func (s *Store) ListMetrics(ctx context.Context, websiteID int) ([]models.Metric, error) {
	query := `
		SELECT id, website_id, response_time, uptime, timestamp
		FROM metrics
		WHERE website_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, websiteID)
	if err != nil {
		return nil, core.NewDatabaseError("failed to list metrics", err)
	}
	defer rows.Close()

	var metrics []models.Metric
	for rows.Next() {
		var metric models.Metric
		if err := rows.Scan(&metric.ID, &metric.WebsiteID, &metric.ResponseTime, &metric.Uptime, &metric.Timestamp); err != nil {
			return nil, core.NewDatabaseError("failed to scan metric", err)
		}
		metrics = append(metrics, metric)
	}

	return metrics, rows.Err()
}

// ListAlerts returns the alert lineage of a website, oldest first
func (s *Store) ListAlerts(ctx context.Context, websiteID int) ([]models.Alert, error) {
	query := `
		SELECT id, website_id, alert_type, status, timestamp
		FROM alerts
		WHERE website_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, websiteID)
	if err != nil {
		return nil, core.NewDatabaseError("failed to list alerts", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var alert models.Alert
		if err := rows.Scan(&alert.ID, &alert.WebsiteID, &alert.Type, &alert.Status, &alert.Timestamp); err != nil {
			return nil, core.NewDatabaseError("failed to scan alert", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}
