// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tya-notifications/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

const templateSchema = `CREATE TABLE IF NOT EXISTS notification_templates (
	template_key TEXT PRIMARY KEY,
	template_id  TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureTemplateSchema creates the template lookup table if it is missing.
func (c *PostgresClient) EnsureTemplateSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, templateSchema); err != nil {
		return fmt.Errorf("create notification_templates: %w", err)
	}
	return nil
}

// UpsertTemplates writes registry keys into the lookup table in one
// transaction.
func (c *PostgresClient) UpsertTemplates(ctx context.Context, templates map[string]string) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO notification_templates (template_key, template_id)
VALUES ($1, $2)
ON CONFLICT (template_key) DO UPDATE SET template_id = EXCLUDED.template_id, updated_at = now()`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, id := range templates {
		if _, err := stmt.ExecContext(ctx, key, id); err != nil {
			return fmt.Errorf("upsert template %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
