// Package storage provides SQLite implementation of the Storage interface.
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

	"github.com/hyperjump/hirogeru/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		title TEXT,
		content TEXT NOT NULL,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_materials_created_at ON materials(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateMaterial inserts a material.
func (s *SQLiteStorage) CreateMaterial(ctx context.Context, material *models.Material) error {
	metadataJSON, err := json.Marshal(material.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	now := time.Now()
	material.CreatedAt = now
	material.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO materials (id, title, content, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		material.ID, material.Title, material.Content, string(metadataJSON), material.CreatedAt, material.UpdatedAt,
	)
	return err
}

// GetMaterial returns a material by ID.
func (s *SQLiteStorage) GetMaterial(ctx context.Context, id string) (*models.Material, error) {
	var material models.Material
	var metadataJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, metadata, created_at, updated_at
		 FROM materials WHERE id = ?`, id,
	).Scan(&material.ID, &material.Title, &material.Content, &metadataJSON, &material.CreatedAt, &material.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &material.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &material, nil
}

// UpdateMaterial updates an existing material.
func (s *SQLiteStorage) UpdateMaterial(ctx context.Context, material *models.Material) error {
	metadataJSON, err := json.Marshal(material.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	material.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE materials SET title = ?, content = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		material.Title, material.Content, string(metadataJSON), material.UpdatedAt, material.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, material.ID)
	}
	return nil
}

// DeleteMaterial removes a material by ID.
func (s *SQLiteStorage) DeleteMaterial(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	return err
}

// ListMaterials returns materials with offset and limit, newest first.
func (s *SQLiteStorage) ListMaterials(ctx context.Context, offset, limit int) ([]*models.Material, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, metadata, created_at, updated_at
		 FROM materials ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMaterials(rows)
}

// ListAllMaterials returns every material, ordered by creation time ascending.
// Used for corpus statistics rebuilds.
func (s *SQLiteStorage) ListAllMaterials(ctx context.Context) ([]*models.Material, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, metadata, created_at, updated_at
		 FROM materials ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMaterials(rows)
}

func scanMaterials(rows *sql.Rows) ([]*models.Material, error) {
	var materials []*models.Material
	for rows.Next() {
		var material models.Material
		var metadataJSON string
		if err := rows.Scan(&material.ID, &material.Title, &material.Content, &metadataJSON, &material.CreatedAt, &material.UpdatedAt); err != nil {
			return nil, err
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &material.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		materials = append(materials, &material)
	}
	return materials, rows.Err()
}

// CountMaterials returns the number of stored materials.
func (s *SQLiteStorage) CountMaterials(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
