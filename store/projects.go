// ABOUTME: Project persistence: saved flow documents with names and timestamps.
// ABOUTME: Upsert on save; list queries return summaries without document bodies.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ProjectSummary is a project row without its document body, for list queries.
type ProjectSummary struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Project is a full project row including the serialized flow document.
type Project struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Document  []byte `json:"document"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// SaveProject upserts a project. The created_at of an existing row is kept.
func (s *Store) SaveProject(projectID, name string, document []byte) error {
	now := time.Now().UTC().Format(timeFormat)
	_, err := s.db.Exec(
		`INSERT INTO projects (project_id, name, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		projectID, name, string(document), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// GetProject returns a project by id, or ErrNotFound.
func (s *Store) GetProject(projectID string) (*Project, error) {
	var p Project
	var document string
	err := s.db.QueryRow(
		`SELECT project_id, name, document, created_at, updated_at
		 FROM projects WHERE project_id = ?`, projectID,
	).Scan(&p.ProjectID, &p.Name, &document, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}
	p.Document = []byte(document)
	return &p, nil
}

// ListProjects returns all projects as summaries, most recently updated first.
func (s *Store) ListProjects() ([]ProjectSummary, error) {
	rows, err := s.db.Query(
		`SELECT project_id, name, created_at, updated_at
		 FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []ProjectSummary
	for rows.Next() {
		var p ProjectSummary
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// RenameProject updates a project's name, or returns ErrNotFound.
func (s *Store) RenameProject(projectID, name string) error {
	res, err := s.db.Exec(
		"UPDATE projects SET name = ?, updated_at = ? WHERE project_id = ?",
		name, time.Now().UTC().Format(timeFormat), projectID)
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project, or returns ErrNotFound.
func (s *Store) DeleteProject(projectID string) error {
	res, err := s.db.Exec("DELETE FROM projects WHERE project_id = ?", projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
