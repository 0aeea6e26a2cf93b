// ABOUTME: Template persistence: reusable starter flow documents with markdown descriptions.
// ABOUTME: Templates are read-mostly; instantiation happens in the session layer via document cloning.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Template is a reusable starter document. Description is markdown, rendered
// to HTML at the API layer.
type Template struct {
	TemplateID  string `json:"templateId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Document    []byte `json:"document"`
	CreatedAt   string `json:"createdAt"`
}

// PutTemplate upserts a template.
func (s *Store) PutTemplate(t *Template) error {
	createdAt := t.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(timeFormat)
	}
	_, err := s.db.Exec(
		`INSERT INTO templates (template_id, name, description, document, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(template_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			document = excluded.document`,
		t.TemplateID, t.Name, t.Description, string(t.Document), createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

// GetTemplate returns a template by id, or ErrNotFound.
func (s *Store) GetTemplate(templateID string) (*Template, error) {
	var t Template
	var document string
	err := s.db.QueryRow(
		`SELECT template_id, name, description, document, created_at
		 FROM templates WHERE template_id = ?`, templateID,
	).Scan(&t.TemplateID, &t.Name, &t.Description, &document, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query template: %w", err)
	}
	t.Document = []byte(document)
	return &t, nil
}

// ListTemplates returns all templates ordered by name.
func (s *Store) ListTemplates() ([]Template, error) {
	rows, err := s.db.Query(
		`SELECT template_id, name, description, document, created_at
		 FROM templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []Template
	for rows.Next() {
		var t Template
		var document string
		if err := rows.Scan(&t.TemplateID, &t.Name, &t.Description, &document, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template row: %w", err)
		}
		t.Document = []byte(document)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// DeleteTemplate removes a template, or returns ErrNotFound.
func (s *Store) DeleteTemplate(templateID string) error {
	res, err := s.db.Exec("DELETE FROM templates WHERE template_id = ?", templateID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
