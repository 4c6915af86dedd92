// Package docstore models the destination archive document as a tree of named
// sections with append-only paragraphs, persisted in Postgres. The archival
// pipeline only ever resolves a section by exact name and appends a trailing
// paragraph; it never creates sections (a missing section is an operator
// configuration problem, not something to auto-heal).
package docstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Section is one node of the destination document tree.
type Section struct {
	ID       int64
	Name     string
	Children []*Section
}

// FindByName walks the section tree depth-first and returns the first section
// whose name matches exactly, or nil if none does.
func FindByName(roots []*Section, name string) *Section {
	for _, s := range roots {
		if s.Name == name {
			return s
		}
		if found := FindByName(s.Children, name); found != nil {
			return found
		}
	}
	return nil
}

// Store is the sink interface consumed by the archival pipeline.
type Store interface {
	// FindSection resolves a section by exact name; nil (and nil error) when absent.
	FindSection(ctx context.Context, name string) (*Section, error)
	// Append adds text as a new trailing paragraph of the section.
	Append(ctx context.Context, sec *Section, text string) error
}

// PGStore is the Postgres-backed document store.
type PGStore struct {
	DB *sql.DB
}

// LoadTree reads the full section tree, children ordered by position then id
// so DFS traversal order is stable.
func (s *PGStore) LoadTree(ctx context.Context) ([]*Section, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, COALESCE(parent_id, 0), name, position FROM sections ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	type row struct {
		id, parent int64
		name       string
		position   int
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.parent, &r.name, &r.position); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	byID := make(map[int64]*Section, len(all))
	for _, r := range all {
		byID[r.id] = &Section{ID: r.id, Name: r.name}
	}
	var roots []*Section
	for _, r := range all {
		node := byID[r.id]
		if parent, ok := byID[r.parent]; ok && r.parent != r.id {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}
	// Children were appended in query order, so siblings keep (position, id) order.
	return roots, nil
}

func (s *PGStore) FindSection(ctx context.Context, name string) (*Section, error) {
	roots, err := s.LoadTree(ctx)
	if err != nil {
		return nil, err
	}
	return FindByName(roots, name), nil
}

func (s *PGStore) Append(ctx context.Context, sec *Section, text string) error {
	if sec == nil {
		return fmt.Errorf("append: nil section")
	}
	if _, err := s.DB.ExecContext(ctx, `INSERT INTO section_paragraphs (section_id, body) VALUES ($1,$2)`, sec.ID, text); err != nil {
		return fmt.Errorf("append paragraph to section %q: %w", sec.Name, err)
	}
	return nil
}
