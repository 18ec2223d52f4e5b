package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Role is a lookup entry; the set is seeded at bootstrap and treated as
// immutable for the page's lifetime.
type Role struct {
	ID   int64
	Name string
}

type RolesStore interface {
	List(ctx context.Context) ([]Role, error)
	FindByID(ctx context.Context, id int64) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, name string) (int64, error)
}

type rolesStore struct {
	db *sql.DB
}

func NewRolesStore(db *sql.DB) RolesStore {
	return &rolesStore{db: db}
}

func (s *rolesStore) List(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *rolesStore) FindByID(ctx context.Context, id int64) (*Role, error) {
	var r Role
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM roles WHERE id=?", id).Scan(&r.ID, &r.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *rolesStore) FindByName(ctx context.Context, name string) (*Role, error) {
	var r Role
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM roles WHERE name=?", name).Scan(&r.ID, &r.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *rolesStore) Create(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO roles(name, created_at) VALUES(?, ?)", name, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
