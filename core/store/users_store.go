package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StateNormal = 1
	StateLocked = 2
)

// User is the stored account record. Desc maps to the desc_text column
// ("desc" is reserved in SQL).
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	Email        string
	Mobile       string
	QQ           string
	WeChat       string
	Desc         string
	RoleID       *int64
	State        int
	AuthType     int
	PasswordHash string
	PasswordSalt string
	LockedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserFilter struct {
	Search string
	RoleID *int64
	State  *int
}

type ListParams struct {
	Filter   UserFilter
	OrderKey string
	OrderAsc bool
	Offset   int
	Limit    int
}

type UsersStore interface {
	ListPage(ctx context.Context, p ListParams) ([]User, int, error)
	Get(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) (int64, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, hash, salt string) error
	SetState(ctx context.Context, ids []int64, state int) (int64, error)
	SetRole(ctx context.Context, ids []int64, roleID int64) (int64, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
	UnlockLockedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, username, display_name, email, mobile, qq, wechat, desc_text,
	role_id, state, auth_type, password_hash, password_salt, locked_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.Mobile, &u.QQ, &u.WeChat,
		&u.Desc, &u.RoleID, &u.State, &u.AuthType, &u.PasswordHash, &u.PasswordSalt,
		&u.LockedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var orderKeys = map[string]string{
	"id":       "id",
	"username": "username",
	"role_id":  "role_id",
	"state":    "state",
}

func buildUserWhere(f UserFilter) (string, []any) {
	var clauses []string
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		clauses = append(clauses,
			"(username LIKE ? OR display_name LIKE ? OR email LIKE ? OR desc_text LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if f.RoleID != nil {
		clauses = append(clauses, "role_id = ?")
		args = append(args, *f.RoleID)
	}
	if f.State != nil {
		clauses = append(clauses, "state = ?")
		args = append(args, *f.State)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *usersStore) ListPage(ctx context.Context, p ListParams) ([]User, int, error) {
	where, args := buildUserWhere(p.Filter)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	order := "username"
	if col, ok := orderKeys[p.OrderKey]; ok {
		order = col
	}
	dir := "ASC"
	if !p.OrderAsc {
		dir = "DESC"
	}
	q := "SELECT " + userColumns + " FROM users" + where +
		fmt.Sprintf(" ORDER BY %s %s, id ASC", order, dir)
	qargs := args
	if p.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		qargs = append(append([]any{}, args...), p.Limit, p.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, qargs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

func (s *usersStore) Get(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (s *usersStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? COLLATE NOCASE", username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (s *usersStore) Create(ctx context.Context, u *User) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users(username, display_name, email, mobile, qq, wechat, desc_text,
			role_id, state, auth_type, password_hash, password_salt, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.DisplayName, u.Email, u.Mobile, u.QQ, u.WeChat, u.Desc,
		u.RoleID, u.State, u.AuthType, u.PasswordHash, u.PasswordSalt, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *usersStore) Update(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET username=?, display_name=?, email=?, mobile=?, qq=?, wechat=?, desc_text=?,
			role_id=?, auth_type=?, updated_at=?
		WHERE id=?`,
		u.Username, u.DisplayName, u.Email, u.Mobile, u.QQ, u.WeChat, u.Desc,
		u.RoleID, u.AuthType, time.Now().UTC(), u.ID)
	return err
}

func (s *usersStore) UpdatePassword(ctx context.Context, id int64, hash, salt string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash=?, password_salt=?, updated_at=? WHERE id=?",
		hash, salt, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func idPlaceholders(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ","), args
}

func (s *usersStore) SetState(ctx context.Context, ids []int64, state int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	marks, args := idPlaceholders(ids)
	now := time.Now().UTC()
	var lockedAt any
	if state == StateLocked {
		lockedAt = now
	}
	args = append([]any{state, lockedAt, now}, args...)
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET state=?, locked_at=?, updated_at=? WHERE id IN ("+marks+")", args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *usersStore) SetRole(ctx context.Context, ids []int64, roleID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	marks, args := idPlaceholders(ids)
	args = append([]any{roleID, time.Now().UTC()}, args...)
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET role_id=?, updated_at=? WHERE id IN ("+marks+")", args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *usersStore) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	marks, args := idPlaceholders(ids)
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id IN ("+marks+")", args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnlockLockedBefore restores to normal every account locked earlier than
// the cutoff. The maintenance scheduler drives this for deployments with a
// lock expiry configured.
func (s *usersStore) UnlockLockedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET state=?, locked_at=NULL, updated_at=?
		WHERE state=? AND locked_at IS NOT NULL AND locked_at < ?`,
		StateNormal, time.Now().UTC(), StateLocked, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
