package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"planhub.org/internal/pm"
)

const userColumns = `id, name, email, password_hash, role, company_id, refresh_token, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (pm.User, error) {
	var u pm.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.CompanyID, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return pm.User{}, pm.ErrNotFound
	}
	if err != nil {
		return pm.User{}, err
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *pm.User) error {
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, name, email, password_hash, role, company_id, refresh_token)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CompanyID, u.RefreshToken)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (pm.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (pm.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email))
}

func (s *Store) ListUsers(ctx context.Context, companyID string, page pm.PageRequest) ([]pm.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from users where company_id = $1`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+`
		from users
		where company_id = $1
		order by id
		limit $2 offset $3
	`, companyID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []pm.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd pm.UserUpdate) (pm.User, error) {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", idx))
		args = append(args, *upd.Email)
		idx++
	}
	if upd.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", idx))
		args = append(args, *upd.Role)
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return pm.User{}, mapWriteError(err)
		}
		if aff, err := res.RowsAffected(); err == nil && aff == 0 {
			return pm.User{}, pm.ErrNotFound
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Store) SetRefreshToken(ctx context.Context, userID, token string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set refresh_token = $1, updated_at = now() where id = $2
	`, token, userID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return pm.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return pm.ErrNotFound
	}
	return nil
}
