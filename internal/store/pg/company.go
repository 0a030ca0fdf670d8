package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"planhub.org/internal/pm"
)

func (s *Store) CreateCompany(ctx context.Context, c *pm.Company) error {
	row := s.db.QueryRowContext(ctx, `
		insert into companies (id, name, domain)
		values ($1, $2, $3)
		returning created_at, updated_at
	`, c.ID, c.Name, c.Domain)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (pm.Company, error) {
	var c pm.Company
	err := s.db.QueryRowContext(ctx, `
		select id, name, domain, created_at, updated_at
		from companies
		where id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Domain, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return pm.Company{}, pm.ErrNotFound
	}
	if err != nil {
		return pm.Company{}, err
	}
	return c, nil
}

func (s *Store) ListCompanies(ctx context.Context, page pm.PageRequest) ([]pm.Company, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from companies`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, name, domain, created_at, updated_at
		from companies
		order by id
		limit $1 offset $2
	`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []pm.Company
	for rows.Next() {
		var c pm.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Domain, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) UpdateCompany(ctx context.Context, id string, upd pm.CompanyUpdate) (pm.Company, error) {
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
	if upd.Domain != nil {
		setClauses = append(setClauses, fmt.Sprintf("domain = $%d", idx))
		args = append(args, *upd.Domain)
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		query := fmt.Sprintf(`update companies set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return pm.Company{}, mapWriteError(err)
		}
		if aff, err := res.RowsAffected(); err == nil && aff == 0 {
			return pm.Company{}, pm.ErrNotFound
		}
	}
	return s.GetCompany(ctx, id)
}

func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from companies where id = $1`, id)
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
