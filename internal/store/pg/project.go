package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"planhub.org/internal/pm"
)

const projectColumns = `id, name, description, created_by, company_id, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (pm.Project, error) {
	var p pm.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy,
		&p.CompanyID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return pm.Project{}, pm.ErrNotFound
	}
	if err != nil {
		return pm.Project{}, err
	}
	return p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *pm.Project) error {
	row := s.db.QueryRowContext(ctx, `
		insert into projects (id, name, description, created_by, company_id)
		values ($1, $2, $3, $4, $5)
		returning created_at, updated_at
	`, p.ID, p.Name, p.Description, p.CreatedBy, p.CompanyID)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (pm.Project, error) {
	return scanProject(s.db.QueryRowContext(ctx,
		`select `+projectColumns+` from projects where id = $1`, id))
}

func (s *Store) ListProjects(ctx context.Context, companyID string, page pm.PageRequest) ([]pm.Project, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from projects where company_id = $1`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+projectColumns+`
		from projects
		where company_id = $1
		order by id
		limit $2 offset $3
	`, companyID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []pm.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, upd pm.ProjectUpdate) (pm.Project, error) {
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
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", idx))
		args = append(args, *upd.Description)
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		query := fmt.Sprintf(`update projects set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return pm.Project{}, mapWriteError(err)
		}
		if aff, err := res.RowsAffected(); err == nil && aff == 0 {
			return pm.Project{}, pm.ErrNotFound
		}
	}
	return s.GetProject(ctx, id)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from projects where id = $1`, id)
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
