package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"planhub.org/internal/pm"
)

const taskColumns = `t.id, t.title, t.description, t.status, t.assigned_to, t.project_id, t.created_at, t.updated_at`

func scanTask(row interface{ Scan(...any) error }) (pm.Task, error) {
	var t pm.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status,
		&t.AssignedTo, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return pm.Task{}, pm.ErrNotFound
	}
	if err != nil {
		return pm.Task{}, err
	}
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, t *pm.Task) error {
	row := s.db.QueryRowContext(ctx, `
		insert into tasks (id, title, description, status, assigned_to, project_id)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, t.ID, t.Title, t.Description, t.Status, t.AssignedTo, t.ProjectID)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (pm.Task, error) {
	return scanTask(s.db.QueryRowContext(ctx,
		`select `+taskColumns+` from tasks t where t.id = $1`, id))
}

// taskQuery builds the join and where clauses shared by the count and page
// queries for a filter. The company scope goes through the parent project.
func taskQuery(filter pm.TaskFilter) (join, where string, args []any) {
	var clauses []string
	idx := 1
	if filter.CompanyID != "" {
		join = "join projects p on p.id = t.project_id"
		clauses = append(clauses, fmt.Sprintf("p.company_id = $%d", idx))
		args = append(args, filter.CompanyID)
		idx++
	}
	if filter.ProjectID != "" {
		clauses = append(clauses, fmt.Sprintf("t.project_id = $%d", idx))
		args = append(args, filter.ProjectID)
		idx++
	}
	if filter.AssignedTo != "" {
		clauses = append(clauses, fmt.Sprintf("t.assigned_to = $%d", idx))
		args = append(args, filter.AssignedTo)
		idx++
	}
	if filter.Status != nil {
		clauses = append(clauses, fmt.Sprintf("t.status = $%d", idx))
		args = append(args, *filter.Status)
	}
	if len(clauses) > 0 {
		where = "where " + strings.Join(clauses, " and ")
	}
	return join, where, args
}

func (s *Store) ListTasks(ctx context.Context, filter pm.TaskFilter, page pm.PageRequest) ([]pm.Task, int, error) {
	join, where, args := taskQuery(filter)

	var total int
	countQuery := strings.TrimSpace(fmt.Sprintf(`select count(*) from tasks t %s %s`, join, where))
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := strings.TrimSpace(fmt.Sprintf(`
		select %s from tasks t %s %s
		order by t.id
		limit $%d offset $%d
	`, taskColumns, join, where, len(args)+1, len(args)+2))
	rows, err := s.db.QueryContext(ctx, listQuery, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []pm.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) UpdateTask(ctx context.Context, id string, upd pm.TaskUpdate) (pm.Task, error) {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", idx))
		args = append(args, *upd.Title)
		idx++
	}
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", idx))
		args = append(args, *upd.Description)
		idx++
	}
	if upd.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", idx))
		args = append(args, *upd.Status)
		idx++
	}
	if upd.AssignedTo != nil {
		setClauses = append(setClauses, fmt.Sprintf("assigned_to = $%d", idx))
		args = append(args, *upd.AssignedTo)
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		query := fmt.Sprintf(`update tasks set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return pm.Task{}, mapWriteError(err)
		}
		if aff, err := res.RowsAffected(); err == nil && aff == 0 {
			return pm.Task{}, pm.ErrNotFound
		}
	}
	return s.GetTask(ctx, id)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from tasks where id = $1`, id)
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
