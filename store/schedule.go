package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"helpline-scheduler/columns"
	scherr "helpline-scheduler/errors"
	"helpline-scheduler/metrics"
	"helpline-scheduler/models"
)

// Employees returns every employee. Records with an empty name cannot be
// keyed and are skipped, not fatal.
func (s *Store) Employees(ctx context.Context) ([]models.Employee, error) {
	return s.employees(ctx, "")
}

// Schedule returns the employees (optionally filtered by department) plus
// every shift cell, the shape the grid model composes from.
func (s *Store) Schedule(ctx context.Context, department string) ([]models.Employee, []models.ShiftCell, error) {
	employees, err := s.employees(ctx, department)
	if err != nil {
		return nil, nil, err
	}
	cells, err := s.ShiftCells(ctx)
	if err != nil {
		return nil, nil, err
	}
	return employees, cells, nil
}

func (s *Store) employees(ctx context.Context, department string) ([]models.Employee, error) {
	query := `SELECT id, name, display_name, position, supervisor, department FROM employees`
	var args []any
	if department != "" {
		query += ` WHERE department = ? COLLATE NOCASE`
		args = append(args, department)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var emp models.Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.DisplayName, &emp.Position, &emp.Supervisor, &emp.Department); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		if strings.TrimSpace(emp.Name) == "" {
			s.log.Warn("skipping employee record with no name", "id", emp.ID)
			metrics.MalformedRecordsTotal.WithLabelValues("employee").Inc()
			continue
		}
		if emp.DisplayName == "" {
			emp.DisplayName = models.DeriveDisplayName(emp.Name)
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// CreateEmployee inserts a new employee, deriving the display name from
// the raw one.
func (s *Store) CreateEmployee(ctx context.Context, emp models.Employee) (models.Employee, error) {
	if strings.TrimSpace(emp.Name) == "" {
		return models.Employee{}, fmt.Errorf("employee name is required")
	}
	emp.DisplayName = models.DeriveDisplayName(emp.Name)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (name, display_name, position, supervisor, department) VALUES (?, ?, ?, ?, ?)`,
		emp.Name, emp.DisplayName, emp.Position, emp.Supervisor, emp.Department,
	)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to insert employee: %w", err)
	}
	emp.ID, err = res.LastInsertId()
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to read employee id: %w", err)
	}
	return emp, nil
}

// DeleteEmployee removes the employee and cascades to their shift cells
// and tasks in one transaction.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scherr.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_cells WHERE employee_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete shift cells: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE employee_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	return tx.Commit()
}

// ShiftCells returns every stored cell. Cell values are raw notation; the
// store does not interpret them.
func (s *Store) ShiftCells(ctx context.Context) ([]models.ShiftCell, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id, column_key, value FROM shift_cells ORDER BY employee_id, column_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift cells: %w", err)
	}
	defer rows.Close()

	var out []models.ShiftCell
	for rows.Next() {
		var c models.ShiftCell
		if err := rows.Scan(&c.EmployeeID, &c.ColumnKey, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan shift cell: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateShiftCell stores one cell's raw value; empty deletes the cell.
// The column must exist in the column metadata.
func (s *Store) UpdateShiftCell(ctx context.Context, employeeID int64, columnKey, raw string) error {
	columnKey = strings.ToLower(strings.TrimSpace(columnKey))
	known, err := s.columnExists(ctx, columnKey)
	if err != nil {
		return err
	}
	if !known {
		return scherr.ErrUnknownColumn
	}

	if raw == "" {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM shift_cells WHERE employee_id = ? AND column_key = ?`, employeeID, columnKey)
		if err != nil {
			return fmt.Errorf("failed to delete shift cell: %w", err)
		}
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shift_cells (employee_id, column_key, value) VALUES (?, ?, ?)
		ON CONFLICT (employee_id, column_key) DO UPDATE SET value = excluded.value`,
		employeeID, columnKey, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert shift cell: %w", err)
	}
	return nil
}

func (s *Store) columnExists(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM day_columns WHERE key = ?`, key).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check day column: %w", err)
	default:
		return true, nil
	}
}

// Tasks returns every task overlay.
func (s *Store) Tasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, task_name, day_of_week, start_time, end_time, required_skill FROM tasks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.EmployeeID, &t.Name, &t.DayOfWeek, &t.StartTime, &t.EndTime, &t.RequiredSkill); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTask stores a new overlay bound to one employee and weekday.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	day := strings.ToLower(strings.TrimSpace(t.DayOfWeek))
	if !columns.IsValidKey(day) {
		return models.Task{}, scherr.ErrUnknownDay
	}
	t.DayOfWeek = day
	t.ID = uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, employee_id, task_name, day_of_week, start_time, end_time, required_skill) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.EmployeeID, t.Name, t.DayOfWeek, t.StartTime, t.EndTime, t.RequiredSkill,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return t, nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scherr.ErrNotFound
	}
	return nil
}

// DayColumns returns the column metadata ordered by sort order.
func (s *Store) DayColumns(ctx context.Context) ([]models.DayColumn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, display_name, subtitle, visible, sort_order FROM day_columns ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to query day columns: %w", err)
	}
	defer rows.Close()

	var out []models.DayColumn
	for rows.Next() {
		var c models.DayColumn
		if err := rows.Scan(&c.Key, &c.DisplayName, &c.Subtitle, &c.Visible, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan day column: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PatchColumns applies partial updates to column metadata and returns the
// full updated list. Unknown keys fail the whole batch.
func (s *Store) PatchColumns(ctx context.Context, patches []columns.Patch) ([]models.DayColumn, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range patches {
		key := strings.ToLower(strings.TrimSpace(p.Key))
		var col models.DayColumn
		err := tx.QueryRowContext(ctx,
			`SELECT key, display_name, subtitle, visible, sort_order FROM day_columns WHERE key = ?`, key,
		).Scan(&col.Key, &col.DisplayName, &col.Subtitle, &col.Visible, &col.SortOrder)
		if err == sql.ErrNoRows {
			return nil, scherr.ErrUnknownColumn
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read day column %s: %w", key, err)
		}

		col = columns.Apply(col, p)
		_, err = tx.ExecContext(ctx,
			`UPDATE day_columns SET display_name = ?, subtitle = ?, visible = ?, sort_order = ? WHERE key = ?`,
			col.DisplayName, col.Subtitle, col.Visible, col.SortOrder, key,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update day column %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit column patches: %w", err)
	}
	return s.DayColumns(ctx)
}

// ClearColumn wipes every cell in the column and hides it. The wipe is
// destructive; plain hiding goes through PatchColumns and keeps cells.
func (s *Store) ClearColumn(ctx context.Context, key string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE day_columns SET visible = 0 WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to hide day column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scherr.ErrUnknownColumn
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_cells WHERE column_key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear shift cells: %w", err)
	}
	return tx.Commit()
}

// RestoreColumn makes a hidden column visible again. Cells hidden (not
// cleared) with it come back untouched.
func (s *Store) RestoreColumn(ctx context.Context, key string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	res, err := s.db.ExecContext(ctx, `UPDATE day_columns SET visible = 1 WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to restore day column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scherr.ErrUnknownColumn
	}
	return nil
}
