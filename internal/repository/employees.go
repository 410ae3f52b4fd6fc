package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

func (r *Repository) GetAllEmployees() ([]*domain.Employee, error) {
	query := `
		SELECT
			e.id,
			e.name,
			e.email,
			e.employment_type,
			e.sort_order,
			ejt.job_type_id,
			e.created_at,
			e.version
		FROM employees e
		LEFT JOIN employee_job_types ejt ON e.id = ejt.employee_id
		ORDER BY e.sort_order, e.id, ejt.job_type_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []*domain.Employee{}
	byID := make(map[int64]*domain.Employee)

	for rows.Next() {
		var row struct {
			id             int64
			name           string
			email          string
			employmentType string
			sortOrder      int32
			jobTypeID      sql.NullInt64
			createdAt      time.Time
			version        int32
		}

		dst := []any{
			&row.id,
			&row.name,
			&row.email,
			&row.employmentType,
			&row.sortOrder,
			&row.jobTypeID,
			&row.createdAt,
			&row.version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		emp, exists := byID[row.id]
		if !exists {
			emp = &domain.Employee{
				ID:             row.id,
				Name:           row.name,
				Email:          row.email,
				EmploymentType: domain.EmploymentType(row.employmentType),
				SortOrder:      row.sortOrder,
				JobTypeIDs:     []int64{},
				CreatedAt:      row.createdAt,
				Version:        row.version,
			}
			byID[row.id] = emp
			employees = append(employees, emp)
		}

		if row.jobTypeID.Valid {
			emp.JobTypeIDs = append(emp.JobTypeIDs, row.jobTypeID.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (r *Repository) GetEmployeeByID(id int64) (*domain.Employee, error) {
	query := `
		SELECT
			e.name,
			e.email,
			e.employment_type,
			e.sort_order,
			ejt.job_type_id,
			e.created_at,
			e.version
		FROM employees e
		LEFT JOIN employee_job_types ejt ON e.id = ejt.employee_id
		WHERE e.id = $1
		ORDER BY ejt.job_type_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emp := &domain.Employee{ID: id, JobTypeIDs: []int64{}}
	found := false

	for rows.Next() {
		var jobTypeID sql.NullInt64
		var employmentType string
		dst := []any{
			&emp.Name,
			&emp.Email,
			&employmentType,
			&emp.SortOrder,
			&jobTypeID,
			&emp.CreatedAt,
			&emp.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		found = true
		emp.EmploymentType = domain.EmploymentType(employmentType)
		if jobTypeID.Valid {
			emp.JobTypeIDs = append(emp.JobTypeIDs, jobTypeID.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, sql.ErrNoRows
	}

	return emp, nil
}

func (r *Repository) CreateEmployee(emp *domain.Employee) error {
	query := `
		INSERT INTO employees (name, email, employment_type, sort_order)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM employees))
		RETURNING id, sort_order, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{emp.Name, emp.Email, emp.EmploymentType}
	dst := []any{&emp.ID, &emp.SortOrder, &emp.CreatedAt, &emp.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateEmployee(emp *domain.Employee) error {
	query := `
		UPDATE employees
		SET
			name = $1,
			email = $2,
			employment_type = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{emp.Name, emp.Email, emp.EmploymentType, emp.ID, emp.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&emp.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteEmployee(id int64) error {
	query := `
		DELETE FROM employees WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

// UpdateEmployeeJobTypes 整体替换员工的可胜任工种
func (r *Repository) UpdateEmployeeJobTypes(employeeID int64, jobTypeIDs []int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `DELETE FROM employee_job_types WHERE employee_id = $1`
	if _, err := tx.ExecContext(ctx, query, employeeID); err != nil {
		return err
	}

	query = `INSERT INTO employee_job_types (employee_id, job_type_id) VALUES ($1, $2)`
	for _, jobTypeID := range jobTypeIDs {
		if _, err := tx.ExecContext(ctx, query, employeeID, jobTypeID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReorderEmployees 按传入顺序重写 sort_order
func (r *Repository) ReorderEmployees(employeeIDs []int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE employees SET sort_order = $1 WHERE id = $2`
	for i, id := range employeeIDs {
		if _, err := tx.ExecContext(ctx, query, i+1, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}
