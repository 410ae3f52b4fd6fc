package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

// UpsertShiftRequest 整体替换某员工某月份的出勤意向（含休假明细）
func (r *Repository) UpsertShiftRequest(req *domain.ShiftRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `DELETE FROM shift_requests WHERE employee_id = $1 AND target_month = $2`
	if _, err := tx.ExecContext(ctx, query, req.EmployeeID, req.TargetMonth); err != nil {
		return err
	}

	query = `
		INSERT INTO shift_requests (employee_id, target_month, requested_work_days, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	params := []any{req.EmployeeID, req.TargetMonth, req.RequestedWorkDays, req.Note}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&req.ID, &req.CreatedAt, &req.Version); err != nil {
		return err
	}

	query = `
		INSERT INTO shift_request_days_off (shift_request_id, date, period)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	for i := range req.DaysOff {
		d := &req.DaysOff[i]
		if err := tx.QueryRowContext(ctx, query, req.ID, d.Date, d.Period).Scan(&d.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetShiftRequestsByMonth(month string) ([]*domain.ShiftRequest, error) {
	query := `
		SELECT
			sr.id,
			sr.employee_id,
			e.name,
			sr.requested_work_days,
			sr.note,
			d.id,
			d.date,
			d.period,
			sr.created_at,
			sr.version
		FROM shift_requests sr
		JOIN employees e ON e.id = sr.employee_id
		LEFT JOIN shift_request_days_off d ON sr.id = d.shift_request_id
		WHERE sr.target_month = $1
		ORDER BY e.sort_order, sr.employee_id, d.date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*domain.ShiftRequest{}
	byID := make(map[int64]*domain.ShiftRequest)

	for rows.Next() {
		var row struct {
			id                int64
			employeeID        int64
			employeeName      string
			requestedWorkDays sql.NullString
			note              sql.NullString
			dayOffID          sql.NullInt64
			dayOffDate        sql.NullTime
			dayOffPeriod      sql.NullString
			createdAt         time.Time
			version           int32
		}

		dst := []any{
			&row.id,
			&row.employeeID,
			&row.employeeName,
			&row.requestedWorkDays,
			&row.note,
			&row.dayOffID,
			&row.dayOffDate,
			&row.dayOffPeriod,
			&row.createdAt,
			&row.version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		req, exists := byID[row.id]
		if !exists {
			req = &domain.ShiftRequest{
				ID:           row.id,
				EmployeeID:   row.employeeID,
				EmployeeName: row.employeeName,
				TargetMonth:  month,
				Note:         row.note.String,
				DaysOff:      []domain.DayOff{},
				CreatedAt:    row.createdAt,
				Version:      row.version,
			}
			if row.requestedWorkDays.Valid {
				requested := row.requestedWorkDays.String
				req.RequestedWorkDays = &requested
			}
			byID[row.id] = req
			requests = append(requests, req)
		}

		if row.dayOffID.Valid {
			req.DaysOff = append(req.DaysOff, domain.DayOff{
				ID:     row.dayOffID.Int64,
				Date:   row.dayOffDate.Time,
				Period: domain.DayOffPeriod(row.dayOffPeriod.String),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}
