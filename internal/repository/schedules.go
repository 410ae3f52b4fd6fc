package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

// InsertSchedule 在一个事务内写入版本与整月分配行。
// 版本表是只追加的：旧版本从不删除，只会被置为 discarded
func (r *Repository) InsertSchedule(schedule *domain.Schedule, assignments []*domain.ShiftAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO schedules (target_month, status)
		VALUES ($1, $2)
		RETURNING id, generated_at, version
	`
	if err := tx.QueryRowContext(ctx, query, schedule.TargetMonth, schedule.Status).Scan(&schedule.ID, &schedule.GeneratedAt, &schedule.Version); err != nil {
		return err
	}

	query = `
		INSERT INTO shift_assignments (schedule_id, employee_id, date, job_type_id, work_kind, headcount_value)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for _, a := range assignments {
		a.ScheduleID = schedule.ID
		params := []any{schedule.ID, a.EmployeeID, a.Date, a.JobTypeID, a.WorkKind, a.HeadcountValue}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&a.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetSchedulesByMonth(month string) ([]*domain.Schedule, error) {
	query := `
		SELECT id, target_month, status, discarded, generated_at, confirmed_at, version
		FROM schedules
		WHERE ($1 = '' OR target_month = $1)
		ORDER BY id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []*domain.Schedule{}
	for rows.Next() {
		var s domain.Schedule
		var confirmedAt sql.NullTime
		dst := []any{&s.ID, &s.TargetMonth, &s.Status, &s.Discarded, &s.GeneratedAt, &confirmedAt, &s.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if confirmedAt.Valid {
			s.ConfirmedAt = &confirmedAt.Time
		}
		schedules = append(schedules, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return schedules, nil
}

func (r *Repository) GetScheduleByID(id int64) (*domain.Schedule, error) {
	query := `
		SELECT target_month, status, discarded, generated_at, confirmed_at, version
		FROM schedules
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	schedule := &domain.Schedule{ID: id}
	var confirmedAt sql.NullTime
	dst := []any{&schedule.TargetMonth, &schedule.Status, &schedule.Discarded, &schedule.GeneratedAt, &confirmedAt, &schedule.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		schedule.ConfirmedAt = &confirmedAt.Time
	}

	return schedule, nil
}

// GetLatestScheduleByMonth 返回该月份最新的未废弃版本
func (r *Repository) GetLatestScheduleByMonth(month string) (*domain.Schedule, error) {
	query := `
		SELECT id, status, discarded, generated_at, confirmed_at, version
		FROM schedules
		WHERE target_month = $1 AND NOT discarded
		ORDER BY id DESC
		LIMIT 1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	schedule := &domain.Schedule{TargetMonth: month}
	var confirmedAt sql.NullTime
	dst := []any{&schedule.ID, &schedule.Status, &schedule.Discarded, &schedule.GeneratedAt, &confirmedAt, &schedule.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, month).Scan(dst...); err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		schedule.ConfirmedAt = &confirmedAt.Time
	}

	return schedule, nil
}

func (r *Repository) GetAssignmentsByScheduleID(scheduleID int64) ([]*domain.ShiftAssignment, error) {
	query := `
		SELECT
			a.id,
			a.employee_id,
			e.name,
			a.date,
			a.job_type_id,
			jt.name,
			jt.color,
			a.work_kind,
			a.headcount_value
		FROM shift_assignments a
		JOIN employees e ON e.id = a.employee_id
		LEFT JOIN job_types jt ON jt.id = a.job_type_id
		WHERE a.schedule_id = $1
		ORDER BY e.sort_order, a.employee_id, a.date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []*domain.ShiftAssignment{}
	for rows.Next() {
		a := &domain.ShiftAssignment{ScheduleID: scheduleID}
		var jobTypeID sql.NullInt64
		var jobTypeName, jobTypeColor sql.NullString
		dst := []any{
			&a.ID,
			&a.EmployeeID,
			&a.EmployeeName,
			&a.Date,
			&jobTypeID,
			&jobTypeName,
			&jobTypeColor,
			&a.WorkKind,
			&a.HeadcountValue,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if jobTypeID.Valid {
			a.JobTypeID = &jobTypeID.Int64
		}
		if jobTypeName.Valid {
			a.JobTypeName = &jobTypeName.String
		}
		if jobTypeColor.Valid {
			a.JobTypeColor = &jobTypeColor.String
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// UpdateAssignments 在同一事务内对版本加行锁后逐格覆写，
// 保证同一版本上的手工修改相互串行
func (r *Repository) UpdateAssignments(scheduleID int64, edits []*domain.ShiftAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT id FROM schedules WHERE id = $1 FOR UPDATE`
	var lockedID int64
	if err := tx.QueryRowContext(ctx, query, scheduleID).Scan(&lockedID); err != nil {
		return err
	}

	query = `
		UPDATE shift_assignments
		SET job_type_id = $1, work_kind = $2, headcount_value = $3
		WHERE schedule_id = $4 AND employee_id = $5 AND date = $6
	`
	for _, edit := range edits {
		params := []any{edit.JobTypeID, edit.WorkKind, edit.HeadcountValue, scheduleID, edit.EmployeeID, edit.Date}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// TransitionScheduleStatus 沿 draft/preview -> confirmed -> published 推进版本状态。
// 确认一个新版本时，同月份其他已确认/已发布的版本被标记为废弃（保留审计）
func (r *Repository) TransitionScheduleStatus(scheduleID int64, target domain.ScheduleStatus) (*domain.Schedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT target_month, status, discarded FROM schedules WHERE id = $1 FOR UPDATE
	`
	schedule := &domain.Schedule{ID: scheduleID}
	if err := tx.QueryRowContext(ctx, query, scheduleID).Scan(&schedule.TargetMonth, &schedule.Status, &schedule.Discarded); err != nil {
		return nil, err
	}

	if schedule.Discarded || !schedule.Status.CanTransitionTo(target) {
		return nil, domain.ErrInvalidTransition
	}

	if target == domain.StatusConfirmed {
		query = `
			UPDATE schedules
			SET discarded = TRUE
			WHERE target_month = $1 AND id <> $2 AND status IN ('confirmed', 'published') AND NOT discarded
		`
		if _, err := tx.ExecContext(ctx, query, schedule.TargetMonth, scheduleID); err != nil {
			return nil, err
		}

		query = `
			UPDATE schedules
			SET status = $1, confirmed_at = NOW(), version = version + 1
			WHERE id = $2
			RETURNING status, confirmed_at, version
		`
	} else {
		query = `
			UPDATE schedules
			SET status = $1, version = version + 1
			WHERE id = $2
			RETURNING status, confirmed_at, version
		`
	}

	var confirmedAt sql.NullTime
	if err := tx.QueryRowContext(ctx, query, target, scheduleID).Scan(&schedule.Status, &confirmedAt, &schedule.Version); err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		schedule.ConfirmedAt = &confirmedAt.Time
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return schedule, nil
}
