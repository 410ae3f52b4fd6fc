package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

// CreateModificationProposal 原子地落库一次修改提案：
// 候选版本（draft）、它的全部分配行、以及 pending 状态的修改记录。
// 任何一步失败整个提案都不存在，不会留下半截状态
func (r *Repository) CreateModificationProposal(candidate *domain.Schedule, assignments []*domain.ShiftAssignment, log *domain.ModificationLog) error {
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
	if err := tx.QueryRowContext(ctx, query, candidate.TargetMonth, candidate.Status).Scan(&candidate.ID, &candidate.GeneratedAt, &candidate.Version); err != nil {
		return err
	}

	query = `
		INSERT INTO shift_assignments (schedule_id, employee_id, date, job_type_id, work_kind, headcount_value)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for _, a := range assignments {
		a.ScheduleID = candidate.ID
		params := []any{candidate.ID, a.EmployeeID, a.Date, a.JobTypeID, a.WorkKind, a.HeadcountValue}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&a.ID); err != nil {
			return err
		}
	}

	instructions, err := json.Marshal(log.Instructions)
	if err != nil {
		return err
	}
	pins, err := json.Marshal(log.Pins)
	if err != nil {
		return err
	}
	changes, err := json.Marshal(log.Changes)
	if err != nil {
		return err
	}

	log.NewScheduleID = candidate.ID
	query = `
		INSERT INTO modification_logs (schedule_id, new_schedule_id, input_text, instructions, pins, changes, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id, status, created_at
	`
	params := []any{log.ScheduleID, log.NewScheduleID, log.InputText, instructions, pins, changes}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&log.ID, &log.Status, &log.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) GetModificationLogByID(id int64) (*domain.ModificationLog, error) {
	query := `
		SELECT schedule_id, new_schedule_id, input_text, instructions, pins, changes, status, created_at
		FROM modification_logs
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	log := &domain.ModificationLog{ID: id}
	var instructions, pins, changes []byte
	dst := []any{&log.ScheduleID, &log.NewScheduleID, &log.InputText, &instructions, &pins, &changes, &log.Status, &log.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(instructions, &log.Instructions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pins, &log.Pins); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(changes, &log.Changes); err != nil {
		return nil, err
	}

	return log, nil
}

func (r *Repository) GetModificationLogsByScheduleID(scheduleID int64) ([]*domain.ModificationLog, error) {
	query := `
		SELECT id, new_schedule_id, input_text, instructions, pins, changes, status, created_at
		FROM modification_logs
		WHERE schedule_id = $1
		ORDER BY id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*domain.ModificationLog{}
	for rows.Next() {
		log := &domain.ModificationLog{ScheduleID: scheduleID}
		var instructions, pins, changes []byte
		dst := []any{&log.ID, &log.NewScheduleID, &log.InputText, &instructions, &pins, &changes, &log.Status, &log.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(instructions, &log.Instructions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(pins, &log.Pins); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(changes, &log.Changes); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

// ApproveModificationLog 审批通过：候选版本继承被取代版本的状态与确认时间，
// 被取代的版本标记废弃。对 status 的 CAS 更新保证并发下只有一个胜者，
// 败者得到 ErrInvalidLogState
func (r *Repository) ApproveModificationLog(logID int64) (*domain.ModificationLog, error) {
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
		SELECT schedule_id, new_schedule_id, status FROM modification_logs WHERE id = $1 FOR UPDATE
	`
	log := &domain.ModificationLog{ID: logID}
	if err := tx.QueryRowContext(ctx, query, logID).Scan(&log.ScheduleID, &log.NewScheduleID, &log.Status); err != nil {
		return nil, err
	}

	// 源版本也要加锁检查：若已被先批准的提案取代，后来的提案不能再继承
	// 它的状态，否则同一月份会出现两个未废弃的已确认版本
	query = `SELECT discarded FROM schedules WHERE id = $1 FOR UPDATE`
	var sourceDiscarded bool
	if err := tx.QueryRowContext(ctx, query, log.ScheduleID).Scan(&sourceDiscarded); err != nil {
		return nil, err
	}
	if !domain.CanAdopt(log.Status, sourceDiscarded) {
		return nil, domain.ErrInvalidLogState
	}

	// 候选版本继承被取代版本当时的状态：preview 的修改结果仍是 preview
	query = `
		UPDATE schedules c
		SET status = s.status, confirmed_at = s.confirmed_at
		FROM schedules s
		WHERE c.id = $1 AND s.id = $2
	`
	if _, err := tx.ExecContext(ctx, query, log.NewScheduleID, log.ScheduleID); err != nil {
		return nil, err
	}

	query = `UPDATE schedules SET discarded = TRUE WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, log.ScheduleID); err != nil {
		return nil, err
	}

	query = `UPDATE modification_logs SET status = 'approved' WHERE id = $1 AND status = 'pending'`
	result, err := tx.ExecContext(ctx, query, logID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrInvalidLogState
	}
	log.Status = domain.ModificationApproved

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return log, nil
}

// RejectModificationLog 驳回提案：候选版本标记废弃（保留审计），记录进入终态
func (r *Repository) RejectModificationLog(logID int64) (*domain.ModificationLog, error) {
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
		SELECT schedule_id, new_schedule_id, status FROM modification_logs WHERE id = $1 FOR UPDATE
	`
	log := &domain.ModificationLog{ID: logID}
	if err := tx.QueryRowContext(ctx, query, logID).Scan(&log.ScheduleID, &log.NewScheduleID, &log.Status); err != nil {
		return nil, err
	}
	if log.Status.Terminal() {
		return nil, domain.ErrInvalidLogState
	}

	query = `UPDATE schedules SET discarded = TRUE WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, log.NewScheduleID); err != nil {
		return nil, err
	}

	query = `UPDATE modification_logs SET status = 'rejected' WHERE id = $1 AND status = 'pending'`
	result, err := tx.ExecContext(ctx, query, logID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrInvalidLogState
	}
	log.Status = domain.ModificationRejected

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return log, nil
}
