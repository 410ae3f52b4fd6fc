package repository

import (
	"context"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

func (r *Repository) GetRequirementsByDateRange(start, end time.Time) ([]*domain.DailyRequirement, error) {
	query := `
		SELECT
			dr.id,
			dr.date,
			dr.job_type_id,
			jt.name,
			dr.required_count
		FROM daily_requirements dr
		JOIN job_types jt ON jt.id = dr.job_type_id
		WHERE dr.date >= $1 AND dr.date <= $2
		ORDER BY dr.date, dr.job_type_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requirements := []*domain.DailyRequirement{}
	for rows.Next() {
		var req domain.DailyRequirement
		dst := []any{&req.ID, &req.Date, &req.JobTypeID, &req.JobTypeName, &req.RequiredCount}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		requirements = append(requirements, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requirements, nil
}

// UpsertRequirements 批量写入需求表，同一 (日期, 工种) 只保留最新值
func (r *Repository) UpsertRequirements(items []*domain.DailyRequirement) error {
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
		INSERT INTO daily_requirements (date, job_type_id, required_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (date, job_type_id) DO UPDATE SET required_count = EXCLUDED.required_count
		RETURNING id
	`
	for _, item := range items {
		if err := tx.QueryRowContext(ctx, query, item.Date, item.JobTypeID, item.RequiredCount).Scan(&item.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
