package repository

import (
	"context"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

func (r *Repository) GetAllJobTypes() ([]*domain.JobType, error) {
	query := `
		SELECT id, name, color FROM job_types ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobTypes := []*domain.JobType{}
	for rows.Next() {
		var jt domain.JobType
		if err := rows.Scan(&jt.ID, &jt.Name, &jt.Color); err != nil {
			return nil, err
		}
		jobTypes = append(jobTypes, &jt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobTypes, nil
}

func (r *Repository) CreateJobType(jt *domain.JobType) error {
	query := `
		INSERT INTO job_types (name, color) VALUES ($1, $2) RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, jt.Name, jt.Color).Scan(&jt.ID); err != nil {
		return err
	}

	return nil
}
