package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
)

type SchedulerRepository struct {
	db *sql.DB
}

func NewSchedulerRepository(db *sql.DB) *SchedulerRepository {
	return &SchedulerRepository{db: db}
}

func (r *SchedulerRepository) CreateJob(ctx context.Context, job *domain.ScheduledJob) error {
	query := `
        INSERT INTO scheduled_jobs (id, tenant_id, property_id, job_type, run_at, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		job.ID, job.TenantID, job.PropertyID, string(job.JobType),
		job.RunAt, string(job.Status), job.CreatedAt)
	return err
}

func (r *SchedulerRepository) GetDueJobs(ctx context.Context, before time.Time) ([]*domain.ScheduledJob, error) {
	query := `
        SELECT id, tenant_id, property_id, job_type, run_at, status, created_at
        FROM scheduled_jobs
        WHERE status = 'pending' AND run_at <= ?
        ORDER BY run_at ASC
    `
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ScheduledJob
	for rows.Next() {
		var job domain.ScheduledJob
		var jobType, status string

		err := rows.Scan(&job.ID, &job.TenantID, &job.PropertyID, &jobType,
			&job.RunAt, &status, &job.CreatedAt)
		if err != nil {
			return nil, err
		}

		job.JobType = domain.JobType(jobType)
		job.Status = domain.JobStatus(status)
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

func (r *SchedulerRepository) MarkExecuted(ctx context.Context, jobID string) error {
	query := `UPDATE scheduled_jobs SET status = ? WHERE id = ?`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, string(domain.JobExecuted), jobID)
	return err
}

func (r *SchedulerRepository) CancelJobsForProperty(ctx context.Context, propertyID string) error {
	query := `UPDATE scheduled_jobs SET status = 'cancelled' WHERE property_id = ? AND status = 'pending'`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, propertyID)
	return err
}
