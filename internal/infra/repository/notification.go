package repository

import (
	"context"
	"time"

	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createNotificationJob = `
INSERT INTO notification_jobs (kind, topic, payload, run_at, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $4, $4)`

// SKIP LOCKED lets concurrent dispatchers claim disjoint batches.
const claimDueNotificationJobs = `
UPDATE notification_jobs
SET attempts = attempts + 1, run_at = $2, updated_at = $1
WHERE id IN (
    SELECT id FROM notification_jobs
    WHERE status = 'queued' AND run_at <= $1
    ORDER BY run_at, id
    LIMIT $3
    FOR UPDATE SKIP LOCKED
)
RETURNING id, kind, topic, payload, attempts, status, last_error, run_at, created_at, updated_at`

const markNotificationJobSent = `
UPDATE notification_jobs SET status = 'sent', last_error = NULL, updated_at = $2 WHERE id = $1`

const rescheduleNotificationJob = `
UPDATE notification_jobs SET run_at = $2, last_error = $3, updated_at = now() WHERE id = $1`

const markNotificationJobFailed = `
UPDATE notification_jobs SET status = 'failed', last_error = $2, updated_at = $3 WHERE id = $1`

const purgeSentNotificationJobs = `
DELETE FROM notification_jobs WHERE status = 'sent' AND updated_at < $1`

type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(dbtx db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: dbtx}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := r.db.Exec(ctx, createNotificationJob, kind, topic, payload, pgconv.TimeToPgtype(runAt), shared.JobStatusQueued)
	if err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}

func (r *NotificationRepository) ClaimDue(ctx context.Context, now, leaseUntil time.Time, limit int) ([]shared.NotificationJob, error) {
	rows, err := r.db.Query(ctx, claimDueNotificationJobs, pgconv.TimeToPgtype(now), pgconv.TimeToPgtype(leaseUntil), limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim notification jobs", err)
	}
	jobs, err := pgx.CollectRows(rows, scanNotificationJob)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan notification jobs", err)
	}
	return jobs, nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, "failed to mark notification job sent", markNotificationJobSent, pgconv.UUIDToPgtype(id), pgconv.TimeToPgtype(at))
}

func (r *NotificationRepository) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastErr string) error {
	return r.exec(ctx, "failed to reschedule notification job", rescheduleNotificationJob, pgconv.UUIDToPgtype(id), pgconv.TimeToPgtype(runAt), lastErr)
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, at time.Time) error {
	return r.exec(ctx, "failed to mark notification job failed", markNotificationJobFailed, pgconv.UUIDToPgtype(id), lastErr, pgconv.TimeToPgtype(at))
}

func (r *NotificationRepository) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, purgeSentNotificationJobs, pgconv.TimeToPgtype(before))
	if err != nil {
		return 0, infra.WrapRepoErr("failed to purge notification jobs", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) exec(ctx context.Context, msg, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr(msg, err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "notification job not found")
	}
	return nil
}

func scanNotificationJob(row pgx.CollectableRow) (shared.NotificationJob, error) {
	var (
		j         shared.NotificationJob
		id        pgtype.UUID
		lastError pgtype.Text
		runAt     pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &j.Kind, &j.Topic, &j.Payload, &j.Attempts, &j.Status, &lastError, &runAt, &createdAt, &updatedAt); err != nil {
		return shared.NotificationJob{}, err
	}
	j.ID = pgconv.UUIDFromPgtype(id)
	j.LastError = pgconv.StringPtrFromPgtype(lastError)
	j.RunAt = runAt.Time.UTC()
	j.CreatedAt = createdAt.Time.UTC()
	j.UpdatedAt = updatedAt.Time.UTC()
	return j, nil
}
