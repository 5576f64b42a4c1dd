package memstore

import (
	"context"
	"sort"
	"time"

	"villa-booking/internal/infra"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

// ClaimDue leases up to limit queued jobs whose run_at has passed. Claimed jobs have
// their attempt counter bumped and run_at moved to leaseUntil, so a crashed worker
// releases them once the lease expires.
func (s *Store) ClaimDue(_ context.Context, now, leaseUntil time.Time, limit int) ([]shared.NotificationJob, error) {
	var claimed []shared.NotificationJob
	err := s.update(func(st *state) error {
		st.own(tableJobs)
		for _, j := range sortedJobs(st.jobs) {
			if len(claimed) >= limit {
				break
			}
			if j.Status != shared.JobStatusQueued || j.RunAt.After(now) {
				continue
			}
			j.Attempts++
			j.RunAt = leaseUntil
			j.UpdatedAt = now
			st.jobs[j.ID] = j
			claimed = append(claimed, j)
		}
		return nil
	})
	return claimed, err
}

func (s *Store) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	return s.updateJob(id, func(j *shared.NotificationJob) {
		j.Status = shared.JobStatusSent
		j.LastError = nil
		j.UpdatedAt = at
	})
}

func (s *Store) Reschedule(_ context.Context, id uuid.UUID, runAt time.Time, lastErr string) error {
	return s.updateJob(id, func(j *shared.NotificationJob) {
		j.RunAt = runAt
		j.LastError = &lastErr
		j.UpdatedAt = runAt
	})
}

func (s *Store) MarkFailed(_ context.Context, id uuid.UUID, lastErr string, at time.Time) error {
	return s.updateJob(id, func(j *shared.NotificationJob) {
		j.Status = shared.JobStatusFailed
		j.LastError = &lastErr
		j.UpdatedAt = at
	})
}

// PurgeSent deletes sent jobs last updated before the cutoff.
func (s *Store) PurgeSent(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := s.update(func(st *state) error {
		st.own(tableJobs)
		for id, j := range st.jobs {
			if j.Status == shared.JobStatusSent && j.UpdatedAt.Before(before) {
				delete(st.jobs, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *Store) updateJob(id uuid.UUID, fn func(j *shared.NotificationJob)) error {
	return s.update(func(st *state) error {
		j, ok := st.jobs[id]
		if !ok {
			return infra.NewRepoErr(infra.KindNotFound, "notification job not found")
		}
		fn(&j)
		st.own(tableJobs)
		st.jobs[id] = j
		return nil
	})
}

func sortedJobs(jobs map[uuid.UUID]shared.NotificationJob) []shared.NotificationJob {
	out := make([]shared.NotificationJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
