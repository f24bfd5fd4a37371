package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/rs/zerolog/log"
)

// SyncJobStore implements store.SyncJobStore using PostgreSQL.
type SyncJobStore struct {
	pool *pgxpool.Pool
}

// NewSyncJobStore creates a new PostgreSQL-backed sync job store.
func NewSyncJobStore(pool *pgxpool.Pool) *SyncJobStore {
	return &SyncJobStore{
		pool: pool,
	}
}

// Enqueue stores a new sync job.
func (s *SyncJobStore) Enqueue(ctx context.Context, job *models.SyncJob) error {
	query, args, err := psql.Insert("sync_jobs").
		Columns("id", "workspace_id", "provider", "status", "requested_by", "scheduled_for", "started_at", "finished_at").
		Values(job.ID, job.WorkspaceID, job.Provider, job.Status, job.RequestedBy, job.ScheduledFor, job.StartedAt, job.FinishedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sync job insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to enqueue sync job: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("job_id", job.ID.String()).
		Str("workspace_id", job.WorkspaceID.String()).
		Str("provider", job.Provider).
		Msg("Enqueued sync job")

	return nil
}

// List returns the most recent jobs of a workspace, newest first.
func (s *SyncJobStore) List(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*models.SyncJob, error) {
	builder := psql.Select("id", "workspace_id", "provider", "status", "requested_by", "scheduled_for", "started_at", "finished_at").
		From("sync_jobs").
		Where(sq.Eq{"workspace_id": workspaceID}).
		OrderBy("scheduled_for DESC", "id DESC")

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sync job query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync jobs: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var jobs []*models.SyncJob
	for rows.Next() {
		var job models.SyncJob
		if err := rows.Scan(
			&job.ID,
			&job.WorkspaceID,
			&job.Provider,
			&job.Status,
			&job.RequestedBy,
			&job.ScheduledFor,
			&job.StartedAt,
			&job.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync jobs: %w", mapPostgresError(err))
	}

	return jobs, nil
}
