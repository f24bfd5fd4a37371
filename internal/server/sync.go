package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/auth"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const syncJobListLimit = 50

type syncRequest struct {
	Provider string `json:"provider" validate:"required,max=64"`
}

type syncJobResponse struct {
	ID           string  `json:"id"`
	WorkspaceID  string  `json:"workspaceId"`
	Provider     string  `json:"provider"`
	Status       string  `json:"status"`
	RequestedBy  string  `json:"requestedBy"`
	ScheduledFor string  `json:"scheduledFor"`
	StartedAt    *string `json:"startedAt,omitempty"`
	FinishedAt   *string `json:"finishedAt,omitempty"`
}

// handleEnqueueSync queues a connector sync for the active workspace.
// Only operators and admins may trigger a sync.
func (s *Server) handleEnqueueSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	res := s.resolve(w, r, msgInternalFailure)
	if res == nil {
		return
	}

	if err := auth.RequireRole(res.Membership, models.RoleOperator, models.RoleAdmin); err != nil {
		logger.Warn().Err(err).Stringer("workspace_id", res.WorkspaceID).Msg("Sync denied")
		writeError(w, http.StatusForbidden, msgRoleRequired)
		return
	}

	var req syncRequest
	if err := s.decode(w, r, &req); err != nil {
		writeDecodeError(w, r, err, msgInternalFailure)
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate sync job ID")
		writeError(w, http.StatusInternalServerError, msgInternalFailure)
		return
	}

	job := &models.SyncJob{
		ID:           id,
		WorkspaceID:  res.WorkspaceID,
		Provider:     req.Provider,
		Status:       models.SyncJobQueued,
		RequestedBy:  res.Membership.UserID,
		ScheduledFor: s.clock.Now().UTC(),
	}
	if err := s.syncJobs.Enqueue(ctx, job); err != nil {
		logger.Error().Err(err).Stringer("workspace_id", res.WorkspaceID).Msg("Failed to enqueue sync job")
		writeError(w, http.StatusInternalServerError, msgInternalFailure)
		return
	}

	telemetry.GetMetrics().SyncJobsEnqueuedTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", job.Provider)))
	logger.Info().
		Stringer("job_id", job.ID).
		Stringer("workspace_id", job.WorkspaceID).
		Str("provider", job.Provider).
		Msg("Sync job enqueued")

	writeJSON(w, http.StatusAccepted, map[string]syncJobResponse{"job": toSyncJobResponse(job)})
}

// handleListSync lists the recent sync jobs of the active workspace.
func (s *Server) handleListSync(w http.ResponseWriter, r *http.Request) {
	res := s.resolve(w, r, msgInternalFailure)
	if res == nil {
		return
	}

	jobs, err := s.syncJobs.List(r.Context(), res.WorkspaceID, syncJobListLimit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Stringer("workspace_id", res.WorkspaceID).Msg("Failed to list sync jobs")
		writeError(w, http.StatusInternalServerError, msgInternalFailure)
		return
	}

	out := make([]syncJobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toSyncJobResponse(job))
	}
	writeJSON(w, http.StatusOK, map[string][]syncJobResponse{"jobs": out})
}

func toSyncJobResponse(job *models.SyncJob) syncJobResponse {
	resp := syncJobResponse{
		ID:           job.ID.String(),
		WorkspaceID:  job.WorkspaceID.String(),
		Provider:     job.Provider,
		Status:       job.Status,
		RequestedBy:  job.RequestedBy.String(),
		ScheduledFor: job.ScheduledFor.UTC().Format(timestampLayout),
	}
	if job.StartedAt != nil {
		started := job.StartedAt.UTC().Format(timestampLayout)
		resp.StartedAt = &started
	}
	if job.FinishedAt != nil {
		finished := job.FinishedAt.UTC().Format(timestampLayout)
		resp.FinishedAt = &finished
	}
	return resp
}
