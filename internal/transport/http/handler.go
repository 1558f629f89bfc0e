package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"artist-sync-service/internal/entity"
	"artist-sync-service/internal/repository/postgresql"
	"artist-sync-service/internal/service"
)

type Handler struct {
	scheduler *service.SchedulerService
	worker    *service.WorkerService
	syncer    service.ArtistSyncer
	audit     *service.AuditLogger
}

func NewHandler(scheduler *service.SchedulerService, worker *service.WorkerService, syncer service.ArtistSyncer, audit *service.AuditLogger) *Handler {
	return &Handler{
		scheduler: scheduler,
		worker:    worker,
		syncer:    syncer,
		audit:     audit,
	}
}

type jobResp struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Total       int     `json:"total"`
	Synced      int     `json:"synced"`
	Failed      int     `json:"failed"`
	BatchSize   int     `json:"batch_size"`
	Cursor      *string `json:"cursor,omitempty"`
	RequestedBy *string `json:"requested_by,omitempty"`
	LastError   *string `json:"last_error,omitempty"`
	CreatedAt   string  `json:"created_at"`
	StartedAt   *string `json:"started_at,omitempty"`
	FinishedAt  *string `json:"finished_at,omitempty"`
}

type jobEnvelope struct {
	Job *jobResp `json:"job"`
}

type triggerResp struct {
	Message string `json:"message"`
	JobID   string `json:"job_id,omitempty"`
	Total   int    `json:"total"`
}

func serializeJob(j *entity.SyncJob) *jobResp {
	if j == nil {
		return nil
	}
	resp := &jobResp{
		ID:          j.ID.String(),
		Status:      string(j.Status),
		Total:       j.Total,
		Synced:      j.Synced,
		Failed:      j.Failed,
		BatchSize:   j.BatchSize,
		RequestedBy: j.RequestedBy,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
	}
	if j.Cursor != nil {
		c := j.Cursor.String()
		resp.Cursor = &c
	}
	if j.StartedAt != nil {
		s := j.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &s
	}
	if j.FinishedAt != nil {
		f := j.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &f
	}
	return resp
}

// CronSync godoc
// @Summary Periodic sync trigger
// @Description Creates a QUEUED sync job when none is active and at least one artist is stale, then requests the first worker tick.
// @Tags spotify
// @Produce json
// @Success 200 {object} triggerResp
// @Failure 401 {object} apiError
// @Failure 500 {object} apiError
// @Router /api/spotify/cron-sync [get]
func (h *Handler) CronSync(w http.ResponseWriter, r *http.Request) {
	res, err := h.scheduler.Trigger(r.Context(), nil, false)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch {
	case res.NothingToSync:
		writeJSON(w, http.StatusOK, triggerResp{Message: "No artists need syncing", Total: 0})
	case res.AlreadyRunning:
		writeJSON(w, http.StatusOK, triggerResp{
			Message: "Sync job already running",
			JobID:   res.Job.ID.String(),
			Total:   res.Job.Total,
		})
	default:
		writeJSON(w, http.StatusOK, triggerResp{
			Message: "Sync job created",
			JobID:   res.Job.ID.String(),
			Total:   res.Job.Total,
		})
	}
}

// SyncWorker godoc
// @Summary Process one sync batch
// @Description Runs exactly one worker tick against the active sync job. Returns the ledger state after the tick, or job=null when nothing was processed.
// @Tags spotify
// @Produce json
// @Success 200 {object} jobEnvelope
// @Failure 401 {object} apiError
// @Failure 500 {object} apiError
// @Router /api/spotify/sync-worker [get]
func (h *Handler) SyncWorker(w http.ResponseWriter, r *http.Request) {
	job, err := h.worker.RunTick(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, jobEnvelope{Job: serializeJob(job)})
}

// GetSyncJob godoc
// @Summary Sync job status
// @Description Returns one job by id, or the active job with active=1. job=null when nothing matches.
// @Tags spotify
// @Produce json
// @Param jobId query string false "job id (uuid)"
// @Param active query string false "set to any value to select the active job"
// @Success 200 {object} jobEnvelope
// @Failure 400 {object} apiError
// @Failure 401 {object} apiError
// @Router /api/spotify/sync-all [get]
func (h *Handler) GetSyncJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	active := r.URL.Query().Get("active")

	var (
		job *entity.SyncJob
		err error
	)
	switch {
	case jobID != "":
		id, parseErr := uuid.Parse(jobID)
		if parseErr != nil {
			writeErr(w, http.StatusBadRequest, "invalid jobId")
			return
		}
		job, err = h.scheduler.JobByID(r.Context(), id)
		if errors.Is(err, postgresql.ErrNotFound) {
			job, err = nil, nil
		}
	case active != "":
		job, err = h.scheduler.ActiveJob(r.Context())
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, jobEnvelope{Job: serializeJob(job)})
}

type manualSyncDTO struct {
	Force       bool   `json:"force"`
	RequestedBy string `json:"requested_by"`
}

// ManualSync godoc
// @Summary Manually trigger a sync sweep
// @Description Same as the cron trigger, but force=true supersedes an active job before creating a fresh one.
// @Tags spotify
// @Accept json
// @Produce json
// @Param request body manualSyncDTO false "trigger options"
// @Success 200 {object} jobEnvelope
// @Failure 401 {object} apiError
// @Failure 500 {object} apiError
// @Router /api/spotify/sync-all [post]
func (h *Handler) ManualSync(w http.ResponseWriter, r *http.Request) {
	var dto manualSyncDTO
	_ = json.NewDecoder(r.Body).Decode(&dto) // empty body means defaults

	var requestedBy *string
	if dto.RequestedBy != "" {
		requestedBy = &dto.RequestedBy
	}

	res, err := h.scheduler.Trigger(r.Context(), requestedBy, dto.Force)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	if res.Job != nil {
		metadata, _ := json.Marshal(map[string]any{
			"job_id": res.Job.ID.String(),
			"total":  res.Job.Total,
			"force":  dto.Force,
		})
		h.audit.Record(h.auditEvent(r, "spotify.sync_all", requestedBy, nil, nil, metadata))
	}

	writeJSON(w, http.StatusOK, jobEnvelope{Job: serializeJob(res.Job)})
}

type refreshDTO struct {
	ArtistID    string `json:"artist_id"`
	RequestedBy string `json:"requested_by"`
}

type artistEnvelope struct {
	Artist *entity.Artist `json:"artist"`
}

// RefreshArtist godoc
// @Summary Sync one artist now
// @Description Fetches and merges Spotify data for a single artist synchronously, outside the batch pipeline.
// @Tags spotify
// @Accept json
// @Produce json
// @Param request body refreshDTO true "artist to refresh"
// @Success 200 {object} artistEnvelope
// @Failure 400 {object} apiError
// @Failure 401 {object} apiError
// @Failure 404 {object} apiError
// @Failure 502 {object} apiError
// @Router /api/spotify/refresh [post]
func (h *Handler) RefreshArtist(w http.ResponseWriter, r *http.Request) {
	var dto refreshDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	artistID, err := uuid.Parse(dto.ArtistID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid artist_id")
		return
	}

	var requestedBy *string
	if dto.RequestedBy != "" {
		requestedBy = &dto.RequestedBy
	}
	entityType := "artist"
	entityID := artistID.String()

	artist, err := h.syncer.SyncArtist(r.Context(), artistID)
	if err != nil {
		metadata, _ := json.Marshal(map[string]any{"error": err.Error()})
		h.audit.Record(h.auditEvent(r, "spotify.refresh.failed", requestedBy, &entityType, &entityID, metadata))

		switch {
		case errors.Is(err, service.ErrArtistNotFound):
			writeErr(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrMissingSpotifyID):
			writeErr(w, http.StatusBadRequest, err.Error())
		default:
			writeErr(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	h.audit.Record(h.auditEvent(r, "spotify.refresh", requestedBy, &entityType, &entityID, nil))
	writeJSON(w, http.StatusOK, artistEnvelope{Artist: artist})
}

func (h *Handler) auditEvent(r *http.Request, action string, userEmail, entityType, entityID *string, metadata json.RawMessage) entity.AuditEvent {
	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	method := r.Method
	ip := clientIP(r)

	return entity.AuditEvent{
		Action:     action,
		UserEmail:  userEmail,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
		Path:       &path,
		Method:     &method,
		IP:         &ip,
	}
}
