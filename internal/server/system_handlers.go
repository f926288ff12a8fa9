package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/rfqdesk/internal/api"
	"github.com/aristath/rfqdesk/internal/database"
	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/events"
	"github.com/aristath/rfqdesk/internal/modules/access"
	"github.com/aristath/rfqdesk/internal/reliability"
	"github.com/aristath/rfqdesk/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves operational status and maintenance triggers
type SystemHandlers struct {
	db        *database.DB
	eventBus  *events.Bus
	scheduler *scheduler.Scheduler
	backups   *reliability.BackupService
	access    *access.Service
	log       zerolog.Logger
	startedAt time.Time
}

// NewSystemHandlers creates system handlers. backups may be nil.
func NewSystemHandlers(
	db *database.DB,
	eventBus *events.Bus,
	sched *scheduler.Scheduler,
	backups *reliability.BackupService,
	accessService *access.Service,
	log zerolog.Logger,
) *SystemHandlers {
	return &SystemHandlers{
		db:        db,
		eventBus:  eventBus,
		scheduler: sched,
		backups:   backups,
		access:    accessService,
		log:       log.With().Str("handler", "system").Logger(),
		startedAt: time.Now(),
	}
}

// DatabaseStatus describes the procurement database
type DatabaseStatus struct {
	Name    string          `json:"name"`
	Path    string          `json:"path"`
	Healthy bool            `json:"healthy"`
	Stats   *database.Stats `json:"stats,omitempty"`
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status           string                `json:"status"`
	UptimeSeconds    int64                 `json:"uptime_seconds"`
	Database         DatabaseStatus        `json:"database"`
	CPUPercent       float64               `json:"cpu_percent"`
	MemoryPercent    float64               `json:"memory_percent"`
	Goroutines       int                   `json:"goroutines"`
	GoVersion        string                `json:"go_version"`
	EventSubscribers int                   `json:"event_subscribers"`
	BackupsEnabled   bool                  `json:"backups_enabled"`
	Jobs             []scheduler.JobStatus `json:"jobs"`
}

// authorize writes the error response and returns false when p may not perform action
func (h *SystemHandlers) authorize(w http.ResponseWriter, r *http.Request, action access.Action) bool {
	p, ok := api.RequirePrincipal(w, r)
	if !ok {
		return false
	}
	if err := h.access.Authorize(p, action); err != nil {
		api.WriteDomainError(w, h.log, err)
		return false
	}
	return true
}

// HandleSystemStatus returns database, host and job status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ActionViewReports) {
		return
	}

	response := SystemStatusResponse{
		Status:         "healthy",
		UptimeSeconds:  int64(time.Since(h.startedAt).Seconds()),
		Goroutines:     runtime.NumGoroutine(),
		GoVersion:      runtime.Version(),
		BackupsEnabled: h.backups != nil,
		Jobs:           []scheduler.JobStatus{},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response.Database = DatabaseStatus{Name: h.db.Name(), Path: h.db.Path()}
	if err := h.db.QuickCheck(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Database check failed")
		response.Status = "degraded"
	} else {
		response.Database.Healthy = true
	}
	if stats, err := h.db.GetStats(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
	} else {
		response.Database.Stats = stats
	}

	response.CPUPercent, response.MemoryPercent = h.getSystemStats()

	if h.eventBus != nil {
		response.EventSubscribers = h.eventBus.SubscriberCount()
	}
	if h.scheduler != nil {
		response.Jobs = h.scheduler.Status()
	}

	api.WriteJSON(w, http.StatusOK, response)
}

// HandleJobsStatus lists registered maintenance jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ActionOperate) {
		return
	}
	jobs := []scheduler.JobStatus{}
	if h.scheduler != nil {
		jobs = h.scheduler.Status()
	}
	api.WriteData(w, http.StatusOK, jobs)
}

// HandleTriggerJob starts a registered job in the background
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ActionOperate) {
		return
	}

	name := chi.URLParam(r, "name")
	if h.scheduler == nil || !h.scheduler.Has(name) {
		api.WriteDomainError(w, h.log, &domain.NotFoundError{Entity: "job", ID: name})
		return
	}

	go func() {
		if err := h.scheduler.RunNow(name); err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Manually triggered job failed")
		}
	}()

	api.WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"job":    name,
	})
}

// HandleListBackups lists the archives in the off-site store
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ActionOperate) {
		return
	}
	if h.backups == nil {
		api.WriteError(w, http.StatusNotFound, "backups are disabled")
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		api.WriteDomainError(w, h.log, err)
		return
	}
	api.WriteData(w, http.StatusOK, backups)
}

// getSystemStats samples CPU over 100ms so the request stays fast
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
