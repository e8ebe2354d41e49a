package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/repository"
	"github.com/scouthq/paperscout/internal/scheduler"
)

// AdminHandler exposes manual trigger runs and pipeline status.
type AdminHandler struct {
	scheduler     *scheduler.Scheduler
	articles      *repository.ArticleRepository
	jobs          *repository.BatchJobRepository
	notifications *repository.NotificationRepository
	runTimeout    time.Duration
	logger        *logger.Logger
}

// NewAdminHandler creates a new admin handler. runTimeout bounds synchronous
// manual runs.
func NewAdminHandler(
	sched *scheduler.Scheduler,
	articles *repository.ArticleRepository,
	jobs *repository.BatchJobRepository,
	notifications *repository.NotificationRepository,
	runTimeout time.Duration,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		scheduler:     sched,
		articles:      articles,
		jobs:          jobs,
		notifications: notifications,
		runTimeout:    runTimeout,
		logger:        log,
	}
}

// RunResponse wraps a manual run's summary.
type RunResponse struct {
	Message string                `json:"message"`
	Summary *scheduler.RunSummary `json:"summary,omitempty"`
}

// RunTrigger executes a named trigger synchronously.
// POST /api/v1/admin/run/:trigger
func (h *AdminHandler) RunTrigger(c *gin.Context) {
	name := c.Param("trigger")
	ctx := c.Request.Context()

	summary, err := h.scheduler.RunNow(ctx, name, h.runTimeout)
	switch {
	case errors.Is(err, domain.ErrUnknownTrigger):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown trigger: " + name})
		return
	case errors.Is(err, domain.ErrTriggerRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "trigger already running: " + name})
		return
	case errors.Is(err, domain.ErrTickInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "poll tick already in progress"})
		return
	case err != nil:
		logger.FromContext(ctx).WithField(logger.FieldTrigger, name).WithError(err).Error("Manual trigger run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, RunResponse{Message: "completed", Summary: summary})
}

// TriggerStatus reports every registered trigger with its last run.
// GET /api/v1/admin/triggers
func (h *AdminHandler) TriggerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

// StatsResponse summarizes pipeline state for the dashboard.
type StatsResponse struct {
	UnprocessedArticles int64 `json:"unprocessed_articles"`
	OpenBatchJobs       int   `json:"open_batch_jobs"`
	InterestMatches     int64 `json:"interest_matches"`
}

// Stats reports pipeline-level counters.
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	unprocessed, err := h.articles.CountUnprocessed(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	open, err := h.jobs.ListOpen(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	matches, err := h.notifications.CountByType(ctx, domain.NotificationTypeInterestMatch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		UnprocessedArticles: unprocessed,
		OpenBatchJobs:       len(open),
		InterestMatches:     matches,
	})
}
