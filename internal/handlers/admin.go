package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"football-data-cache/internal/scheduler"
	"football-data-cache/internal/service"
	"football-data-cache/pkg/models"
)

// AdminHandler serves the operator endpoints: provider status, cache
// control, the refresh scheduler and saved game analyses.
type AdminHandler struct {
	service   *service.GameService
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

// NewAdminHandler creates a new handler
func NewAdminHandler(svc *service.GameService, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service:   svc,
		scheduler: sched,
		logger:    logger,
	}
}

// APIStatus handles GET /admin/status
func (h *AdminHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetAPIStatus())
}

// ResetFailures handles POST /admin/status/reset
func (h *AdminHandler) ResetFailures(c *gin.Context) {
	h.service.ResetAPIFailures()
	h.logger.Info("provider failures reset via API")
	c.JSON(http.StatusOK, gin.H{"message": "provider failures reset"})
}

// CacheStatus handles GET /admin/cache
func (h *AdminHandler) CacheStatus(c *gin.Context) {
	status := h.service.GetCacheStatus(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"datasets": status,
		"count":    len(status),
	})
}

// ClearCache handles DELETE /admin/cache
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		h.logger.Error("failed to clear cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache"})
		return
	}
	h.logger.Info("cache cleared via API")
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared successfully"})
}

// RefreshCache handles POST /admin/cache/refresh
func (h *AdminHandler) RefreshCache(c *gin.Context) {
	report := h.service.ForceUpdateCache(c.Request.Context())
	status := http.StatusOK
	if !report.Success() {
		status = http.StatusBadGateway
	}
	c.JSON(status, report)
}

// SchedulerStatus handles GET /admin/scheduler
func (h *AdminHandler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

// SchedulerStart handles POST /admin/scheduler/start
func (h *AdminHandler) SchedulerStart(c *gin.Context) {
	h.scheduler.Start()
	c.JSON(http.StatusOK, gin.H{"message": "scheduler started", "active": true})
}

// SchedulerStop handles POST /admin/scheduler/stop
func (h *AdminHandler) SchedulerStop(c *gin.Context) {
	h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"message": "scheduler stopped", "active": false})
}

// SchedulerForceUpdate handles POST /admin/scheduler/update
func (h *AdminHandler) SchedulerForceUpdate(c *gin.Context) {
	h.scheduler.ForceUpdate()
	c.JSON(http.StatusAccepted, gin.H{"message": "update triggered"})
}

// SchedulerLog handles GET /admin/scheduler/log
func (h *AdminHandler) SchedulerLog(c *gin.Context) {
	log := h.scheduler.Log()
	c.JSON(http.StatusOK, gin.H{
		"entries": log,
		"count":   len(log),
	})
}

// userID reads the caller identity from the X-User-ID header
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header is required"})
		return "", false
	}
	return id, true
}

// SaveAnalysis handles POST /analyses
func (h *AdminHandler) SaveAnalysis(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var request struct {
		Match models.Match   `json:"match"`
		Data  models.JSONMap `json:"data"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if request.Match.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "match.id is required"})
		return
	}

	if err := h.service.SaveGameAnalysis(id, request.Match, request.Data); err != nil {
		h.logger.Error("failed to save analysis", zap.Error(err), zap.String("user_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save analysis"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "analysis saved"})
}

// ListAnalyses handles GET /analyses
func (h *AdminHandler) ListAnalyses(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	analyses := h.service.GetUserGameAnalyses(id)
	c.JSON(http.StatusOK, gin.H{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// GetAnalysis handles GET /analyses/:fixtureId
func (h *AdminHandler) GetAnalysis(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	fixtureID, err := strconv.Atoi(c.Param("fixtureId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fixture id"})
		return
	}
	analysis := h.service.GetGameAnalysis(id, fixtureID)
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// DeleteAnalysis handles DELETE /analyses/:fixtureId
func (h *AdminHandler) DeleteAnalysis(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	fixtureID, err := strconv.Atoi(c.Param("fixtureId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fixture id"})
		return
	}
	if err := h.service.DeleteGameAnalysis(id, fixtureID); err != nil {
		h.logger.Error("failed to delete analysis", zap.Error(err), zap.String("user_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete analysis"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "analysis deleted"})
}
