package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentorlink/backend/internal/dto"
	"mentorlink/backend/internal/service"
	"mentorlink/backend/pkg/response"
)

// AcademicSessionHandler academic session HTTP handlers
type AcademicSessionHandler struct {
	sessionSvc service.AcademicSessionService
}

// NewAcademicSessionHandler creates an AcademicSessionHandler.
func NewAcademicSessionHandler(sessionSvc service.AcademicSessionService) *AcademicSessionHandler {
	return &AcademicSessionHandler{sessionSvc: sessionSvc}
}

// ListSessions all academic years with their periods
// GET /api/v1/academic-sessions
func (h *AcademicSessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessionSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// GetCurrentSession the current academic year
// GET /api/v1/academic-sessions/current
func (h *AcademicSessionHandler) GetCurrentSession(c *gin.Context) {
	session, err := h.sessionSvc.GetCurrent(c.Request.Context())
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// GetPeriods current and upcoming periods for ?date= (default today)
// GET /api/v1/academic-sessions/periods
func (h *AcademicSessionHandler) GetPeriods(c *gin.Context) {
	status, err := h.sessionSvc.Periods(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, status)
}

// CreateSession create an academic year or add periods to it
// POST /api/v1/academic-sessions
func (h *AcademicSessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateAcademicSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "request validation failed", err.Error())
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, session)
}

// ArchiveSession archive an academic year with its periods and meetings
// PUT /api/v1/academic-sessions/archive
func (h *AcademicSessionHandler) ArchiveSession(c *gin.Context) {
	var req dto.ArchiveAcademicSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "request validation failed", err.Error())
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.sessionSvc.Archive(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, result)
}

// Rollover promote the upcoming period to current
// PUT /api/v1/academic-sessions/rollover
func (h *AcademicSessionHandler) Rollover(c *gin.Context) {
	var req dto.RolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "request validation failed", err.Error())
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.sessionSvc.Rollover(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, result)
}

// handleSessionError maps academic session errors to responses.
func (h *AcademicSessionHandler) handleSessionError(c *gin.Context, err error) {
	var partial *service.PartialRolloverError
	if errors.As(err, &partial) && !partial.RolledBack() {
		response.ErrorWithDetails(c, http.StatusInternalServerError, 20007,
			"session rollover left partial changes, manual remediation required", partial.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "invalid academic session input", err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20002, "academic session not found")
	case errors.Is(err, service.ErrSessionExists):
		response.ErrorWithDetails(c, http.StatusConflict, 20003, "academic session period already exists", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		response.ErrorWithDetails(c, http.StatusConflict, 20004, "invalid academic session transition", err.Error())
	case errors.Is(err, service.ErrAlreadyArchived):
		response.ErrorWithDetails(c, http.StatusConflict, 20005, "academic session already archived", err.Error())
	case errors.Is(err, service.ErrRolloverInProgress):
		response.Locked(c, 20006, "another session rollover is in progress")
	case partial != nil:
		response.ErrorWithDetails(c, http.StatusInternalServerError, 20008,
			"session rollover failed and was rolled back", partial.Error())
	default:
		response.InternalError(c)
	}
}
