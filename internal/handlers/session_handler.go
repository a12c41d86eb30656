package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/services"
	"github.com/SAP-F-2025/career-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// BootstrapSession creates or resumes the session for a device token
// @Summary Bootstrap session
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body dto.BootstrapSessionRequest false "Device token"
// @Success 200 {object} dto.AssessmentStateResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) BootstrapSession(c *gin.Context) {
	var req dto.BootstrapSessionRequest
	// an empty body asks for a new device token
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	state, err := h.sessionService.Bootstrap(c.Request.Context(), req.DeviceToken)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}

// GetSessionState returns the recomputed state, optionally narrowed to one module
// @Summary Get session state
// @Tags sessions
// @Produce json
// @Param token path string true "Session token"
// @Param module_id query int false "Module ID"
// @Success 200 {object} dto.AssessmentStateResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{token} [get]
func (h *SessionHandler) GetSessionState(c *gin.Context) {
	token := ParseStringIDParam(c, "token")
	if token == "" {
		return
	}
	moduleID, ok := parseUintQueryPtr(c, "module_id")
	if !ok {
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), token, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}

// SaveResponse stores one answer and returns the recomputed state
// @Summary Save response
// @Tags sessions
// @Accept json
// @Produce json
// @Param token path string true "Session token"
// @Param body body dto.SaveResponseRequest true "Answer"
// @Success 200 {object} dto.AssessmentStateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions/{token}/responses [put]
func (h *SessionHandler) SaveResponse(c *gin.Context) {
	token := ParseStringIDParam(c, "token")
	if token == "" {
		return
	}

	var req dto.SaveResponseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	state, err := h.sessionService.SaveResponse(c.Request.Context(), token, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}

// UpdatePosition records where the visitor is in the assessment
// @Summary Update position
// @Tags sessions
// @Router /sessions/{token}/position [put]
func (h *SessionHandler) UpdatePosition(c *gin.Context) {
	token := ParseStringIDParam(c, "token")
	if token == "" {
		return
	}

	var req dto.UpdatePositionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	state, err := h.sessionService.UpdatePosition(c.Request.Context(), token, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}

// SaveEmail captures the visitor's email at the signup gate
// @Summary Save email
// @Tags sessions
// @Router /sessions/{token}/email [put]
func (h *SessionHandler) SaveEmail(c *gin.Context) {
	token := ParseStringIDParam(c, "token")
	if token == "" {
		return
	}

	var req dto.SaveEmailRequest
	if !h.bindJSON(c, &req) {
		return
	}

	state, err := h.sessionService.SaveEmail(c.Request.Context(), token, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}

// SetInferredLevel sets the experience level used for question gating
// @Summary Set inferred level
// @Tags sessions
// @Router /sessions/{token}/level [put]
func (h *SessionHandler) SetInferredLevel(c *gin.Context) {
	token := ParseStringIDParam(c, "token")
	if token == "" {
		return
	}

	var req dto.SetLevelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	state, err := h.sessionService.SetInferredLevel(c.Request.Context(), token, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}

// SubmitSession freezes the assessment
// @Summary Submit session
// @Tags sessions
// @Router /sessions/{token}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	token := ParseStringIDParam(c, "token")
	if token == "" {
		return
	}

	state, err := h.sessionService.Submit(c.Request.Context(), token)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toStateResponse(state))
}
