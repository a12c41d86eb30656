package handlers

import (
	"net/http"
	"strings"

	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/services"
	"github.com/SAP-F-2025/career-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ToolHandler struct {
	BaseHandler
	accessService services.ToolAccessService
	toolService   services.ToolService
}

func NewToolHandler(accessService services.ToolAccessService, toolService services.ToolService, logger utils.Logger) *ToolHandler {
	return &ToolHandler{
		BaseHandler:   NewBaseHandler(logger),
		accessService: accessService,
		toolService:   toolService,
	}
}

// VerifyAccess checks entitlement for a tool and records one use
// @Summary Verify tool access
// @Tags tools
// @Accept json
// @Produce json
// @Param body body dto.VerifyAccessRequest true "Credentials"
// @Success 200 {object} dto.VerifyAccessResponse
// @Failure 400 {object} dto.VerifyAccessResponse
// @Failure 403 {object} dto.VerifyAccessResponse
// @Router /tools/access/verify [post]
func (h *ToolHandler) VerifyAccess(c *gin.Context) {
	var req dto.VerifyAccessRequest
	if !h.bindJSON(c, &req) {
		return
	}

	grant, err := h.accessService.Verify(c.Request.Context(), &req)
	if err != nil {
		if reason, ok := services.AccessReason(err); ok {
			status := http.StatusForbidden
			if services.IsCredentialsMissing(err) {
				status = http.StatusBadRequest
			}
			c.JSON(status, dto.VerifyAccessResponse{Valid: false, Error: reason, Code: accessCode(err)})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toVerifyResponse(grant))
}

// ClaimAccess activates a purchase with the token from the purchase email
// @Summary Claim tool access
// @Tags tools
// @Router /tools/access/claim [post]
func (h *ToolHandler) ClaimAccess(c *gin.Context) {
	var req dto.ClaimAccessRequest
	if !h.bindJSON(c, &req) {
		return
	}

	purchase, err := h.accessService.Claim(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyAccessResponse{
		Valid:      true,
		PurchaseID: purchase.ID,
		ToolType:   purchase.ToolType,
		ExpiresAt:  &purchase.ExpiresAt,
		UsageCount: purchase.UsageCount,
	})
}

// RunTool runs a paid tool operation after verifying access
// @Summary Run tool
// @Tags tools
// @Accept json
// @Produce json
// @Param operation path string true "Operation"
// @Param body body dto.RunToolRequest true "Credentials and input"
// @Success 200 {object} dto.RunToolResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /tools/{operation} [post]
func (h *ToolHandler) RunTool(c *gin.Context) {
	operation := models.ToolOperation(ParseStringIDParam(c, "operation"))
	if operation == "" {
		return
	}

	var req dto.RunToolRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.toolService.Run(c.Request.Context(), operation, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UploadResume parses an uploaded resume file
// @Summary Parse resume
// @Tags tools
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Resume"
// @Param email formData string false "Purchase email"
// @Param access_token formData string false "Access token"
// @Success 200 {object} dto.RunToolResponse
// @Router /tools/resume_parse/upload [post]
func (h *ToolHandler) UploadResume(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxResumeSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "A resume file is required", Details: err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Could not read the uploaded file", Details: err.Error()})
		return
	}
	defer file.Close()

	req := dto.ParseResumeRequest{
		ToolCredentials: dto.ToolCredentials{
			Email:       optionalForm(c, "email"),
			AccessToken: optionalForm(c, "access_token"),
		},
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}

	resp, err := h.toolService.ParseResume(c.Request.Context(), &req, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func optionalForm(c *gin.Context, key string) *string {
	value := strings.TrimSpace(c.PostForm(key))
	if value == "" {
		return nil
	}
	return &value
}
