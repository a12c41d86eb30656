package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/services"
	"github.com/SAP-F-2025/career-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the operator endpoints behind Casdoor admin auth
type AdminHandler struct {
	BaseHandler
	accessService  services.ToolAccessService
	catalogService services.CatalogService
	reportService  services.ReportService
}

func NewAdminHandler(
	accessService services.ToolAccessService,
	catalogService services.CatalogService,
	reportService services.ReportService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:    NewBaseHandler(logger),
		accessService:  accessService,
		catalogService: catalogService,
		reportService:  reportService,
	}
}

// GrantPurchase records a purchase confirmed outside the service
// @Summary Grant tool purchase
// @Tags admin
// @Accept json
// @Produce json
// @Param body body dto.GrantPurchaseRequest true "Purchase"
// @Success 201 {object} dto.PurchaseResponse
// @Router /admin/tool-purchases [post]
func (h *AdminHandler) GrantPurchase(c *gin.Context) {
	var req dto.GrantPurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	purchase, err := h.accessService.Grant(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPurchaseResponse(purchase))
}

// InvalidateCatalog drops the cached catalog after authoring changes
// @Summary Invalidate catalog cache
// @Tags admin
// @Router /admin/catalog/invalidate [post]
func (h *AdminHandler) InvalidateCatalog(c *gin.Context) {
	if err := h.catalogService.InvalidateCache(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportSessionReport downloads one session's answers and scores
// @Summary Export session report
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /admin/sessions/{token}/report [get]
func (h *AdminHandler) ExportSessionReport(c *gin.Context) {
	token := ParseStringIDParam(c, "token")
	if token == "" {
		return
	}

	data, err := h.reportService.ExportSessionReport(c.Request.Context(), token)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendSpreadsheet(c, fmt.Sprintf("session-%s.xlsx", token), data)
}

// ExportLeads downloads sessions that left an email
// @Summary Export leads
// @Tags admin
// @Param since query string false "RFC 3339 timestamp or YYYY-MM-DD"
// @Router /admin/leads/export [get]
func (h *AdminHandler) ExportLeads(c *gin.Context) {
	since, ok := parseTimeQueryPtr(c, "since")
	if !ok {
		return
	}

	data, err := h.reportService.ExportLeads(c.Request.Context(), since)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendSpreadsheet(c, fmt.Sprintf("leads-%s.xlsx", time.Now().UTC().Format("20060102")), data)
}
