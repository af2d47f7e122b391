package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taxline/internal/domain"
	"taxline/internal/service"
)

// ReturnHandler handles tax return management endpoints.
type ReturnHandler struct {
	returnService service.ReturnService
}

// NewReturnHandler creates a new ReturnHandler.
func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

func parseReturnID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("returnID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_RETURN_ID", "return id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/returns
func (h *ReturnHandler) Create(c *gin.Context) {
	var req struct {
		FilerName    string `json:"filer_name" binding:"required"`
		FilingStatus string `json:"filing_status" binding:"required"`
		TaxYear      int    `json:"tax_year"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "filer_name and filing_status are required")
		return
	}

	ret, err := h.returnService.Create(c.Request.Context(), &service.CreateReturnInput{
		FilerName:    req.FilerName,
		FilingStatus: domain.FilingStatus(req.FilingStatus),
		TaxYear:      req.TaxYear,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, ret)
}

// Get handles GET /api/v1/returns/:returnID
func (h *ReturnHandler) Get(c *gin.Context) {
	id, ok := parseReturnID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ret)
}

// List handles GET /api/v1/returns
func (h *ReturnHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	returns, total, err := h.returnService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, returns, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// UpdateFilingStatus handles PATCH /api/v1/returns/:returnID/filing-status
func (h *ReturnHandler) UpdateFilingStatus(c *gin.Context) {
	id, ok := parseReturnID(c)
	if !ok {
		return
	}

	var req struct {
		FilingStatus string `json:"filing_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "filing_status is required")
		return
	}

	ret, err := h.returnService.UpdateFilingStatus(c.Request.Context(), id, domain.FilingStatus(req.FilingStatus))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ret)
}

// Totals handles GET /api/v1/returns/:returnID/totals
func (h *ReturnHandler) Totals(c *gin.Context) {
	id, ok := parseReturnID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	var totals interface{}
	if len(ret.DerivedTotals) > 0 {
		totals = json.RawMessage(ret.DerivedTotals)
	}
	RespondOK(c, gin.H{
		"return_id":      ret.ID,
		"filing_status":  ret.FilingStatus,
		"computed_at":    ret.ComputedAt,
		"derived_totals": totals,
	})
}

// Recompute handles POST /api/v1/returns/:returnID/recompute
func (h *ReturnHandler) Recompute(c *gin.Context) {
	id, ok := parseReturnID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.Recompute(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ret)
}

// Delete handles DELETE /api/v1/returns/:returnID
func (h *ReturnHandler) Delete(c *gin.Context) {
	id, ok := parseReturnID(c)
	if !ok {
		return
	}

	if err := h.returnService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": true})
}
