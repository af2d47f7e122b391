package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taxline/internal/csvexport"
	"taxline/internal/domain"
	"taxline/internal/service"
)

// DocumentHandler handles document submission and review endpoints.
type DocumentHandler struct {
	docService    service.DocumentService
	returnService service.ReturnService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService service.DocumentService, returnService service.ReturnService) *DocumentHandler {
	return &DocumentHandler{docService: docService, returnService: returnService}
}

func parseDocumentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("documentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_DOCUMENT_ID", "document id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// Submit handles POST /api/v1/returns/:returnID/documents
func (h *DocumentHandler) Submit(c *gin.Context) {
	returnID, ok := parseReturnID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	hint := domain.DocumentCategory(c.PostForm("category_hint"))

	doc, err := h.docService.Submit(c.Request.Context(), &service.SubmitDocumentInput{
		ReturnID:     returnID,
		FileName:     header.Filename,
		ContentType:  contentType,
		CategoryHint: hint,
		FileBytes:    fileBytes,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, doc)
}

// Get handles GET /api/v1/returns/:returnID/documents/:documentID
func (h *DocumentHandler) Get(c *gin.Context) {
	returnID, ok := parseReturnID(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.docService.GetByID(c.Request.Context(), returnID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// List handles GET /api/v1/returns/:returnID/documents
func (h *DocumentHandler) List(c *gin.Context) {
	returnID, ok := parseReturnID(c)
	if !ok {
		return
	}

	docs, err := h.docService.ListByReturn(c.Request.Context(), returnID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, docs)
}

// Reprocess handles POST /api/v1/returns/:returnID/documents/:documentID/reprocess
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	returnID, ok := parseReturnID(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.docService.Reprocess(c.Request.Context(), returnID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, doc)
}

// EditFields handles PUT /api/v1/returns/:returnID/documents/:documentID/fields
func (h *DocumentHandler) EditFields(c *gin.Context) {
	returnID, ok := parseReturnID(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	var req struct {
		Fields json.RawMessage `json:"fields" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "fields object is required")
		return
	}

	doc, err := h.docService.EditFields(c.Request.Context(), &service.EditFieldsInput{
		ReturnID:   returnID,
		DocumentID: docID,
		Fields:     req.Fields,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// UpdateReview handles PUT /api/v1/returns/:returnID/documents/:documentID/review
func (h *DocumentHandler) UpdateReview(c *gin.Context) {
	returnID, ok := parseReturnID(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "status is required")
		return
	}
	switch domain.ReviewStatus(req.Status) {
	case domain.ReviewPending, domain.ReviewApproved, domain.ReviewRejected:
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_REVIEW_STATUS", "review status must be pending, approved, or rejected")
		return
	}

	doc, err := h.docService.UpdateReview(c.Request.Context(), &service.UpdateReviewInput{
		ReturnID:   returnID,
		DocumentID: docID,
		Status:     domain.ReviewStatus(req.Status),
		Notes:      req.Notes,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// Export handles GET /api/v1/returns/:returnID/documents/export
// It streams the return's documents as a CSV download.
func (h *DocumentHandler) Export(c *gin.Context) {
	returnID, ok := parseReturnID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.GetByID(c.Request.Context(), returnID)
	if err != nil {
		HandleError(c, err)
		return
	}
	docs, err := h.docService.ListByReturn(c.Request.Context(), returnID)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename(ret.FilerName)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		return
	}

	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteDocuments(docs); err != nil {
		return
	}
	w.Flush()
}

// Delete handles DELETE /api/v1/returns/:returnID/documents/:documentID
func (h *DocumentHandler) Delete(c *gin.Context) {
	returnID, ok := parseReturnID(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	if err := h.docService.Delete(c.Request.Context(), returnID, docID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": true})
}
