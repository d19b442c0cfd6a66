package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bizops-suite/customer-import/internal/api/response"
	"github.com/bizops-suite/customer-import/internal/config"
	"github.com/bizops-suite/customer-import/internal/importer"
	"github.com/bizops-suite/customer-import/internal/ingest"
	"github.com/bizops-suite/customer-import/internal/models"
	"github.com/bizops-suite/customer-import/internal/repository"
	"github.com/bizops-suite/customer-import/internal/schema"
)

// ImportHandler drives the customer import workflow: upload, mapping,
// preview, execution.
type ImportHandler struct {
	sessions        *importer.Manager
	customerRepo    *repository.CustomerRepository
	importRepo      *repository.ImportRepository
	idempotencyRepo *repository.IdempotencyRepository
	executor        *importer.Executor
	cfg             *config.Config
}

// NewImportHandler creates a new import handler.
func NewImportHandler(
	sessions *importer.Manager,
	customerRepo *repository.CustomerRepository,
	importRepo *repository.ImportRepository,
	idempotencyRepo *repository.IdempotencyRepository,
	executor *importer.Executor,
	cfg *config.Config,
) *ImportHandler {
	return &ImportHandler{
		sessions:        sessions,
		customerRepo:    customerRepo,
		importRepo:      importRepo,
		idempotencyRepo: idempotencyRepo,
		executor:        executor,
		cfg:             cfg,
	}
}

var spreadsheetExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

// allowedContentType checks a multipart part's declared type against the
// configured allow list. Browsers sometimes send an empty or generic type,
// so the extension check remains the primary gate.
func allowedContentType(contentType string, allowed []string) bool {
	if contentType == "application/octet-stream" {
		return true
	}
	for _, t := range allowed {
		if contentType == t {
			return true
		}
	}
	return false
}

// HandleUpload handles POST /api/v1/imports: parses the uploaded
// spreadsheet, opens a session, and auto-maps the headers.
func (h *ImportHandler) HandleUpload(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	// Atomic idempotency claim so a retried upload returns the original
	// import instead of creating a second one.
	idempotencyKey := c.GetHeader("Idempotency-Key")
	importID := uuid.New()
	if idempotencyKey != "" {
		claim, err := h.idempotencyRepo.Claim(c.Request.Context(), tenantID, idempotencyKey, "import", importID)
		if err != nil {
			response.InternalError(c, fmt.Sprintf("idempotency check failed: %v", err))
			return
		}
		if claim.AlreadyExists {
			existing, _ := h.importRepo.GetByID(c.Request.Context(), tenantID, claim.ResourceID)
			response.Conflict(c, "duplicate import (idempotency key match)", existing)
			return
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file field is required", nil)
		return
	}

	if !spreadsheetExtensions[filepath.Ext(file.Filename)] {
		response.BadRequest(c, "file must be a CSV or Excel spreadsheet", nil)
		return
	}
	if contentType := file.Header.Get("Content-Type"); contentType != "" && !allowedContentType(contentType, h.cfg.Upload.AllowedTypes) {
		response.BadRequest(c, fmt.Sprintf("unsupported content type %q", contentType), nil)
		return
	}

	if file.Size > h.cfg.Upload.MaxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds max size of %d bytes", h.cfg.Upload.MaxFileSize), nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		response.InternalError(c, "failed to open uploaded file")
		return
	}
	defer src.Close()

	table, err := ingest.Parse(src, file.Filename)
	if err != nil {
		if errors.Is(err, ingest.ErrTooFewRows) {
			response.Error(c, http.StatusBadRequest, "PARSE_ERROR", err.Error(), nil)
			return
		}
		response.Error(c, http.StatusBadRequest, "PARSE_ERROR",
			fmt.Sprintf("failed to parse file: %v", err), nil)
		return
	}

	if len(table.Rows) > h.cfg.Upload.MaxRows {
		response.Error(c, http.StatusRequestEntityTooLarge, "TOO_MANY_ROWS",
			fmt.Sprintf("file has %d data rows, max is %d", len(table.Rows), h.cfg.Upload.MaxRows), nil)
		return
	}

	session := h.sessions.Create(tenantID)
	mapping, err := session.LoadTable(table, file.Filename)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to initialize session: %v", err))
		return
	}

	now := time.Now()
	var idempotencyKeyPtr *string
	if idempotencyKey != "" {
		idempotencyKeyPtr = &idempotencyKey
	}
	warningsJSON, _ := json.Marshal(mapping.Warnings)

	imp := &models.Import{
		ID:             importID,
		TenantID:       tenantID,
		Filename:       file.Filename,
		FileSize:       file.Size,
		Status:         "pending",
		RowCount:       len(table.Rows),
		Warnings:       warningsJSON,
		IdempotencyKey: idempotencyKeyPtr,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.importRepo.Create(c.Request.Context(), imp); err != nil {
		response.InternalError(c, fmt.Sprintf("failed to create import record: %v", err))
		return
	}
	session.ImportID = importID

	response.Success(c, http.StatusCreated, gin.H{
		"session_id": session.ID,
		"import_id":  importID,
		"filename":   file.Filename,
		"row_count":  len(table.Rows),
		"state":      session.State(),
		"mapping":    mappingView(mapping),
		"warnings":   mapping.Warnings,
	})
}

// HandleGetSession handles GET /api/v1/imports/:session_id.
func (h *ImportHandler) HandleGetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	body := gin.H{
		"session_id": session.ID,
		"import_id":  session.ImportID,
		"filename":   session.Filename,
		"state":      session.State(),
		"progress":   session.Progress(),
	}
	if mapping := session.Mapping(); mapping != nil {
		body["mapping"] = mappingView(mapping)
		body["warnings"] = mapping.Warnings
	}
	if result := session.Result(); result != nil {
		body["result"] = result
	}

	response.Success(c, http.StatusOK, body)
}

// mappingOverrideRequest is the PUT body for manual mapping overrides. A
// null field value marks the header as ignored.
type mappingOverrideRequest struct {
	Overrides map[string]*string `json:"overrides" binding:"required"`
}

// HandleUpdateMapping handles PUT /api/v1/imports/:session_id/mapping.
func (h *ImportHandler) HandleUpdateMapping(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req mappingOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "overrides object is required", nil)
		return
	}

	var mapping *schema.HeaderMapping
	for header, fieldName := range req.Overrides {
		var field *schema.CanonicalField
		if fieldName != nil {
			f := schema.CanonicalField(*fieldName)
			field = &f
		}

		var err error
		mapping, err = session.OverrideMapping(header, field)
		if err != nil {
			if errors.Is(err, importer.ErrImportStarted) {
				response.Conflict(c, err.Error(), nil)
				return
			}
			response.BadRequest(c, err.Error(), nil)
			return
		}
	}

	if mapping == nil {
		mapping = session.Mapping()
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id": session.ID,
		"state":      session.State(),
		"mapping":    mappingView(mapping),
		"warnings":   mapping.Warnings,
	})
}

// HandlePreview handles POST /api/v1/imports/:session_id/preview:
// confirming the mapping runs normalization, validation, and duplicate
// classification over every row.
func (h *ImportHandler) HandlePreview(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	rows, err := session.Preview(c.Request.Context(), h.customerRepo)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrMappingIncomplete):
			response.UnprocessableEntity(c, "MAPPING_ERROR", err.Error(), nil)
		case errors.Is(err, importer.ErrImportStarted):
			response.Conflict(c, err.Error(), nil)
		case errors.Is(err, importer.ErrInvalidTransition):
			response.UnprocessableEntity(c, "INVALID_STATE", err.Error(), nil)
		default:
			response.InternalError(c, fmt.Sprintf("preview failed: %v", err))
		}
		return
	}

	h.touchImport(c.Request.Context(), session, "validated", nil, nil)

	preview := make([]gin.H, 0, len(rows))
	var newCount, duplicateCount, invalidCount int
	for _, row := range rows {
		entry := gin.H{
			"row_index": row.Row.SourceRowIndex,
			"name":      row.Row.Name,
			"phone":     row.Row.Phone,
		}
		switch {
		case !row.Valid():
			entry["status"] = "error"
			entry["errors"] = row.Errors
			invalidCount++
		case row.DuplicateOf != nil:
			entry["status"] = "duplicate-update"
			entry["duplicate_of"] = row.DuplicateOf
			duplicateCount++
		default:
			entry["status"] = "new"
			newCount++
		}
		preview = append(preview, entry)
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id": session.ID,
		"state":      session.State(),
		"rows":       preview,
		"summary": gin.H{
			"total":      len(rows),
			"new":        newCount,
			"duplicates": duplicateCount,
			"invalid":    invalidCount,
		},
	})
}

// HandleExecute handles POST /api/v1/imports/:session_id/execute: the user
// confirms the import and the batch runs in the background; progress and
// result are polled.
func (h *ImportHandler) HandleExecute(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if session.State() != importer.StateValidated {
		response.UnprocessableEntity(c, "INVALID_STATE",
			fmt.Sprintf("import cannot start from state %q", session.State()), nil)
		return
	}

	h.touchImport(c.Request.Context(), session, "importing", nil, nil)

	go func() {
		bgCtx := context.Background()
		result, err := session.Execute(bgCtx, h.executor, h.customerRepo, nil)
		if err != nil {
			errMsg := err.Error()
			h.touchImport(bgCtx, session, "failed", result, &errMsg)
			return
		}
		h.touchImport(bgCtx, session, "completed", result, nil)
	}()

	response.Success(c, http.StatusAccepted, gin.H{
		"session_id": session.ID,
		"state":      importer.StateImporting,
	})
}

// HandleProgress handles GET /api/v1/imports/:session_id/progress.
func (h *ImportHandler) HandleProgress(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	body := gin.H{
		"session_id": session.ID,
		"state":      session.State(),
		"percent":    session.Progress(),
	}
	if result := session.Result(); result != nil {
		body["result"] = result
	}
	response.Success(c, http.StatusOK, body)
}

// HandleDiscard handles DELETE /api/v1/imports/:session_id.
func (h *ImportHandler) HandleDiscard(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if session.State() == importer.StateImporting {
		response.Conflict(c, "import is running and cannot be discarded", nil)
		return
	}

	if session.State() != importer.StateCompleted {
		h.touchImport(c.Request.Context(), session, "discarded", nil, nil)
	}
	_ = h.sessions.Delete(session.TenantID, session.ID)

	response.Success(c, http.StatusOK, gin.H{"session_id": session.ID, "discarded": true})
}

// HandleTemplate handles GET /api/v1/imports/template: the downloadable
// example workbook with canonical headers and sample rows.
func (h *ImportHandler) HandleTemplate(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="customer-import-template.xlsx"`)

	if err := ingest.WriteTemplate(c.Writer); err != nil {
		slog.Error("failed to write import template", "error", err)
	}
}

// session resolves the :session_id path param to a tenant-owned session,
// responding 404 on any miss.
func (h *ImportHandler) session(c *gin.Context) (*importer.Session, bool) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.BadRequest(c, "invalid session_id format", nil)
		return nil, false
	}

	session, err := h.sessions.Get(tenantID, sessionID)
	if err != nil {
		response.NotFound(c, "import session not found")
		return nil, false
	}
	return session, true
}

// touchImport updates the audit record for the session's import; failures
// are logged, never surfaced, because the audit trail must not break the
// workflow.
func (h *ImportHandler) touchImport(ctx context.Context, session *importer.Session, status string, result *importer.ImportResult, lastError *string) {
	if session.ImportID == uuid.Nil {
		return
	}

	imp, err := h.importRepo.GetByID(ctx, session.TenantID, session.ImportID)
	if err != nil || imp == nil {
		slog.Warn("failed to load import audit record",
			"import_id", session.ImportID, "error", err)
		return
	}

	imp.Status = status
	imp.LastError = lastError
	if result != nil {
		imp.InsertedCount = result.Inserted
		imp.UpdatedCount = result.Updated
		imp.SkippedCount = result.Skipped
	}
	imp.UpdatedAt = time.Now()

	if err := h.importRepo.Update(ctx, imp); err != nil {
		slog.Warn("failed to update import audit record",
			"import_id", session.ImportID, "error", err)
	}
}

// mappingView renders a header mapping in source column order for the
// mapping screen.
func mappingView(mapping *schema.HeaderMapping) []gin.H {
	view := make([]gin.H, 0, len(mapping.Headers))
	for _, header := range mapping.Headers {
		entry := gin.H{"header": header}
		if field := mapping.FieldFor(header); field != "" {
			entry["field"] = field
			entry["label"] = schema.LabelFor(field)
		} else {
			entry["field"] = nil
		}
		view = append(view, entry)
	}
	return view
}
