package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Aashish23092/pdf-reconciliation/dto"
	"github.com/Aashish23092/pdf-reconciliation/logger"
	"github.com/Aashish23092/pdf-reconciliation/metrics"
	"github.com/Aashish23092/pdf-reconciliation/report"
	"github.com/Aashish23092/pdf-reconciliation/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	errNotPDF       = errors.New("only PDF files are accepted")
	errFileTooLarge = errors.New("file exceeds the size limit")
)

type ReconcileHandler struct {
	reconcileService *service.ReconcileService
	metrics          *metrics.Metrics
	maxFileSize      int64
	log              zerolog.Logger
}

func NewReconcileHandler(reconcileService *service.ReconcileService, m *metrics.Metrics, maxFileSize int64, log zerolog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		reconcileService: reconcileService,
		metrics:          m,
		maxFileSize:      maxFileSize,
		log:              log.With().Str("component", "http").Logger(),
	}
}

type runResult struct {
	runID   string
	records []dto.DocumentRecord
	totals  dto.TotalsResponse
}

// Reconcile handles POST /api/v1/reconcile
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ReconcileResponse{
		RunID:       res.runID,
		Records:     res.records,
		Totals:      res.totals,
		ProcessedAt: time.Now().Format(time.RFC3339),
	})
}

// Report handles POST /api/v1/reconcile/report and answers with the XLSX.
func (h *ReconcileHandler) Report(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	data, err := report.BuildXLSX(res.records, res.totals)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	h.metrics.ObserveReport("xlsx")

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(time.Now(), "xlsx")))
	c.Header("X-Run-ID", res.runID)
	c.Data(http.StatusOK, report.XLSXType, data)
}

func (h *ReconcileHandler) run(c *gin.Context) (runResult, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return runResult{}, false
	}

	request := &dto.ReconcileRequest{
		Revenue: form.File["revenue[]"],
		Expense: form.File["expense[]"],
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return runResult{}, false
	}

	runID := uuid.NewString()
	log := logger.WithFields(h.log, map[string]interface{}{
		"run_id":    runID,
		"client_ip": c.ClientIP(),
	})
	log.Info().Int("revenue", len(request.Revenue)).Int("expense", len(request.Expense)).Msg("reconcile request received")

	tempDir, err := os.MkdirTemp("", "reconcile-")
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to stage uploads", err)
		return runResult{}, false
	}
	defer os.RemoveAll(tempDir)

	ctx := c.Request.Context()
	var records []dto.DocumentRecord
	for _, batch := range []struct {
		category dto.Category
		files    []*multipart.FileHeader
	}{
		{dto.CategoryRevenue, request.Revenue},
		{dto.CategoryExpense, request.Expense},
	} {
		paths, status, err := h.stage(c, tempDir, batch.category, batch.files)
		if err != nil {
			h.sendError(c, status, err.Error(), err)
			return runResult{}, false
		}
		out := h.reconcileService.Process(ctx, paths, batch.category)
		for i := range out {
			out[i].FilePath = batch.files[i].Filename
		}
		records = append(records, out...)
	}

	totals := service.TotalsResponse(service.Summarize(records))
	log.Info().Int("documents", len(records)).Int("pending", totals.Pending).
		Str("balance", totals.Formatted["balance"]).Msg("reconcile completed")

	return runResult{runID: runID, records: records, totals: totals}, true
}

// stage saves uploads to disk; each file gets its own directory so equal
// names do not collide.
func (h *ReconcileHandler) stage(c *gin.Context, dir string, category dto.Category, files []*multipart.FileHeader) ([]string, int, error) {
	paths := make([]string, 0, len(files))
	for i, fh := range files {
		if !service.IsPDF(fh.Filename) {
			return nil, http.StatusBadRequest, fmt.Errorf("%w: %s", errNotPDF, fh.Filename)
		}
		if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: %s", errFileTooLarge, fh.Filename)
		}
		dst := filepath.Join(dir, string(category), strconv.Itoa(i), filepath.Base(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			return nil, http.StatusInternalServerError, fmt.Errorf("failed to save %s: %w", fh.Filename, err)
		}
		paths = append(paths, dst)
	}
	return paths, 0, nil
}

// sendError sends a structured error response
func (h *ReconcileHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		h.log.Warn().Err(err).Msg(message)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "RECONCILIATION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
