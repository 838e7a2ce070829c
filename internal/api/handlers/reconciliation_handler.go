// internal/api/handlers/reconciliation_handler.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mycloudhospitality/gstr-recon/internal/api/responses"
	"github.com/mycloudhospitality/gstr-recon/internal/config"
	"github.com/mycloudhospitality/gstr-recon/internal/core/document"
	"github.com/mycloudhospitality/gstr-recon/internal/core/reconcile"
	"github.com/mycloudhospitality/gstr-recon/internal/core/spreadsheet"
	"github.com/mycloudhospitality/gstr-recon/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReconciliationHandler handles GSTR-1 reconciliation requests: the filed
// return workbook and the portal PDF export arrive as multipart files, the
// comparison table goes back as JSON or as a downloadable workbook.
type ReconciliationHandler struct {
	spreadsheets spreadsheet.Service
	documents    document.Service
	engine       reconcile.Service
	cfg          *config.Config
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(spreadsheets spreadsheet.Service, documents document.Service, engine reconcile.Service, cfg *config.Config) *ReconciliationHandler {
	return &ReconciliationHandler{
		spreadsheets: spreadsheets,
		documents:    documents,
		engine:       engine,
		cfg:          cfg,
	}
}

type reconciliationResult struct {
	Meta domain.EntityMetadata
	Rows []domain.ReconciliationRow
}

// run executes the full pipeline for one request. It reports its own errors
// and returns false when the response has already been written.
func (h *ReconciliationHandler) run(c *gin.Context) (*reconciliationResult, bool) {
	gstr1Header, err := c.FormFile("gstr1File")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "GSTR-1 file (gstr1File) not found or invalid")
		return nil, false
	}
	pdfHeader, err := c.FormFile("gstPdfFile")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "GST export PDF (gstPdfFile) not found or invalid")
		return nil, false
	}

	gstr1File, err := gstr1Header.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "could not open the GSTR-1 file")
		return nil, false
	}
	defer gstr1File.Close()

	pdfFile, err := pdfHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "could not open the GST export PDF")
		return nil, false
	}
	defer pdfFile.Close()

	ctx := c.Request.Context()

	meta, excelRecord, err := h.spreadsheets.Extract(ctx, gstr1File, gstr1Header.Filename, logProgress("gstr1"))
	if err != nil {
		responses.Error(c, http.StatusUnprocessableEntity, "could not read the GSTR-1 file", err.Error())
		return nil, false
	}

	pdfData, err := io.ReadAll(pdfFile)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "could not read the GST export PDF")
		return nil, false
	}
	pdfRecord, err := h.documents.Extract(ctx, pdfData, logProgress("gst_pdf"))
	if err != nil {
		responses.Error(c, http.StatusUnprocessableEntity, "could not read the GST export PDF", err.Error())
		return nil, false
	}

	rows := h.engine.Reconcile(excelRecord, pdfRecord, h.cfg.Rules)
	return &reconciliationResult{Meta: meta, Rows: rows}, true
}

// HandleReconcile returns the reconciliation table and hotel details as JSON.
func (h *ReconciliationHandler) HandleReconcile(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hotel_details": result.Meta,
		"columns":       h.cfg.OutputColumns,
		"rows":          result.Rows,
	})
}

// HandleExport returns the reconciliation table as a downloadable workbook.
func (h *ReconciliationHandler) HandleExport(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}

	report, err := h.engine.BuildReport(result.Rows, h.cfg.OutputColumns)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "could not build the reconciliation workbook", err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+h.engine.ReportFilename(result.Meta))
	c.Data(http.StatusOK, xlsxContentType, report)
}

// logProgress surfaces per-page/per-sheet extraction progress in the debug
// log; there is no streaming channel back to the uploader.
func logProgress(source string) domain.ProgressFunc {
	return func(done, total int) {
		zap.L().Debug("extraction progress",
			zap.String("source", source),
			zap.Int("done", done),
			zap.Int("total", total))
	}
}
