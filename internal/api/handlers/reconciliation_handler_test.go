// internal/api/handlers/reconciliation_handler_test.go
package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycloudhospitality/gstr-recon/internal/config"
	"github.com/mycloudhospitality/gstr-recon/internal/core/document"
	"github.com/mycloudhospitality/gstr-recon/internal/core/reconcile"
	"github.com/mycloudhospitality/gstr-recon/internal/core/spreadsheet"
	"github.com/mycloudhospitality/gstr-recon/internal/domain"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Rules: []domain.ReconciliationRule{
			{Key: domain.FieldTotalTaxableValue, Label: "Total Taxable Value", Match: domain.PolicyExact},
		},
		OutputColumns:  []string{"Component", "GSTR-1 Value", "GST Export Value", "Logic", "Status", "Discrepancy"},
		TolerantStatus: domain.StatusMatched,
	}
	h := NewReconciliationHandler(spreadsheet.NewService(), document.NewService(), reconcile.NewService(cfg.TolerantStatus), cfg)
	router := gin.New()
	router.POST("/api/v1/reconcile", h.HandleReconcile)
	return router
}

func postMultipart(t *testing.T, router *gin.Engine, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, content := range files {
		part, err := writer.CreateFormFile(field, field+".bin")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleReconcileMissingFiles(t *testing.T) {
	router := testRouter()

	t.Run("no gstr1 file", func(t *testing.T) {
		rec := postMultipart(t, router, map[string][]byte{"gstPdfFile": []byte("x")})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "gstr1File")
	})

	t.Run("no pdf file", func(t *testing.T) {
		rec := postMultipart(t, router, map[string][]byte{"gstr1File": []byte("x")})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "gstPdfFile")
	})
}

func TestHandleReconcileRejectsUnreadableInputs(t *testing.T) {
	router := testRouter()
	rec := postMultipart(t, router, map[string][]byte{
		"gstr1File":  []byte("not a workbook"),
		"gstPdfFile": []byte("not a pdf"),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
