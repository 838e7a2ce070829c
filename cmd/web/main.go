// cmd/web/main.go
package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mycloudhospitality/gstr-recon/internal/api/handlers"
	"github.com/mycloudhospitality/gstr-recon/internal/api/middleware"
	"github.com/mycloudhospitality/gstr-recon/internal/api/responses"
	"github.com/mycloudhospitality/gstr-recon/internal/config"
	"github.com/mycloudhospitality/gstr-recon/internal/core/document"
	"github.com/mycloudhospitality/gstr-recon/internal/core/reconcile"
	"github.com/mycloudhospitality/gstr-recon/internal/core/spreadsheet"
)

func main() {
	responses.InitLogger()

	// A missing or malformed rule file is fatal before any upload is served.
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("configuration load failed", zap.Error(err))
	}

	spreadsheetService := spreadsheet.NewService()
	documentService := document.NewService()
	reconcileService := reconcile.NewService(cfg.TolerantStatus)
	reconciliationHandler := handlers.NewReconciliationHandler(spreadsheetService, documentService, reconcileService, cfg)

	router := gin.Default()
	router.MaxMultipartMemory = 32 << 20
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	uploadLimits := []middleware.FileLimit{
		{Field: "gstr1File", MaxBytes: cfg.MaxExcelBytes},
		{Field: "gstPdfFile", MaxBytes: cfg.MaxPDFBytes},
	}

	apiV1 := router.Group("/api/v1")
	{
		gated := apiV1.Group("/")
		gated.Use(middleware.UploadGate(uploadLimits))
		{
			gated.POST("/reconcile", reconciliationHandler.HandleReconcile)
			gated.POST("/reconcile/export", reconciliationHandler.HandleExport)
		}
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	zap.L().Info("server listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		zap.L().Fatal("server failed", zap.Error(err))
	}
}
