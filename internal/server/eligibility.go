package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shinertx/jenni-shopify/internal/eligibility"
	"go.uber.org/zap"
)

// Eligibility exposes the raw eligibility check for one identifier and ZIP.
func (s *Server) Eligibility(c *gin.Context) {
	gtin := strings.TrimSpace(c.Query("gtin"))
	zip := strings.TrimSpace(c.Query("zip"))
	if gtin == "" || zip == "" {
		AbortWithError(c, newValidationError("gtin", "missing_gtin_or_zip", "gtin and zip are required"))
		return
	}
	storeID := strings.TrimSpace(c.DefaultQuery("storeId", "demo-store"))

	result, err := s.eligibility.Check(c.Request.Context(), eligibility.Query{
		StoreID: storeID,
		Zip:     zip,
		GTIN:    gtin,
	})
	if err != nil {
		// Degrade instead of surfacing a provider failure.
		s.log.Warn("eligibility endpoint degraded", zap.Error(err))
		c.JSON(http.StatusOK, eligibility.Result{})
		return
	}
	c.JSON(http.StatusOK, result)
}
