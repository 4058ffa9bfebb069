package server

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shinertx/jenni-shopify/internal/fingerprint"
)

var zipRe = regexp.MustCompile(`^[0-9A-Za-z\-\s]{3,10}$`)

type resolveRequest struct {
	Zip         string                  `json:"zip"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

// Resolve answers "can this product reach this ZIP today, profitably".
// Provider failures surface as a degraded decision, never a 5xx.
func (s *Server) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Zip = strings.TrimSpace(req.Zip)
	if req.Zip == "" {
		req.Zip = "10001"
	}
	if !zipRe.MatchString(req.Zip) {
		AbortWithError(c, newValidationError("zip", "invalid_zip", "invalid zip"))
		return
	}

	resolution := s.engine.Resolve(c.Request.Context(), req.Zip, req.Fingerprint)
	c.JSON(http.StatusOK, resolution)
}
