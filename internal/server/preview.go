package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shinertx/jenni-shopify/internal/fingerprint"
	"go.uber.org/zap"
)

type previewRequest struct {
	URL string `json:"url"`
	Zip string `json:"zip"`
}

// Preview fetches a product page server-side, fingerprints it, and runs the
// same resolution the extension would get with a pre-built fingerprint.
func (s *Server) Preview(c *gin.Context) {
	if !s.previewRate.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": gin.H{"code": "rate_limited", "message": "too many preview requests"}})
		return
	}

	var req previewRequest
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

	html, err := s.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadURL):
			AbortWithError(c, newValidationError("url", "invalid_url", "url must be http or https"))
		case errors.Is(err, ErrBlockedHost):
			AbortWithError(c, newValidationError("url", "blocked_host", "host is not allowed"))
		default:
			// The page being unreachable is not the shopper's fault; ack
			// with a degraded payload rather than a bare error.
			s.log.Warn("preview fetch failed", zap.String("url", req.URL), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"fetched": false, "error": "fetch_failed"})
		}
		return
	}

	fp := fingerprint.ParseHTML(html, req.URL)
	resolution := s.engine.Resolve(c.Request.Context(), req.Zip, fp)
	c.JSON(http.StatusOK, gin.H{"fetched": true, "fingerprint": fp, "resolution": resolution})
}
