package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shinertx/jenni-shopify/internal/ranker"
)

// Places exposes ranked fulfillment candidates for a product query and ZIP.
func (s *Server) Places(c *gin.Context) {
	zip := strings.TrimSpace(c.DefaultQuery("zip", "10001"))
	if !zipRe.MatchString(zip) {
		AbortWithError(c, newValidationError("zip", "invalid_zip", "invalid zip"))
		return
	}
	probe := c.Query("probe") == "1" || strings.EqualFold(c.Query("probe"), "true")

	nodes := s.ranker.Rank(c.Request.Context(), ranker.Request{
		Zip:       zip,
		Query:     c.DefaultQuery("q", "sneakers"),
		Brand:     c.Query("brand"),
		StyleCode: c.Query("sc"),
		Probe:     probe,
	})
	if len(nodes) > 5 {
		nodes = nodes[:5]
	}
	c.JSON(http.StatusOK, gin.H{"node_count": len(nodes), "nodes": nodes})
}
