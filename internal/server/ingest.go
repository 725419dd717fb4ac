package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type ingestDirectoryRequest struct {
	RootPath   string `json:"root_path" binding:"required"`
	SkipHidden *bool  `json:"skip_hidden"`
}

// ingestDirectory submits every supported file under a server-side directory.
func (h *handlers) ingestDirectory(c *gin.Context) {
	var req ingestDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, "http.ingest.bad_request", bindError(err))
		return
	}
	skip := true
	if req.SkipHidden != nil {
		skip = *req.SkipHidden
	}
	root := strings.TrimSpace(req.RootPath)
	results, stats, err := h.Ingestor.IngestDirectory(c.Request.Context(), root, skip)
	if err != nil {
		h.writeError(c, "http.ingest.failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "stats": stats})
}
