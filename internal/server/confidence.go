package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/monicap360/move-around-tms/internal/confidence"
	"github.com/monicap360/move-around-tms/internal/entity"
)

// ScoreResponse flattens the score so confidence.RemoteScorer can decode it directly.
type ScoreResponse struct {
	entity.ConfidenceScore
	IsAnomaly bool   `json:"is_anomaly"`
	Severity  string `json:"severity"`
}

func (h *handlers) scoreField(c *gin.Context) {
	var req confidence.RemoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, "http.score.bad_request", bindError(err))
		return
	}
	org := ""
	if p := orgFromRequest(c, req.OrganizationID); p != nil {
		org = *p
	}

	ctx := c.Request.Context()
	score, err := h.Scorer.ScoreForVertical(ctx, org, req.Request)
	if err != nil {
		h.writeError(c, "http.score.failed", err)
		return
	}
	if h.Scores != nil {
		if err := h.Scores.Save(ctx, score); err != nil {
			h.writeError(c, "http.score.save_failed", err)
			return
		}
	}
	h.Metrics.ObserveFieldScore(score.FieldName, score.BaselineType, score.Score)

	c.JSON(http.StatusOK, ScoreResponse{
		ConfidenceScore: score,
		IsAnomaly:       confidence.IsAnomaly(score.Score),
		Severity:        confidence.AnomalySeverity(score.Score),
	})
}
