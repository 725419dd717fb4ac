package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handlers) validateTicket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.writeError(c, "http.validate.bad_request", common.InvalidInput("ticket id must be a UUID"))
		return
	}
	summary, err := h.Validator.ValidateTicket(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "http.validate.failed", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// exportTickets streams the review queue workbook. Dates are YYYY-MM-DD; only from
// means from..today and neither means everything.
func (h *handlers) exportTickets(c *gin.Context) {
	from, err := parseDay(c.Query("from"))
	if err != nil {
		h.writeError(c, "http.export.bad_request", common.InvalidInput("from must be YYYY-MM-DD"))
		return
	}
	to, err := parseDay(c.Query("to"))
	if err != nil {
		h.writeError(c, "http.export.bad_request", common.InvalidInput("to must be YYYY-MM-DD"))
		return
	}
	status := constants.ReviewStatus(c.DefaultQuery("status", string(constants.StatusPendingReview)))

	data, err := h.Exporter.ExportReviewXLSX(c.Request.Context(), status, from, to)
	if err != nil {
		h.writeError(c, "http.export.failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="tickets-review.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
