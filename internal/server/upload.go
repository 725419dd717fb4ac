package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/extract"
	"github.com/monicap360/move-around-tms/internal/pipeline"
)

// UploadRequest is the body of POST /api/ocr/upload.
type UploadRequest struct {
	Kind           string        `json:"kind" binding:"omitempty,oneof=ticket hr"`
	FileURL        string        `json:"file_url"`
	ImageURL       string        `json:"imageUrl"`
	ImageBase64    string        `json:"imageBase64"`
	DriverID       string        `json:"driverId"`
	FleetID        string        `json:"fleetId"`
	MissingTicket  bool          `json:"missingTicket"`
	TargetWeek     string        `json:"targetWeek"`
	Reason         string        `json:"reason"`
	FullNameHint   string        `json:"full_name_hint"`
	OrganizationID string        `json:"organization_id"`
	ProjectID      string        `json:"project_id"`
	TruckID        string        `json:"truck_id"`
	Trip           pipeline.Trip `json:"trip"`
}

func (r UploadRequest) source() (extract.ImageSource, error) {
	src := extract.ImageSource{URL: r.FileURL}
	if src.URL == "" {
		src.URL = r.ImageURL
	}
	if r.ImageBase64 != "" {
		data, err := common.DecodeBase64Image(r.ImageBase64)
		if err != nil {
			return src, common.InvalidInput("imageBase64 is not valid base64")
		}
		src.Data = data
	}
	return src, src.Validate()
}

func (r UploadRequest) late() *entity.LateSubmission {
	if !r.MissingTicket && r.TargetWeek == "" && r.Reason == "" {
		return nil
	}
	return &entity.LateSubmission{MissingTicket: r.MissingTicket, TargetWeek: r.TargetWeek, Reason: r.Reason}
}

func (h *handlers) upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, "http.upload.bad_request", bindError(err))
		return
	}
	src, err := req.source()
	if err != nil {
		h.writeError(c, "http.upload.bad_request", err)
		return
	}

	out, err := h.Processor.Process(c.Request.Context(), pipeline.Submission{
		Kind:           req.Kind,
		Source:         src,
		OrganizationID: orgFromRequest(c, req.OrganizationID),
		ProjectID:      strOrNil(req.ProjectID),
		DriverID:       strOrNil(req.DriverID),
		FleetID:        strOrNil(req.FleetID),
		TruckID:        strOrNil(req.TruckID),
		FullNameHint:   req.FullNameHint,
		Late:           req.late(),
		Trip:           req.Trip,
	})
	if err != nil {
		h.writeError(c, "http.upload.failed", err)
		return
	}

	if out.HR != nil {
		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"kind":            out.Kind,
			"docType":         out.HR.DocType,
			"expiration_date": out.HR.ExpirationDate,
			"matched_driver":  out.HR.MatchedDriver,
			"inserted":        out.HR.Inserted,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"kind":            out.Kind,
		"ticket":          out.Ticket.Ticket,
		"matched_partner": out.Ticket.MatchedPartner,
		"matched_driver":  out.Ticket.MatchedDriver,
		"extracted_data":  out.Ticket.Extracted,
		"rates":           out.Ticket.Rates,
	})
}
