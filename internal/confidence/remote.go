package confidence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/httpclient"
)

// ScorePath is the scoring endpoint served by ticketd.
const ScorePath = "/api/confidence/score"

// RemoteRequest is the wire body of the scoring endpoint.
type RemoteRequest struct {
	Request
	OrganizationID string `json:"organization_id,omitempty"`
}

// RemoteScorer calls a scoring endpoint over HTTP.
type RemoteScorer struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewRemoteScorer(baseURL string, client *http.Client, logger *slog.Logger) *RemoteScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteScorer{baseURL: strings.TrimRight(baseURL, "/"), client: client, logger: logger}
}

// ScoreForVertical posts the request; the server picks the window from the vertical.
func (r *RemoteScorer) ScoreForVertical(ctx context.Context, orgID string, req Request) (entity.ConfidenceScore, error) {
	raw, _, err := httpclient.SendJSON(ctx, r.client, r.baseURL+ScorePath, RemoteRequest{Request: req, OrganizationID: orgID}, nil, r.logger)
	if err != nil {
		return entity.ConfidenceScore{}, fmt.Errorf("remote score: %w", err)
	}
	var out entity.ConfidenceScore
	if err := json.Unmarshal(raw, &out); err != nil {
		return entity.ConfidenceScore{}, fmt.Errorf("decode score: %w", err)
	}
	return out, nil
}
