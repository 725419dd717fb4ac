package confidence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

// Windows are trailing-window lengths in days per baseline tier.
type Windows struct {
	Driver int
	Site   int
}

var verticalWindows = map[string]Windows{
	"construction": {Driver: 30, Site: 90},
	"aggregates":   {Driver: 30, Site: 120},
	"waste":        {Driver: 14, Site: 60},
	"logistics":    {Driver: 14, Site: 45},
	"agriculture":  {Driver: 45, Site: 180},
}

var defaultWindows = Windows{Driver: 30, Site: 90}

// WindowsFor returns the windows for a vertical, falling back to the defaults.
func WindowsFor(vertical string) Windows {
	if w, ok := verticalWindows[strings.ToLower(strings.TrimSpace(vertical))]; ok {
		return w
	}
	return defaultWindows
}

// OrgStore resolves an organization's declared industry vertical.
type OrgStore interface {
	Vertical(ctx context.Context, orgID string) (string, error)
}

// VerticalScorer picks the window from the organization's vertical before scoring.
type VerticalScorer struct {
	*Scorer
	orgs OrgStore
}

func NewVerticalScorer(s *Scorer, orgs OrgStore) *VerticalScorer {
	return &VerticalScorer{Scorer: s, orgs: orgs}
}

// ScoreForVertical overrides the windows from the vertical: the driver tier uses the
// driver window while the site and global fallbacks use the site window.
func (v *VerticalScorer) ScoreForVertical(ctx context.Context, orgID string, req Request) (entity.ConfidenceScore, error) {
	vertical := ""
	if orgID != "" && v.orgs != nil {
		var err error
		vertical, err = v.orgs.Vertical(ctx, orgID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			v.logger.Warn("confidence.unknown_organization", "organization_id", orgID)
		case err != nil:
			return entity.ConfidenceScore{}, fmt.Errorf("load vertical: %w", err)
		}
	}
	w := WindowsFor(vertical)
	req.DriverWindowDays, req.WindowDays = w.Driver, w.Site
	req.OrganizationID = orgID
	return v.ScoreFieldConfidence(ctx, req)
}
