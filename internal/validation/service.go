package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/entity"
)

// RuleStore lists the active rules for an organization (nil = global rules only).
type RuleStore interface {
	ListActive(ctx context.Context, orgID *string) ([]entity.ValidationRule, error)
}

// GeofenceStore lists geofences for a project or the org-wide set.
type GeofenceStore interface {
	ListForProject(ctx context.Context, projectID string) ([]entity.Geofence, error)
	ListOrgWide(ctx context.Context, orgID *string) ([]entity.Geofence, error)
}

// TruckStore resolves truck capacity; unknown trucks return nil.
type TruckStore interface {
	CapacityTons(ctx context.Context, truckID string) (*float64, error)
}

// TicketStore is the slice of the ticket repository the validation service needs.
type TicketStore interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
	UpdateDistance(ctx context.Context, id uuid.UUID, miles float64) error
	SaveValidation(ctx context.Context, id uuid.UUID, summary entity.ValidationSummary) error
}

// Service loads configuration, runs the engine and applies permitted corrections.
type Service struct {
	logger    *slog.Logger
	engine    *Engine
	rules     RuleStore
	geofences GeofenceStore
	trucks    TruckStore
	tickets   TicketStore
}

func NewService(logger *slog.Logger, engine *Engine, rules RuleStore, geofences GeofenceStore, trucks TruckStore, tickets TicketStore) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = NewEngine(logger)
	}
	return &Service{
		logger:    logger,
		engine:    engine,
		rules:     rules,
		geofences: geofences,
		trucks:    trucks,
		tickets:   tickets,
	}
}

// BuildCandidate resolves rules, geofences and truck capacity for a ticket.
func (s *Service) BuildCandidate(ctx context.Context, t entity.Ticket) (Candidate, error) {
	c := Candidate{Ticket: t}
	rules, err := s.rules.ListActive(ctx, t.OrganizationID)
	if err != nil {
		return c, fmt.Errorf("load rules: %w", err)
	}
	c.Rules = rules

	if _, ok := SelectRules(rules)[constants.RuleLocation]; ok {
		if t.ProjectID != nil && *t.ProjectID != "" {
			c.Geofences, err = s.geofences.ListForProject(ctx, *t.ProjectID)
		} else {
			c.Geofences, err = s.geofences.ListOrgWide(ctx, t.OrganizationID)
		}
		if err != nil {
			return c, fmt.Errorf("load geofences: %w", err)
		}
	}

	if t.TruckID != nil && *t.TruckID != "" {
		c.TruckCapacity, err = s.trucks.CapacityTons(ctx, *t.TruckID)
		if err != nil {
			return c, fmt.Errorf("load truck capacity: %w", err)
		}
	}
	return c, nil
}

// ValidateTicket validates a stored ticket, persists the summary and applies
// auto-corrections that rules explicitly allowed.
func (s *Service) ValidateTicket(ctx context.Context, ticketID uuid.UUID) (entity.ValidationSummary, error) {
	t, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return entity.ValidationSummary{}, fmt.Errorf("load ticket: %w", err)
	}
	c, err := s.BuildCandidate(ctx, *t)
	if err != nil {
		return entity.ValidationSummary{}, err
	}
	summary := s.engine.ValidateTicket(c)

	for _, corr := range summary.Corrections {
		if corr.Correction == nil || corr.Correction.Field != "distance_miles" {
			continue
		}
		if err := s.tickets.UpdateDistance(ctx, ticketID, corr.Correction.Corrected); err != nil {
			return summary, fmt.Errorf("apply distance correction: %w", err)
		}
		s.logger.Info("validation.correction.applied",
			"ticket_id", ticketID, "field", corr.Correction.Field,
			"original", corr.Correction.Original, "corrected", corr.Correction.Corrected)
	}
	if err := s.tickets.SaveValidation(ctx, ticketID, summary); err != nil {
		return summary, fmt.Errorf("save validation: %w", err)
	}
	s.logger.Info("validation.ok",
		"ticket_id", ticketID,
		"passed", len(summary.Passed), "warnings", len(summary.Warnings),
		"errors", len(summary.Errors), "corrections", len(summary.Corrections),
		"confidence", summary.ConfidenceScore)
	return summary, nil
}
