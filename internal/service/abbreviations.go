package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AbbreviationService manages the remark abbreviation dictionary. Director
// only, like clients. Edits to system defaults are forwarded and the core's
// verdict is surfaced verbatim.
type AbbreviationService struct {
	gw     port.AbbreviationGateway
	logger *zap.Logger
}

// NewAbbreviationService creates an abbreviation service.
func NewAbbreviationService(gw port.AbbreviationGateway, logger *zap.Logger) *AbbreviationService {
	return &AbbreviationService{gw: gw, logger: logger}
}

// List fetches abbreviations, optionally only active ones.
func (s *AbbreviationService) List(ctx context.Context, token string, activeOnly bool) ([]domain.Abbreviation, error) {
	ctx, span := tracer.Start(ctx, "AbbreviationService.List")
	defer span.End()

	return s.gw.ListAbbreviations(ctx, token, activeOnly)
}

// Create validates and submits a new abbreviation.
func (s *AbbreviationService) Create(ctx context.Context, token string, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error) {
	ctx, span := tracer.Start(ctx, "AbbreviationService.Create")
	defer span.End()

	if err := validateAbbreviationDraft(draft); err != nil {
		return nil, err
	}

	abbr, err := s.gw.CreateAbbreviation(ctx, token, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("abbreviation created",
		zap.Int("abbreviation_id", abbr.ID),
		zap.String("abbreviation", abbr.Abbreviation),
	)
	return abbr, nil
}

// Update validates and submits the modified record.
func (s *AbbreviationService) Update(ctx context.Context, token string, id int, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error) {
	ctx, span := tracer.Start(ctx, "AbbreviationService.Update")
	defer span.End()
	span.SetAttributes(attribute.Int("abbreviation.id", id))

	if err := validateAbbreviationDraft(draft); err != nil {
		return nil, err
	}
	return s.gw.UpdateAbbreviation(ctx, token, id, draft)
}

// Delete removes an abbreviation.
func (s *AbbreviationService) Delete(ctx context.Context, token string, id int) error {
	ctx, span := tracer.Start(ctx, "AbbreviationService.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int("abbreviation.id", id))

	if err := s.gw.DeleteAbbreviation(ctx, token, id); err != nil {
		return err
	}
	s.logger.Info("abbreviation deleted", zap.Int("abbreviation_id", id))
	return nil
}

// SetActive toggles the active flag.
func (s *AbbreviationService) SetActive(ctx context.Context, token string, id int, active bool) error {
	ctx, span := tracer.Start(ctx, "AbbreviationService.SetActive")
	defer span.End()
	span.SetAttributes(attribute.Int("abbreviation.id", id), attribute.Bool("active", active))

	return s.gw.SetAbbreviationActive(ctx, token, id, active)
}

func validateAbbreviationDraft(draft *domain.AbbreviationDraft) error {
	draft.Abbreviation = strings.ToUpper(strings.TrimSpace(draft.Abbreviation))
	draft.Description = strings.TrimSpace(draft.Description)

	if draft.Abbreviation == "" {
		return &domain.ErrValidation{Field: "abbreviation", Message: "required"}
	}
	if len(draft.Abbreviation) > domain.AbbreviationMaxLen {
		return &domain.ErrValidation{
			Field:   "abbreviation",
			Message: fmt.Sprintf("at most %d characters", domain.AbbreviationMaxLen),
		}
	}
	if draft.Description == "" {
		return &domain.ErrValidation{Field: "description", Message: "required"}
	}
	return nil
}
