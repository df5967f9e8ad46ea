package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

type stubAbbreviationGateway struct {
	created   *domain.AbbreviationDraft
	updated   *domain.AbbreviationDraft
	updateErr error
}

func (g *stubAbbreviationGateway) ListAbbreviations(ctx context.Context, token string, activeOnly bool) ([]domain.Abbreviation, error) {
	return nil, nil
}

func (g *stubAbbreviationGateway) CreateAbbreviation(ctx context.Context, token string, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error) {
	g.created = draft
	return &domain.Abbreviation{ID: 1, Abbreviation: draft.Abbreviation}, nil
}

func (g *stubAbbreviationGateway) UpdateAbbreviation(ctx context.Context, token string, id int, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error) {
	g.updated = draft
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	return &domain.Abbreviation{ID: id, Abbreviation: draft.Abbreviation}, nil
}

func (g *stubAbbreviationGateway) DeleteAbbreviation(ctx context.Context, token string, id int) error {
	return nil
}

func (g *stubAbbreviationGateway) SetAbbreviationActive(ctx context.Context, token string, id int, active bool) error {
	return nil
}

func TestAbbreviationCreate_NormalizesToUpper(t *testing.T) {
	gw := &stubAbbreviationGateway{}
	svc := service.NewAbbreviationService(gw, zap.NewNop())

	_, err := svc.Create(context.Background(), "tok", &domain.AbbreviationDraft{
		Abbreviation: " ptp ",
		Description:  "Promise to pay",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gw.created.Abbreviation != "PTP" {
		t.Errorf("expected normalized abbreviation, got %q", gw.created.Abbreviation)
	}
}

func TestAbbreviationCreate_EnforcesLengthLimit(t *testing.T) {
	svc := service.NewAbbreviationService(&stubAbbreviationGateway{}, zap.NewNop())

	_, err := svc.Create(context.Background(), "tok", &domain.AbbreviationDraft{
		Abbreviation: "TOOLONGCODE", // 11 chars
		Description:  "Too long",
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if verr.Field != "abbreviation" {
		t.Errorf("expected abbreviation rejection, got %q", verr.Field)
	}
}

func TestAbbreviationCreate_RequiresDescription(t *testing.T) {
	svc := service.NewAbbreviationService(&stubAbbreviationGateway{}, zap.NewNop())

	_, err := svc.Create(context.Background(), "tok", &domain.AbbreviationDraft{
		Abbreviation: "PTP",
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) || verr.Field != "description" {
		t.Fatalf("expected description rejection, got %v", err)
	}
}

func TestAbbreviationUpdate_SystemDefaultRejectionSurfaces(t *testing.T) {
	gw := &stubAbbreviationGateway{
		updateErr: &domain.ErrUpstream{Resource: "abbreviations", Op: "update", Status: 400, Detail: "Cannot modify system default abbreviations"},
	}
	svc := service.NewAbbreviationService(gw, zap.NewNop())

	_, err := svc.Update(context.Background(), "tok", 3, &domain.AbbreviationDraft{
		Abbreviation: "PTP",
		Description:  "Promise to pay",
	})
	if err == nil || err.Error() != "Cannot modify system default abbreviations" {
		t.Fatalf("expected server detail verbatim, got %v", err)
	}
}
