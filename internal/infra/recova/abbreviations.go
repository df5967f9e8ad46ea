package recova

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/recova/admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- Abbreviations resource (implements port.AbbreviationGateway) ---

// ListAbbreviations fetches remark abbreviations, optionally only active ones.
func (c *Client) ListAbbreviations(ctx context.Context, token string, activeOnly bool) ([]domain.Abbreviation, error) {
	ctx, span := tracer.Start(ctx, "Recova.Abbreviations.List")
	defer span.End()

	path := "abbreviations/"
	if activeOnly {
		path += "?active_only=true"
	}
	body, err := c.get(ctx, "abbreviations", "list", path, token)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Abbreviation](body, "abbreviations", "abbreviations", "items")
}

// CreateAbbreviation submits a new abbreviation draft.
func (c *Client) CreateAbbreviation(ctx context.Context, token string, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error) {
	ctx, span := tracer.Start(ctx, "Recova.Abbreviations.Create")
	defer span.End()

	body, err := c.sendJSON(ctx, "abbreviations", "create", http.MethodPost, "abbreviations/", token, draft)
	if err != nil {
		return nil, err
	}
	var abbr domain.Abbreviation
	if err := json.Unmarshal(body, &abbr); err != nil {
		return nil, fmt.Errorf("decode abbreviation: %w", err)
	}
	return &abbr, nil
}

// UpdateAbbreviation submits the modified record. Edits to system defaults are
// forwarded as-is; the core decides whether to reject them.
func (c *Client) UpdateAbbreviation(ctx context.Context, token string, id int, draft *domain.AbbreviationDraft) (*domain.Abbreviation, error) {
	ctx, span := tracer.Start(ctx, "Recova.Abbreviations.Update")
	defer span.End()
	span.SetAttributes(attribute.Int("abbreviation.id", id))

	body, err := c.sendJSON(ctx, "abbreviations", "update", http.MethodPut, fmt.Sprintf("abbreviations/%d", id), token, draft)
	if err != nil {
		return nil, err
	}
	var abbr domain.Abbreviation
	if err := json.Unmarshal(body, &abbr); err != nil {
		return nil, fmt.Errorf("decode abbreviation: %w", err)
	}
	return &abbr, nil
}

// DeleteAbbreviation removes an abbreviation.
func (c *Client) DeleteAbbreviation(ctx context.Context, token string, id int) error {
	ctx, span := tracer.Start(ctx, "Recova.Abbreviations.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int("abbreviation.id", id))

	_, err := c.send(ctx, "abbreviations", "delete", http.MethodDelete, fmt.Sprintf("abbreviations/%d", id), token, "", nil)
	return err
}

// SetAbbreviationActive toggles the active flag via the dedicated endpoints.
func (c *Client) SetAbbreviationActive(ctx context.Context, token string, id int, active bool) error {
	ctx, span := tracer.Start(ctx, "Recova.Abbreviations.SetActive")
	defer span.End()
	span.SetAttributes(attribute.Int("abbreviation.id", id), attribute.Bool("active", active))

	action := "deactivate"
	if active {
		action = "activate"
	}
	_, err := c.send(ctx, "abbreviations", action, http.MethodPost, fmt.Sprintf("abbreviations/%d/%s", id, action), token, "", nil)
	return err
}
