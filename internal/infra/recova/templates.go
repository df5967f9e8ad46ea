package recova

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/recova/admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// templateSlug maps an operation type to its URL segment, e.g. CREDIT_CARD
// becomes credit-card.
func templateSlug(operationType string) string {
	return strings.ReplaceAll(strings.ToLower(operationType), "_", "-")
}

// DownloadTemplate streams the import template spreadsheet for the given
// operation type. The second return value is the filename to offer the user,
// taken from Content-Disposition when the core sets it. The caller must close
// the reader.
func (c *Client) DownloadTemplate(ctx context.Context, token, operationType string) (io.ReadCloser, string, error) {
	ctx, span := tracer.Start(ctx, "Recova.Templates.Download")
	defer span.End()
	span.SetAttributes(attribute.String("template.operation_type", operationType))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, "", err
	}
	defer c.bulkhead.Release()

	slug := templateSlug(operationType)
	url := fmt.Sprintf("%s/api/v1/templates/%s/download", c.baseURL, slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &domain.ErrNetwork{Resource: "templates", Op: "download", Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, "", &domain.ErrUnauthorized{}
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, "", &domain.ErrNotFound{Resource: "templates", ID: slug}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, "", &domain.ErrUpstream{Resource: "templates", Op: "download", Status: resp.StatusCode, Detail: parseDetail(body)}
	}

	name := fmt.Sprintf("%s_import_template.xlsx", strings.ToLower(operationType))
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}
	return resp.Body, name, nil
}
