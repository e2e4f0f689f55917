// Package registry is a typed read-only client for the external
// patient/doctor registry. Lookups are used to enrich case records with
// display names at intake; the registry is never written to.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"emergency-ops-backend/config"
)

// ErrNotFound is returned when the registry has no record for the id.
var ErrNotFound = errors.New("registry record not found")

// Patient is the registry's view of a patient.
type Patient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Doctor is the registry's view of a doctor.
type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Client talks to the registry over HTTP.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New builds a registry client from configuration. A nil client (empty
// base URL) disables lookups.
func New(cfg *config.RegistryConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		return nil
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// Enabled reports whether lookups can be performed.
func (c *Client) Enabled() bool {
	return c != nil
}

// LookupPatient fetches a patient record by id.
func (c *Client) LookupPatient(ctx context.Context, id string) (*Patient, error) {
	var patient Patient
	if err := c.get(ctx, "/patients/"+id, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

// LookupDoctor fetches a doctor record by id.
func (c *Client) LookupDoctor(ctx context.Context, id string) (*Doctor, error) {
	var doctor Doctor
	if err := c.get(ctx, "/doctors/"+id, &doctor); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("registry request %s: %w", path, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		c.logger.Warn("unexpected registry response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()))
		return fmt.Errorf("registry request %s: unexpected status %d", path, resp.StatusCode())
	}
}
