// Package caddy drives the reverse proxy's administrative HTTP API. The
// proxy itself is an external collaborator: this client only replaces its
// active configuration and reports control-plane health.
package caddy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/localplatform/homeroute-sub001/internal/logging"
)

const (
	// pushTimeout bounds a configuration load. There is no retry here;
	// retry policy belongs to the caller.
	pushTimeout = 10 * time.Second

	statusTimeout = 5 * time.Second
)

// Client is the interface for proxy control-plane operations.
type Client interface {
	// Push replaces the proxy's entire active configuration.
	Push(ctx context.Context, config map[string]interface{}) error
	// Status reports control-plane reachability and whether a
	// configuration is currently loaded.
	Status(ctx context.Context) Status
}

// Status describes the control plane as seen by the dashboard.
type Status struct {
	Reachable    bool   `json:"reachable"`
	ConfigLoaded bool   `json:"configLoaded"`
	Error        string `json:"error,omitempty"`
}

type client struct {
	logger  *logging.Logger
	http    *http.Client
	baseURL string
}

// NewClient creates a control-plane client against the admin API base URL.
func NewClient(adminAPI string) Client {
	return &client{
		logger:  logging.GetGlobalLogger(),
		http:    &http.Client{},
		baseURL: adminAPI,
	}
}

// Push serializes the compiled configuration and issues a single
// administrative load call, replacing the proxy's active configuration.
// After a successful load it polls the config endpoint once to confirm a
// configuration is active; an unconfirmed load is logged, not failed, since
// the proxy may still be draining old connections.
func (c *client) Push(ctx context.Context, config map[string]interface{}) error {
	body, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/load", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach proxy admin API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("proxy rejected configuration (status %d): %s", resp.StatusCode, string(respBody))
	}

	status := c.Status(ctx)
	if !status.Reachable || !status.ConfigLoaded {
		c.logger.Warn("Configuration loaded but convergence not confirmed: %+v", status)
	} else {
		c.logger.Info("Successfully pushed configuration to proxy")
	}
	return nil
}

// Status issues a lightweight read against the config endpoint. Used for
// dashboard health display, not by the compile pipeline.
func (c *client) Status(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/config/", nil)
	if err != nil {
		return Status{Error: err.Error()}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Status{Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Status{Reachable: true, Error: fmt.Sprintf("admin API returned status %d: %s", resp.StatusCode, string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Status{Reachable: true, Error: err.Error()}
	}

	// The admin API reports "null" when nothing has been loaded yet.
	trimmed := bytes.TrimSpace(body)
	loaded := len(trimmed) > 0 && string(trimmed) != "null"
	return Status{Reachable: true, ConfigLoaded: loaded}
}
