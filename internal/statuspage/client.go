// Package statuspage is a minimal client for the status-page REST API the
// incident reconciler drives. One call per action, no retries.
package statuspage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Incident statuses the reconciler understands.
const (
	StatusIdentified = "identified"
	StatusResolved   = "resolved"
)

// Component statuses.
const (
	ComponentOperational = "operational"
	ComponentMajorOutage = "major_outage"
)

type Incident struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Body   string `json:"body,omitempty"`
}

// Open reports whether the incident still needs attention.
func (i Incident) Open() bool { return i.Status != StatusResolved }

type Component struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
}

// Client talks to the status API rooted at Host, authenticating with Key.
type Client struct {
	Host string
	Key  string
	HTTP *http.Client
}

// NewClient returns nil when no host is configured, disabling status-page
// side effects for the run.
func NewClient(host, key string) *Client {
	if host == "" {
		return nil
	}
	return &Client{
		Host: strings.TrimRight(host, "/"),
		Key:  key,
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Host+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Key != "" {
		req.Header.Set("Authorization", "OAuth "+c.Key)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Incidents lists every incident the page knows about, open and resolved.
func (c *Client) Incidents(ctx context.Context) ([]Incident, error) {
	var out []Incident
	if err := c.do(ctx, http.MethodGet, "/incidents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type incidentEnvelope struct {
	Incident Incident `json:"incident"`
}

// CreateIncident opens a new incident.
func (c *Client) CreateIncident(ctx context.Context, inc Incident) (*Incident, error) {
	var out incidentEnvelope
	if err := c.do(ctx, http.MethodPost, "/incidents", incidentEnvelope{Incident: inc}, &out); err != nil {
		return nil, err
	}
	return &out.Incident, nil
}

// UpdateIncident patches an incident's status and posts an update message.
func (c *Client) UpdateIncident(ctx context.Context, id, status, body string) (*Incident, error) {
	var out incidentEnvelope
	patch := incidentEnvelope{Incident: Incident{Status: status, Body: body}}
	if err := c.do(ctx, http.MethodPatch, "/incidents/"+id, patch, &out); err != nil {
		return nil, err
	}
	return &out.Incident, nil
}

type componentEnvelope struct {
	Component Component `json:"component"`
}

// UpdateComponent patches a component's displayed status.
func (c *Client) UpdateComponent(ctx context.Context, id, status string) error {
	payload := componentEnvelope{Component: Component{Status: status}}
	return c.do(ctx, http.MethodPatch, "/components/"+id, payload, nil)
}
