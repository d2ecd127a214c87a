package domain

import (
	"net"
	"strconv"
	"time"

	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

type TargetType string

const (
	TypeHTTP TargetType = "http"
	TypePort TargetType = "port"
	TypeSMTP TargetType = "smtp"
)

// Target is one endpoint to probe. Immutable once handed to the dispatcher.
type Target struct {
	Name      string     `json:"name"`
	URL       string     `json:"url,omitempty"`
	Hostname  string     `json:"hostname,omitempty"`
	Port      int        `json:"port,omitempty"`
	Type      TargetType `json:"type,omitempty"`
	Component string     `json:"component,omitempty"` // status-page component ID
}

// Kind normalizes the target type; untyped targets default to http.
func (t Target) Kind() TargetType {
	if t.Type == "" {
		return TypeHTTP
	}
	return t.Type
}

// Addr is the dialable hostname:port for port/smtp targets.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Hostname, strconv.Itoa(t.Port))
}

// Status codes for port/smtp probes. HTTP probes carry the response status
// instead, with 0 doubling as the transport-error code.
const (
	StatusClean = 0  // connection established and closed cleanly
	StatusError = -1 // refused, timed out, or socket error
)

// ProbeResult is the outcome of one probe. Probe-level network failure is
// encoded in StatusCode, never surfaced as an error.
type ProbeResult struct {
	Name       string           `json:"name"`
	Component  string           `json:"component,omitempty"`
	Type       TargetType       `json:"type"`
	StatusCode int              `json:"statusCode"`
	Timings    timing.Events    `json:"timings"`
	Durations  timing.Durations `json:"durations"`
}

// Healthy reports whether the result counts as non-degraded for incident
// reconciliation. HTTP is healthy only on 200; port/smtp on a clean close.
func (r ProbeResult) Healthy() bool {
	if r.Type == TypeHTTP {
		return r.StatusCode == 200
	}
	return r.StatusCode == StatusClean
}

// MetricRecord is one timestamped data point destined for the metrics sink.
type MetricRecord struct {
	Name      string    `json:"name"`
	Dimension string    `json:"dimension"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
