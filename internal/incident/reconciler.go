// Package incident reconciles open status-page incidents against fresh
// probe results: create on failure, resolve on recovery.
package incident

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/statuspage"
)

// StatusAPI is the slice of the status-page client the reconciler needs.
type StatusAPI interface {
	Incidents(ctx context.Context) ([]statuspage.Incident, error)
	CreateIncident(ctx context.Context, inc statuspage.Incident) (*statuspage.Incident, error)
	UpdateIncident(ctx context.Context, id, status, body string) (*statuspage.Incident, error)
	UpdateComponent(ctx context.Context, id, status string) error
}

// IncidentName builds the identity key tying a target to its incident.
func IncidentName(target string) string {
	return target + " - Site Outage"
}

// Reconciler issues create/resolve/component actions per probe result.
// Every action is best-effort: failures are logged, never returned.
type Reconciler struct {
	API    StatusAPI
	Logger *zap.Logger
}

func NewReconciler(api StatusAPI, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{API: api, Logger: logger}
}

// Reconcile fetches the open incident list once and compares every result
// against it. A nil API disables the whole pass.
func (r *Reconciler) Reconcile(ctx context.Context, results []domain.ProbeResult) {
	if r.API == nil {
		return
	}

	all, err := r.API.Incidents(ctx)
	if err != nil {
		// Without the open set, creating would risk duplicates; skip the run.
		r.Logger.Warn("incident_list_failed", zap.Error(err))
		return
	}
	var open []statuspage.Incident
	for _, inc := range all {
		if inc.Open() {
			open = append(open, inc)
		}
	}

	for _, res := range results {
		r.reconcileOne(ctx, res, open)
	}
}

func (r *Reconciler) reconcileOne(ctx context.Context, res domain.ProbeResult, open []statuspage.Incident) {
	name := IncidentName(res.Name)
	var matches []statuspage.Incident
	for _, inc := range open {
		if inc.Name == name {
			matches = append(matches, inc)
		}
	}

	healthy := res.Healthy()
	switch {
	case !healthy && len(matches) == 0:
		body := fmt.Sprintf("Automated monitoring detected an outage (status %d).", res.StatusCode)
		inc := statuspage.Incident{Name: name, Status: statuspage.StatusIdentified, Body: body}
		if _, err := r.API.CreateIncident(ctx, inc); err != nil {
			r.Logger.Warn("incident_create_failed", zap.String("target", res.Name), zap.Error(err))
		} else {
			r.Logger.Info("incident_created", zap.String("target", res.Name))
		}
	case healthy && len(matches) == 1:
		body := "Automated monitoring confirmed recovery."
		if _, err := r.API.UpdateIncident(ctx, matches[0].ID, statuspage.StatusResolved, body); err != nil {
			r.Logger.Warn("incident_resolve_failed", zap.String("target", res.Name), zap.Error(err))
		} else {
			r.Logger.Info("incident_resolved", zap.String("target", res.Name))
		}
		// zero or several matches on recovery is ambiguous: leave untouched
	}

	if res.Component == "" {
		return
	}
	status := statuspage.ComponentOperational
	if !healthy {
		status = statuspage.ComponentMajorOutage
	}
	if err := r.API.UpdateComponent(ctx, res.Component, status); err != nil {
		r.Logger.Warn("component_update_failed",
			zap.String("target", res.Name),
			zap.String("component", res.Component),
			zap.Error(err),
		)
	}
}
