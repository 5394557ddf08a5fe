// Package notify delivers run reports to webhooks and mailboxes.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dev-tams/assetsweep/internal/config"
)

// Run outcomes. A partial run finished its scan but some deletes failed.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
)

// ReasonCount groups deleted assets by the reason they were selected.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
	Bytes  int64  `json:"bytes"`
}

// Item is one deleted (or would-be deleted) asset.
type Item struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
	Bytes  int64  `json:"bytes"`
}

// Failure is one delete that did not go through.
type Failure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Event summarizes one cleanup or analytics run.
type Event struct {
	RunID        string        `json:"runId,omitempty"`
	Mode         string        `json:"mode"`
	Status       string        `json:"status"`
	DryRun       bool          `json:"dryRun"`
	Scanned      int           `json:"scanned"`
	Found        int           `json:"found"`
	Deleted      int           `json:"deleted"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	StorageSaved string        `json:"storageSaved,omitempty"`
	Duration     string        `json:"duration"`
	Error        string        `json:"error,omitempty"`
	Reasons      []ReasonCount `json:"reasons,omitempty"`
	Sample       []Item        `json:"sample,omitempty"`
	Failures     []Failure     `json:"failures,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Route sends events whose status is in Statuses to Notifier.
type Route struct {
	Name     string
	Statuses map[string]bool
	Notifier Notifier
}

type Dispatcher struct {
	routes []Route
}

func NewDispatcher(cfgs []config.NotificationConfig) (*Dispatcher, error) {
	routes := make([]Route, 0, len(cfgs))
	for i, n := range cfgs {
		statuses, err := parseOn(n.On)
		if err != nil {
			return nil, fmt.Errorf("notifications[%d]: %w", i, err)
		}

		kind := strings.ToLower(strings.TrimSpace(n.Type))
		var nf Notifier
		switch kind {
		case "webhook":
			nf, err = NewWebhook(n.Config)
		case "email":
			nf, err = NewEmail(n.Config)
		default:
			return nil, fmt.Errorf("notifications[%d]: unsupported notification type %q", i, n.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("notifications[%d] %s: %w", i, kind, err)
		}
		routes = append(routes, Route{Name: fmt.Sprintf("%s#%d", kind, i), Statuses: statuses, Notifier: nf})
	}
	return &Dispatcher{routes: routes}, nil
}

// NewDispatcherWithRoutes is used by callers that build notifiers themselves.
func NewDispatcherWithRoutes(routes ...Route) *Dispatcher {
	return &Dispatcher{routes: routes}
}

// Notify delivers to every interested route. One failing route does not
// stop the others; all failures are joined.
func (d *Dispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}

	var errs []error
	for _, r := range d.routes {
		if !r.Statuses[event.Status] {
			continue
		}
		if err := r.Notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("route %s: %w", r.Name, err))
		}
	}
	return errors.Join(errs...)
}

func parseOn(raw []string) (map[string]bool, error) {
	statuses := make(map[string]bool, 3)
	for _, v := range raw {
		switch s := strings.ToLower(strings.TrimSpace(v)); s {
		case StatusSuccess, StatusPartial, StatusFailure:
			statuses[s] = true
		case "always":
			statuses[StatusSuccess] = true
			statuses[StatusPartial] = true
			statuses[StatusFailure] = true
		default:
			return nil, fmt.Errorf("on contains unsupported value %q", v)
		}
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("on must name at least one of success, partial, failure or always")
	}
	return statuses, nil
}
