// Package automation runs per-tenant rule sweeps: scoring new leads, nudging
// quiet ones, flagging overspending campaigns and stalled enrollments.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/pkg/eventbus"
	"github.com/carelane/carelane/pkg/events"
	"github.com/carelane/carelane/pkg/lease"
	"github.com/carelane/carelane/pkg/messaging"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/services"
)

const (
	// sweepTimeout bounds one full sweep across all tenants.
	sweepTimeout = 10 * time.Minute

	// ruleLeaseTTL covers the longest expected single-rule run.
	ruleLeaseTTL = 5 * time.Minute

	followUpCutoff        = 72 * time.Hour
	staleEnrollmentCutoff = 14 * 24 * time.Hour
)

// MessageSender is the outbound surface handlers need from the messaging
// gateway.
type MessageSender interface {
	Send(ctx context.Context, req messaging.Request) (messaging.Result, error)
}

// TenantResult aggregates one tenant's sweep outcome. A failing rule is
// recorded here and never aborts sibling rules or tenants.
type TenantResult struct {
	AgencyID string
	RulesRun int
	Actions  int
	Skipped  int
	Errors   []string
}

type Runner struct {
	persistence persistence.Persistence
	gateway     MessageSender
	notifier    *services.Notifier
	leases      lease.Lease
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

func NewRunner(p persistence.Persistence, gateway MessageSender, notifier *services.Notifier, leases lease.Lease, publisher eventbus.EventPublisher, logger *slog.Logger) *Runner {
	return &Runner{
		persistence: p,
		gateway:     gateway,
		notifier:    notifier,
		leases:      leases,
		publisher:   publisher,
		logger:      logger.With("module", "automation"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Sweep runs every active rule for every tenant and returns one result per
// tenant. Only the tenant listing itself can fail the sweep.
func (r *Runner) Sweep(ctx context.Context) ([]TenantResult, error) {
	return r.sweep(ctx, nil)
}

// SweepKeys runs only the given rule kinds, for jobs that target one
// automation.
func (r *Runner) SweepKeys(ctx context.Context, keys ...models.AutomationKey) ([]TenantResult, error) {
	return r.sweep(ctx, keys)
}

func (r *Runner) sweep(ctx context.Context, only []models.AutomationKey) ([]TenantResult, error) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	agencies, err := r.persistence.AgencyRepository().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing agencies: %w", err)
	}

	results := make([]TenantResult, 0, len(agencies))

	for _, agency := range agencies {
		result := r.SweepTenant(ctx, agency, only)
		results = append(results, result)
	}

	return results, nil
}

// SweepTenant runs the tenant's active rules, optionally filtered to the given
// kinds. Bookkeeping is updated even for rules that took no action, and a
// sweep summary lands in the tenant's activity log.
func (r *Runner) SweepTenant(ctx context.Context, agency *models.Agency, only []models.AutomationKey) TenantResult {
	result := TenantResult{AgencyID: agency.ID}

	rules, err := r.persistence.AutomationRepository().ListActive(ctx, agency.ID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("listing rules: %v", err))

		return result
	}

	rulesByKey := make(map[models.AutomationKey]*models.AutomationRule, len(rules))
	for _, rule := range rules {
		rulesByKey[rule.Key] = rule
	}

	// Rules run in the fixed AutomationKeys order so lead scoring always
	// precedes the alerting rules, whatever order the repository returned.
	for _, key := range models.AutomationKeys() {
		rule, ok := rulesByKey[key]
		if !ok || !ruleSelected(rule.Key, only) {
			continue
		}

		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "sweep deadline exceeded")

			break
		}

		actions, err := r.runRule(ctx, agency, rule)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rule.Key, err))

			r.logger.ErrorContext(ctx, "rule failed",
				"agency_id", agency.ID, "automation_key", rule.Key, "error", err)

			continue
		}

		if actions < 0 {
			result.Skipped++

			continue
		}

		result.RulesRun++
		result.Actions += actions
	}

	r.recordSweep(ctx, agency.ID, result)

	return result
}

// runRule acquires the rule lease, dispatches the handler and updates run
// bookkeeping. Returns -1 when the lease is held elsewhere.
func (r *Runner) runRule(ctx context.Context, agency *models.Agency, rule *models.AutomationRule) (int, error) {
	leaseKey := agency.ID + ":" + string(rule.Key)

	acquired, err := r.leases.Acquire(ctx, leaseKey, ruleLeaseTTL)
	if err != nil {
		return 0, fmt.Errorf("acquiring lease: %w", err)
	}

	if !acquired {
		r.logger.InfoContext(ctx, "rule lease held elsewhere, skipping",
			"agency_id", agency.ID, "automation_key", rule.Key)

		return -1, nil
	}

	defer func() {
		if err := r.leases.Release(ctx, leaseKey); err != nil {
			r.logger.WarnContext(ctx, "failed to release lease", "key", leaseKey, "error", err)
		}
	}()

	var actions int

	switch rule.Key {
	case models.AutomationLeadScoring:
		actions, err = r.runLeadScoring(ctx, agency)
	case models.AutomationFollowUpReminders:
		actions, err = r.runFollowUpReminders(ctx, agency)
	case models.AutomationPerformanceAlerts:
		actions, err = r.runPerformanceAlerts(ctx, agency)
	case models.AutomationStaleEnrollmentAlert:
		actions, err = r.runStaleEnrollmentAlerts(ctx, agency)
	default:
		return 0, fmt.Errorf("unhandled automation key %q", rule.Key)
	}

	if err != nil {
		return 0, err
	}

	r.updateBookkeeping(ctx, rule, actions)

	return actions, nil
}

// updateBookkeeping stamps the run and advances the weekly action counter,
// resetting it when the calendar week rolled over since the last run.
func (r *Runner) updateBookkeeping(ctx context.Context, rule *models.AutomationRule, actions int) {
	now := r.now()

	if rule.LastRunAt == nil || !sameWeek(*rule.LastRunAt, now) {
		rule.ActionsThisWeek = 0
	}

	rule.ActionsThisWeek += actions
	rule.LastRunAt = &now
	rule.UpdatedAt = now

	if err := r.persistence.AutomationRepository().Update(ctx, rule); err != nil {
		r.logger.ErrorContext(ctx, "failed to update rule bookkeeping",
			"agency_id", rule.AgencyID, "automation_key", rule.Key, "error", err)
	}
}

func (r *Runner) recordSweep(ctx context.Context, agencyID string, result TenantResult) {
	entry := &models.ActivityEntry{
		ID:           uuid.New().String(),
		AgencyID:     agencyID,
		Kind:         "automation_sweep",
		Summary:      fmt.Sprintf("%d rules run, %d actions, %d errors", result.RulesRun, result.Actions, len(result.Errors)),
		ActionsTotal: result.Actions,
		CreatedAt:    r.now(),
	}

	if err := r.persistence.ActivityRepository().Append(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "failed to append sweep activity", "agency_id", agencyID, "error", err)
	}

	r.publishCompleted(ctx, agencyID, result)
}

func (r *Runner) publishCompleted(ctx context.Context, agencyID string, result TenantResult) {
	if r.publisher == nil {
		return
	}

	event := events.AutomationCompleted{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.AutomationCompletedEvent,
			Timestamp: r.now(),
			AgencyID:  agencyID,
		},
		RulesRun:     result.RulesRun,
		ActionsTotal: result.Actions,
		Failures:     len(result.Errors),
	}

	if err := r.publisher.Publish(ctx, agencyID, event); err != nil {
		r.logger.WarnContext(ctx, "failed to publish sweep event", "error", err)
	}
}

func ruleSelected(key models.AutomationKey, only []models.AutomationKey) bool {
	if len(only) == 0 {
		return true
	}

	for _, k := range only {
		if k == key {
			return true
		}
	}

	return false
}

func sameWeek(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()

	return ay == by && aw == bw
}
