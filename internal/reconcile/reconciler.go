package reconcile

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// Reconciler executes previously produced plans: exactly one mutating
// backend call per invocation, and never a recomputation of what the dry
// run resolved.
type Reconciler struct {
	client Client
	log    logr.Logger
	obs    Observer
}

// NewReconciler builds a reconciler over one backend client. A nil
// observer disables event emission.
func NewReconciler(client Client, log logr.Logger, obs Observer) *Reconciler {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Reconciler{client: client, log: log, obs: obs}
}

// Apply performs the single mutating call the plan describes and advances
// its state to applied or apply-failed.
//
// Non-actionable plans, plans missing their resolved identity, and plans
// produced for a different backend are refused with
// *PlanNotActionableError before any backend call. A create that hits an
// existing resource surfaces *ConflictError without retry: the reviewed
// allocation may be stale, and silently picking a different block would
// defeat the review gate.
func (r *Reconciler) Apply(ctx context.Context, plan *Plan) error {
	if err := r.checkActionable(plan); err != nil {
		return err
	}

	emit(r.obs, EventApplyStarted, plan.Kind, plan.Identity,
		fmt.Sprintf("%s %s", plan.Action, plan.Kind), map[string]string{"plan": plan.ID})
	r.log.Info("applying plan",
		"plan", plan.ID, "action", string(plan.Action), "kind", string(plan.Kind), "identity", plan.Identity)

	var err error
	switch plan.Action {
	case ActionCreate, ActionUpdate:
		_, err = r.client.Create(ctx, plan.Kind, plan.Identity, plan.Params)
	case ActionDelete:
		err = r.client.Delete(ctx, plan.Kind, plan.Ref)
	}

	if err != nil {
		plan.State = StateApplyFailed
		emit(r.obs, EventApplyFailed, plan.Kind, plan.Identity, err.Error(), map[string]string{"plan": plan.ID})
		return fmt.Errorf("applying plan %s (%s %s %q): %w",
			plan.ID, plan.Action, plan.Kind, plan.Identity, err)
	}

	plan.State = StateApplied
	emit(r.obs, EventApplyCompleted, plan.Kind, plan.Identity,
		fmt.Sprintf("%s %s done", plan.Action, plan.Kind), map[string]string{"plan": plan.ID})
	return nil
}

// checkActionable enforces the plan/apply contract without touching the
// backend.
func (r *Reconciler) checkActionable(plan *Plan) error {
	if plan == nil {
		return &PlanNotActionableError{Reason: "no plan"}
	}
	if err := plan.Validate(); err != nil {
		return &PlanNotActionableError{PlanID: plan.ID, Reason: err.Error()}
	}
	if plan.State != StatePlannedActionable || !plan.Actionable {
		reason := "the dry run resolved nothing to do"
		if plan.Rationale != "" {
			reason = plan.Rationale
		}
		return &PlanNotActionableError{PlanID: plan.ID, Reason: reason}
	}
	if plan.Backend != r.client.Name() {
		return &PlanNotActionableError{PlanID: plan.ID, Reason: fmt.Sprintf(
			"plan targets backend %q, reconciler is bound to %q", plan.Backend, r.client.Name())}
	}
	switch plan.Action {
	case ActionCreate, ActionUpdate:
		if plan.Identity == "" {
			return &PlanNotActionableError{PlanID: plan.ID, Reason: fmt.Sprintf(
				"%s plan has no resolved identity", plan.Action)}
		}
	case ActionDelete:
		if plan.Ref == "" {
			return &PlanNotActionableError{PlanID: plan.ID, Reason: "delete plan has no resolved reference"}
		}
	}
	return nil
}
