package reconcile

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/go-logr/logr"

	"github.com/netreserve/netreserve/internal/netblock"
)

// ReservationRequest describes a desired new CIDR reservation. Supernets
// are tried in order; the first one with a free block wins.
type ReservationRequest struct {
	View      string
	Supernets []netblock.Block
	PrefixLen int
	Name      string
	SiteCode  string
}

// Validate checks the request before any backend call.
func (r ReservationRequest) Validate() error {
	if r.View == "" {
		return &ValidationError{Field: "view", Message: "network view is required"}
	}
	if len(r.Supernets) == 0 {
		return &ValidationError{Field: "supernets", Message: "at least one supernet is required"}
	}
	for i, s := range r.Supernets {
		if !s.IsValid() {
			return &ValidationError{Field: fmt.Sprintf("supernets[%d]", i), Message: "invalid supernet"}
		}
	}
	if r.PrefixLen < 1 || r.PrefixLen > 32 {
		return &ValidationError{Field: "prefix_len", Message: fmt.Sprintf(
			"prefix length must be between 1 and 32, got %d", r.PrefixLen)}
	}
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "reservation name is required"}
	}
	return nil
}

// ReleaseRequest asks for an existing reservation to be deleted, matched
// by exact CIDR within a view.
type ReleaseRequest struct {
	View  string
	Block netblock.Block
}

// Validate checks the request before any backend call.
func (r ReleaseRequest) Validate() error {
	if r.View == "" {
		return &ValidationError{Field: "view", Message: "network view is required"}
	}
	if !r.Block.IsValid() {
		return &ValidationError{Field: "cidr", Message: "a valid CIDR is required"}
	}
	return nil
}

// ResourceRequest describes an existence-gated operation on a named
// resource: create if absent, or delete if present.
type ResourceRequest struct {
	Kind     Kind
	Identity string
	Params   map[string]string
	Project  string
}

// Validate checks the request before any backend call.
func (r ResourceRequest) Validate() error {
	if r.Kind == "" {
		return &ValidationError{Field: "kind", Message: "resource kind is required"}
	}
	if r.Identity == "" {
		return &ValidationError{Field: "identity", Message: "resource identity is required"}
	}
	return nil
}

// PolicyUpdateRequest carries a fully computed IAM policy rewrite. The
// caller reads the current policy, merges the desired grants into it and
// reports whether the merge changed anything; the planner only packages
// the outcome.
type PolicyUpdateRequest struct {
	Project string
	// Policy is the complete desired policy document as JSON, with the
	// etag read from the current policy still embedded.
	Policy  string
	Changed bool
	// Summary describes the grants for the plan rationale.
	Summary string
}

// Validate checks the request before planning.
func (r PolicyUpdateRequest) Validate() error {
	if r.Project == "" {
		return &ValidationError{Field: "project", Message: "project is required"}
	}
	if r.Changed && r.Policy == "" {
		return &ValidationError{Field: "policy", Message: "changed policy update carries no policy document"}
	}
	return nil
}

// Planner computes reconciliation plans. It reads backend state but never
// mutates it.
type Planner struct {
	client Client
	log    logr.Logger
	obs    Observer
}

// NewPlanner builds a planner over one backend client. A nil observer
// disables event emission.
func NewPlanner(client Client, log logr.Logger, obs Observer) *Planner {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Planner{client: client, log: log, obs: obs}
}

// PlanReservation resolves the next free block for a new reservation.
//
// Supernets are consulted in request order. A supernet whose reservations
// cannot be read is skipped with a warning so a healthy later supernet can
// still serve the request; only an auth failure aborts, because then no
// answer can be trusted. When every supernet is exhausted or unreadable
// the plan is returned as not actionable with the collected reasons.
func (p *Planner) PlanReservation(ctx context.Context, req ReservationRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan := NewPlan(p.client.Name(), ActionCreate, KindReservation)
	plan.View = req.View
	emit(p.obs, EventPlanStarted, KindReservation, req.Name, fmt.Sprintf(
		"searching %d supernet(s) for a free /%d", len(req.Supernets), req.PrefixLen), nil)

	for _, supernet := range req.Supernets {
		container := Container{View: req.View, Supernet: supernet}
		reservations, err := p.client.ListReservations(ctx, container)
		if err != nil {
			if IsAuth(err) {
				return nil, err
			}
			p.skipSupernet(plan, supernet, fmt.Sprintf("listing reservations failed: %v", err))
			continue
		}

		existing := make([]netblock.Block, 0, len(reservations))
		for _, r := range reservations {
			existing = append(existing, r.Block)
		}

		block, err := netblock.Allocate(supernet, existing, req.PrefixLen)
		if err != nil {
			p.skipSupernet(plan, supernet, err.Error())
			continue
		}

		plan.Identity = block.String()
		plan.Supernet = supernet.String()
		plan.Params = map[string]string{
			ParamView:     req.View,
			ParamSupernet: supernet.String(),
			ParamCIDR:     block.String(),
			ParamComment:  req.Name,
			ParamSiteCode: req.SiteCode,
		}
		plan.markActionable(fmt.Sprintf(
			"would reserve %s (next free /%d in supernet %s, view %s, %d existing reservations)",
			block, req.PrefixLen, supernet, req.View, len(reservations)))
		emit(p.obs, EventPlanComputed, KindReservation, plan.Identity, plan.Rationale, nil)
		return plan, nil
	}

	plan.markNotActionable(fmt.Sprintf(
		"no free /%d block in any configured supernet for view %s: %s",
		req.PrefixLen, req.View, strings.Join(plan.Warnings, "; ")))
	emit(p.obs, EventPlanComputed, KindReservation, req.Name, plan.Rationale, nil)
	return plan, nil
}

func (p *Planner) skipSupernet(plan *Plan, supernet netblock.Block, reason string) {
	msg := fmt.Sprintf("supernet %s: %s", supernet, reason)
	plan.warn(msg)
	p.log.Info("skipping supernet", "supernet", supernet.String(), "reason", reason)
	emit(p.obs, EventSupernetSkipped, KindReservation, supernet.String(), reason, nil)
}

// PlanRelease resolves the backend reference for deleting a reservation.
// Exactly one match produces an actionable plan; zero matches a
// not-actionable one; several matches refuse with *AmbiguousMatchError.
func (p *Planner) PlanRelease(ctx context.Context, req ReleaseRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan := NewPlan(p.client.Name(), ActionDelete, KindReservation)
	plan.View = req.View
	plan.Identity = req.Block.String()
	emit(p.obs, EventPlanStarted, KindReservation, plan.Identity, "resolving reservation", nil)

	matches, err := p.client.FindReservations(ctx, req.View, req.Block)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	switch len(matches) {
	case 0:
		plan.markNotActionable(fmt.Sprintf(
			"reservation %s not found in view %s", req.Block, req.View))
	case 1:
		match := matches[0]
		plan.Ref = match.Ref
		plan.Params = map[string]string{
			ParamView:    req.View,
			ParamCIDR:    req.Block.String(),
			ParamComment: match.Comment,
		}
		plan.markActionable(fmt.Sprintf(
			"would delete reservation %s (%q) in view %s", req.Block, match.Comment, req.View))
	default:
		refs := make([]string, len(matches))
		for i, m := range matches {
			refs[i] = m.Ref
		}
		return nil, &AmbiguousMatchError{View: req.View, Block: req.Block, Refs: refs}
	}

	emit(p.obs, EventPlanComputed, KindReservation, plan.Identity, plan.Rationale, nil)
	return plan, nil
}

// PlanResource produces an existence-gated create plan: describe the
// named resource, and only plan a create when it is absent.
//
// A describe that fails for a reason other than auth is advisory, not
// blocking: the plan stays actionable with a warning, and a real conflict
// still surfaces at apply time. This keeps one flaky read from blocking a
// whole run while never letting apply do something unreviewed.
func (p *Planner) PlanResource(ctx context.Context, req ResourceRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan := NewPlan(p.client.Name(), ActionCreate, req.Kind)
	plan.Project = req.Project
	plan.Identity = req.Identity
	emit(p.obs, EventPlanStarted, req.Kind, req.Identity, "checking existence", nil)

	record, err := p.client.Describe(ctx, req.Kind, req.Identity)
	switch {
	case err == nil:
		rationale := fmt.Sprintf("%s %q already exists, apply would conflict", req.Kind, req.Identity)
		if record.Ref != "" {
			rationale += fmt.Sprintf(" (ref %s)", record.Ref)
		}
		plan.markNotActionable(rationale)
	case IsNotFound(err):
		plan.Params = maps.Clone(req.Params)
		plan.markActionable(fmt.Sprintf(
			"%s %q is absent, would create it with the resolved parameters", req.Kind, req.Identity))
	case IsAuth(err):
		return nil, err
	default:
		plan.warn(fmt.Sprintf("describe inconclusive: %v", err))
		plan.Params = maps.Clone(req.Params)
		plan.markActionable(fmt.Sprintf(
			"existence of %s %q could not be confirmed, would attempt create; a conflict would surface at apply",
			req.Kind, req.Identity))
	}

	emit(p.obs, EventPlanComputed, req.Kind, req.Identity, plan.Rationale, nil)
	return plan, nil
}

// PlanPolicyUpdate packages a precomputed IAM policy merge as a plan.
// The policy document in the plan is byte-for-byte what apply writes, so
// the review gate covers the exact payload. No backend call is made; the
// caller already read the current policy.
func (p *Planner) PlanPolicyUpdate(req PolicyUpdateRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan := NewPlan(p.client.Name(), ActionUpdate, KindIAMPolicy)
	plan.Project = req.Project
	plan.Identity = req.Project

	if !req.Changed {
		plan.markNotActionable(fmt.Sprintf(
			"IAM policy on project %s already grants the requested roles", req.Project))
	} else {
		plan.Params = map[string]string{
			ParamProject: req.Project,
			ParamPolicy:  req.Policy,
		}
		rationale := fmt.Sprintf("would update IAM policy on project %s", req.Project)
		if req.Summary != "" {
			rationale += ": " + req.Summary
		}
		plan.markActionable(rationale)
	}

	emit(p.obs, EventPlanComputed, KindIAMPolicy, req.Project, plan.Rationale, nil)
	return plan, nil
}

// PlanResourceDelete produces an existence-gated delete plan for a named
// resource, resolving the backend reference at plan time.
func (p *Planner) PlanResourceDelete(ctx context.Context, req ResourceRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan := NewPlan(p.client.Name(), ActionDelete, req.Kind)
	plan.Project = req.Project
	plan.Identity = req.Identity
	emit(p.obs, EventPlanStarted, req.Kind, req.Identity, "resolving resource", nil)

	record, err := p.client.Describe(ctx, req.Kind, req.Identity)
	switch {
	case err == nil:
		plan.Ref = record.Ref
		if plan.Ref == "" {
			// Backends without a separate reference token delete by name.
			plan.Ref = record.Identity
		}
		plan.markActionable(fmt.Sprintf("would delete %s %q (ref %s)", req.Kind, req.Identity, plan.Ref))
	case IsNotFound(err):
		plan.markNotActionable(fmt.Sprintf("%s %q not found", req.Kind, req.Identity))
	default:
		return nil, err
	}

	emit(p.obs, EventPlanComputed, req.Kind, req.Identity, plan.Rationale, nil)
	return plan, nil
}
