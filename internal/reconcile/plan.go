package reconcile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is the mutating operation a plan describes.
type Action string

const (
	ActionCreate Action = "create"
	// ActionUpdate rewrites an object that always exists, carrying the
	// full desired content in Params. Used for IAM policies.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// State tracks a plan through its lifecycle. Non-actionable plans and
// failed applies are terminal.
type State string

const (
	StatePlanning             State = "planning"
	StatePlannedActionable    State = "planned-actionable"
	StatePlannedNotActionable State = "planned-not-actionable"
	StateApplied              State = "applied"
	StateApplyFailed          State = "apply-failed"
)

// Well-known parameter keys shared between the planner and the backends.
const (
	ParamView     = "view"
	ParamSupernet = "supernet"
	ParamCIDR     = "cidr"
	ParamComment  = "comment"
	ParamSiteCode = "site_code"
	ParamProject  = "project"
	ParamRegion   = "region"
	// ParamPolicy carries a full IAM policy document as JSON, etag
	// included, for update plans.
	ParamPolicy = "policy"
)

// Plan is the self-describing output of a dry run and the only input to
// apply. Every name, path and address block is resolved at plan time so
// what the operator reviewed is exactly what apply executes.
type Plan struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	State     State     `json:"state"`
	Backend   string    `json:"backend"`
	Action    Action    `json:"action"`
	Kind      Kind      `json:"kind"`

	// Identity is the resolved target: the chosen CIDR for a reservation,
	// the resource name otherwise.
	Identity string `json:"identity,omitempty"`
	// Ref is the backend reference token a delete plan resolved. Apply
	// deletes through the ref only.
	Ref string `json:"ref,omitempty"`
	// Params is the fully resolved parameter set for a create.
	Params map[string]string `json:"params,omitempty"`

	Rationale  string `json:"rationale"`
	Actionable bool   `json:"actionable"`

	// Provenance for diagnostics and error messages.
	View     string `json:"view,omitempty"`
	Supernet string `json:"supernet,omitempty"`
	Project  string `json:"project,omitempty"`

	// Warnings carries per-supernet read failures and other advisory
	// conditions encountered while planning.
	Warnings []string `json:"warnings,omitempty"`
}

// NewPlan starts a plan in the planning state with a fresh ID.
func NewPlan(backend string, action Action, kind Kind) *Plan {
	return &Plan{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		State:     StatePlanning,
		Backend:   backend,
		Action:    action,
		Kind:      kind,
	}
}

// markActionable finalizes a dry run that resolved a mutating call.
func (p *Plan) markActionable(rationale string) {
	p.State = StatePlannedActionable
	p.Actionable = true
	p.Rationale = rationale
}

// markNotActionable finalizes a dry run with nothing to do.
func (p *Plan) markNotActionable(rationale string) {
	p.State = StatePlannedNotActionable
	p.Actionable = false
	p.Rationale = rationale
}

func (p *Plan) warn(msg string) {
	p.Warnings = append(p.Warnings, msg)
}

// Validate checks structural integrity after deserialization. It does not
// decide actionability; that is the reconciler's job.
func (p *Plan) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Message: "missing plan ID"}
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		return &ValidationError{Field: "id", Message: fmt.Sprintf("malformed plan ID %q", p.ID)}
	}
	if p.Backend == "" {
		return &ValidationError{Field: "backend", Message: "missing backend"}
	}
	switch p.Action {
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		return &ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", p.Action)}
	}
	if p.Kind == "" {
		return &ValidationError{Field: "kind", Message: "missing resource kind"}
	}
	switch p.State {
	case StatePlanning, StatePlannedActionable, StatePlannedNotActionable, StateApplied, StateApplyFailed:
	default:
		return &ValidationError{Field: "state", Message: fmt.Sprintf("unknown state %q", p.State)}
	}
	// Applied and apply-failed plans were necessarily actionable.
	switch p.State {
	case StatePlanning, StatePlannedNotActionable:
		if p.Actionable {
			return &ValidationError{Field: "actionable", Message: fmt.Sprintf(
				"actionable=true contradicts state %q", p.State)}
		}
	case StatePlannedActionable, StateApplied, StateApplyFailed:
		if !p.Actionable {
			return &ValidationError{Field: "actionable", Message: fmt.Sprintf(
				"actionable=false contradicts state %q", p.State)}
		}
	}
	return nil
}

// Encode serializes the plan as indented JSON, the handoff format between
// the plan and apply phases.
func (p *Plan) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding plan %s: %w", p.ID, err)
	}
	return append(data, '\n'), nil
}

// DecodePlan parses a serialized plan and validates its structure.
func DecodePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
