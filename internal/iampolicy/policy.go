// Package iampolicy models project IAM policy documents and the
// bundle-driven merge that reservation plans carry.
//
// A [Policy] is the JSON document gcloud returns from get-iam-policy.
// Plans embed the fully merged document, etag included, so apply sets
// exactly what was reviewed and concurrent policy writes surface as
// conflicts instead of lost updates.
package iampolicy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Policy is a project IAM policy document.
type Policy struct {
	Version  int       `json:"version,omitempty"`
	Bindings []Binding `json:"bindings"`
	Etag     string    `json:"etag,omitempty"`
}

// Binding grants a role to a set of members. An attached condition is
// preserved verbatim.
type Binding struct {
	Role      string          `json:"role"`
	Members   []string        `json:"members"`
	Condition json.RawMessage `json:"condition,omitempty"`
}

// Decode parses a policy document.
func Decode(data []byte) (*Policy, error) {
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode IAM policy: %w", err)
	}
	return &p, nil
}

// Encode renders the policy as indented JSON, the form plans embed and
// set-iam-policy consumes.
func (p *Policy) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode IAM policy: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy. Merging always happens on a clone so the
// fetched policy stays available for change detection.
func (p *Policy) Clone() *Policy {
	clone := &Policy{Version: p.Version, Etag: p.Etag}
	if p.Bindings != nil {
		clone.Bindings = make([]Binding, len(p.Bindings))
		for i, b := range p.Bindings {
			clone.Bindings[i] = Binding{
				Role:      b.Role,
				Members:   slices.Clone(b.Members),
				Condition: slices.Clone(b.Condition),
			}
		}
	}
	return clone
}

// Changed reports whether two policies differ in their bindings.
// Binding order is insignificant, member order within a binding is
// not. The etag is ignored.
func Changed(current, modified *Policy) bool {
	return !slices.EqualFunc(sortedBindings(current), sortedBindings(modified), func(a, b Binding) bool {
		return a.Role == b.Role &&
			slices.Equal(a.Members, b.Members) &&
			bytes.Equal(a.Condition, b.Condition)
	})
}

func sortedBindings(p *Policy) []Binding {
	if len(p.Bindings) == 0 {
		return nil
	}
	out := slices.Clone(p.Bindings)
	slices.SortStableFunc(out, func(a, b Binding) int {
		return strings.Compare(a.Role, b.Role)
	})
	return out
}
