package config

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// ValidAggregationIntervals contains the flow log aggregation intervals
// accepted by the subnet API.
var ValidAggregationIntervals = map[string]bool{
	"interval-5-sec":  true,
	"interval-30-sec": true,
	"interval-1-min":  true,
	"interval-5-min":  true,
	"interval-10-min": true,
	"interval-15-min": true,
}

// ValidLocations contains all valid Hetzner Cloud datacenter locations.
// https://docs.hetzner.com/cloud/general/locations/
var ValidLocations = map[string]bool{
	"nbg1": true, // Nuremberg, Germany
	"fsn1": true, // Falkenstein, Germany
	"hel1": true, // Helsinki, Finland
	"ash":  true, // Ashburn, USA
	"hil":  true, // Hillsboro, USA
	"sin":  true, // Singapore
}

// Validate checks the configuration and returns the first problem found
// as a field-scoped error.
func (c *Config) Validate() error {
	if err := c.validateInfoblox(); err != nil {
		return err
	}
	if err := c.validateViews(); err != nil {
		return err
	}
	if err := c.validateGroups(); err != nil {
		return err
	}
	if err := c.validateIAM(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	return c.validateAmbient()
}

func (c *Config) validateInfoblox() error {
	if c.Infoblox.URL == "" {
		if len(c.Views) > 0 {
			return invalid("infoblox.url", "required when views are configured")
		}
		return nil
	}
	u, err := url.Parse(c.Infoblox.URL)
	if err != nil {
		return invalid("infoblox.url", "not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("infoblox.url", "scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

func (c *Config) validateViews() error {
	for name, view := range c.Views {
		if name == "" {
			return invalid("views", "view name must not be empty")
		}
		if len(view.Supernets) == 0 {
			return invalid(fmt.Sprintf("views[%s].supernets", name), "at least one supernet is required")
		}
		seen := make(map[string]bool, len(view.Supernets))
		for i, s := range view.Supernets {
			field := fmt.Sprintf("views[%s].supernets[%d]", name, i)
			block, err := netblock.Parse(s)
			if err != nil {
				return invalid(field, "%v", err)
			}
			if block.String() != s {
				return invalid(field, "%q is not canonical, use %q", s, block.String())
			}
			if seen[s] {
				return invalid(field, "duplicate supernet %q", s)
			}
			seen[s] = true
		}
	}
	return nil
}

func (c *Config) validateGroups() error {
	for name, group := range c.Groups {
		if name == "" {
			return invalid("groups", "group name must not be empty")
		}
		if group.HostProject == "" {
			return invalid(fmt.Sprintf("groups[%s].host_project", name), "required")
		}
		if group.Network == "" {
			return invalid(fmt.Sprintf("groups[%s].network", name), "required")
		}
		if group.View == "" {
			return invalid(fmt.Sprintf("groups[%s].view", name), "required")
		}
		if _, ok := c.Views[group.View]; !ok {
			return invalid(fmt.Sprintf("groups[%s].view", name),
				"unknown view %q, known views: %v", group.View, sortedKeys(c.Views))
		}
		if group.NonRoutableView != "" {
			if _, ok := c.Views[group.NonRoutableView]; !ok {
				return invalid(fmt.Sprintf("groups[%s].non_routable_view", name),
					"unknown view %q, known views: %v", group.NonRoutableView, sortedKeys(c.Views))
			}
		}
	}
	return nil
}

func (c *Config) validateIAM() error {
	for name, roles := range c.IAM.Bundles {
		if len(roles) == 0 {
			return invalid(fmt.Sprintf("iam.bundles[%s]", name), "bundle must grant at least one role")
		}
		for i, role := range roles {
			if !validRole(role) {
				return invalid(fmt.Sprintf("iam.bundles[%s][%d]", name, i),
					"role %q must start with roles/, projects/ or organizations/", role)
			}
		}
	}
	for i, seg := range c.IAM.AllowedProjectSegments {
		if seg == "" {
			return invalid(fmt.Sprintf("iam.allowed_project_segments[%d]", i), "segment must not be empty")
		}
	}
	return nil
}

func (c *Config) validateProviders() error {
	if c.GCloud.TimeoutSeconds < 0 {
		return invalid("gcloud.timeout_seconds", "must not be negative")
	}
	if c.Subnet.PodsPrefix < 8 || c.Subnet.PodsPrefix > 28 {
		return invalid("subnet.pods_prefix", "must be between 8 and 28, got %d", c.Subnet.PodsPrefix)
	}
	if c.Subnet.ServicesPrefix < 8 || c.Subnet.ServicesPrefix > 28 {
		return invalid("subnet.services_prefix", "must be between 8 and 28, got %d", c.Subnet.ServicesPrefix)
	}
	if c.Subnet.FlowSampling <= 0 || c.Subnet.FlowSampling > 1 {
		return invalid("subnet.flow_sampling", "must be within (0, 1], got %v", c.Subnet.FlowSampling)
	}
	if !ValidAggregationIntervals[c.Subnet.AggregationInterval] {
		return invalid("subnet.aggregation_interval",
			"invalid interval %q, must be one of %v", c.Subnet.AggregationInterval, sortedKeys(ValidAggregationIntervals))
	}
	if !ValidLocations[c.HCloud.Location] {
		return invalid("hcloud.location",
			"invalid location %q, must be one of %v", c.HCloud.Location, sortedKeys(ValidLocations))
	}
	for name, project := range c.PSCProjects {
		if project == "" {
			return invalid(fmt.Sprintf("psc_projects[%s]", name), "project ID must not be empty")
		}
	}
	return nil
}

func (c *Config) validateAmbient() error {
	if c.Metrics.Gateway != "" {
		u, err := url.Parse(c.Metrics.Gateway)
		if err != nil {
			return invalid("metrics.gateway", "not a valid URL: %v", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return invalid("metrics.gateway", "scheme must be http or https, got %q", u.Scheme)
		}
	}
	return nil
}

func validRole(role string) bool {
	return strings.HasPrefix(role, "roles/") ||
		strings.HasPrefix(role, "projects/") ||
		strings.HasPrefix(role, "organizations/")
}

func invalid(field, format string, args ...any) error {
	return &reconcile.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// sortedKeys returns the keys of a map sorted for stable error
// messages.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}
