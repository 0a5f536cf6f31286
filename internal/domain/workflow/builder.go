package workflow

import (
	"fmt"
)

// PolicyBuilder builds a role-gated transition policy
type PolicyBuilder interface {
	// Configure returns the configuration for transitions leaving the given status
	Configure(status Status) StatusConfiguration

	// Build freezes the configured table into an immutable Policy
	Build() Policy
}

// StatusConfiguration configures transitions for a specific status
type StatusConfiguration interface {
	// Permit allows a role to invoke an action leading to the target status
	Permit(role Role, action Action, target Status) StatusConfiguration
}

// statusConfig implements StatusConfiguration
type statusConfig struct {
	fromStatus  Status
	permissions map[Role][]Permission
}

// policyBuilder implements PolicyBuilder
type policyBuilder struct {
	configurations map[Status]*statusConfig
}

// NewBuilder creates a new policy builder
func NewBuilder() PolicyBuilder {
	return &policyBuilder{
		configurations: make(map[Status]*statusConfig),
	}
}

// Configure returns the configuration for the given status
func (b *policyBuilder) Configure(status Status) StatusConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}

	config, exists := b.configurations[status]
	if !exists {
		config = &statusConfig{
			fromStatus:  status,
			permissions: make(map[Role][]Permission),
		}
		b.configurations[status] = config
	}

	return config
}

// Build creates an immutable policy from the configured table
func (b *policyBuilder) Build() Policy {
	// Deep copy so later Configure calls cannot leak into built policies
	table := make(map[Status]map[Role][]Permission, len(b.configurations))
	for status, config := range b.configurations {
		roles := make(map[Role][]Permission, len(config.permissions))
		for role, perms := range config.permissions {
			roles[role] = append([]Permission{}, perms...)
		}
		table[status] = roles
	}

	return &policy{table: table}
}

// Permit allows a role to invoke an action leading to the target status
func (c *statusConfig) Permit(role Role, action Action, target Status) StatusConfiguration {
	if !role.IsValid() {
		panic(fmt.Sprintf("invalid role: %s", role))
	}
	if !target.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", target))
	}

	for _, p := range c.permissions[role] {
		if p.Action == action {
			panic(fmt.Sprintf("action %s already permitted for %s in %s", action, role, c.fromStatus))
		}
	}

	c.permissions[role] = append(c.permissions[role], Permission{
		Action: action,
		Target: target,
	})

	return c
}
