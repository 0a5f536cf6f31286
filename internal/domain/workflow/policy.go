package workflow

import (
	"fmt"
)

// Permission is one named action a role may invoke from a status
type Permission struct {
	Action Action `json:"action"`
	Target Status `json:"target"`
}

// Policy is a pure decision table keyed by (status, role). All methods are
// side-effect free and safe for concurrent use.
type Policy interface {
	// CanTransition reports whether any action lets the role move from current to target
	CanTransition(current, target Status, role Role) bool

	// AvailableActions lists the actions a role may invoke from a status, in declaration order
	AvailableActions(status Status, role Role) []Action

	// Permissions lists the (action, target) pairs a role may invoke from a status
	Permissions(status Status, role Role) []Permission

	// Resolve returns the target status of an action or an *InvalidTransitionError
	Resolve(current Status, role Role, action Action) (Status, error)

	// Validate checks terminal closure and that no non-terminal status is orphaned
	Validate() error
}

// policy implements Policy
type policy struct {
	table map[Status]map[Role][]Permission
}

// CanTransition reports whether any action lets the role move from current to target
func (p *policy) CanTransition(current, target Status, role Role) bool {
	for _, perm := range p.table[current][role] {
		if perm.Target == target {
			return true
		}
	}
	return false
}

// AvailableActions lists the actions a role may invoke from a status
func (p *policy) AvailableActions(status Status, role Role) []Action {
	perms := p.table[status][role]
	actions := make([]Action, 0, len(perms))
	for _, perm := range perms {
		actions = append(actions, perm.Action)
	}
	return actions
}

// Permissions lists the (action, target) pairs a role may invoke from a status
func (p *policy) Permissions(status Status, role Role) []Permission {
	return append([]Permission{}, p.table[status][role]...)
}

// Resolve returns the target status of an action
func (p *policy) Resolve(current Status, role Role, action Action) (Status, error) {
	for _, perm := range p.table[current][role] {
		if perm.Action == action {
			return perm.Target, nil
		}
	}

	return "", &InvalidTransitionError{
		Current: current,
		Role:    role,
		Action:  action,
		Allowed: p.Permissions(current, role),
	}
}

// Validate checks terminal closure and the no-orphan rule
func (p *policy) Validate() error {
	for _, status := range CanonicalStatuses() {
		count := 0
		for _, perms := range p.table[status] {
			count += len(perms)
		}

		if status.IsTerminal() && count > 0 {
			return fmt.Errorf("%w: terminal status %s has %d outgoing transitions", ErrInvalidPolicy, status, count)
		}
		if !status.IsTerminal() && count == 0 {
			return fmt.Errorf("%w: status %s has no outgoing transition", ErrInvalidPolicy, status)
		}
	}
	return nil
}
