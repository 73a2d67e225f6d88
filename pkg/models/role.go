// Package models defines the core domain models for plan-based worker orchestration.
package models

// Role identifies which worker capability executes a step.
type Role string

const (
	RoleAnalyst     Role = "analyst"
	RoleResearcher  Role = "researcher"
	RoleDataAnalyst Role = "data_analyst"
	RoleManager     Role = "manager"
)

// Roles lists every built-in role in declaration order.
func Roles() []Role {
	return []Role{RoleAnalyst, RoleResearcher, RoleDataAnalyst, RoleManager}
}

// ParseRole returns the Role for s, falling back to RoleAnalyst for
// unrecognized values. Orchestrator task routing relies on this fallback.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAnalyst, RoleResearcher, RoleDataAnalyst, RoleManager:
		return Role(s)
	default:
		return RoleAnalyst
	}
}

// AutonomyLevel controls which checkpoints actually block execution.
type AutonomyLevel string

const (
	AutonomyManual         AutonomyLevel = "manual"
	AutonomySemiSupervised AutonomyLevel = "semi_supervised"
	AutonomyAutonomous     AutonomyLevel = "autonomous"
)
