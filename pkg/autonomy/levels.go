// Package autonomy implements the approval checkpoint policy and the
// pausable checkpoint state machine.
package autonomy

import "github.com/maestrohq/maestro/pkg/models"

// Phases that block under semi-supervised autonomy. Internal phases such as
// "internal_step" or "intermediate_step" pass through ungated.
var semiSupervisedPhases = map[string]struct{}{
	"design_spec_approval": {},
	"pre_render":           {},
	"deliverable":          {},
	"phase_transition":     {},
	"final_output":         {},
}

// ShouldCheckpoint reports whether a phase requires human approval under the
// given autonomy level. Manual gates every phase, autonomous gates none, and
// semi-supervised gates only the designated phase tags.
func ShouldCheckpoint(level models.AutonomyLevel, phase string) bool {
	switch level {
	case models.AutonomyManual:
		return true
	case models.AutonomyAutonomous:
		return false
	case models.AutonomySemiSupervised:
		_, ok := semiSupervisedPhases[phase]

		return ok
	default:
		// Unknown levels gate everything rather than silently running free.
		return true
	}
}

// SemiSupervisedPhases returns the designated phase tags in no particular
// order.
func SemiSupervisedPhases() []string {
	out := make([]string, 0, len(semiSupervisedPhases))
	for phase := range semiSupervisedPhases {
		out = append(out, phase)
	}

	return out
}
