package autonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maestrohq/maestro/pkg/models"
)

func TestShouldCheckpoint_Manual(t *testing.T) {
	for _, phase := range []string{"design_spec_approval", "internal_step", "anything_at_all", ""} {
		assert.True(t, ShouldCheckpoint(models.AutonomyManual, phase), "phase %q", phase)
	}
}

func TestShouldCheckpoint_Autonomous(t *testing.T) {
	for _, phase := range []string{"design_spec_approval", "deliverable", "internal_step", ""} {
		assert.False(t, ShouldCheckpoint(models.AutonomyAutonomous, phase), "phase %q", phase)
	}
}

func TestShouldCheckpoint_SemiSupervised(t *testing.T) {
	tests := []struct {
		phase string
		want  bool
	}{
		{"design_spec_approval", true},
		{"pre_render", true},
		{"deliverable", true},
		{"phase_transition", true},
		{"final_output", true},
		{"internal_step", false},
		{"intermediate_step", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldCheckpoint(models.AutonomySemiSupervised, tt.phase), "phase %q", tt.phase)
	}
}

func TestShouldCheckpoint_UnknownLevelGatesEverything(t *testing.T) {
	assert.True(t, ShouldCheckpoint(models.AutonomyLevel("mystery"), "internal_step"))
}
