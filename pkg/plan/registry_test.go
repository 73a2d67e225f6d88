package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/testutil"
)

func TestRegistry_RegisterGetHas(t *testing.T) {
	registry := NewRegistry()

	assert.False(t, registry.Has("market-analysis"))

	registry.Register(MarketAnalysis())
	registry.Register(testutil.CreateTestPlan())

	assert.True(t, registry.Has("market-analysis"))
	assert.True(t, registry.Has("test-plan"))

	p, err := registry.Get("market-analysis")
	require.NoError(t, err)
	assert.Equal(t, 6, p.Len())
}

func TestRegistry_GetUnknown(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("no-such-plan")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestRegistry_ListAndClear(t *testing.T) {
	registry := NewRegistry()
	RegisterTemplates(registry)

	names := registry.List()
	assert.ElementsMatch(t, []string{
		"market-analysis",
		"customer-segmentation",
		"process-improvement",
		"technology-assessment",
	}, names)

	registry.Clear()
	assert.Empty(t, registry.List())
}

func TestTemplates_AllValid(t *testing.T) {
	templates := []*models.Plan{
		MarketAnalysis(),
		CustomerSegmentation(),
		ProcessImprovement(),
		TechnologyAssessment(),
	}

	for _, p := range templates {
		assert.NoError(t, p.Validate(), "template %s", p.Name)
	}
}
