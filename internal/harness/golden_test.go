package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/osr/internal/objects"
)

// To regenerate golden files:
//
//	go test ./internal/harness -run TestSurveyWithGolden -update
func TestSurveyWithGolden_SmallPark(t *testing.T) {
	require.NoError(t, SurveyWithGolden(t, loadTestScenario(t, "small_park")))
}

func TestSurveyWithGolden_Snapshot(t *testing.T) {
	require.NoError(t, SurveyWithGolden(t, loadTestScenario(t, "small_park_snapshot")))
}

func TestSurvey_ClassifiesSmallPark(t *testing.T) {
	sc := loadTestScenario(t, "small_park")

	survey, err := Survey(sc)
	require.NoError(t, err)

	assert.Equal(t, []string{"coaster.a", "coaster.b"}, survey.Types[objects.Rollercoaster])
	assert.Equal(t, []string{"loo.a"}, survey.Types[objects.OtherStall], "toilets sell nothing")
	assert.Empty(t, survey.Unclassified)
	assert.Equal(t, 5, survey.Probes)
}

func TestSurvey_UsesRuleResearchCategories(t *testing.T) {
	sc := loadTestScenario(t, "load_failure")

	survey, err := Survey(sc)
	require.NoError(t, err)

	assert.Equal(t, []string{"gentle.b"}, survey.Types[objects.Gentle])
	assert.Equal(t, 0, survey.Probes, "gentle.b is known from the rules and coaster.a from research")
}
