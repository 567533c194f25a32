package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/osr/internal/classify"
	"github.com/roach88/osr/internal/objects"
)

// SurveySnapshot is the classification of a scenario's park.
type SurveySnapshot struct {
	ScenarioName string
	Survey       classify.Survey
}

func (s *SurveySnapshot) toCanonicalMap() map[string]any {
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"survey":        s.Survey.Value(),
	}
}

// Survey classifies every object the scenario's park has installed, the
// way the first stages of a run would, without running anything else.
func Survey(sc *Scenario) (classify.Survey, error) {
	m, err := sc.Host()
	if err != nil {
		return classify.Survey{}, fmt.Errorf("failed to build park: %w", err)
	}
	rs, err := sc.ruleSet()
	if err != nil {
		return classify.Survey{}, err
	}
	c := classify.New(&classify.HostProber{Objects: m, Research: m}, rs.ResearchCategories, discardLogger())
	return classify.SurveyHost(c, m), nil
}

// SurveyWithGolden classifies a scenario's park and compares the survey
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func SurveyWithGolden(t *testing.T, sc *Scenario) error {
	t.Helper()

	survey, err := Survey(sc)
	if err != nil {
		return err
	}
	return AssertGolden(t, sc.Name, survey)
}

// AssertGolden compares a survey against the golden file for name.
func AssertGolden(t *testing.T, name string, survey classify.Survey) error {
	t.Helper()

	snapshot := SurveySnapshot{ScenarioName: name, Survey: survey}
	data, err := objects.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
