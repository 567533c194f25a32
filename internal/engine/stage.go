package engine

// Stage is one resumable step of a run.
type Stage int

const (
	StageListObjects Stage = iota
	StageBuildAssociations
	StageClassifyRides
	StageClassifyNonRides
	StageSourcePreferences
	StageStallBaseline
	StageScanWorld
	StageWorldAssociations
	StagePlanQuantities
	StageUnloadUnused
	StageReconcilePools
	StageLoadObjects
	StageResearchQueue
	StageCleanup
	StageComplete
)

var stageNames = [...]string{
	"list-objects",
	"build-associations",
	"classify-rides",
	"classify-nonrides",
	"source-preferences",
	"stall-baseline",
	"scan-world",
	"world-associations",
	"plan-quantities",
	"unload-unused",
	"reconcile-pools",
	"load-objects",
	"research-queue",
	"cleanup",
	"complete",
}

// Stages lists every stage in execution order.
var Stages = func() []Stage {
	out := make([]Stage, len(stageNames))
	for i := range stageNames {
		out[i] = Stage(i)
	}
	return out
}()

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// StepResult is the outcome of one Step.
type StepResult int

const (
	// Continue means the run has more work; call Step on a later tick.
	Continue StepResult = iota
	// Done means every stage finished.
	Done
	// Fatal means the run stopped on an error; see Run.Err.
	Fatal
)

func (r StepResult) String() string {
	switch r {
	case Continue:
		return "continue"
	case Done:
		return "done"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// stageFunc does a bounded amount of a stage's work and reports whether the
// stage is finished.
type stageFunc func(s *Session) (bool, error)

var stageFuncs = [...]stageFunc{
	StageListObjects:       (*Session).listObjects,
	StageBuildAssociations: (*Session).buildAssociations,
	StageClassifyRides:     (*Session).classifyRides,
	StageClassifyNonRides:  (*Session).classifyNonRides,
	StageSourcePreferences: (*Session).sourcePreferences,
	StageStallBaseline:     (*Session).stallBaseline,
	StageScanWorld:         (*Session).scanWorld,
	StageWorldAssociations: (*Session).worldAssociations,
	StagePlanQuantities:    (*Session).planQuantities,
	StageUnloadUnused:      (*Session).unloadUnused,
	StageReconcilePools:    (*Session).reconcilePools,
	StageLoadObjects:       (*Session).loadObjects,
	StageResearchQueue:     (*Session).researchQueue,
	StageCleanup:           (*Session).cleanup,
	StageComplete:          func(*Session) (bool, error) { return true, nil },
}
