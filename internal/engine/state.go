package engine

// Stage is the orchestrator state machine. Transitions run strictly forward
// through the pipeline order; Failed is reachable from every non-terminal
// stage. Done is reached only when Enumerating, Synthesizing, and Assembling
// fully succeeded (Reporting may be partial).
type Stage string

const (
	StageInit         Stage = "init"
	StageEnumerating  Stage = "enumerating"
	StageSynthesizing Stage = "synthesizing"
	StageAssembling   Stage = "assembling"
	StageReporting    Stage = "reporting"
	StageOrganizing   Stage = "organizing"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

var stageOrder = []Stage{
	StageInit,
	StageEnumerating,
	StageSynthesizing,
	StageAssembling,
	StageReporting,
	StageOrganizing,
	StageDone,
}

func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// canTransition reports whether from -> to is a legal state-machine move.
func canTransition(from, to Stage) bool {
	if from.Terminal() {
		return false
	}
	if to == StageFailed {
		return true
	}
	for i, s := range stageOrder {
		if s != from {
			continue
		}
		return i+1 < len(stageOrder) && stageOrder[i+1] == to
	}
	return false
}

// advance moves the tracker one stage forward, checked against the transition
// table. It panics on an illegal move: stage sequencing bugs are programmer
// errors, not runtime conditions.
func (s Stage) advance() Stage {
	for i, st := range stageOrder {
		if st != s {
			continue
		}
		if i+1 >= len(stageOrder) {
			panic("advance past terminal stage " + string(s))
		}
		next := stageOrder[i+1]
		if !canTransition(s, next) {
			panic("illegal transition " + string(s) + " -> " + string(next))
		}
		return next
	}
	panic("advance from unknown stage " + string(s))
}
