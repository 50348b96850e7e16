// Package progression implements the conversation stage controller and
// rolling scorer. A conversation moves forward through a fixed sequence of
// stages; each inbound message is scored over a sliding window and the
// current stage's exit rules decide whether the conversation advances.
package progression

// Stage is a named phase in a conversation's progression. Stages are
// identified by stable strings so they survive persistence and config files.
type Stage string

const (
	StageInitial   Stage = "initial"
	StageBuilding  Stage = "building"
	StageCommitted Stage = "committed"
	StageTerminal  Stage = "terminal"
)

// stageOrder fixes the forward-only ordering. A stage never regresses.
var stageOrder = map[Stage]int{
	StageInitial:   0,
	StageBuilding:  1,
	StageCommitted: 2,
	StageTerminal:  3,
}

// Order returns the stage's position in the progression, or -1 for an
// unrecognized stage.
func (s Stage) Order() int {
	if o, ok := stageOrder[s]; ok {
		return o
	}
	return -1
}

// IsTerminal reports whether no further exit rules are evaluated for s.
func (s Stage) IsTerminal() bool {
	return s == StageTerminal
}

// IsValid reports whether s is a recognized stage.
func (s Stage) IsValid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Next returns the stage that follows s. ok is false for the terminal
// stage and for unrecognized values.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageInitial:
		return StageBuilding, true
	case StageBuilding:
		return StageCommitted, true
	case StageCommitted:
		return StageTerminal, true
	default:
		return s, false
	}
}

func (s Stage) String() string {
	return string(s)
}

// AllStages returns every stage in progression order.
func AllStages() []Stage {
	return []Stage{StageInitial, StageBuilding, StageCommitted, StageTerminal}
}
