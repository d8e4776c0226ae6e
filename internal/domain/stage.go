package domain

import (
	"fmt"
	"strings"
)

// Stage is the position of a session in the five-stage workflow.
type Stage int

// Workflow stages, in order.
const (
	StageNaming Stage = iota + 1
	StageEvent
	StageNeed
	StageSeparation
	StageActionPlan
)

var stageNames = map[Stage]string{
	StageNaming:     "naming",
	StageEvent:      "event",
	StageNeed:       "need",
	StageSeparation: "separation",
	StageActionPlan: "action_plan",
}

// String returns the stable name of the stage.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s is one of the five workflow stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// transition describes the edges leaving a stage. A zero next or prev means
// there is no edge in that direction.
type transition struct {
	next Stage
	prev Stage
	gate func(*SessionState) error
}

// transitions is the workflow state machine. Leaving the need stage is gated
// on a completed analysis; ApplySeparation is the normal way through it.
var transitions = map[Stage]transition{
	StageNaming: {
		next: StageEvent,
		gate: func(s *SessionState) error {
			if len(s.Emotions) == 0 && strings.TrimSpace(s.CustomEmotion) == "" {
				return ErrNoEmotion
			}
			return nil
		},
	},
	StageEvent: {
		next: StageNeed,
		prev: StageNaming,
		gate: func(s *SessionState) error {
			if strings.TrimSpace(s.Event) == "" {
				return ErrEmptyEvent
			}
			return nil
		},
	},
	StageNeed: {
		next: StageSeparation,
		prev: StageEvent,
		gate: func(s *SessionState) error {
			if strings.TrimSpace(s.Need) == "" {
				return ErrEmptyNeed
			}
			if !s.HasSeparation() {
				return ErrAnalysisRequired
			}
			return nil
		},
	},
	StageSeparation: {
		next: StageActionPlan,
	},
	StageActionPlan: {},
}
