package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SessionState is one run of the five-stage workflow. It is mutated in place
// while the user works through the stages and becomes read-only once saved.
//
// SessionState is not safe for concurrent use; the session controller owns it.
type SessionState struct {
	// ID identifies this run. Reset produces a state with a new ID, which is
	// how late analysis results for a discarded run are recognised.
	ID    uuid.UUID `json:"id"`
	Stage Stage     `json:"stage"`
	Record
}

// NewSessionState returns an empty state at the naming stage.
func NewSessionState() *SessionState {
	return &SessionState{
		ID:    uuid.New(),
		Stage: StageNaming,
	}
}

// Saved reports whether the state has been persisted.
func (s *SessionState) Saved() bool {
	return s.Timestamp != 0
}

// HasSeparation reports whether analysis results have been recorded.
func (s *SessionState) HasSeparation() bool {
	return len(s.Uncontrollable) > 0 || len(s.Controllable) > 0 || len(s.Actions) > 0
}

// ToggleEmotion selects label, or deselects it if already selected.
// Selecting a fourth emotion fails with ErrEmotionLimit and changes nothing.
func (s *SessionState) ToggleEmotion(label string) error {
	if err := s.editable(StageNaming); err != nil {
		return err
	}
	if !IsCatalogEmotion(label) {
		return ErrUnknownEmotion
	}

	for i, e := range s.Emotions {
		if e == label {
			s.Emotions = append(s.Emotions[:i:i], s.Emotions[i+1:]...)
			return nil
		}
	}

	if len(s.Emotions) >= MaxEmotions {
		return ErrEmotionLimit
	}
	s.Emotions = append(s.Emotions, label)
	return nil
}

// SetCustomEmotion sets the free-text emotion label. Surrounding whitespace
// is dropped before the length check.
func (s *SessionState) SetCustomEmotion(text string) error {
	if err := s.editable(StageNaming); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > MaxCustomEmotionLength {
		return ErrCustomEmotionTooLong
	}
	s.CustomEmotion = text
	return nil
}

// SetEvent sets the description of the triggering situation.
func (s *SessionState) SetEvent(text string) error {
	if err := s.editable(StageEvent); err != nil {
		return err
	}
	s.Event = text
	return nil
}

// SetNeed sets the identified need, either a catalog label or free text.
func (s *SessionState) SetNeed(text string) error {
	if err := s.editable(StageNeed); err != nil {
		return err
	}
	s.Need = text
	return nil
}

// SetMinAction sets the smallest immediate step on the action plan.
func (s *SessionState) SetMinAction(text string) error {
	if err := s.editable(StageActionPlan); err != nil {
		return err
	}
	s.MinAction = text
	return nil
}

// Advance moves to the next stage if the current stage's gate passes.
// On failure the state is unchanged.
func (s *SessionState) Advance() error {
	if s.Saved() {
		return ErrSessionSaved
	}
	t, ok := transitions[s.Stage]
	if !ok || t.next == 0 {
		return ErrInvalidTransition
	}
	if t.gate != nil {
		if err := t.gate(s); err != nil {
			return err
		}
	}
	s.Stage = t.next
	return nil
}

// Retreat moves back one stage. Only event→naming and need→event are allowed.
func (s *SessionState) Retreat() error {
	if s.Saved() {
		return ErrSessionSaved
	}
	t, ok := transitions[s.Stage]
	if !ok || t.prev == 0 {
		return ErrInvalidTransition
	}
	s.Stage = t.prev
	return nil
}

// ApplySeparation records analysis results and moves to the separation stage.
// The results are write-once: a second call fails until the state is reset.
func (s *SessionState) ApplySeparation(sep *Separation) error {
	if err := s.editable(StageNeed); err != nil {
		return err
	}
	if strings.TrimSpace(s.Need) == "" {
		return ErrEmptyNeed
	}
	if s.HasSeparation() {
		return ErrSeparationRecorded
	}

	s.Uncontrollable = cloneStrings(sep.Uncontrollable)
	s.Controllable = cloneStrings(sep.Controllable)
	s.Actions = make([]ActionItem, len(sep.Actions))
	copy(s.Actions, sep.Actions)
	s.Stage = StageSeparation
	return nil
}

// AnalysisInputs returns the values sent to the analysis service. The custom
// emotion, when present, is appended to the selected catalog emotions.
func (s *SessionState) AnalysisInputs() (emotions []string, event, need string) {
	emotions = make([]string, 0, len(s.Emotions)+1)
	emotions = append(emotions, s.Emotions...)
	if custom := strings.TrimSpace(s.CustomEmotion); custom != "" {
		emotions = append(emotions, custom)
	}
	return emotions, strings.TrimSpace(s.Event), strings.TrimSpace(s.Need)
}

// MarkSaved assigns the record timestamp. It is only valid on the action plan
// stage and only once.
func (s *SessionState) MarkSaved(timestamp int64) error {
	if s.Saved() {
		return ErrSessionSaved
	}
	if s.Stage != StageActionPlan {
		return ErrWrongStage
	}
	if timestamp <= 0 {
		return ErrInvalidRecord
	}
	s.Timestamp = timestamp
	return nil
}

// Clone returns a deep copy of s.
func (s *SessionState) Clone() *SessionState {
	return &SessionState{
		ID:     s.ID,
		Stage:  s.Stage,
		Record: s.Record.Clone(),
	}
}

func (s *SessionState) editable(stage Stage) error {
	if s.Saved() {
		return ErrSessionSaved
	}
	if s.Stage != stage {
		return ErrWrongStage
	}
	return nil
}
