package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// ActionItem is one recommended step together with the effect it is expected to have.
type ActionItem struct {
	Action string `json:"action" validate:"required"`
	Effect string `json:"effect" validate:"required"`
}

// Separation is the controllability breakdown produced by the analysis service.
type Separation struct {
	Uncontrollable []string     `json:"uncontrollable" validate:"required,min=1,dive,required"`
	Controllable   []string     `json:"controllable"   validate:"required,min=1,dive,required"`
	Actions        []ActionItem `json:"actions"        validate:"required,min=1,dive"`
}

// Record is the persisted form of a session. Field names match the stored
// JSON documents so that records written by earlier clients still load.
type Record struct {
	Emotions       []string     `json:"emotions"`
	CustomEmotion  string       `json:"customEmotion"`
	Event          string       `json:"event"`
	Need           string       `json:"need"`
	Uncontrollable []string     `json:"uncontrollable"`
	Controllable   []string     `json:"controllable"`
	Actions        []ActionItem `json:"actions"`
	MinAction      string       `json:"minAction"`
	// Timestamp is the save time in Unix milliseconds. Zero while editing.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Emotions = cloneStrings(r.Emotions)
	out.Uncontrollable = cloneStrings(r.Uncontrollable)
	out.Controllable = cloneStrings(r.Controllable)
	if r.Actions != nil {
		out.Actions = make([]ActionItem, len(r.Actions))
		copy(out.Actions, r.Actions)
	}
	return out
}

// Validate checks that a stored record is usable as history.
func (r *Record) Validate() error {
	if r.Timestamp <= 0 {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	if len(r.Emotions) > MaxEmotions {
		return fmt.Errorf("%w: too many emotions", ErrInvalidRecord)
	}
	for i, e := range r.Emotions {
		if slices.Contains(r.Emotions[:i], e) {
			return fmt.Errorf("%w: duplicate emotion %q", ErrInvalidRecord, e)
		}
	}
	if len(r.Emotions) == 0 && strings.TrimSpace(r.CustomEmotion) == "" {
		return fmt.Errorf("%w: no emotion recorded", ErrInvalidRecord)
	}
	if utf8.RuneCountInString(r.CustomEmotion) > MaxCustomEmotionLength {
		return fmt.Errorf("%w: custom emotion too long", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Event) == "" {
		return fmt.Errorf("%w: event is empty", ErrInvalidRecord)
	}
	return nil
}

// EncodeRecord serializes r for storage. Nil lists are written as empty arrays.
func EncodeRecord(r Record) ([]byte, error) {
	out := r.Clone()
	if out.Emotions == nil {
		out.Emotions = []string{}
	}
	if out.Uncontrollable == nil {
		out.Uncontrollable = []string{}
	}
	if out.Controllable == nil {
		out.Controllable = []string{}
	}
	if out.Actions == nil {
		out.Actions = []ActionItem{}
	}
	return json.Marshal(out)
}

// DecodeRecord parses and validates a stored record.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
