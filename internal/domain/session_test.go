package domain

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeparation() *Separation {
	return &Separation{
		Uncontrollable: []string{"a", "b", "c"},
		Controllable:   []string{"d", "e", "f"},
		Actions: []ActionItem{
			{Action: "x1", Effect: "y1"},
			{Action: "x2", Effect: "y2"},
			{Action: "x3", Effect: "y3"},
		},
	}
}

// stateAtNeed returns a state that has passed the naming and event gates.
func stateAtNeed(t *testing.T) *SessionState {
	t.Helper()
	s := NewSessionState()
	require.NoError(t, s.ToggleEmotion("焦虑"))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SetEvent("同事在会议上没有采纳我的方案"))
	require.NoError(t, s.Advance())
	require.Equal(t, StageNeed, s.Stage)
	return s
}

func TestNewSessionState(t *testing.T) {
	s := NewSessionState()
	assert.Equal(t, StageNaming, s.Stage)
	assert.NotEqual(t, s.ID, NewSessionState().ID)
	assert.Empty(t, s.Emotions)
	assert.False(t, s.Saved())
	assert.False(t, s.HasSeparation())
}

func TestToggleEmotion(t *testing.T) {
	t.Run("select and deselect", func(t *testing.T) {
		s := NewSessionState()
		require.NoError(t, s.ToggleEmotion("生气"))
		require.NoError(t, s.ToggleEmotion("难过"))
		assert.Equal(t, []string{"生气", "难过"}, s.Emotions)

		require.NoError(t, s.ToggleEmotion("生气"))
		assert.Equal(t, []string{"难过"}, s.Emotions)
	})

	t.Run("fourth selection is rejected", func(t *testing.T) {
		s := NewSessionState()
		for _, e := range []string{"生气", "愤怒", "不安"} {
			require.NoError(t, s.ToggleEmotion(e))
		}
		err := s.ToggleEmotion("焦虑")
		assert.ErrorIs(t, err, ErrEmotionLimit)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, []string{"生气", "愤怒", "不安"}, s.Emotions)

		// deselection is always allowed
		require.NoError(t, s.ToggleEmotion("愤怒"))
		require.NoError(t, s.ToggleEmotion("焦虑"))
		assert.Equal(t, []string{"生气", "不安", "焦虑"}, s.Emotions)
	})

	t.Run("unknown label", func(t *testing.T) {
		s := NewSessionState()
		assert.ErrorIs(t, s.ToggleEmotion("开心"), ErrUnknownEmotion)
		assert.Empty(t, s.Emotions)
	})

	t.Run("only at naming stage", func(t *testing.T) {
		s := NewSessionState()
		require.NoError(t, s.ToggleEmotion("生气"))
		require.NoError(t, s.Advance())
		assert.ErrorIs(t, s.ToggleEmotion("难过"), ErrWrongStage)
	})
}

func TestToggleEmotionNeverExceedsLimit(t *testing.T) {
	catalog := EmotionCatalog()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		s := NewSessionState()
		for step := 0; step < 30; step++ {
			_ = s.ToggleEmotion(catalog[rng.Intn(len(catalog))].Name)

			require.LessOrEqual(t, len(s.Emotions), MaxEmotions)
			seen := make(map[string]bool, len(s.Emotions))
			for _, e := range s.Emotions {
				require.False(t, seen[e], "duplicate emotion %q", e)
				seen[e] = true
			}
		}
	}
}

func TestSetCustomEmotion(t *testing.T) {
	s := NewSessionState()
	require.NoError(t, s.SetCustomEmotion("  说不清的闷  "))
	assert.Equal(t, "说不清的闷", s.CustomEmotion)

	// ten runes is fine, eleven is not
	require.NoError(t, s.SetCustomEmotion("一二三四五六七八九十"))
	assert.ErrorIs(t, s.SetCustomEmotion("一二三四五六七八九十一"), ErrCustomEmotionTooLong)
	assert.Equal(t, "一二三四五六七八九十", s.CustomEmotion)
}

func TestAdvanceFromNaming(t *testing.T) {
	tests := []struct {
		name     string
		emotions []string
		custom   string
		wantErr  error
	}{
		{name: "nothing selected", wantErr: ErrNoEmotion},
		{name: "blank custom", custom: "   ", wantErr: ErrNoEmotion},
		{name: "catalog emotion", emotions: []string{"委屈"}},
		{name: "custom only", custom: "憋屈"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSessionState()
			for _, e := range tc.emotions {
				require.NoError(t, s.ToggleEmotion(e))
			}
			if tc.custom != "" {
				s.CustomEmotion = tc.custom
			}

			err := s.Advance()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, StageNaming, s.Stage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StageEvent, s.Stage)
		})
	}
}

func TestAdvanceFromEvent(t *testing.T) {
	s := NewSessionState()
	require.NoError(t, s.ToggleEmotion("生气"))
	require.NoError(t, s.Advance())

	require.NoError(t, s.SetEvent(" \n\t "))
	assert.ErrorIs(t, s.Advance(), ErrEmptyEvent)
	assert.Equal(t, StageEvent, s.Stage)

	require.NoError(t, s.SetEvent("会议推迟了"))
	require.NoError(t, s.Advance())
	assert.Equal(t, StageNeed, s.Stage)
}

func TestAdvanceFromNeedRequiresAnalysis(t *testing.T) {
	s := stateAtNeed(t)
	assert.ErrorIs(t, s.Advance(), ErrEmptyNeed)

	require.NoError(t, s.SetNeed("被尊重"))
	assert.ErrorIs(t, s.Advance(), ErrAnalysisRequired)
	assert.Equal(t, StageNeed, s.Stage)
}

func TestRetreat(t *testing.T) {
	s := stateAtNeed(t)
	require.NoError(t, s.Retreat())
	assert.Equal(t, StageEvent, s.Stage)
	require.NoError(t, s.Retreat())
	assert.Equal(t, StageNaming, s.Stage)
	assert.ErrorIs(t, s.Retreat(), ErrInvalidTransition)

	// no data is lost going back
	assert.Equal(t, []string{"焦虑"}, s.Emotions)
	assert.Equal(t, "同事在会议上没有采纳我的方案", s.Event)
}

func TestRetreatNotAllowedAfterSeparation(t *testing.T) {
	s := stateAtNeed(t)
	require.NoError(t, s.SetNeed("被理解"))
	require.NoError(t, s.ApplySeparation(sampleSeparation()))

	assert.ErrorIs(t, s.Retreat(), ErrInvalidTransition)
	require.NoError(t, s.Advance())
	assert.Equal(t, StageActionPlan, s.Stage)
	assert.ErrorIs(t, s.Retreat(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Advance(), ErrInvalidTransition)
}

func TestApplySeparation(t *testing.T) {
	s := stateAtNeed(t)
	assert.ErrorIs(t, s.ApplySeparation(sampleSeparation()), ErrEmptyNeed)
	assert.False(t, s.HasSeparation())

	require.NoError(t, s.SetNeed("安全感"))
	sep := sampleSeparation()
	require.NoError(t, s.ApplySeparation(sep))

	assert.Equal(t, StageSeparation, s.Stage)
	assert.Equal(t, sep.Uncontrollable, s.Uncontrollable)
	assert.Equal(t, sep.Controllable, s.Controllable)
	assert.Equal(t, sep.Actions, s.Actions)

	// results are copied, not aliased
	sep.Controllable[0] = "changed"
	assert.Equal(t, "d", s.Controllable[0])

	assert.ErrorIs(t, s.ApplySeparation(sampleSeparation()), ErrWrongStage)
}

func TestAnalysisInputs(t *testing.T) {
	s := stateAtNeed(t)
	s.CustomEmotion = "憋屈"
	require.NoError(t, s.SetNeed(" 被看见 "))

	emotions, event, need := s.AnalysisInputs()
	assert.Equal(t, []string{"焦虑", "憋屈"}, emotions)
	assert.Equal(t, "同事在会议上没有采纳我的方案", event)
	assert.Equal(t, "被看见", need)
}

func TestMarkSaved(t *testing.T) {
	s := stateAtNeed(t)
	assert.ErrorIs(t, s.MarkSaved(1000), ErrWrongStage)

	require.NoError(t, s.SetNeed("确定性"))
	require.NoError(t, s.ApplySeparation(sampleSeparation()))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SetMinAction("先深呼吸三次"))

	assert.ErrorIs(t, s.MarkSaved(0), ErrInvalidRecord)
	require.NoError(t, s.MarkSaved(1000))
	assert.True(t, s.Saved())

	assert.ErrorIs(t, s.MarkSaved(2000), ErrSessionSaved)
	assert.Equal(t, int64(1000), s.Timestamp)
	assert.ErrorIs(t, s.SetMinAction("改一下"), ErrSessionSaved)
	assert.ErrorIs(t, s.Advance(), ErrSessionSaved)
}

func TestClone(t *testing.T) {
	s := stateAtNeed(t)
	require.NoError(t, s.SetNeed("自主权"))
	require.NoError(t, s.ApplySeparation(sampleSeparation()))

	c := s.Clone()
	if diff := cmp.Diff(s, c); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	c.Emotions[0] = "生气"
	c.Actions[0].Action = "changed"
	assert.Equal(t, "焦虑", s.Emotions[0])
	assert.Equal(t, "x1", s.Actions[0].Action)
}

func TestRecordRoundTrip(t *testing.T) {
	s := stateAtNeed(t)
	s.CustomEmotion = "憋屈"
	require.NoError(t, s.SetNeed("公平对待"))
	require.NoError(t, s.ApplySeparation(sampleSeparation()))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SetMinAction("写下三件可以做的事"))
	require.NoError(t, s.MarkSaved(1700000000123))

	data, err := EncodeRecord(s.Record)
	require.NoError(t, err)

	got, err := DecodeRecord(data)
	require.NoError(t, err)
	if diff := cmp.Diff(s.Record, *got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecordRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"emotions":`,
		"missing timestamp": `{"emotions":["生气"],"event":"x"}`,
		"no emotion":        `{"emotions":[],"event":"x","timestamp":1}`,
		"empty event":       `{"emotions":["生气"],"event":"  ","timestamp":1}`,
		"too many emotions": `{"emotions":["a","b","c","d"],"event":"x","timestamp":1}`,
		"duplicate emotion": `{"emotions":["生气","生气"],"event":"x","timestamp":1}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRecord([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestEncodeRecordWritesEmptyLists(t *testing.T) {
	data, err := EncodeRecord(Record{CustomEmotion: "闷", Event: "x", Timestamp: 5})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"emotions":[]`)
	assert.Contains(t, string(data), `"actions":[]`)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "naming", StageNaming.String())
	assert.Equal(t, "action_plan", StageActionPlan.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
	assert.False(t, Stage(0).Valid())
	assert.True(t, StageSeparation.Valid())
}
