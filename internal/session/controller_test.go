package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/phrazzld/clarity-api/internal/analysis"
	"github.com/phrazzld/clarity-api/internal/domain"
	"github.com/phrazzld/clarity-api/internal/domain/objectivity"
	"github.com/phrazzld/clarity-api/internal/mocks"
	"github.com/phrazzld/clarity-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testUser = "lin"

var fixedNow = time.UnixMilli(1_700_000_000_000)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() time.Time { return fixedNow }

func newTestController(t *testing.T, gw analysis.Gateway, st store.HistoryStore, opts Options) *Controller {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	c, err := NewController(testUser, gw, st, opts, testLogger())
	require.NoError(t, err)
	return c
}

// driveToNeed fills stages 1 and 2 and sets a need.
func driveToNeed(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.SelectEmotion("生气"))
	require.NoError(t, c.SetCustomEmotion("憋屈"))
	require.NoError(t, c.Advance())
	_, err := c.SetEvent("同事在会议上没有采纳我的方案")
	require.NoError(t, err)
	require.NoError(t, c.Advance())
	require.NoError(t, c.SetNeed("被尊重"))
}

// driveToActionPlan completes analysis and reaches stage 5.
func driveToActionPlan(t *testing.T, c *Controller) {
	t.Helper()
	driveToNeed(t, c)
	_, err := c.RunAnalysis(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Advance())
	require.NoError(t, c.SetMinAction("先深呼吸三次"))
}

func TestRunAnalysisSuccess(t *testing.T) {
	gw := &mocks.MockGateway{Separation: mocks.SampleSeparation()}
	c := newTestController(t, gw, mocks.NewMockHistoryStore(), Options{})
	driveToNeed(t, c)

	state, err := c.RunAnalysis(context.Background())
	require.NoError(t, err)

	want := mocks.SampleSeparation()
	assert.Equal(t, domain.StageSeparation, state.Stage)
	assert.Empty(t, cmp.Diff(want.Uncontrollable, state.Uncontrollable))
	assert.Empty(t, cmp.Diff(want.Controllable, state.Controllable))
	assert.Empty(t, cmp.Diff(want.Actions, state.Actions))
	assert.Equal(t, domain.StageSeparation, c.Snapshot().Stage)
	assert.False(t, c.Busy())

	emotions, event, need, ok := gw.LastCall()
	require.True(t, ok)
	assert.Equal(t, []string{"生气", "憋屈"}, emotions)
	assert.Equal(t, "同事在会议上没有采纳我的方案", event)
	assert.Equal(t, "被尊重", need)
}

func TestRunAnalysisFailureLeavesStateUnchanged(t *testing.T) {
	failures := []struct {
		name string
		err  error
		want error
	}{
		{name: "transport", err: fmt.Errorf("%w: connection refused", analysis.ErrTransport), want: analysis.ErrTransport},
		{name: "status", err: &analysis.StatusError{StatusCode: http.StatusInternalServerError}, want: analysis.ErrBadStatus},
		{name: "parse", err: analysis.ErrInvalidResponse, want: analysis.ErrInvalidResponse},
		{name: "shape", err: analysis.ErrIncompleteResponse, want: analysis.ErrIncompleteResponse},
		{name: "unclassified", err: errors.New("socket closed"), want: analysis.ErrTransport},
	}

	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			gw := &mocks.MockGateway{Err: tc.err}
			c := newTestController(t, gw, mocks.NewMockHistoryStore(), Options{})
			driveToNeed(t, c)
			before := c.Snapshot()

			state, err := c.RunAnalysis(context.Background())
			assert.Nil(t, state)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, analysis.ErrAnalysis)

			after := c.Snapshot()
			assert.Empty(t, cmp.Diff(before, after))
			assert.Equal(t, domain.StageNeed, after.Stage)
			assert.False(t, c.Busy())

			// the user may retry
			gw.Err = nil
			gw.Separation = mocks.SampleSeparation()
			_, err = c.RunAnalysis(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, gw.CallCount())
		})
	}
}

func TestRunAnalysisNilResult(t *testing.T) {
	c := newTestController(t, &mocks.MockGateway{}, mocks.NewMockHistoryStore(), Options{})
	driveToNeed(t, c)

	_, err := c.RunAnalysis(context.Background())
	assert.ErrorIs(t, err, analysis.ErrInvalidResponse)
	assert.Equal(t, domain.StageNeed, c.Snapshot().Stage)
}

func TestRunAnalysisPreconditions(t *testing.T) {
	gw := &mocks.MockGateway{Separation: mocks.SampleSeparation()}
	c := newTestController(t, gw, mocks.NewMockHistoryStore(), Options{})

	_, err := c.RunAnalysis(context.Background())
	assert.ErrorIs(t, err, domain.ErrWrongStage)

	require.NoError(t, c.SelectEmotion("焦虑"))
	require.NoError(t, c.Advance())
	_, err = c.SetEvent("会议改到了周五")
	require.NoError(t, err)
	require.NoError(t, c.Advance())
	require.NoError(t, c.SetNeed("   "))

	_, err = c.RunAnalysis(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyNeed)
	assert.Zero(t, gw.CallCount())

	// the need stage cannot be left without an analysis
	require.NoError(t, c.SetNeed("确定性"))
	assert.ErrorIs(t, c.Advance(), domain.ErrAnalysisRequired)
}

// blockingGateway returns a gateway that signals started and then waits for
// release or context expiry.
func blockingGateway(started chan<- struct{}, release <-chan struct{}) *mocks.MockGateway {
	return &mocks.MockGateway{
		SeparateFn: func(ctx context.Context, _ []string, _, _ string) (*domain.Separation, error) {
			started <- struct{}{}
			select {
			case <-release:
				return mocks.SampleSeparation(), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

func TestRunAnalysisInProgress(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestController(t, blockingGateway(started, release), mocks.NewMockHistoryStore(), Options{})
	driveToNeed(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.RunAnalysis(context.Background())
		done <- err
	}()
	<-started

	assert.True(t, c.Busy())
	_, err := c.RunAnalysis(context.Background())
	assert.ErrorIs(t, err, ErrAnalysisInProgress)
	assert.ErrorIs(t, c.Advance(), ErrAnalysisInProgress)
	assert.ErrorIs(t, c.Retreat(), ErrAnalysisInProgress)

	// reads stay available while the call is pending
	assert.Equal(t, domain.StageNeed, c.Snapshot().Stage)
	assert.Empty(t, c.History())

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Equal(t, domain.StageSeparation, c.Snapshot().Stage)
}

func TestRunAnalysisStaleAfterReset(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestController(t, blockingGateway(started, release), mocks.NewMockHistoryStore(), Options{})
	driveToNeed(t, c)
	oldID := c.Snapshot().ID

	done := make(chan error, 1)
	go func() {
		_, err := c.RunAnalysis(context.Background())
		done <- err
	}()
	<-started

	fresh := c.Reset()
	assert.NotEqual(t, oldID, fresh.ID)
	assert.False(t, c.Busy())

	close(release)
	assert.ErrorIs(t, <-done, ErrStaleAnalysis)

	snap := c.Snapshot()
	assert.Equal(t, domain.StageNaming, snap.Stage)
	assert.Empty(t, snap.Uncontrollable)
	assert.Empty(t, snap.Controllable)
	assert.Empty(t, snap.Actions)
}

func TestRunAnalysisTimeout(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)

	c := newTestController(t, blockingGateway(started, release), mocks.NewMockHistoryStore(),
		Options{AnalysisTimeout: 20 * time.Millisecond})
	driveToNeed(t, c)

	_, err := c.RunAnalysis(context.Background())
	assert.ErrorIs(t, err, analysis.ErrTimeout)
	assert.ErrorIs(t, err, analysis.ErrAnalysis)
	assert.Equal(t, domain.StageNeed, c.Snapshot().Stage)
	assert.False(t, c.Busy())
}

func TestSetEventReturnsObjectivityHint(t *testing.T) {
	c := newTestController(t, &mocks.MockGateway{}, mocks.NewMockHistoryStore(), Options{})
	require.NoError(t, c.SelectEmotion("委屈"))
	require.NoError(t, c.Advance())

	hint, err := c.SetEvent("他总是针对我")
	require.NoError(t, err)
	assert.Equal(t, objectivity.Hint, hint)

	hint, err = c.SetEvent("同事在会议上没有采纳我的方案")
	require.NoError(t, err)
	assert.Empty(t, hint)

	// wrong stage
	require.NoError(t, c.Retreat())
	_, err = c.SetEvent("x")
	assert.ErrorIs(t, err, domain.ErrWrongStage)
}

func TestSaveAssignsIncreasingTimestamps(t *testing.T) {
	st := mocks.NewMockHistoryStore()
	c := newTestController(t, &mocks.MockGateway{Separation: mocks.SampleSeparation()}, st, Options{})

	var saved []int64
	for i := 0; i < 3; i++ {
		driveToActionPlan(t, c)
		rec, err := c.Save(context.Background(), true)
		require.NoError(t, err)
		saved = append(saved, rec.Timestamp)
	}

	// the clock is frozen, so each save bumps past the previous one
	assert.Equal(t, []int64{fixedNow.UnixMilli(), fixedNow.UnixMilli() + 1, fixedNow.UnixMilli() + 2}, saved)

	history := c.History()
	require.Len(t, history, 3)
	for i := 0; i < len(history)-1; i++ {
		assert.Greater(t, history[i].Timestamp, history[i+1].Timestamp)
	}
	assert.Equal(t, saved[2], history[0].Timestamp)

	keys, err := st.List(context.Background(), store.SessionPrefix(testUser))
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	// save with reset leaves a fresh session
	assert.Equal(t, domain.StageNaming, c.Snapshot().Stage)
}

func TestSaveFreezesSession(t *testing.T) {
	c := newTestController(t, &mocks.MockGateway{Separation: mocks.SampleSeparation()}, mocks.NewMockHistoryStore(), Options{})
	driveToActionPlan(t, c)

	rec, err := c.Save(context.Background(), false)
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.True(t, snap.Saved())
	assert.Equal(t, rec.Timestamp, snap.Timestamp)
	assert.Equal(t, "先深呼吸三次", rec.MinAction)

	assert.ErrorIs(t, c.SetMinAction("another"), domain.ErrSessionSaved)
	_, err = c.Save(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrSessionSaved)
	assert.Len(t, c.History(), 1)

	c.Reset()
	assert.False(t, c.Snapshot().Saved())
}

func TestSaveRequiresActionPlanStage(t *testing.T) {
	st := mocks.NewMockHistoryStore()
	c := newTestController(t, &mocks.MockGateway{Separation: mocks.SampleSeparation()}, st, Options{})
	driveToNeed(t, c)

	_, err := c.Save(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrWrongStage)
	assert.Zero(t, st.Calls("set"))
}

func TestSaveFailureLeavesCacheUntouched(t *testing.T) {
	st := mocks.NewMockHistoryStore()
	boom := errors.New("disk full")
	st.SetFn = func(context.Context, string, []byte) error { return boom }

	c := newTestController(t, &mocks.MockGateway{Separation: mocks.SampleSeparation()}, st, Options{})
	driveToActionPlan(t, c)
	before := c.Snapshot()

	_, err := c.Save(context.Background(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, store.IsStoreError(err))

	assert.Empty(t, c.History())
	assert.Empty(t, cmp.Diff(before, c.Snapshot()))

	// a later attempt succeeds once the store recovers; the failed attempt
	// already used its timestamp
	st.SetFn = nil
	rec, err := c.Save(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli()+1, rec.Timestamp)
	assert.Len(t, c.History(), 1)
}

func TestSaveDoesNotBlockReaders(t *testing.T) {
	st := mocks.NewMockHistoryStore()
	writing := make(chan struct{})
	release := make(chan struct{})
	st.SetFn = func(context.Context, string, []byte) error {
		close(writing)
		<-release
		return nil
	}

	c := newTestController(t, &mocks.MockGateway{Separation: mocks.SampleSeparation()}, st, Options{})
	driveToActionPlan(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Save(context.Background(), false)
		done <- err
	}()
	<-writing

	// reads return while the write is pending, edits are refused
	assert.False(t, c.Busy())
	assert.Equal(t, domain.StageActionPlan, c.Snapshot().Stage)
	assert.False(t, c.Snapshot().Saved())
	assert.ErrorIs(t, c.SetMinAction("改成散步十分钟"), ErrSaveInProgress)
	assert.ErrorIs(t, c.Retreat(), ErrSaveInProgress)

	close(release)
	require.NoError(t, <-done)

	snap := c.Snapshot()
	assert.True(t, snap.Saved())
	assert.Equal(t, "先深呼吸三次", snap.MinAction)
	require.Len(t, c.History(), 1)
	assert.Equal(t, "先深呼吸三次", c.History()[0].MinAction)
}

func TestResetClearsEverything(t *testing.T) {
	stages := []struct {
		name  string
		drive func(t *testing.T, c *Controller)
	}{
		{name: "naming", drive: func(t *testing.T, c *Controller) {
			require.NoError(t, c.SelectEmotion("生气"))
			require.NoError(t, c.SetCustomEmotion("憋屈"))
		}},
		{name: "need", drive: driveToNeed},
		{name: "action plan", drive: driveToActionPlan},
		{name: "saved", drive: func(t *testing.T, c *Controller) {
			driveToActionPlan(t, c)
			_, err := c.Save(context.Background(), false)
			require.NoError(t, err)
		}},
	}

	for _, tc := range stages {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController(t, &mocks.MockGateway{Separation: mocks.SampleSeparation()},
				mocks.NewMockHistoryStore(), Options{})
			tc.drive(t, c)
			oldID := c.Snapshot().ID

			fresh := c.Reset()
			assert.Equal(t, domain.StageNaming, fresh.Stage)
			assert.NotEqual(t, oldID, fresh.ID)
			assert.NotEqual(t, uuid.Nil, fresh.ID)
			assert.Empty(t, cmp.Diff(domain.Record{}, fresh.Record, cmpopts.EquateEmpty()))
		})
	}
}

func TestDeleteHistoryRecord(t *testing.T) {
	ctx := context.Background()
	st := mocks.NewMockHistoryStore()
	c := newTestController(t, &mocks.MockGateway{Separation: mocks.SampleSeparation()}, st, Options{})

	driveToActionPlan(t, c)
	first, err := c.Save(ctx, true)
	require.NoError(t, err)
	driveToActionPlan(t, c)
	second, err := c.Save(ctx, true)
	require.NoError(t, err)

	require.NoError(t, c.DeleteHistoryRecord(ctx, first.Timestamp))

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, second.Timestamp, history[0].Timestamp)
	_, err = st.Get(ctx, store.SessionKey(testUser, first.Timestamp))
	assert.True(t, store.IsNotFoundError(err))

	// a failed delete keeps the record
	boom := errors.New("connection reset")
	st.DeleteFn = func(context.Context, string) error { return boom }
	err = c.DeleteHistoryRecord(ctx, second.Timestamp)
	assert.ErrorIs(t, err, boom)
	assert.True(t, store.IsStoreError(err))
	assert.Len(t, c.History(), 1)

	assert.ErrorIs(t, c.DeleteHistoryRecord(ctx, 0), store.ErrInvalidKey)
}

func seedRecord(t *testing.T, st store.HistoryStore, username string, ts int64, event string) domain.Record {
	t.Helper()
	rec := domain.Record{
		Emotions:       []string{"难过"},
		Event:          event,
		Need:           "被理解",
		Uncontrollable: []string{"u"},
		Controllable:   []string{"c"},
		Actions:        []domain.ActionItem{{Action: "a", Effect: "e"}},
		MinAction:      "m",
		Timestamp:      ts,
	}
	data, err := domain.EncodeRecord(rec)
	require.NoError(t, err)
	require.NoError(t, st.Set(context.Background(), store.SessionKey(username, ts), data))
	return rec
}

func TestLoadHistory(t *testing.T) {
	ctx := context.Background()
	st := mocks.NewMockHistoryStore()

	seedRecord(t, st, testUser, 2000, "second")
	seedRecord(t, st, testUser, 3000, "third")
	seedRecord(t, st, testUser, 1000, "first")
	seedRecord(t, st, "other", 9000, "not mine")
	vanished := seedRecord(t, st, testUser, 1500, "gone")
	require.NoError(t, st.Set(ctx, store.SessionKey(testUser, 2500), []byte("{broken")))
	require.NoError(t, st.Set(ctx, store.SessionPrefix(testUser)+"abc", []byte("{}")))
	require.NoError(t, st.Set(ctx, store.SessionPrefix(testUser)+"x:4000", []byte("{}")))

	vanishedKey := store.SessionKey(testUser, vanished.Timestamp)
	st.GetFn = func(ctx context.Context, key string) ([]byte, error) {
		if key == vanishedKey {
			return nil, store.NewStoreError("record", "get", "missing", store.ErrRecordNotFound)
		}
		return st.Store.Get(ctx, key)
	}

	c := newTestController(t, &mocks.MockGateway{Separation: mocks.SampleSeparation()}, st,
		Options{HistoryLoadConcurrency: 2, Clock: func() time.Time { return time.UnixMilli(10) }})
	records, err := c.LoadHistory(ctx)
	require.NoError(t, err)

	var events []string
	for _, r := range records {
		events = append(events, r.Event)
	}
	assert.Equal(t, []string{"third", "second", "first"}, events)
	assert.True(t, c.HistoryLoaded())

	// a save after load sorts ahead of every loaded record, even with a slow clock
	driveToActionPlan(t, c)
	rec, err := c.Save(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3001), rec.Timestamp)
	assert.Equal(t, rec.Timestamp, c.History()[0].Timestamp)
}

func TestLoadHistoryFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		st := mocks.NewMockHistoryStore()
		st.ListFn = func(context.Context, string) ([]string, error) {
			return nil, errors.New("timeout")
		}
		c := newTestController(t, &mocks.MockGateway{}, st, Options{})
		_, err := c.LoadHistory(ctx)
		assert.True(t, store.IsStoreError(err))
		assert.False(t, c.HistoryLoaded())
	})

	t.Run("get", func(t *testing.T) {
		st := mocks.NewMockHistoryStore()
		seedRecord(t, st, testUser, 1000, "first")
		st.GetFn = func(context.Context, string) ([]byte, error) {
			return nil, errors.New("connection reset")
		}
		c := newTestController(t, &mocks.MockGateway{}, st, Options{})
		_, err := c.LoadHistory(ctx)
		assert.True(t, store.IsStoreError(err))
		assert.Empty(t, c.History())
	})
}

func TestSavedRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := mocks.NewMockHistoryStore()
	gw := &mocks.MockGateway{Separation: mocks.SampleSeparation()}

	c := newTestController(t, gw, st, Options{})
	driveToActionPlan(t, c)
	saved, err := c.Save(ctx, false)
	require.NoError(t, err)

	reloaded := newTestController(t, gw, st, Options{})
	records, err := reloaded.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Empty(t, cmp.Diff(saved, records[0]))
	assert.Empty(t, cmp.Diff(c.Snapshot().Record, records[0]))
}

func TestNewControllerValidation(t *testing.T) {
	st := mocks.NewMockHistoryStore()
	gw := &mocks.MockGateway{}

	_, err := NewController("a", gw, st, Options{}, testLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewController(testUser, nil, st, Options{}, testLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewController(testUser, gw, nil, Options{}, testLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewController(testUser, gw, st, Options{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
