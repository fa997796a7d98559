package streammodule

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu        sync.Mutex
	snapshots [][]SessionSummary
}

func (b *recordingBroadcaster) BroadcastState(snapshot []SessionSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots = append(b.snapshots, snapshot)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.snapshots)
}

func TestStartSessionRejectsSecondStart(t *testing.T) {
	registry := NewRegistry(&recordingBroadcaster{})

	first, err := registry.StartSession(5)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.IsActive())

	second, err := registry.StartSession(5)
	assert.ErrorIs(t, err, ErrSessionActive)
	assert.Nil(t, second)

	sessions := registry.ActiveSessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, uint(5), sessions[0].CameraID)
	assert.Equal(t, first.StartTime, sessions[0].StartTime)
}

func TestConcurrentStartsYieldOneSession(t *testing.T) {
	registry := NewRegistry(&recordingBroadcaster{})

	const attempts = 20
	var wg sync.WaitGroup
	var successes sync.Map
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if session, err := registry.StartSession(1); err == nil {
				successes.Store(n, session.ID)
			}
		}(i)
	}
	wg.Wait()

	var winners int
	successes.Range(func(_, _ interface{}) bool {
		winners++
		return true
	})
	assert.Equal(t, 1, winners)
	assert.Len(t, registry.ActiveSessions(), 1)
}

func TestRestartYieldsDistinctSessionIDs(t *testing.T) {
	registry := NewRegistry(&recordingBroadcaster{})

	first, err := registry.StartSession(3)
	require.NoError(t, err)
	require.NoError(t, registry.StopSession(3))

	second, err := registry.StartSession(3)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.IsActive())
	assert.True(t, second.IsActive())
}

func TestSnapshotKeepsInsertionOrder(t *testing.T) {
	registry := NewRegistry(&recordingBroadcaster{})

	for _, cameraID := range []uint{3, 1, 2} {
		_, err := registry.StartSession(cameraID)
		require.NoError(t, err)
	}

	var ids []uint
	for _, s := range registry.ActiveSessions() {
		ids = append(ids, s.CameraID)
	}
	assert.Equal(t, []uint{3, 1, 2}, ids)

	require.NoError(t, registry.StopSession(1))
	ids = ids[:0]
	for _, s := range registry.ActiveSessions() {
		ids = append(ids, s.CameraID)
	}
	assert.Equal(t, []uint{3, 2}, ids)
}

func TestStopWithoutSessionDoesNotBroadcast(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	registry := NewRegistry(broadcaster)

	err := registry.StopSession(42)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, broadcaster.count())
}

func TestEachMutationBroadcastsExactlyOnce(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	registry := NewRegistry(broadcaster)

	_, err := registry.StartSession(7)
	require.NoError(t, err)
	assert.Equal(t, 1, broadcaster.count())

	// Failed start is not a mutation
	_, err = registry.StartSession(7)
	require.Error(t, err)
	assert.Equal(t, 1, broadcaster.count())

	require.NoError(t, registry.StopSession(7))
	assert.Equal(t, 2, broadcaster.count())
}

func TestStoppedSessionRejectsFrames(t *testing.T) {
	registry := NewRegistry(&recordingBroadcaster{})

	session, err := registry.StartSession(2)
	require.NoError(t, err)

	assert.True(t, session.AppendFrame(Frame{Number: 0, Timestamp: time.Now()}))
	require.NoError(t, registry.StopSession(2))
	assert.False(t, session.AppendFrame(Frame{Number: 1, Timestamp: time.Now()}))
	assert.Equal(t, 1, session.FrameCount())
}
