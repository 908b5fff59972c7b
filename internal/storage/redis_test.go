package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestStorage(t *testing.T, dataDir string) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	r := NewRedisStorage("redis://"+mr.Addr(), dataDir, time.Hour, testLogger())
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisStorage_SessionRoundTrip(t *testing.T) {
	r, mr := newTestStorage(t, t.TempDir())
	ctx := context.Background()

	sess := playback.NewSession("demo.json")
	sess.State = playback.Snapshot{
		Index: 2,
		Queue: []string{"rest of the line"},
		History: []playback.HistoryEntry{
			{StepIndex: 0, Speaker: "A", Text: "Hi"},
		},
		Current: &playback.View{StepIndex: 1, Text: "first part", Chunk: 1, Chunks: 2},
	}
	require.NoError(t, r.SaveSession(ctx, sess))

	assert.True(t, mr.Exists("session:"+sess.ID.String()))
	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.ID.String()))

	loaded, err := r.LoadSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "demo.json", loaded.Script)
	assert.Equal(t, sess.State.Queue, loaded.State.Queue)
	assert.Equal(t, sess.State.History, loaded.State.History)
	require.NotNil(t, loaded.State.Current)
	assert.Equal(t, "first part", loaded.State.Current.Text)

	require.NoError(t, r.DeleteSession(ctx, sess.ID))
	loaded, err = r.LoadSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_SessionExpires(t *testing.T) {
	r, mr := newTestStorage(t, t.TempDir())
	ctx := context.Background()

	sess := playback.NewSession("demo.json")
	require.NoError(t, r.SaveSession(ctx, sess))
	mr.FastForward(2 * time.Hour)

	loaded, err := r.LoadSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_LoadMissingSession(t *testing.T) {
	r, _ := newTestStorage(t, t.TempDir())

	loaded, err := r.LoadSession(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_LoadCorruptSession(t *testing.T) {
	r, mr := newTestStorage(t, t.TempDir())
	id := uuid.New()
	require.NoError(t, mr.Set("session:"+id.String(), "{not json"))

	_, err := r.LoadSession(context.Background(), id)
	assert.Error(t, err)
}

func TestRedisStorage_SaveNilSession(t *testing.T) {
	r, _ := newTestStorage(t, t.TempDir())
	assert.Error(t, r.SaveSession(context.Background(), nil))
}

func TestRedisStorage_Ping(t *testing.T) {
	r, mr := newTestStorage(t, t.TempDir())
	ctx := context.Background()

	assert.NoError(t, r.Ping(ctx))
	assert.NoError(t, r.waitForConnection(ctx, 2, time.Millisecond))

	mr.Close()
	assert.Error(t, r.Ping(ctx))
	assert.Error(t, r.waitForConnection(ctx, 2, time.Millisecond))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, r.waitForConnection(cancelled, 5, time.Second))
}

func TestNewRedisStorage_PlainAddress(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	r := NewRedisStorage(mr.Addr(), "", 0, testLogger())
	defer func() { _ = r.Close() }()

	assert.NoError(t, r.Ping(context.Background()))
	assert.Equal(t, DefaultSessionTTL, r.sessionTTL)
	assert.Equal(t, "data/scripts", r.scripts.Dir())
}
