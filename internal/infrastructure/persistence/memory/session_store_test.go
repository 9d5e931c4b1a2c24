package memory

import (
	"context"
	"testing"

	"github.com/campus-connect/campus-bot/internal/domain/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_GetReturnsFreshSession(t *testing.T) {
	store := NewSessionStore()

	sess, err := store.Get(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), sess.ChatID)
	assert.Equal(t, session.StateNone, sess.State)
	assert.Nil(t, sess.UserID)
	assert.False(t, sess.Authenticated())
}

func TestSessionStore_PutThenGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess := session.New(7)
	sess.State = session.StateAwaitingPassword
	sess.SetField("username", "alice")
	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingPassword, got.State)
	assert.Equal(t, "alice", got.Field("username"))
}

func TestSessionStore_GetReturnsCopy(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess := session.New(7)
	sess.SetField("username", "alice")
	require.NoError(t, store.Put(ctx, sess))

	first, err := store.Get(ctx, 7)
	require.NoError(t, err)
	first.SetField("username", "mallory")
	first.State = session.StateAwaitingFeedback

	// Mutations on a returned session are invisible until Put.
	second, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", second.Field("username"))
	assert.Equal(t, session.StateNone, second.State)
}

func TestSessionStore_Clear(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess := session.New(9)
	userID := int64(100)
	sess.UserID = &userID
	require.NoError(t, store.Put(ctx, sess))

	require.NoError(t, store.Clear(ctx, 9))

	got, err := store.Get(ctx, 9)
	require.NoError(t, err)
	assert.False(t, got.Authenticated())
	assert.Equal(t, session.StateNone, got.State)
}
