package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallReleasesPrevious(t *testing.T) {
	store := NewStore()
	first := NewResultSet(1, []File{{Name: "a.gif", Data: []byte("a")}})
	second := NewResultSet(2, []File{{Name: "b.gif", Data: []byte("b")}})

	store.Begin(1)
	assert.Equal(t, GENERATING, store.Snapshot().Phase)
	store.Install(first)
	store.Begin(2)
	store.Install(second)

	assert.True(t, first.Released())
	assert.False(t, second.Released())
	snap := store.Snapshot()
	assert.Equal(t, READY, snap.Phase)
	assert.Same(t, second, snap.Current)

	_, err := store.Lookup(1, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	f, err := store.Lookup(2, 0)
	require.NoError(t, err)
	assert.Equal(t, "b.gif", f.Name)
	_, err = store.Lookup(2, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFailReplacesOutput(t *testing.T) {
	store := NewStore()
	rs := NewResultSet(1, []File{{Name: "a.gif"}})
	store.Install(rs)
	store.Fail(errors.New("encoder exploded"))

	snap := store.Snapshot()
	assert.Equal(t, ERROR, snap.Phase)
	assert.Equal(t, "encoder exploded", snap.Err)
	assert.Nil(t, snap.Current)
	assert.True(t, rs.Released())
}

func TestReleasedResultSet(t *testing.T) {
	rs := NewResultSet(3, []File{{Name: "x.gif", Data: []byte{1}}})
	assert.Equal(t, 1, rs.Len())
	rs.Release()
	_, err := rs.File(0)
	assert.ErrorIs(t, err, ErrReleased)
	assert.Nil(t, rs.Files())
}

func TestCloseReleases(t *testing.T) {
	store := NewStore()
	rs := NewResultSet(1, nil)
	store.Install(rs)
	store.Close()
	assert.True(t, rs.Released())
	assert.Equal(t, IDLE, store.Snapshot().Phase)
}

func TestQueuedRequestReportsGenerating(t *testing.T) {
	store := NewStore()
	store.Queue()
	assert.Equal(t, GENERATING, store.Snapshot().Phase)
	assert.Zero(t, store.Snapshot().Token)

	store.Unqueue()
	assert.Equal(t, IDLE, store.Snapshot().Phase)

	// A batch finishing while a newer request waits keeps the page polling.
	store.Begin(1)
	store.Queue()
	store.Install(NewResultSet(1, nil))
	snap := store.Snapshot()
	assert.Equal(t, GENERATING, snap.Phase)
	assert.Equal(t, uint64(1), snap.Current.Token)

	store.Begin(2)
	store.Unqueue()
	store.Install(NewResultSet(2, nil))
	assert.Equal(t, READY, store.Snapshot().Phase)

	store.Unqueue()
	assert.Equal(t, READY, store.Snapshot().Phase, "unqueue never goes negative")
}

func TestBeginIgnoresOlderTokens(t *testing.T) {
	store := NewStore()
	store.Begin(3)
	store.Begin(2)
	assert.Equal(t, uint64(3), store.Snapshot().Token)

	store.Install(NewResultSet(3, nil))
	assert.Equal(t, READY, store.Snapshot().Phase)
	store.Begin(1)
	assert.Equal(t, READY, store.Snapshot().Phase)
}

func TestAbortKeepsOutput(t *testing.T) {
	store := NewStore()
	rs := NewResultSet(1, nil)
	store.Install(rs)
	store.Begin(2)
	store.Abort()

	snap := store.Snapshot()
	assert.Equal(t, READY, snap.Phase)
	assert.Same(t, rs, snap.Current)
	assert.False(t, rs.Released())
}
