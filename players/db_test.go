package players

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveCheckpointAndReload(t *testing.T) {
	dir := t.TempDir()
	db, err := newDatabase(dir)
	require.NoError(t, err)

	require.NoError(t, db.SavePlayer(playerRecord{Username: "alice", PasswordHash: []byte{1, 2}, URL: "http://alice"}))
	records := []playerRecord{
		{Username: "alice", PasswordHash: []byte{1, 2}, URL: "http://alice", Cash: 450, Online: true},
		{Username: "bob", PasswordHash: []byte{3}, URL: "http://bob", Cash: -100},
	}
	require.NoError(t, db.SaveCheckpoint(1, records))
	records[0].Cash = 900
	require.NoError(t, db.SaveCheckpoint(2, records))
	require.NoError(t, db.Close())

	db, err = newDatabase(dir)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	loaded, err := db.Players()
	require.NoError(t, err)
	require.ElementsMatch(t, records, loaded)

	histories, err := db.Histories()
	require.NoError(t, err)
	require.Equal(t, []Point{{Tick: 1, Cash: 450}, {Tick: 2, Cash: 900}}, histories["alice"])
	require.Equal(t, []Point{{Tick: 1, Cash: -100}, {Tick: 2, Cash: -100}}, histories["bob"])

	tick, err := db.LastCheckpoint()
	require.NoError(t, err)
	require.Equal(t, uint(2), tick)
}

func TestHistoryKeyWithSlashInTick(t *testing.T) {
	db, err := newDatabase(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	// 0x2f is '/'.
	require.NoError(t, db.SaveCheckpoint(0x2f2f, []playerRecord{{Username: "a/b", PasswordHash: []byte{4}, Cash: 3}}))

	histories, err := db.Histories()
	require.NoError(t, err)
	require.Equal(t, []Point{{Tick: 0x2f2f, Cash: 3}}, histories["a/b"])
}

func TestLastCheckpointOfEmptyDatabase(t *testing.T) {
	db, err := newDatabase(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	tick, err := db.LastCheckpoint()
	require.NoError(t, err)
	require.Zero(t, tick)
}

func TestSample(t *testing.T) {
	history := []Point{{1, 10}, {2, 20}, {3, 30}, {4, 40}, {5, 50}}
	require.Equal(t, []float64{10, 30, 50}, sample(history, 2))
	require.Equal(t, []float64{10, 40, 50}, sample(history, 3))
	require.Equal(t, []float64{10, 20, 30, 40, 50}, sample(history, 1))
	require.Equal(t, []float64{10, 50}, sample(history, 10))
	require.Empty(t, sample(nil, 10))
}
