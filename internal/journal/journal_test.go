package journal

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
)

// appendTruncatedFrame simulates a crash mid-write by appending a length
// prefix that claims more payload bytes than actually follow it.
func appendTruncatedFrame(t *testing.T, path string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer f.Close()

	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], 999)
	_, err = f.Write(lenPrefix[:])
	require.NoError(t, err)
	_, err = f.Write([]byte{1, 2, 3})
	require.NoError(t, err)
}

func ptrPrice(p common.Price) *common.Price { return &p }
func ptrSize(s common.Size) *common.Size    { return &s }
func ptrTime(t common.Timestamp) *common.Timestamp { return &t }

func TestCommandRoundTrip(t *testing.T) {
	cases := []*common.Command{
		{
			Command: common.PlaceOrder, Uid: 1, OrderId: 100, Symbol: 5,
			Price: 1000, ReservePrice: 1010, Size: 3, Action: common.Bid,
			OrderType: common.GTC, Timestamp: 42, EventsGroup: 7, ServiceFlags: 1,
		},
		{
			Command: common.PlaceOrder, Uid: 2, OrderId: 101, Symbol: 5,
			Price: 900, Size: 4, Action: common.Ask, OrderType: common.Iceberg,
			VisibleSize: ptrSize(1), Timestamp: 43,
		},
		{
			Command: common.PlaceOrder, Uid: 3, OrderId: 102, Symbol: 5,
			Price: 950, Size: 2, Action: common.Bid, OrderType: common.StopLimit,
			StopPrice: ptrPrice(940), Timestamp: 44,
		},
		{
			Command: common.PlaceOrder, Uid: 4, OrderId: 103, Symbol: 5,
			Price: 960, Size: 1, Action: common.Bid, OrderType: common.GTD,
			ExpireTime: ptrTime(1000), Timestamp: 45,
		},
		{
			Command: common.CancelOrder, Uid: 1, OrderId: 100, Symbol: 5, Timestamp: 46,
		},
	}

	for _, want := range cases {
		buf := encodeCommand(want)
		got, err := decodeCommand(buf)
		require.NoError(t, err)

		assert.Equal(t, want.Command, got.Command)
		assert.Equal(t, want.Uid, got.Uid)
		assert.Equal(t, want.OrderId, got.OrderId)
		assert.Equal(t, want.Symbol, got.Symbol)
		assert.Equal(t, want.Price, got.Price)
		assert.Equal(t, want.ReservePrice, got.ReservePrice)
		assert.Equal(t, want.Size, got.Size)
		assert.Equal(t, want.Action, got.Action)
		assert.Equal(t, want.OrderType, got.OrderType)
		assert.Equal(t, want.Timestamp, got.Timestamp)
		assert.Equal(t, want.EventsGroup, got.EventsGroup)
		assert.Equal(t, want.ServiceFlags, got.ServiceFlags)

		if want.StopPrice == nil {
			assert.Nil(t, got.StopPrice)
		} else {
			require.NotNil(t, got.StopPrice)
			assert.Equal(t, *want.StopPrice, *got.StopPrice)
		}
		if want.VisibleSize == nil {
			assert.Nil(t, got.VisibleSize)
		} else {
			require.NotNil(t, got.VisibleSize)
			assert.Equal(t, *want.VisibleSize, *got.VisibleSize)
		}
		if want.ExpireTime == nil {
			assert.Nil(t, got.ExpireTime)
		} else {
			require.NotNil(t, got.ExpireTime)
			assert.Equal(t, *want.ExpireTime, *got.ExpireTime)
		}
	}
}

func TestWriteAndReplay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.bin")

	w, err := Create(path)
	require.NoError(t, err)

	commands := []*common.Command{
		{Command: common.AddUser, Uid: 1, Timestamp: 1},
		{Command: common.PlaceOrder, Uid: 1, OrderId: 10, Symbol: 1, Price: 100, Size: 5, Action: common.Bid, Timestamp: 2},
		{Command: common.CancelOrder, Uid: 1, OrderId: 10, Symbol: 1, Timestamp: 3},
	}
	for _, cmd := range commands {
		require.NoError(t, w.Append(cmd))
	}
	require.NoError(t, w.Close())

	var replayed []*common.Command
	err = Replay(path, func(cmd *common.Command) {
		replayed = append(replayed, cmd)
	})
	require.NoError(t, err)
	require.Len(t, replayed, 3)

	for i, want := range commands {
		assert.Equal(t, want.Command, replayed[i].Command)
		assert.Equal(t, want.Uid, replayed[i].Uid)
		assert.Equal(t, want.OrderId, replayed[i].OrderId)
		assert.Equal(t, want.Symbol, replayed[i].Symbol)
		assert.Equal(t, want.Price, replayed[i].Price)
		assert.Equal(t, want.Size, replayed[i].Size)
	}
}

func TestReplayMissingFileIsNotAnError(t *testing.T) {
	err := Replay(filepath.Join(t.TempDir(), "does-not-exist.bin"), func(*common.Command) {
		t.Fatal("fn should never be called for a missing journal")
	})
	assert.NoError(t, err)
}

func TestReplayTruncatedTailStopsCleanly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.bin")

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(&common.Command{Command: common.AddUser, Uid: 1}))
	require.NoError(t, w.Close())

	// Append a truncated length-prefixed frame that claims a payload
	// longer than what follows it, simulating a crash mid-write.
	f, err := filepath.Abs(path)
	require.NoError(t, err)
	appendTruncatedFrame(t, f)

	var replayed []*common.Command
	err = Replay(path, func(cmd *common.Command) {
		replayed = append(replayed, cmd)
	})
	require.NoError(t, err)
	assert.Len(t, replayed, 1)
}
