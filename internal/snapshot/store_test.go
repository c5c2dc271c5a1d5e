package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
)

func sampleState() *State {
	stopPrice := common.Price(990)
	visible := common.Size(2)

	profile := common.NewUserProfile(1)
	profile.Credit(1, 10_000)
	profile.Positions[7] = &common.PositionRecord{Uid: 1, Symbol: 7, OpenVolumeLong: 3}

	return &State{
		Users: []*common.UserProfile{profile},
		Books: []BookState{
			{
				Spec:           common.DefaultSymbolSpec(7, 1, 2),
				LastTradePrice: 1005,
				RestingOrders: []*common.Order{
					{OrderId: 1, Uid: 1, Price: 1000, Size: 5, Filled: 2, Action: common.Bid, OrderType: common.Iceberg, VisibleSize: &visible},
				},
				StopOrders: []*common.Order{
					{OrderId: 2, Uid: 1, Price: 980, Size: 3, Action: common.Ask, OrderType: common.StopLimit, StopPrice: &stopPrice},
				},
			},
		},
	}
}

func TestEncodeDecodeStateRoundTrip(t *testing.T) {
	want := sampleState()
	raw := encodeState(want)
	got, err := decodeState(raw)
	require.NoError(t, err)

	require.Len(t, got.Users, 1)
	assert.Equal(t, want.Users[0].Uid, got.Users[0].Uid)
	assert.Equal(t, want.Users[0].Balance(1), got.Users[0].Balance(1))
	assert.Equal(t, want.Users[0].Positions[7].OpenVolumeLong, got.Users[0].Positions[7].OpenVolumeLong)

	require.Len(t, got.Books, 1)
	assert.Equal(t, want.Books[0].Spec.SymbolId, got.Books[0].Spec.SymbolId)
	assert.Equal(t, want.Books[0].LastTradePrice, got.Books[0].LastTradePrice)
	require.Len(t, got.Books[0].RestingOrders, 1)
	assert.Equal(t, want.Books[0].RestingOrders[0].OrderId, got.Books[0].RestingOrders[0].OrderId)
	require.NotNil(t, got.Books[0].RestingOrders[0].VisibleSize)
	assert.Equal(t, *want.Books[0].RestingOrders[0].VisibleSize, *got.Books[0].RestingOrders[0].VisibleSize)
	require.Len(t, got.Books[0].StopOrders, 1)
	require.NotNil(t, got.Books[0].StopOrders[0].StopPrice)
	assert.Equal(t, *want.Books[0].StopOrders[0].StopPrice, *got.Books[0].StopOrders[0].StopPrice)
}

func TestStoreSaveAndLoadLatest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(sampleState(), 1))
	require.NoError(t, store.Save(sampleState(), 3))
	require.NoError(t, store.Save(sampleState(), 2))

	got, err := store.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.SeqId)
	require.Len(t, got.Books, 1)
}

func TestLoadLatestNoSnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.LoadLatest()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
