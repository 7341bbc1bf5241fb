package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenueIndexLookups(t *testing.T) {
	idx := NewVenueIndex([]Venue{
		{Address: "m1", BaseMint: "SOL", QuoteMint: "USDC"},
		{Address: "m2", BaseMint: "SOL", QuoteMint: "USDT"},
		{Address: "m3", BaseMint: "RAY", QuoteMint: "USDC"},
		{Address: "m1", BaseMint: "SOL", QuoteMint: "USDC", BaseDepositsTotal: 7},
	}, time.Unix(1700000000, 0))

	require.Equal(t, 3, idx.Len())
	assert.Len(t, idx.ByBaseMint("SOL"), 2)
	assert.Len(t, idx.ByQuoteMint("USDC"), 2)
	assert.Empty(t, idx.ByBaseMint("BONK"))

	v, ok := idx.Venue("m1")
	require.True(t, ok)
	assert.Equal(t, uint64(7), v.BaseDepositsTotal)

	assert.Equal(t, map[string]int{"SOL": 2, "RAY": 1}, idx.BaseMintCounts())
}

func TestNilVenueIndex(t *testing.T) {
	var idx *VenueIndex
	_, ok := idx.Venue("x")
	assert.False(t, ok)
	assert.Nil(t, idx.ByBaseMint("SOL"))
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.BaseMintCounts())
}

func TestMessageInstructionAccounts(t *testing.T) {
	msg := &Message{AccountKeys: []string{"a", "b", "prog"}}
	ix := Instruction{ProgramIDIndex: 2, Accounts: []int{0, 1, 9}}

	assert.Equal(t, "prog", msg.ProgramID(ix))
	assert.Equal(t, []string{"a", "b"}, msg.InstructionAccounts(ix))
	assert.Equal(t, "", msg.ProgramID(Instruction{ProgramIDIndex: 5}))
}
