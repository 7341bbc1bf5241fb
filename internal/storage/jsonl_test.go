package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketScope/internal/model"
)

func TestJsonlRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "venues.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	venues, err := s.LoadVenues(ctx)
	require.NoError(t, err)
	assert.Empty(t, venues)

	require.NoError(t, s.PutVenueBatch(ctx, []model.Venue{
		{Address: "a", BaseMint: "SOL", QuoteMint: "USDC", BaseDepositsTotal: 5},
		{Address: "b", BaseMint: "RAY", QuoteMint: "USDC"},
	}))
	require.NoError(t, s.PutVenueBatch(ctx, []model.Venue{
		{Address: "c", BaseMint: "SRM", QuoteMint: "USDT"},
	}))

	venues, err = s.LoadVenues(ctx)
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "c", venues[0].Address)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestJsonlLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"address\":\"a\"}\nnot json\n"), 0o644))

	_, err := NewJsonlStorage(path).LoadVenues(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDecode)
}

type failingSink struct{ err error }

func (f failingSink) PutVenueBatch(context.Context, []model.Venue) error { return f.err }

func TestMultiJoinsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.jsonl")
	boom := errors.New("boom")
	sink := Multi{failingSink{err: boom}, NewJsonlStorage(path)}

	err := sink.PutVenueBatch(context.Background(), []model.Venue{{Address: "a"}})
	assert.ErrorIs(t, err, boom)

	venues, err := NewJsonlStorage(path).LoadVenues(context.Background())
	require.NoError(t, err)
	assert.Len(t, venues, 1)
}
