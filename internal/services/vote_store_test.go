package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"agreepoll/internal/models"
	"agreepoll/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *VoteStore {
	t.Helper()
	return NewVoteStore(testutil.SetupTestDB(t))
}

func TestRecordVote_FirstVoteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res, err := store.RecordVote(ctx, "1.2.3.4", models.ChoiceAgree)
	require.NoError(t, err)
	assert.Equal(t, Inserted, res)

	agg, err := store.GetAggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Aggregate{Total: 1, Agree: 1, Oppose: 0}, agg)

	res, err = store.RecordVote(ctx, "1.2.3.4", models.ChoiceOppose)
	require.NoError(t, err)
	assert.Equal(t, Ignored, res)

	agg, err = store.GetAggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Aggregate{Total: 1, Agree: 1, Oppose: 0}, agg)

	votes, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, models.ChoiceAgree, votes[0].Choice)
	assert.False(t, votes[0].CreatedAt.IsZero())
}

func TestRecordVote_InvalidInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		ip     string
		choice models.Choice
	}{
		{"empty ip", "", models.ChoiceAgree},
		{"blank ip", "   ", models.ChoiceAgree},
		{"unknown choice", "1.1.1.1", models.Choice("maybe")},
		{"empty choice", "1.1.1.1", models.Choice("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.RecordVote(ctx, tt.ip, tt.choice)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}

	agg, err := store.GetAggregate(ctx)
	require.NoError(t, err)
	assert.Zero(t, agg.Total)
}

func TestGetAggregate_Empty(t *testing.T) {
	store := newTestStore(t)

	agg, err := store.GetAggregate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.Aggregate{}, agg)
	assert.Equal(t, 0, agg.AgreePercent())
	assert.Equal(t, 0, agg.OpposePercent())
}

func TestGetAggregate_TotalIsSumOfChoices(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		choice := models.ChoiceAgree
		if i%3 == 0 {
			choice = models.ChoiceOppose
		}
		_, err := store.RecordVote(ctx, fmt.Sprintf("10.0.0.%d", i), choice)
		require.NoError(t, err)
	}

	agg, err := store.GetAggregate(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(7), agg.Total)
	assert.Equal(t, agg.Total, agg.Agree+agg.Oppose)
	assert.Equal(t, int64(4), agg.Agree)
	assert.Equal(t, int64(3), agg.Oppose)
	assert.Equal(t, 57, agg.AgreePercent())
	assert.Equal(t, 43, agg.OpposePercent())
}

func TestListRecent_NewestFirstAndBounded(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewVoteStore(conn)
	ctx := context.Background()

	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		v := models.Vote{
			IP:        fmt.Sprintf("192.168.0.%d", i),
			Choice:    models.ChoiceAgree,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(&v).Error)
	}

	votes, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, votes, 3)
	assert.Equal(t, "192.168.0.4", votes[0].IP)
	assert.Equal(t, "192.168.0.3", votes[1].IP)
	assert.Equal(t, "192.168.0.2", votes[2].IP)

	votes, err = store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestExportAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var seen []models.Vote
	require.NoError(t, store.ExportAll(ctx, func(v models.Vote) error {
		seen = append(seen, v)
		return nil
	}))
	assert.Empty(t, seen)

	for i := 0; i < 4; i++ {
		_, err := store.RecordVote(ctx, fmt.Sprintf("172.16.0.%d", i), models.ChoiceOppose)
		require.NoError(t, err)
	}

	require.NoError(t, store.ExportAll(ctx, func(v models.Vote) error {
		seen = append(seen, v)
		return nil
	}))
	assert.Len(t, seen, 4)

	agg, err := store.GetAggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(seen)), agg.Total)
}

func TestExportAll_StopsOnCallbackError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.RecordVote(ctx, fmt.Sprintf("172.16.1.%d", i), models.ChoiceAgree)
		require.NoError(t, err)
	}

	stop := errors.New("client went away")
	calls := 0
	err := store.ExportAll(ctx, func(models.Vote) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

// TestRecordVote_ConcurrentSameIP fires many submissions for one address at
// once; exactly one may land.
func TestRecordVote_ConcurrentSameIP(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const attempts = 20
	var inserted atomic.Int32
	var failed atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			choice := models.ChoiceAgree
			if i%2 == 1 {
				choice = models.ChoiceOppose
			}
			res, err := store.RecordVote(ctx, "203.0.113.9", choice)
			if err != nil {
				failed.Add(1)
				return
			}
			if res == Inserted {
				inserted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Zero(t, failed.Load())
	assert.Equal(t, int32(1), inserted.Load())

	agg, err := store.GetAggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.Total)
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
