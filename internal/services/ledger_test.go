package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mastercoin/internal/aggregate"
	"mastercoin/internal/amqp"
	"mastercoin/internal/cache"
	"mastercoin/internal/core"
	"mastercoin/internal/sheets"
	"mastercoin/internal/sheets/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishIngestCompleted(ctx context.Context, msg *amqp.IngestCompletedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type failingReader struct{}

func (failingReader) ReadWorkbook(context.Context) (sheets.Workbook, error) {
	return sheets.Workbook{}, sheets.ErrUnsupportedWorkbook
}

func fixtureStore() *memory.Store {
	return memory.New(
		sheets.Sheet{Name: "Map & Details", Rows: []sheets.Row{{"Item Name": "Legend"}}},
		sheets.Sheet{Name: "01 2025", Rows: []sheets.Row{
			{"Section": "Income", "Item Name": "Salary", "Used_Amount": 5000.0},
			{"Section": "Liability", "Item Name": "Borrowed Fund", "Earn_Amount": 1000.0, "Notes": "Loan taken form Maya"},
			{"Section": "Need to Understand !!", "Item Name": "Grocery", "Used_Amount": 800.0},
		}},
		sheets.Sheet{Name: "02 2025", Rows: []sheets.Row{
			{"Section": "Income", "Item Name": "Salary", "Used_Amount": 5000.0},
			{"Section": "Essential !!", "Item Name": "Loan Repayment", "Used_Amount": 1000.0, "Notes": "Repayment of Maya"},
			{"Section": "Essential !!", "Item Name": "ESF", "Budget Amount": 500.0},
		}},
	)
}

func TestLedger_NoDataBeforeIngest(t *testing.T) {
	l := NewLedger()

	_, err := l.Calculate(context.Background(), aggregate.AllMonths)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = l.Months()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = l.Snapshots(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
	_, ok := l.Current()
	assert.False(t, ok)
}

func TestLedger_IngestAndCalculate(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishIngestCompleted", mock.Anything, mock.MatchedBy(func(msg *amqp.IngestCompletedMessage) bool {
		return msg.Source == "memory" && msg.Sheets == 3 && len(msg.Months) == 2
	})).Return(nil).Once()

	l := NewLedger(WithPublisher(pub))
	ds, err := l.Ingest(context.Background(), fixtureStore(), "memory")
	require.NoError(t, err)
	assert.NotEmpty(t, ds.Version)
	assert.Equal(t, []string{"01 2025", "02 2025"}, ds.Months)
	pub.AssertExpectations(t)

	feb, err := l.Calculate(context.Background(), "02 2025")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, feb.Income)
	assert.Equal(t, 500.0, feb.Savings)
	assert.Equal(t, 0.0, feb.Expenses)
	assert.Equal(t, 1000.0, feb.DebtClearance)
	assert.Equal(t, 0.0, feb.Liability)
	require.Len(t, feb.LiabilityBreakdown, 1)
	assert.Equal(t, "Maya", feb.LiabilityBreakdown[0].Name)
	assert.Equal(t, core.StatusCleared, feb.LiabilityBreakdown[0].Status)

	_, err = l.Calculate(context.Background(), "03 2025")
	assert.ErrorIs(t, err, ErrNoData)

	all, err := l.Calculate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, all.Income)
}

func TestLedger_FailedIngestKeepsPreviousDataset(t *testing.T) {
	l := NewLedger()
	first, err := l.Ingest(context.Background(), fixtureStore(), "memory")
	require.NoError(t, err)

	_, err = l.Ingest(context.Background(), failingReader{}, "xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIngestFailed)
	assert.ErrorIs(t, err, sheets.ErrUnsupportedWorkbook)

	current, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, first.Version, current.Version)
}

func TestLedger_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishIngestCompleted", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	l := NewLedger(WithPublisher(pub))
	_, err := l.Ingest(context.Background(), fixtureStore(), "memory")
	require.NoError(t, err)
	pub.AssertNumberOfCalls(t, "PublishIngestCompleted", 1)
}

func TestLedger_CacheIsKeyedByVersion(t *testing.T) {
	lru := cache.NewLRUCache[core.Result](16, time.Minute)
	l := NewLedger(WithCache(lru))
	ctx := context.Background()

	_, err := l.Ingest(ctx, fixtureStore(), "memory")
	require.NoError(t, err)

	_, err = l.Calculate(ctx, "01 2025")
	require.NoError(t, err)
	_, err = l.Calculate(ctx, "01 2025")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), lru.Stats().Hits)
	assert.Equal(t, 1, lru.Size())

	// A new dataset invalidates memoized results.
	store := fixtureStore()
	store.Put(sheets.Sheet{Name: "01 2025", Rows: []sheets.Row{
		{"Section": "Income", "Item Name": "Salary", "Used_Amount": 7000.0},
	}})
	_, err = l.Ingest(ctx, store, "memory")
	require.NoError(t, err)
	assert.Equal(t, 0, lru.Size())

	jan, err := l.Calculate(ctx, "01 2025")
	require.NoError(t, err)
	assert.Equal(t, 7000.0, jan.Income)
}

func TestLedger_Snapshots(t *testing.T) {
	l := NewLedger(WithCache(cache.NewLRUCache[core.Result](16, time.Minute)))
	_, err := l.Ingest(context.Background(), fixtureStore(), "memory")
	require.NoError(t, err)

	snaps, err := l.Snapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "January 2025", snaps[0].Display)
	assert.Equal(t, core.ChronoKey("2025-02"), snaps[1].Chrono)
	assert.Equal(t, 1000.0, snaps[0].Result.Liability)
	assert.Equal(t, 800.0, snaps[0].Result.Expenses)

	for _, s := range snaps {
		direct, err := l.Calculate(context.Background(), s.Month)
		require.NoError(t, err)
		assert.Equal(t, direct, s.Result)
	}
}

func TestLedger_SnapshotsHonorsCancellation(t *testing.T) {
	l := NewLedger()
	_, err := l.Ingest(context.Background(), fixtureStore(), "memory")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Snapshots(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLedger_TrendsAndTransactions(t *testing.T) {
	l := NewLedger()
	_, err := l.Ingest(context.Background(), fixtureStore(), "memory")
	require.NoError(t, err)

	trends, err := l.Trends()
	require.NoError(t, err)
	require.Len(t, trends, 2)
	assert.Equal(t, 1500.0, trends[1].Total)

	txs, err := l.Transactions("01 2025")
	require.NoError(t, err)
	assert.Len(t, txs, 3)
	for _, tx := range txs {
		assert.NoError(t, tx.Validate())
	}

	all, err := l.Transactions(aggregate.AllMonths)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestLedger_ConcurrentReadsDuringIngest(t *testing.T) {
	l := NewLedger(WithCache(cache.NewLRUCache[core.Result](4, time.Minute)))
	ctx := context.Background()
	_, err := l.Ingest(ctx, fixtureStore(), "memory")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = l.Ingest(ctx, fixtureStore(), "memory")
				return
			}
			res, err := l.Calculate(ctx, aggregate.AllMonths)
			if assert.NoError(t, err) {
				assert.Equal(t, 10000.0, res.Income)
			}
		}(i)
	}
	wg.Wait()
}
