package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradetracker/src/connectors"
	"tradetracker/src/model"
	"tradetracker/src/repository"
)

type fakeStore struct {
	suggestions []model.TrackedSuggestion
	updateErr   error
	updates     int
}

func (s *fakeStore) Load(_ context.Context) []model.TrackedSuggestion {
	out := make([]model.TrackedSuggestion, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

func (s *fakeStore) Update(_ context.Context, id string, patch repository.SuggestionPatch) (*model.TrackedSuggestion, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	for i := range s.suggestions {
		if s.suggestions[i].ID != id {
			continue
		}
		s.updates++
		if patch.Status != nil {
			s.suggestions[i].Status = *patch.Status
		}
		if patch.ClosedAt != nil {
			s.suggestions[i].ClosedAt = patch.ClosedAt
		}
		if patch.ClosedPrice != nil {
			s.suggestions[i].ClosedPrice = patch.ClosedPrice
		}
		if patch.Broker != nil {
			s.suggestions[i].Broker = patch.Broker
		}
		return &s.suggestions[i], nil
	}
	return nil, nil
}

type fakeOrderFeed struct {
	orders   []model.BrokerOrder
	err      error
	lastOpts connectors.ListOrdersOptions
	calls    int
}

func (f *fakeOrderFeed) ListOrders(_ context.Context, _ string, opts connectors.ListOrdersOptions) ([]model.BrokerOrder, error) {
	f.calls++
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func newTestReconciler(store *fakeStore, feed *fakeOrderFeed) *Reconciler {
	return &Reconciler{
		store:       store,
		orders:      feed,
		accountHash: "hash-1",
		config:      Config{LookbackDays: 7, MaxResults: 500},
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestReconcileClosesOnFilledExit(t *testing.T) {
	closeTime := time.Date(2024, 3, 13, 20, 0, 0, 0, time.UTC)

	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{
			ID:     "sug-1",
			Ticker: "AAPL",
			Status: model.SuggestionStatusActive,
			Broker: &model.BrokerRecord{OrderID: "1001", ExitOrderID: "1002"},
		},
	}}
	feed := &fakeOrderFeed{orders: []model.BrokerOrder{
		{OrderID: "1001", Symbol: "AAPL", Status: "FILLED", FilledQuantity: 100, AverageFillPrice: 180},
		{OrderID: "1002", Symbol: "AAPL", Status: "FILLED", FilledQuantity: 100, AverageFillPrice: 190, CloseTime: timePtr(closeTime)},
	}}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.Errors)

	got := store.suggestions[0]
	assert.Equal(t, model.SuggestionStatusClosed, got.Status)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, got.ClosedAt.Equal(closeTime))
	require.NotNil(t, got.ClosedPrice)
	assert.Equal(t, 190.0, *got.ClosedPrice)
	require.NotNil(t, got.Broker)
	assert.Equal(t, 180.0, got.Broker.AverageFillPrice)
	assert.Equal(t, "FILLED", got.Broker.ExitStatus)

	// second pass over the same broker data is a no-op
	result = r.Reconcile(context.Background(), Options{})
	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 0, result.Updated)
}

func TestReconcileMergeIsAdditive(t *testing.T) {
	entered := time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC)

	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{
			ID:     "sug-1",
			Ticker: "NVDA",
			Status: model.SuggestionStatusActive,
			Broker: &model.BrokerRecord{
				OrderID:          "2001",
				Status:           "WORKING",
				EnteredTime:      &entered,
				AverageFillPrice: 875.5,
			},
		},
	}}
	// broker now reports the order filled but omits the fill price
	feed := &fakeOrderFeed{orders: []model.BrokerOrder{
		{OrderID: "2001", Symbol: "NVDA", Status: "FILLED", FilledQuantity: 50},
	}}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.Equal(t, 1, result.Updated)

	got := store.suggestions[0].Broker
	require.NotNil(t, got)
	assert.Equal(t, "FILLED", got.Status)
	assert.Equal(t, 50.0, got.FilledQuantity)
	assert.Equal(t, 875.5, got.AverageFillPrice, "absent fields must not be cleared")
	require.NotNil(t, got.EnteredTime)
	assert.True(t, got.EnteredTime.Equal(entered))

	// no exit order filled, so the suggestion stays active
	assert.Equal(t, model.SuggestionStatusActive, store.suggestions[0].Status)
}

func TestReconcileTerminalStatusNeverReopens(t *testing.T) {
	closedAt := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	closedPrice := 55.0

	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{
			ID:          "sug-1",
			Ticker:      "TSLA",
			Status:      model.SuggestionStatusStoppedOut,
			ClosedAt:    &closedAt,
			ClosedPrice: &closedPrice,
			Broker: &model.BrokerRecord{
				OrderID:     "3001",
				Status:      "FILLED",
				ExitOrderID: "3002",
				ExitStatus:  "FILLED",
			},
		},
	}}
	feed := &fakeOrderFeed{orders: []model.BrokerOrder{
		{OrderID: "3002", Symbol: "TSLA", Status: "FILLED"},
	}}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, model.SuggestionStatusStoppedOut, store.suggestions[0].Status)
	require.NotNil(t, store.suggestions[0].ClosedAt)
	assert.True(t, store.suggestions[0].ClosedAt.Equal(closedAt))
}

func TestReconcileMatchesOptionContractSymbol(t *testing.T) {
	occ := model.BuildOptionSymbol("AAPL", "2024-06-21", "CALL", 190)

	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{
			ID:     "sug-1",
			Ticker: "AAPL",
			Status: model.SuggestionStatusActive,
			OptionContract: &model.OptionContract{
				Expiration: "2024-06-21",
				OptionType: "CALL",
				Strike:     190,
			},
			Broker: &model.BrokerRecord{OrderID: "4001"},
		},
	}}
	feed := &fakeOrderFeed{orders: []model.BrokerOrder{
		{OrderID: "4001", Symbol: occ, AssetType: "OPTION", Status: "FILLED", AverageFillPrice: 3.2},
	}}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 3.2, store.suggestions[0].Broker.AverageFillPrice)
}

func TestReconcileOrderFetchFailure(t *testing.T) {
	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{ID: "sug-1", Ticker: "AAPL", Status: model.SuggestionStatusActive, Broker: &model.BrokerRecord{OrderID: "6001"}},
		{ID: "sug-2", Ticker: "NVDA", Status: model.SuggestionStatusActive, Broker: &model.BrokerRecord{OrderID: "6002"}},
	}}
	feed := &fakeOrderFeed{err: errors.New("schwab unavailable")}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.False(t, result.OK)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 0, result.Matched)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "schwab unavailable")
	assert.Equal(t, 0, store.updates)
}

func TestReconcileClampsOptions(t *testing.T) {
	store := &fakeStore{}
	feed := &fakeOrderFeed{}
	r := newTestReconciler(store, feed)

	r.Reconcile(context.Background(), Options{LookbackDays: 365, MaxResults: 1})

	assert.Equal(t, 25, feed.lastOpts.MaxResults)
	oldest := time.Now().AddDate(0, 0, -maxLookbackDays).Add(-time.Minute)
	assert.True(t, feed.lastOpts.FromTime.After(oldest), "lookback must clamp to %d days", maxLookbackDays)

	// zero options fall back to configured defaults
	r.Reconcile(context.Background(), Options{})
	assert.Equal(t, 500, feed.lastOpts.MaxResults)
}

func TestReconcileSkipsUntrackedSuggestions(t *testing.T) {
	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{ID: "sug-1", Ticker: "AAPL", Status: model.SuggestionStatusActive}, // no broker ids at all
	}}
	feed := &fakeOrderFeed{orders: []model.BrokerOrder{
		{OrderID: "5001", Symbol: "AAPL", Status: "FILLED"},
	}}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.True(t, result.OK)
	assert.Equal(t, 0, result.Scanned)
	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 0, result.Updated)
}

func TestReconcileScannedCountsOnlyTracked(t *testing.T) {
	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{ID: "sug-1", Ticker: "AAPL", Status: model.SuggestionStatusActive, Broker: &model.BrokerRecord{OrderID: "7001"}},
		{ID: "sug-2", Ticker: "NVDA", Status: model.SuggestionStatusActive},
		{ID: "sug-3", Ticker: "TSLA", Status: model.SuggestionStatusActive},
	}}
	feed := &fakeOrderFeed{}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Scanned, "only suggestions with a resolvable order id count")
	assert.Equal(t, 0, result.Matched)
}

func TestReconcileFirstPassOverUnchangedRecordWritesNothing(t *testing.T) {
	entered := time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC)

	// Pre-existing record with no provider or account hash, and an
	// order feed reporting exactly the state already recorded.
	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{
			ID:     "sug-1",
			Ticker: "AAPL",
			Status: model.SuggestionStatusActive,
			Broker: &model.BrokerRecord{
				OrderID:          "8001",
				Status:           "FILLED",
				EnteredTime:      &entered,
				FilledQuantity:   100,
				AverageFillPrice: 180,
			},
		},
	}}
	feed := &fakeOrderFeed{orders: []model.BrokerOrder{
		{OrderID: "8001", Symbol: "AAPL", Status: "FILLED", EnteredTime: &entered, FilledQuantity: 100, AverageFillPrice: 180},
	}}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, store.updates)
	assert.Empty(t, store.suggestions[0].Broker.Provider, "seeding defaults must not rewrite an existing record")
}

func TestReconcileSeedsProviderOnFreshRecord(t *testing.T) {
	store := &fakeStore{suggestions: []model.TrackedSuggestion{
		{
			ID:       "sug-1",
			Ticker:   "AAPL",
			Status:   model.SuggestionStatusActive,
			Evidence: &model.EvidencePacket{OrderID: "9001"},
		},
	}}
	feed := &fakeOrderFeed{orders: []model.BrokerOrder{
		{OrderID: "9001", Symbol: "AAPL", Status: "WORKING"},
	}}

	r := newTestReconciler(store, feed)
	result := r.Reconcile(context.Background(), Options{})

	assert.Equal(t, 1, result.Updated)
	got := store.suggestions[0].Broker
	require.NotNil(t, got)
	assert.Equal(t, model.BrokerProviderSchwab, got.Provider)
	assert.Equal(t, "hash-1", got.AccountHash)
}
