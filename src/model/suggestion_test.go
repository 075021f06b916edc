package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildOptionSymbol(t *testing.T) {
	cases := []struct {
		name       string
		underlying string
		expiration string
		optionType string
		strike     float64
		want       string
	}{
		{name: "short underlying", underlying: "AAPL", expiration: "2021-01-15", optionType: "CALL", strike: 50, want: "AAPL  210115C00050000"},
		{name: "put", underlying: "SPY", expiration: "2024-06-21", optionType: "PUT", strike: 430, want: "SPY   240621P00430000"},
		{name: "fractional strike", underlying: "F", expiration: "2024-06-21", optionType: "C", strike: 12.5, want: "F     240621C00012500"},
		{name: "lowercase underlying", underlying: "nvda", expiration: "2024-06-21", optionType: "call", strike: 880, want: "NVDA  240621C00880000"},
		{name: "compact expiration", underlying: "TSLA", expiration: "240621", optionType: "P", strike: 180, want: "TSLA  240621P00180000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildOptionSymbol(tc.underlying, tc.expiration, tc.optionType, tc.strike)
			assert.Equal(t, tc.want, got)
			assert.Len(t, got, 21)
		})
	}
}

func TestQuantity(t *testing.T) {
	equity := TrackedSuggestion{PositionShares: 250}
	assert.Equal(t, 250.0, equity.Quantity())

	defaulted := TrackedSuggestion{}
	assert.Equal(t, 100.0, defaulted.Quantity())

	option := TrackedSuggestion{
		OptionContract:     &OptionContract{Strike: 190, OptionType: "CALL"},
		PositionContracts:  2,
		ContractMultiplier: 100,
	}
	assert.Equal(t, 200.0, option.Quantity())

	optionDefaults := TrackedSuggestion{OptionContract: &OptionContract{Strike: 190, OptionType: "CALL"}}
	assert.Equal(t, 500.0, optionDefaults.Quantity())
}

func TestIsFilledStatus(t *testing.T) {
	assert.True(t, IsFilledStatus("FILLED"))
	assert.True(t, IsFilledStatus("filled"))
	assert.True(t, IsFilledStatus(" Executed "))
	assert.True(t, IsFilledStatus("COMPLETED"))
	assert.False(t, IsFilledStatus("WORKING"))
	assert.False(t, IsFilledStatus(""))
}

func TestIsClosedStatus(t *testing.T) {
	for _, status := range []string{
		SuggestionStatusClosed,
		SuggestionStatusHitTarget,
		SuggestionStatusStoppedOut,
		SuggestionStatusExpired,
		SuggestionStatusCanceled,
	} {
		assert.True(t, IsClosedStatus(status), status)
	}
	assert.False(t, IsClosedStatus(SuggestionStatusActive))
	assert.False(t, IsClosedStatus(""))
}

func TestApplyEntryOrderMergesAdditively(t *testing.T) {
	entered := time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC)
	record := BrokerRecord{
		OrderID:          "1001",
		Status:           "WORKING",
		EnteredTime:      &entered,
		AverageFillPrice: 180.5,
	}

	// a later fetch that omits the fill price and entered time
	record.ApplyEntryOrder(BrokerOrder{
		OrderID:        "1001",
		Status:         "FILLED",
		FilledQuantity: 100,
	})

	assert.Equal(t, "FILLED", record.Status)
	assert.Equal(t, 100.0, record.FilledQuantity)
	assert.Equal(t, 180.5, record.AverageFillPrice)
	assert.NotNil(t, record.EnteredTime)
}

func TestOrderIDFallbackToEvidence(t *testing.T) {
	s := TrackedSuggestion{
		Evidence: &EvidencePacket{OrderID: "ev-1", ExitOrderID: "ev-2"},
	}
	assert.Equal(t, "ev-1", s.EntryOrderID())
	assert.Equal(t, "ev-2", s.ExitOrderID())

	s.Broker = &BrokerRecord{OrderID: "br-1"}
	assert.Equal(t, "br-1", s.EntryOrderID())
	assert.Equal(t, "ev-2", s.ExitOrderID(), "exit id still from evidence until broker knows it")
}

func TestInstrumentSymbol(t *testing.T) {
	equity := TrackedSuggestion{Ticker: "AAPL"}
	assert.Equal(t, "AAPL", equity.InstrumentSymbol())

	option := TrackedSuggestion{
		Ticker:         "AAPL",
		OptionContract: &OptionContract{Strike: 50, Expiration: "2021-01-15", OptionType: "CALL"},
	}
	assert.Equal(t, "AAPL  210115C00050000", option.InstrumentSymbol())

	presupplied := TrackedSuggestion{
		Ticker:         "AAPL",
		OptionContract: &OptionContract{Symbol: "AAPL  210115C00050000"},
	}
	assert.Equal(t, "AAPL  210115C00050000", presupplied.InstrumentSymbol())
}
