package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Suggestion statuses. A suggestion is created ACTIVE and reaches exactly
// one terminal status; reconciliation never moves it back.
const (
	SuggestionStatusActive     = "ACTIVE"
	SuggestionStatusHitTarget  = "HIT_TARGET"
	SuggestionStatusStoppedOut = "STOPPED_OUT"
	SuggestionStatusClosed     = "CLOSED"
	SuggestionStatusExpired    = "EXPIRED"
	SuggestionStatusCanceled   = "CANCELED"
)

// Signal directions as emitted by the strategy layer.
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// Position sizing defaults when the strategy layer did not set them.
const (
	DefaultPositionShares     = 100.0
	DefaultPositionContracts  = 5.0
	DefaultContractMultiplier = 100.0
)

// TrackedSuggestion is one emitted trade idea, paper or broker-confirmed.
// The broker sub-record is the broker-truth overlay maintained by the
// reconciler; everything else is owned by the strategy layer.
type TrackedSuggestion struct {
	ID       string `gorm:"primaryKey;size:64" json:"id"`
	Ticker   string `gorm:"size:20;index" json:"ticker"`
	Strategy string `gorm:"size:100;index" json:"type"`
	Setup    string `gorm:"size:100" json:"setup,omitempty"`
	Regime   string `gorm:"size:50" json:"regime,omitempty"`

	EntryPrice float64 `json:"entryPrice"`

	// Equity sizing. Zero means "use the default".
	PositionShares float64 `json:"positionShares,omitempty"`

	// Option sizing. Only consulted when OptionContract is present.
	PositionContracts  float64 `json:"positionContracts,omitempty"`
	ContractMultiplier float64 `json:"contractMultiplier,omitempty"`

	TargetPrice float64 `json:"targetPrice"`
	StopLoss    float64 `json:"stopLoss"`
	Confidence  float64 `json:"confidence"`

	// SignalAction carries the originating signal direction (BUY/SELL)
	// when the strategy layer provided one.
	SignalAction string `gorm:"size:10" json:"signalAction,omitempty"`

	Status string `gorm:"size:20;index;not null;default:ACTIVE" json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
	ClosedPrice *float64   `json:"closedPrice,omitempty"`

	OptionContract *OptionContract `gorm:"serializer:json" json:"optionContract,omitempty"`
	Broker         *BrokerRecord   `gorm:"serializer:json" json:"broker,omitempty"`
	Evidence       *EvidencePacket `gorm:"serializer:json;column:evidence_packet" json:"evidencePacket,omitempty"`
}

// TableName controls the exact table name for tracked suggestions.
func (TrackedSuggestion) TableName() string {
	return "tracked_suggestions"
}

// OptionContract describes the contract behind an option suggestion.
type OptionContract struct {
	Symbol     string  `json:"symbol,omitempty"`
	Strike     float64 `json:"strike"`
	Expiration string  `json:"expiration"` // YYYY-MM-DD
	DTE        int     `json:"dte,omitempty"`
	Delta      float64 `json:"delta,omitempty"`
	OptionType string  `json:"optionType"` // CALL or PUT
}

// EvidencePacket carries the originating order ids when the broker
// overlay has not been populated yet.
type EvidencePacket struct {
	OrderID     string `json:"orderId,omitempty"`
	ExitOrderID string `json:"exitOrderId,omitempty"`
}

// IsClosedStatus reports whether status counts as closed for realized
// P&L purposes.
func IsClosedStatus(status string) bool {
	switch status {
	case SuggestionStatusClosed,
		SuggestionStatusHitTarget,
		SuggestionStatusStoppedOut,
		SuggestionStatusExpired,
		SuggestionStatusCanceled:
		return true
	}
	return false
}

// IsOption reports whether P&L math should use the contract branch.
func (s *TrackedSuggestion) IsOption() bool {
	return s.OptionContract != nil
}

// Quantity returns the share-equivalent quantity used for dollar P&L.
// Options use contracts x multiplier, equities use shares; either side
// falls back to its default when unset.
func (s *TrackedSuggestion) Quantity() float64 {
	if s.IsOption() {
		contracts := s.PositionContracts
		if contracts <= 0 {
			contracts = DefaultPositionContracts
		}
		mult := s.ContractMultiplier
		if mult <= 0 {
			mult = DefaultContractMultiplier
		}
		return contracts * mult
	}

	shares := s.PositionShares
	if shares <= 0 {
		shares = DefaultPositionShares
	}
	return shares
}

// EntryOrderID resolves the broker entry order id, falling back to the
// evidence packet when the broker overlay is not populated yet.
func (s *TrackedSuggestion) EntryOrderID() string {
	if s.Broker != nil && s.Broker.OrderID != "" {
		return s.Broker.OrderID
	}
	if s.Evidence != nil {
		return s.Evidence.OrderID
	}
	return ""
}

// ExitOrderID resolves the broker exit order id, same fallback rule as
// EntryOrderID.
func (s *TrackedSuggestion) ExitOrderID() string {
	if s.Broker != nil && s.Broker.ExitOrderID != "" {
		return s.Broker.ExitOrderID
	}
	if s.Evidence != nil {
		return s.Evidence.ExitOrderID
	}
	return ""
}

// InstrumentSymbol returns the symbol the broker reports orders under:
// the option contract symbol for option suggestions, the plain ticker
// otherwise. An equity ticker and its option contract are different
// broker-side instruments.
func (s *TrackedSuggestion) InstrumentSymbol() string {
	if s.OptionContract != nil {
		if s.OptionContract.Symbol != "" {
			return s.OptionContract.Symbol
		}
		return BuildOptionSymbol(s.Ticker, s.OptionContract.Expiration,
			s.OptionContract.OptionType, s.OptionContract.Strike)
	}
	return s.Ticker
}

// BuildOptionSymbol formats the 21-character OCC/Schwab option symbol:
// underlying padded to 6, YYMMDD, C or P, strike x1000 padded to 8.
// Example: "AAPL  210115C00050000".
func BuildOptionSymbol(underlying, expiration, optionType string, strike float64) string {
	exp := strings.ReplaceAll(expiration, "-", "")
	if len(exp) == 8 { // YYYYMMDD -> YYMMDD
		exp = exp[2:]
	}

	typePart := "C"
	if strings.HasPrefix(strings.ToUpper(optionType), "P") {
		typePart = "P"
	}

	strikeInt := int64(math.Round(strike * 1000))
	return fmt.Sprintf("%-6s%s%s%08d", strings.ToUpper(underlying), exp, typePart, strikeInt)
}
