package model

import (
	"strings"
	"time"
)

// BrokerProviderSchwab is the only provider wired today. The field stays a
// plain string so other brokers can be recorded without a schema change.
const BrokerProviderSchwab = "SCHWAB"

// Broker order statuses that classify as filled for the terminal
// ACTIVE -> CLOSED transition. Compared case-insensitively.
var filledStatuses = map[string]struct{}{
	"FILLED":    {},
	"EXECUTED":  {},
	"COMPLETED": {},
}

// IsFilledStatus reports whether a raw broker order status counts as a
// completed fill.
func IsFilledStatus(status string) bool {
	_, ok := filledStatuses[strings.ToUpper(strings.TrimSpace(status))]
	return ok
}

// BrokerRecord is the broker-truth overlay on a tracked suggestion.
// All writes go through ApplyEntryOrder/ApplyExitOrder, which merge
// additively: a field absent on the fetched order keeps its prior value.
type BrokerRecord struct {
	Provider    string `json:"provider,omitempty"`
	AccountHash string `json:"accountHash,omitempty"`

	// Entry order
	OrderID           string     `json:"orderId,omitempty"`
	Status            string     `json:"status,omitempty"`
	EnteredTime       *time.Time `json:"enteredTime,omitempty"`
	CloseTime         *time.Time `json:"closeTime,omitempty"`
	FilledQuantity    float64    `json:"filledQuantity,omitempty"`
	RemainingQuantity float64    `json:"remainingQuantity,omitempty"`
	AverageFillPrice  float64    `json:"averageFillPrice,omitempty"`

	// Exit order
	ExitOrderID          string     `json:"exitOrderId,omitempty"`
	ExitStatus           string     `json:"exitStatus,omitempty"`
	ExitCloseTime        *time.Time `json:"exitCloseTime,omitempty"`
	ExitFilledQuantity   float64    `json:"exitFilledQuantity,omitempty"`
	ExitAverageFillPrice float64    `json:"exitAverageFillPrice,omitempty"`

	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
}

// ApplyEntryOrder merges entry-order fields from a fetched broker order.
// Zero values on the order never clear a previously known field.
func (b *BrokerRecord) ApplyEntryOrder(o BrokerOrder) {
	if o.OrderID != "" {
		b.OrderID = o.OrderID
	}
	if o.Status != "" {
		b.Status = o.Status
	}
	if o.EnteredTime != nil {
		b.EnteredTime = o.EnteredTime
	}
	if o.CloseTime != nil {
		b.CloseTime = o.CloseTime
	}
	if o.FilledQuantity != 0 {
		b.FilledQuantity = o.FilledQuantity
	}
	if o.RemainingQuantity != 0 {
		b.RemainingQuantity = o.RemainingQuantity
	}
	if o.AverageFillPrice != 0 {
		b.AverageFillPrice = o.AverageFillPrice
	}
}

// ApplyExitOrder merges exit-order fields, mirroring ApplyEntryOrder.
func (b *BrokerRecord) ApplyExitOrder(o BrokerOrder) {
	if o.OrderID != "" {
		b.ExitOrderID = o.OrderID
	}
	if o.Status != "" {
		b.ExitStatus = o.Status
	}
	if o.CloseTime != nil {
		b.ExitCloseTime = o.CloseTime
	}
	if o.FilledQuantity != 0 {
		b.ExitFilledQuantity = o.FilledQuantity
	}
	if o.AverageFillPrice != 0 {
		b.ExitAverageFillPrice = o.AverageFillPrice
	}
}

// Clone returns a deep copy. Time pointers are shared; they are never
// mutated in place.
func (b *BrokerRecord) Clone() *BrokerRecord {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// BrokerOrder is one order as reported by the broker order feed, already
// flattened out of the raw API payload.
type BrokerOrder struct {
	OrderID           string
	Symbol            string
	AssetType         string
	Status            string
	EnteredTime       *time.Time
	CloseTime         *time.Time
	FilledQuantity    float64
	RemainingQuantity float64
	AverageFillPrice  float64
}

// BrokerPosition is one currently held position from the broker account
// feed.
type BrokerPosition struct {
	Symbol       string
	AssetType    string
	Quantity     float64 // long positive, short negative
	AveragePrice float64
	MarketValue  float64
}

// AccountBalances mirrors the broker's currentBalances block.
type AccountBalances struct {
	CashBalance float64 `json:"cashBalance"`
	BuyingPower float64 `json:"buyingPower"`
	Equity      float64 `json:"equity"`
}

// BrokerTransaction is one realized-P&L-contributing record from the
// broker transaction history.
type BrokerTransaction struct {
	TransactionID string
	Symbol        string
	NetAmount     float64
	TradeDate     time.Time
}

// Quote is a live quote for one symbol. Mark resolution order follows the
// feed: last trade, then mark, then previous close.
type Quote struct {
	Symbol     string  `json:"symbol"`
	LastPrice  float64 `json:"lastPrice,omitempty"`
	Mark       float64 `json:"mark,omitempty"`
	ClosePrice float64 `json:"closePrice,omitempty"`
}

// Price returns the usable mark for the quote, zero when the feed gave
// nothing usable.
func (q Quote) Price() float64 {
	if q.LastPrice > 0 {
		return q.LastPrice
	}
	if q.Mark > 0 {
		return q.Mark
	}
	return q.ClosePrice
}
