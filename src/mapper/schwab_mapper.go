package mapper

import (
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/externalmodel"
	"tradetracker/src/model"
)

// Schwab timestamps come back in a handful of ISO-8601 shapes depending
// on the endpoint; try them in order.
var schwabTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-07:00",
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

// ParseSchwabTime parses a Schwab timestamp string. Returns nil for a
// blank or unparseable value so callers never write a bogus zero time.
func ParseSchwabTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range schwabTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}

	logger.WithField("raw", raw).Debug("unparseable broker timestamp, dropping")
	return nil
}

// MapOrder flattens a raw Schwab order into the boundary shape the
// reconciler consumes. The instrument symbol comes from the first order
// leg: for option orders that is the option contract symbol, not the
// underlying ticker.
func MapOrder(raw externalmodel.SchwabOrder) model.BrokerOrder {
	o := model.BrokerOrder{
		OrderID:           strconv.FormatInt(raw.OrderID, 10),
		Status:            raw.Status,
		EnteredTime:       ParseSchwabTime(raw.EnteredTime),
		CloseTime:         ParseSchwabTime(raw.CloseTime),
		FilledQuantity:    raw.FilledQuantity,
		RemainingQuantity: raw.RemainingQuantity,
		AverageFillPrice:  averageFillPrice(raw),
	}

	if len(raw.OrderLegCollection) > 0 {
		o.Symbol = raw.OrderLegCollection[0].Instrument.Symbol
		o.AssetType = raw.OrderLegCollection[0].Instrument.AssetType
	}

	return o
}

// averageFillPrice derives the quantity-weighted fill price from the
// order's execution legs, falling back to the order price when no
// executions are reported.
func averageFillPrice(raw externalmodel.SchwabOrder) float64 {
	var qty, notional float64
	for _, activity := range raw.ActivityCollection {
		for _, leg := range activity.ExecutionLegs {
			qty += leg.Quantity
			notional += leg.Quantity * leg.Price
		}
	}

	if qty > 0 {
		return notional / qty
	}
	return raw.Price
}

// MapPositions flattens the account response's position list. Short
// quantities come out negative.
func MapPositions(raw externalmodel.SchwabAccountResponse) []model.BrokerPosition {
	positions := make([]model.BrokerPosition, 0, len(raw.SecuritiesAccount.Positions))

	for _, p := range raw.SecuritiesAccount.Positions {
		qty := p.LongQuantity - p.ShortQuantity
		if qty == 0 {
			continue
		}
		positions = append(positions, model.BrokerPosition{
			Symbol:       p.Instrument.Symbol,
			AssetType:    p.Instrument.AssetType,
			Quantity:     qty,
			AveragePrice: p.AveragePrice,
			MarketValue:  p.MarketValue,
		})
	}

	return positions
}

// MapBalances extracts the currentBalances block.
func MapBalances(raw externalmodel.SchwabAccountResponse) model.AccountBalances {
	b := raw.SecuritiesAccount.CurrentBalances
	return model.AccountBalances{
		CashBalance: b.CashBalance,
		BuyingPower: b.BuyingPower,
		Equity:      b.Equity,
	}
}

// MapTransactions keeps only TRADE activity with a parseable trade date;
// everything else contributes nothing to realized P&L.
func MapTransactions(raws []externalmodel.SchwabTransaction) []model.BrokerTransaction {
	txs := make([]model.BrokerTransaction, 0, len(raws))

	for _, raw := range raws {
		if !strings.EqualFold(raw.Type, "TRADE") {
			continue
		}
		tradeDate := ParseSchwabTime(raw.TradeDate)
		if tradeDate == nil {
			continue
		}

		symbol := ""
		for _, item := range raw.TransferItems {
			if item.Instrument.Symbol != "" {
				symbol = item.Instrument.Symbol
				break
			}
		}

		txs = append(txs, model.BrokerTransaction{
			TransactionID: strconv.FormatInt(raw.ActivityID, 10),
			Symbol:        symbol,
			NetAmount:     raw.NetAmount,
			TradeDate:     *tradeDate,
		})
	}

	return txs
}

// MapQuotes flattens the quotes response map into domain quotes keyed by
// upper-cased symbol.
func MapQuotes(raw map[string]externalmodel.SchwabQuoteEnvelope) map[string]model.Quote {
	quotes := make(map[string]model.Quote, len(raw))

	for symbol, envelope := range raw {
		key := strings.ToUpper(symbol)
		quotes[key] = model.Quote{
			Symbol:     key,
			LastPrice:  envelope.Quote.LastPrice,
			Mark:       envelope.Quote.Mark,
			ClosePrice: envelope.Quote.ClosePrice,
		}
	}

	return quotes
}
