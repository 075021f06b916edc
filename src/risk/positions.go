package risk

import (
	"math"
	"sort"
	"strings"

	"tradetracker/src/model"
)

// PositionRow is one broker-held position marked to market. This is the
// broker-truth counterpart of SummaryRow: it reflects what the account
// actually holds, not what was suggested.
type PositionRow struct {
	Symbol        string  `json:"symbol"`
	AssetType     string  `json:"assetType"`
	Quantity      float64 `json:"quantity"`
	Multiplier    float64 `json:"multiplier"`
	AveragePrice  float64 `json:"averagePrice"`
	CurrentPrice  float64 `json:"currentPrice"`
	MarketValue   float64 `json:"marketValue"`
	CostBasis     float64 `json:"costBasis"`
	UnrealizedUsd float64 `json:"unrealizedUSD"`
	UnrealizedPct float64 `json:"unrealizedPct"`
}

// MarkPositions values broker positions against live quotes. Option
// positions scale by the standard 100 multiplier. When the broker did
// not report a market value, the quote mark fills in; a position with
// neither keeps a zero value rather than a guessed one.
func MarkPositions(positions []model.BrokerPosition, quotes map[string]model.Quote) []PositionRow {
	rows := make([]PositionRow, 0, len(positions))

	for _, p := range positions {
		mult := 1.0
		if strings.EqualFold(p.AssetType, "OPTION") {
			mult = 100.0
		}

		row := PositionRow{
			Symbol:       strings.ToUpper(p.Symbol),
			AssetType:    strings.ToUpper(p.AssetType),
			Quantity:     p.Quantity,
			Multiplier:   mult,
			AveragePrice: p.AveragePrice,
			MarketValue:  p.MarketValue,
			CostBasis:    p.AveragePrice * p.Quantity * mult,
		}

		if row.MarketValue == 0 {
			if q, ok := quotes[row.Symbol]; ok && q.Price() > 0 {
				row.MarketValue = q.Price() * p.Quantity * mult
			}
		}

		if p.Quantity != 0 {
			row.CurrentPrice = row.MarketValue / (p.Quantity * mult)
		} else if q, ok := quotes[row.Symbol]; ok {
			row.CurrentPrice = q.Price()
		}

		row.UnrealizedUsd = row.MarketValue - row.CostBasis
		if row.CostBasis != 0 {
			row.UnrealizedPct = row.UnrealizedUsd / row.CostBasis * 100
		}

		if math.IsNaN(row.UnrealizedUsd) || math.IsInf(row.UnrealizedUsd, 0) {
			row.UnrealizedUsd = 0
			row.UnrealizedPct = 0
		}

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return math.Abs(rows[i].MarketValue) > math.Abs(rows[j].MarketValue)
	})

	return rows
}
