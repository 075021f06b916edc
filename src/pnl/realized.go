package pnl

import (
	"math"

	"tradetracker/src/model"
)

// Trade sides used for directional P&L.
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
)

// RealizedPnlUsd returns the dollar P&L crystallized by a closed
// suggestion: (closedPrice - entryPrice) x quantity. Open suggestions
// and closes with a missing entry or exit price contribute zero; a
// zero price there means the figure was never captured, not a free
// trade.
func RealizedPnlUsd(s model.TrackedSuggestion) float64 {
	if !model.IsClosedStatus(s.Status) {
		return 0
	}
	if s.ClosedPrice == nil {
		return 0
	}

	entry := s.EntryPrice
	exit := *s.ClosedPrice
	if entry == 0 || exit == 0 {
		return 0
	}

	pnl := (exit - entry) * s.Quantity()
	if math.IsNaN(pnl) || math.IsInf(pnl, 0) {
		return 0
	}
	return pnl
}

// DirectionalPnlUsd returns the dollar P&L of moving from entry to mark
// for the given side. Shorts profit when the mark drops.
func DirectionalPnlUsd(side string, entry, mark, quantity float64) float64 {
	var pnl float64
	if side == SideShort {
		pnl = (entry - mark) * quantity
	} else {
		pnl = (mark - entry) * quantity
	}
	if math.IsNaN(pnl) || math.IsInf(pnl, 0) {
		return 0
	}
	return pnl
}
