package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tradetracker/src/dedup"
	"tradetracker/src/model"
)

// SuggestionUpserter is the slice of the suggestion repository the
// intake needs.
type SuggestionUpserter interface {
	Upsert(ctx context.Context, s *model.TrackedSuggestion) error
}

// Signal is one trade idea arriving from the strategy layer, before it
// becomes a tracked suggestion.
type Signal struct {
	StrategyID  string                `json:"strategyId"`
	Symbol      string                `json:"symbol"`
	Action      string                `json:"action"` // BUY or SELL
	Confidence  float64               `json:"confidence"`
	EntryPrice  float64               `json:"entryPrice"`
	TargetPrice float64               `json:"targetPrice"`
	StopLoss    float64               `json:"stopLoss"`
	Setup       string                `json:"setup,omitempty"`
	Regime      string                `json:"regime,omitempty"`
	Option      *model.OptionContract `json:"optionContract,omitempty"`
}

// IntakeResult reports what happened to one signal.
type IntakeResult struct {
	Accepted   bool
	Suppressed bool
	Reason     string
	Suggestion *model.TrackedSuggestion
}

// Intake sits on the signal-emission path: every incoming signal passes
// the dedup suppressor before it may become a tracked suggestion. The
// suppressor state only advances on signals that actually fire.
type Intake struct {
	logger     *logrus.Entry
	store      SuggestionUpserter
	suppressor *dedup.Suppressor
	config     Config
	now        func() time.Time
}

func NewIntake(logger *logrus.Entry, store SuggestionUpserter, suppressor *dedup.Suppressor) *Intake {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if suppressor == nil {
		suppressor = dedup.NewSuppressor(dedup.DefaultCapacity)
	}

	return &Intake{
		logger:     logger,
		store:      store,
		suppressor: suppressor,
		config:     GetConfig(),
		now:        time.Now,
	}
}

// Process runs one signal through dedup and, when it fires, persists it
// as a new ACTIVE suggestion.
func (i *Intake) Process(ctx context.Context, sig Signal) (IntakeResult, error) {
	if sig.Symbol == "" {
		return IntakeResult{}, fmt.Errorf("signal has no symbol")
	}

	direction := strings.ToUpper(strings.TrimSpace(sig.Action))
	if direction != model.DirectionBuy && direction != model.DirectionSell {
		direction = model.DirectionBuy
	}

	key := dedup.Key(sig.StrategyID, sig.Symbol, direction)
	nowMs := i.now().UnixMilli()

	verdict := i.suppressor.ShouldSuppress(key, nowMs,
		i.config.WindowMinutes, i.config.MinConfidenceDelta, sig.Confidence)
	if verdict.Suppress {
		i.logger.WithFields(logrus.Fields{
			"strategy_id": sig.StrategyID,
			"symbol":      sig.Symbol,
			"direction":   direction,
			"reason":      verdict.Reason,
		}).Info("signal suppressed")
		return IntakeResult{Suppressed: true, Reason: verdict.Reason}, nil
	}

	suggestion := &model.TrackedSuggestion{
		Ticker:         strings.ToUpper(sig.Symbol),
		Strategy:       sig.StrategyID,
		Setup:          sig.Setup,
		Regime:         sig.Regime,
		EntryPrice:     sig.EntryPrice,
		TargetPrice:    sig.TargetPrice,
		StopLoss:       sig.StopLoss,
		Confidence:     sig.Confidence,
		SignalAction:   direction,
		Status:         model.SuggestionStatusActive,
		OptionContract: sig.Option,
	}

	if err := i.store.Upsert(ctx, suggestion); err != nil {
		i.logger.WithError(err).WithFields(logrus.Fields{
			"strategy_id": sig.StrategyID,
			"symbol":      sig.Symbol,
		}).Error("failed to persist suggestion")
		return IntakeResult{}, err
	}

	// the fire only counts once the suggestion is durably stored
	i.suppressor.RecordFire(key, nowMs, sig.Confidence)

	i.logger.WithFields(logrus.Fields{
		"strategy_id":   sig.StrategyID,
		"symbol":        suggestion.Ticker,
		"direction":     direction,
		"suggestion_id": suggestion.ID,
	}).Info("signal accepted")

	return IntakeResult{Accepted: true, Suggestion: suggestion}, nil
}
