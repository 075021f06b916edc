package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradetracker/src/connectors"
	"tradetracker/src/model"
	"tradetracker/src/repository"
	"tradetracker/src/utils"
)

const (
	minLookbackDays = 1
	maxLookbackDays = 30
	minMaxResults   = 25
	maxMaxResults   = 2000
)

// SuggestionStore is the slice of the suggestion repository the
// reconciler needs.
type SuggestionStore interface {
	Load(ctx context.Context) []model.TrackedSuggestion
	Update(ctx context.Context, id string, patch repository.SuggestionPatch) (*model.TrackedSuggestion, error)
}

// OrderFeed supplies recent broker orders for one account.
type OrderFeed interface {
	ListOrders(ctx context.Context, accountHash string, opts connectors.ListOrdersOptions) ([]model.BrokerOrder, error)
}

// Options controls one reconcile pass. Zero values fall back to the
// configured defaults; out-of-range values are clamped, never rejected.
type Options struct {
	LookbackDays int
	MaxResults   int
}

// Result summarizes one reconcile pass.
type Result struct {
	OK      bool     `json:"ok"`
	Scanned int      `json:"scanned"`
	Matched int      `json:"matched"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

// Reconciler refreshes tracked suggestions against the broker order
// history. Orders are the single source of truth: local records are
// only ever enriched, and a suggestion closes only when the broker
// reports its exit order filled.
type Reconciler struct {
	store       SuggestionStore
	orders      OrderFeed
	exceptions  *repository.ExceptionRepository
	runs        *repository.ReconcileRunRepository
	accountHash string
	config      Config
}

func NewReconciler(store SuggestionStore, orders OrderFeed, exceptions *repository.ExceptionRepository) *Reconciler {
	config := GetConfig()
	return &Reconciler{
		store:       store,
		orders:      orders,
		exceptions:  exceptions,
		accountHash: config.AccountHash,
		config:      config,
	}
}

// WithAccountHash overrides the configured account hash.
func (r *Reconciler) WithAccountHash(hash string) *Reconciler {
	r.accountHash = hash
	return r
}

// WithRunLog enables persisting an audit record per pass.
func (r *Reconciler) WithRunLog(runs *repository.ReconcileRunRepository) *Reconciler {
	r.runs = runs
	return r
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type orderKey struct {
	symbol  string
	orderID string
}

// Reconcile runs one pass: fetch recent orders, match them to tracked
// suggestions by instrument symbol and order id, merge broker fields
// additively, and close suggestions whose exit order filled. A pass
// over unchanged data writes nothing, so back-to-back runs are
// idempotent.
func (r *Reconciler) Reconcile(ctx context.Context, opts Options) Result {
	startedAt := time.Now()
	result := r.reconcile(ctx, opts)
	r.logRun(ctx, startedAt, result)
	return result
}

func (r *Reconciler) reconcile(ctx context.Context, opts Options) Result {
	lookback := opts.LookbackDays
	if lookback == 0 {
		lookback = r.config.LookbackDays
	}
	lookback = clamp(lookback, minLookbackDays, maxLookbackDays)

	maxResults := opts.MaxResults
	if maxResults == 0 {
		maxResults = r.config.MaxResults
	}
	maxResults = clamp(maxResults, minMaxResults, maxMaxResults)

	suggestions := r.store.Load(ctx)

	result := Result{OK: true}
	for i := range suggestions {
		if suggestions[i].EntryOrderID() != "" || suggestions[i].ExitOrderID() != "" {
			result.Scanned++
		}
	}

	orders, err := r.orders.ListOrders(ctx, r.accountHash, connectors.ListOrdersOptions{
		FromTime:   time.Now().AddDate(0, 0, -lookback),
		MaxResults: maxResults,
	})
	if err != nil {
		utils.Capture(ctx, r.exceptions, "tradetracker", "reconciler", "Reconcile", "error", err,
			map[string]interface{}{"lookback_days": lookback, "max_results": maxResults})
		result.OK = false
		result.Errors = append(result.Errors, fmt.Sprintf("list orders: %v", err))
		return result
	}

	lookup := make(map[orderKey]model.BrokerOrder, len(orders))
	for _, o := range orders {
		if o.OrderID == "" {
			continue
		}
		lookup[orderKey{symbol: strings.ToUpper(o.Symbol), orderID: o.OrderID}] = o
	}

	for i := range suggestions {
		s := &suggestions[i]

		entryID := s.EntryOrderID()
		exitID := s.ExitOrderID()
		if entryID == "" && exitID == "" {
			continue
		}

		symbol := strings.ToUpper(s.InstrumentSymbol())

		var entryOrder, exitOrder *model.BrokerOrder
		if entryID != "" {
			if o, ok := lookup[orderKey{symbol: symbol, orderID: entryID}]; ok {
				entryOrder = &o
			}
		}
		if exitID != "" {
			if o, ok := lookup[orderKey{symbol: symbol, orderID: exitID}]; ok {
				exitOrder = &o
			}
		}
		if entryOrder == nil && exitOrder == nil {
			continue
		}
		result.Matched++

		updated, err := r.applyOrders(ctx, s, entryOrder, exitOrder)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("suggestion %s: %v", s.ID, err))
			continue
		}
		if updated {
			result.Updated++
		}
	}

	logger.WithFields(map[string]interface{}{
		"scanned": result.Scanned,
		"matched": result.Matched,
		"updated": result.Updated,
		"errors":  len(result.Errors),
	}).Info("Reconcile pass finished")

	return result
}

// logRun persists the pass audit record when a run log is wired.
func (r *Reconciler) logRun(ctx context.Context, startedAt time.Time, result Result) {
	if r.runs == nil {
		return
	}

	run := &model.ReconcileRun{
		OK:         result.OK,
		Scanned:    result.Scanned,
		Matched:    result.Matched,
		Updated:    result.Updated,
		Errors:     strings.Join(result.Errors, "\n"),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	if err := r.runs.Create(ctx, run); err != nil {
		logger.WithError(err).Warn("Failed to persist reconcile run record")
	}
}

// applyOrders merges the matched orders into the suggestion's broker
// record and persists only when something actually changed.
func (r *Reconciler) applyOrders(ctx context.Context, s *model.TrackedSuggestion, entryOrder, exitOrder *model.BrokerOrder) (bool, error) {
	before, err := json.Marshal(s.Broker)
	if err != nil {
		return false, fmt.Errorf("marshal broker record: %w", err)
	}

	// Provider and account hash are seeded only on a fresh record; an
	// existing record is never rewritten without new broker state.
	broker := s.Broker.Clone()
	if broker == nil {
		broker = &model.BrokerRecord{
			Provider:    model.BrokerProviderSchwab,
			AccountHash: r.accountHash,
		}
	}

	if entryOrder != nil {
		broker.ApplyEntryOrder(*entryOrder)
	}
	if exitOrder != nil {
		broker.ApplyExitOrder(*exitOrder)
	}

	patch := repository.SuggestionPatch{}
	changed := false

	// Terminal transition: ACTIVE -> CLOSED, broker truth only. A
	// suggestion already in a terminal status never reopens or changes
	// status again.
	if !model.IsClosedStatus(s.Status) && model.IsFilledStatus(broker.ExitStatus) {
		closed := model.SuggestionStatusClosed
		patch.Status = &closed
		changed = true

		closedAt := time.Now()
		if broker.ExitCloseTime != nil {
			closedAt = *broker.ExitCloseTime
		}
		patch.ClosedAt = &closedAt

		if p := broker.ExitAverageFillPrice; p != 0 && !math.IsNaN(p) && !math.IsInf(p, 0) {
			patch.ClosedPrice = &p
		}
	}

	now := time.Now()
	broker.LastUpdate = &now
	after, err := json.Marshal(broker)
	if err != nil {
		return false, fmt.Errorf("marshal broker record: %w", err)
	}

	// LastUpdate always moves, so compare everything but it.
	if !brokerEqualIgnoringLastUpdate(before, after) {
		patch.Broker = broker
		changed = true
	}

	if !changed {
		return false, nil
	}

	if _, err := r.store.Update(ctx, s.ID, patch); err != nil {
		utils.Capture(ctx, r.exceptions, "tradetracker", "reconciler", "applyOrders", "error", err,
			map[string]interface{}{"suggestion_id": s.ID})
		return false, err
	}
	return true, nil
}

// brokerEqualIgnoringLastUpdate compares two serialized broker records
// with the lastUpdate stamp stripped out.
func brokerEqualIgnoringLastUpdate(before, after []byte) bool {
	strip := func(raw []byte) []byte {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil || m == nil {
			return raw
		}
		delete(m, "lastUpdate")
		b, err := json.Marshal(m)
		if err != nil {
			return raw
		}
		return b
	}
	return string(strip(before)) == string(strip(after))
}
