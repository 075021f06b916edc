package risk

import (
	"context"
	"strings"
	"sync"
	"time"

	"tradetracker/src/model"
)

// DefaultQuoteTTL bounds quote fan-out: a summary over many symbols
// reuses marks fetched within this window instead of hammering the
// quote feed.
const DefaultQuoteTTL = 15 * time.Second

// QuotesFetcher is the slice of the broker client the cache needs.
type QuotesFetcher interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error)
}

type cachedQuote struct {
	quote     model.Quote
	fetchedAt time.Time
}

// QuoteCache is a TTL cache in front of the quote feed. It also accepts
// streamed quotes via Put, so a live websocket feed keeps it warm.
type QuoteCache struct {
	mu      sync.Mutex
	fetcher QuotesFetcher
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedQuote
}

func NewQuoteCache(fetcher QuotesFetcher, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteCache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]cachedQuote{},
	}
}

// WithClock overrides the cache clock, for tests.
func (c *QuoteCache) WithClock(now func() time.Time) *QuoteCache {
	c.now = now
	return c
}

// Put stores a streamed quote. Implements the streamer's sink.
func (c *QuoteCache) Put(q model.Quote) {
	if q.Symbol == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[strings.ToUpper(q.Symbol)] = cachedQuote{quote: q, fetchedAt: c.now()}
}

// Get returns quotes for the requested symbols, fetching only the ones
// missing or stale in one batch. A fetch failure still returns whatever
// the cache had, alongside the error.
func (c *QuoteCache) Get(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	out := make(map[string]model.Quote, len(symbols))
	var missing []string

	c.mu.Lock()
	now := c.now()
	for _, raw := range symbols {
		symbol := strings.ToUpper(raw)
		if _, seen := out[symbol]; seen {
			continue
		}
		entry, ok := c.entries[symbol]
		if ok && now.Sub(entry.fetchedAt) < c.ttl {
			out[symbol] = entry.quote
			continue
		}
		missing = append(missing, symbol)
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.fetcher.GetQuotes(ctx, missing)
	if err != nil {
		return out, err
	}

	c.mu.Lock()
	fetchedAt := c.now()
	for symbol, q := range fetched {
		c.entries[symbol] = cachedQuote{quote: q, fetchedAt: fetchedAt}
		out[symbol] = q
	}
	c.mu.Unlock()

	return out, nil
}
