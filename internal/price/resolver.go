package price

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"tweetvault/internal/model"
)

// batchDelay spaces per-symbol lookups in Prices to respect third-party
// rate limits.
const batchDelay = 100 * time.Millisecond

// Resolver answers price lookups through an ordered source chain with a
// short-lived per-symbol cache. Entries are replaced wholesale on refresh.
type Resolver struct {
	sources []Source
	cache   *gocache.Cache
	logger  *zap.Logger
}

func NewResolver(sources []Source, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Resolver{
		sources: sources,
		cache:   gocache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

// Price resolves the current price for a symbol. A fresh cached quote is the
// only fast path; otherwise sources are tried in priority order and the
// first numeric answer wins. When every source fails the returned quote has
// Success=false, Source="none" and a zero price that callers must treat as
// "no price available".
func (r *Resolver) Price(ctx context.Context, symbol string, useCache bool) model.PriceQuote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if useCache {
		if cached, ok := r.cache.Get(symbol); ok {
			quote := cached.(model.PriceQuote)
			r.logger.Debug("price cache hit", zap.String("symbol", symbol))
			return quote
		}
	}

	for _, source := range r.sources {
		value, ts, err := source.Quote(ctx, symbol)
		if err != nil {
			r.logger.Debug("price source failed",
				zap.String("source", source.Name()), zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		quote := model.PriceQuote{
			Symbol:    symbol,
			Price:     value,
			Timestamp: ts.UTC().Format(time.RFC3339),
			Source:    source.Name(),
			Success:   true,
		}
		r.cache.Set(symbol, quote, gocache.DefaultExpiration)

		r.logger.Info("price resolved", zap.String("symbol", symbol),
			zap.Float64("price", value), zap.String("source", source.Name()))
		return quote
	}

	r.logger.Warn("no price source answered", zap.String("symbol", symbol))
	return model.PriceQuote{
		Symbol:    symbol,
		Price:     0,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    "none",
		Success:   false,
	}
}

// Prices resolves a set of symbols with a fixed delay between lookups. The
// delay applies whether or not the cache is consulted, so a forced refresh
// still respects source rate limits.
func (r *Resolver) Prices(ctx context.Context, symbols []string, useCache bool) map[string]model.PriceQuote {
	results := make(map[string]model.PriceQuote, len(symbols))
	for i, symbol := range symbols {
		if i > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(batchDelay):
			}
		}
		results[strings.ToUpper(symbol)] = r.Price(ctx, symbol, useCache)
	}
	return results
}
