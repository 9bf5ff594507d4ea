package service

import (
	"context"
	"fmt"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/cache"
	"golang-stock-tracker/pkg/common"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"

	"golang.org/x/sync/singleflight"
)

// PriceCache resolves current prices through a shared TTL cache in front of
// the quote provider.
type PriceCache interface {
	// GetPrice returns a fresh cached price, else a provider price, else the
	// stale cached price, else 0. It never fails.
	GetPrice(ctx context.Context, symbol string) float64
	// Prime stores a price fetched elsewhere, e.g. by the alert engine.
	Prime(symbol string, price float64)
}

type cachedPrice struct {
	Price     float64
	FetchedAt time.Time
}

type priceCache struct {
	log       *logger.Logger
	store     cache.Cache
	yahooRepo repository.YahooFinanceRepository
	ttl       time.Duration
	group     singleflight.Group
	now       func() time.Time
}

func NewPriceCache(cfg *config.Config, log *logger.Logger, store cache.Cache, yahooRepo repository.YahooFinanceRepository) PriceCache {
	return &priceCache{
		log:       log,
		store:     store,
		yahooRepo: yahooRepo,
		ttl:       cfg.Cache.PriceTTL,
		now:       utils.TimeNowUTC,
	}
}

func priceKey(symbol string) string {
	return fmt.Sprintf(common.KEY_PRICE_CACHE, symbol)
}

func (p *priceCache) GetPrice(ctx context.Context, symbol string) float64 {
	symbol = utils.NormalizeSymbol(symbol)
	cached, found := cache.GetFromCache[cachedPrice](p.store, priceKey(symbol))
	if found && p.now().Sub(cached.FetchedAt) < p.ttl {
		return cached.Price
	}

	v, err, _ := p.group.Do(symbol, func() (interface{}, error) {
		quote, err := p.yahooRepo.GetQuote(ctx, symbol)
		if err != nil {
			return 0.0, err
		}
		p.Prime(symbol, quote.Price)
		return quote.Price, nil
	})
	if err != nil {
		if found {
			p.log.WarnContext(ctx, "Using stale cached price",
				logger.StringField("symbol", symbol),
				logger.DurationField("age", p.now().Sub(cached.FetchedAt)),
				logger.ErrorField(err),
			)
			return cached.Price
		}
		p.log.WarnContext(ctx, "No price available", logger.StringField("symbol", symbol), logger.ErrorField(err))
		return 0
	}
	return v.(float64)
}

func (p *priceCache) Prime(symbol string, price float64) {
	p.store.Set(priceKey(utils.NormalizeSymbol(symbol)), cachedPrice{Price: price, FetchedAt: p.now()}, cache.NoExpiration)
}
